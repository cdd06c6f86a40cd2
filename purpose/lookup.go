// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

package purpose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// lookupRequest pairs a purpose IRI with a correlation ID and a reply
// channel. Requests are processed out of order; the ID ties each Response
// back to its request.
type lookupRequest struct {
	id    string
	url   string
	reply chan Response
}

// Response is the answer to a single lookup request.
type Response struct {
	ID   string
	Info Info
}

// Lookup resolves purpose IRIs in the background. Known IRIs answer from the
// cache; unknown ones trigger an on-demand dereference of their ontology, a
// fallback path for purposes absent from the preloaded vocabularies.
// Concurrent requests for the same ontology share one fetch; a failed fetch
// is forgotten so a later request retries it.
type Lookup struct {
	cache  *Cache
	deref  *Dereferencer
	logger *slog.Logger

	requests chan lookupRequest
	quit     chan struct{}

	mu      sync.Mutex
	loading map[string]chan struct{}
	loaded  map[string]bool
}

// NewLookup starts the lookup service. Callers must Close it when done.
func NewLookup(cache *Cache, deref *Dereferencer, logger *slog.Logger) *Lookup {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Lookup{
		cache:    cache,
		deref:    deref,
		logger:   logger,
		requests: make(chan lookupRequest),
		quit:     make(chan struct{}),
		loading:  make(map[string]chan struct{}),
		loaded:   make(map[string]bool),
	}
	go l.dispatch()
	return l
}

// Preload dereferences ontologies into the cache up front, the batch
// counterpart of the on-demand path. No arguments loads DefaultOntologies.
// Individual failures are joined and reported but do not stop the remaining
// loads.
func (l *Lookup) Preload(ctx context.Context, urls ...string) error {
	if len(urls) == 0 {
		urls = DefaultOntologies
	}
	var errs []error
	for _, url := range urls {
		if err := l.ensureOntology(ctx, url); err != nil {
			errs = append(errs, fmt.Errorf("purpose: preload %s: %w", url, err))
		}
	}
	return errors.Join(errs...)
}

// Resolve answers the label and definition for one purpose IRI, fetching its
// ontology if necessary. An IRI the vocabulary does not describe resolves to
// an Info with empty label and definition, not an error.
func (l *Lookup) Resolve(ctx context.Context, url string) (Info, error) {
	req := lookupRequest{
		id:    uuid.NewString(),
		url:   url,
		reply: make(chan Response, 1),
	}
	select {
	case l.requests <- req:
	case <-l.quit:
		return Info{}, fmt.Errorf("purpose: lookup service closed")
	case <-ctx.Done():
		return Info{}, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		if resp.ID != req.id {
			return Info{}, fmt.Errorf("purpose: response %s does not match request %s", resp.ID, req.id)
		}
		return resp.Info, nil
	case <-ctx.Done():
		return Info{}, ctx.Err()
	}
}

// Close stops the dispatcher. In-flight requests complete; new ones fail.
func (l *Lookup) Close() {
	close(l.quit)
}

func (l *Lookup) dispatch() {
	for {
		select {
		case <-l.quit:
			return
		case req := <-l.requests:
			go l.handle(req)
		}
	}
}

func (l *Lookup) handle(req lookupRequest) {
	if _, ok := l.cache.Get(req.url); !ok {
		// The ontology document lives at the IRI without its fragment.
		base, _, _ := strings.Cut(req.url, "#")
		if err := l.ensureOntology(context.Background(), base); err != nil {
			l.logger.Debug("ontology load failed", "url", base, "error", err)
		}
	}
	info, _ := l.cache.Get(req.url)
	req.reply <- Response{ID: req.id, Info: info}
}

// ensureOntology loads an ontology at most once. Waiters on an in-flight
// load block until it settles; a failed load is removed from the registry so
// the next request retries it.
func (l *Lookup) ensureOntology(ctx context.Context, url string) error {
	l.mu.Lock()
	if l.loaded[url] {
		l.mu.Unlock()
		return nil
	}
	if ch, ok := l.loading[url]; ok {
		l.mu.Unlock()
		<-ch
		l.mu.Lock()
		done := l.loaded[url]
		l.mu.Unlock()
		if done {
			return nil
		}
		return fmt.Errorf("purpose: ontology load for %s failed", url)
	}
	ch := make(chan struct{})
	l.loading[url] = ch
	l.mu.Unlock()

	err := l.deref.AddToCache(ctx, url, l.cache)

	l.mu.Lock()
	delete(l.loading, url)
	if err == nil {
		l.loaded[url] = true
	}
	l.mu.Unlock()
	close(ch)
	return err
}
