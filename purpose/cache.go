// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

// Package purpose resolves purpose IRIs to human-readable labels and
// definitions from SKOS vocabularies. Labels are cached for the session with
// first-writer-wins semantics: the first non-empty value found for an IRI
// sticks, and later writes are no-ops. That makes concurrent cache fills safe
// without coordination beyond the cache's own lock.
package purpose

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/knakk/rdf"
)

// SKOS is the vocabulary namespace the dereferencer filters for.
const SKOS = "http://www.w3.org/2004/02/skos/core#"

const (
	prefLabelPredicate  = SKOS + "prefLabel"
	definitionPredicate = SKOS + "definition"
)

// DefaultOntologies is the set of vocabularies preloaded into the cache.
var DefaultOntologies = []string{"https://w3id.org/dpv"}

// Info is the resolved display data for one purpose IRI. Label and
// Definition are empty when the vocabulary does not define them.
type Info struct {
	URL        string
	Label      string
	Definition string
}

type entry struct {
	label      string
	definition string
}

// Cache maps purpose IRIs to their labels and definitions.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// SetLabel records a label for a subject unless one is already present.
func (c *Cache) SetLabel(subject, label string) {
	c.set(subject, label, "")
}

// SetDefinition records a definition for a subject unless one is already
// present.
func (c *Cache) SetDefinition(subject, definition string) {
	c.set(subject, "", definition)
}

func (c *Cache) set(subject, label, definition string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[subject]
	if !ok {
		e = &entry{}
		c.entries[subject] = e
	}
	if e.label == "" && label != "" {
		e.label = label
	}
	if e.definition == "" && definition != "" {
		e.definition = definition
	}
}

// Get returns the cached Info for a purpose IRI.
func (c *Cache) Get(url string) (Info, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[url]
	if !ok {
		return Info{URL: url}, false
	}
	return Info{URL: url, Label: e.label, Definition: e.definition}, true
}

// Reset drops every cached entry. Called on logout.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// DereferencerOptions configures a Dereferencer.
type DereferencerOptions struct {
	// HTTPClient defaults to a client with a 30s timeout; ontologies can be
	// large.
	HTTPClient *http.Client
	// MaxResponseBytes caps the size of a fetched ontology (default 16 MiB).
	MaxResponseBytes int64
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Dereferencer fetches an ontology document and streams its triples into a
// Cache, keeping only SKOS prefLabel and definition statements.
type Dereferencer struct {
	httpClient       *http.Client
	maxResponseBytes int64
	logger           *slog.Logger
}

// NewDereferencer constructs a Dereferencer with the provided options.
func NewDereferencer(opts DereferencerOptions) *Dereferencer {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = 16 << 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dereferencer{httpClient: httpClient, maxResponseBytes: maxBytes, logger: logger}
}

// AddToCache dereferences an ontology URL and populates the cache with every
// SKOS prefLabel and definition it declares. Existing entries are never
// overwritten.
func (d *Dereferencer) AddToCache(ctx context.Context, url string, cache *Cache) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("purpose: build request: %w", err)
	}
	req.Header.Set("Accept", "text/turtle")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("purpose: HTTP fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("purpose: HTTP %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxResponseBytes))
	if err != nil {
		return fmt.Errorf("purpose: read body: %w", err)
	}

	dec := rdf.NewTripleDecoder(strings.NewReader(string(body)), rdf.Turtle)
	statements := 0
	for {
		triple, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("purpose: parse ontology %s: %w", url, err)
		}
		if triple.Subj.Type() != rdf.TermIRI || triple.Obj.Type() != rdf.TermLiteral {
			continue
		}
		switch triple.Pred.String() {
		case prefLabelPredicate:
			cache.SetLabel(triple.Subj.String(), triple.Obj.String())
			statements++
		case definitionPredicate:
			cache.SetDefinition(triple.Subj.String(), triple.Obj.String())
			statements++
		}
	}
	d.logger.Debug("ontology cached", "url", url, "statements", statements)
	return nil
}
