// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

package session

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

// namePredicates are tried in order against an agent's profile document; the
// first literal found wins.
var namePredicates = []string{
	"http://xmlns.com/foaf/0.1/name",
	"http://www.w3.org/2006/vcard/ns#fn",
}

// NameCacheOptions configures a NameCache.
type NameCacheOptions struct {
	// HTTPClient defaults to a client with a 10s timeout.
	HTTPClient *http.Client
	// MaxResponseBytes caps the size of a fetched profile (default 1 MiB).
	MaxResponseBytes int64
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NameCache resolves agent WebIDs to display names, remembering the first
// answer for the session. Concurrent lookups for the same WebID may both
// fetch, but the first resolved name sticks.
type NameCache struct {
	httpClient       *http.Client
	maxResponseBytes int64
	logger           *slog.Logger

	mu    sync.Mutex
	names map[string]string
}

// NewNameCache constructs an empty NameCache.
func NewNameCache(opts NameCacheOptions) *NameCache {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &NameCache{
		httpClient:       httpClient,
		maxResponseBytes: maxBytes,
		logger:           logger,
		names:            make(map[string]string),
	}
}

// NameFromWebID returns the agent's display name, fetching their profile on
// a cache miss. Callers fall back to showing the WebID itself on error.
func (n *NameCache) NameFromWebID(ctx context.Context, webID string) (string, error) {
	n.mu.Lock()
	name, ok := n.names[webID]
	n.mu.Unlock()
	if ok {
		return name, nil
	}

	name, err := n.fetchName(ctx, webID)
	if err != nil {
		return "", err
	}

	n.mu.Lock()
	if existing, ok := n.names[webID]; ok {
		name = existing
	} else {
		n.names[webID] = name
	}
	n.mu.Unlock()
	return name, nil
}

// Reset drops every cached name. Called on logout.
func (n *NameCache) Reset() {
	n.mu.Lock()
	n.names = make(map[string]string)
	n.mu.Unlock()
}

func (n *NameCache) fetchName(ctx context.Context, webID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, webID, nil)
	if err != nil {
		return "", fmt.Errorf("session: build request: %w", err)
	}
	req.Header.Set("Accept", "text/turtle")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("session: HTTP fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("session: HTTP %d from %s", resp.StatusCode, webID)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, n.maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("session: read body: %w", err)
	}

	found := make(map[string]string)
	dec := rdf.NewTripleDecoder(strings.NewReader(string(body)), rdf.Turtle)
	for {
		triple, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("session: parse profile %s: %w", webID, err)
		}
		if triple.Subj.String() != webID || triple.Obj.Type() != rdf.TermLiteral {
			continue
		}
		pred := triple.Pred.String()
		if _, ok := found[pred]; !ok {
			found[pred] = triple.Obj.String()
		}
	}

	for _, pred := range namePredicates {
		if name := found[pred]; name != "" {
			return name, nil
		}
	}
	return "", nil
}

// AgentMatches reports whether an agent matches a search string by display
// name or WebID, case-insensitively. An empty search matches everything.
func AgentMatches(webID, name, search string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(name), search) ||
		strings.Contains(strings.ToLower(webID), search)
}
