// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

package verify

import (
	"context"
	"sync"

	"github.com/inrupt/authorization-management-component/credential"
)

// Cached wraps a Verifier with a session-lifetime negative cache keyed by
// credential ID. A credential proven invalid once short-circuits to false on
// every later check without a network round trip. Only negative results are
// cached: validity can be lost at any moment by revocation, so positive
// results are always re-checked against the source of truth.
//
// The cache update is a single idempotent set operation, safe under
// concurrent completion of verification calls.
type Cached struct {
	inner Verifier

	mu      sync.Mutex
	invalid map[string]struct{}
}

// NewCached wraps inner with a fresh negative cache.
func NewCached(inner Verifier) *Cached {
	return &Cached{inner: inner, invalid: make(map[string]struct{})}
}

// IsValid consults the negative cache before delegating to the wrapped
// verifier.
func (c *Cached) IsValid(ctx context.Context, cred *credential.AccessCredential) bool {
	c.mu.Lock()
	_, known := c.invalid[cred.ID]
	c.mu.Unlock()
	if known {
		return false
	}

	valid := c.inner.IsValid(ctx, cred)
	if !valid {
		c.mu.Lock()
		c.invalid[cred.ID] = struct{}{}
		c.mu.Unlock()
	}
	return valid
}

// Reset drops all cached negative results. Called on logout.
func (c *Cached) Reset() {
	c.mu.Lock()
	c.invalid = make(map[string]struct{})
	c.mu.Unlock()
}
