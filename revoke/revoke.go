// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

// Package revoke withdraws previously issued grants. Several credentials can
// cover the same agent/resource pairing, so revocation operates on a set:
// every credential is revoked concurrently, and the outcome is an error if
// any individual revocation failed, even when others succeeded. There is no
// optimistic local mutation to roll back; callers re-query grant state from
// the issuance endpoint afterwards either way.
package revoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inrupt/authorization-management-component/credential"
)

// Revoker revokes one issued credential. protocol.Client satisfies this.
type Revoker interface {
	Revoke(ctx context.Context, cred *credential.AccessCredential) error
}

// Coordinator revokes grant sets through a Revoker.
type Coordinator struct {
	revoker Revoker
	logger  *slog.Logger
}

// NewCoordinator constructs a Coordinator. A nil logger uses slog.Default().
func NewCoordinator(revoker Revoker, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{revoker: revoker, logger: logger}
}

// RevokeAll revokes every grant in the set concurrently. The set is expected
// to be small (the overlapping grants for one pairing), so no chunking
// applies. Every revocation is attempted regardless of individual failures;
// the joined error reports each one.
func (c *Coordinator) RevokeAll(ctx context.Context, grants []*credential.AccessCredential) error {
	errs := make([]error, len(grants))
	var wg sync.WaitGroup
	for i, grant := range grants {
		wg.Add(1)
		go func(i int, grant *credential.AccessCredential) {
			defer wg.Done()
			if err := c.revoker.Revoke(ctx, grant); err != nil {
				errs[i] = fmt.Errorf("revoke %s: %w", grant.ID, err)
			}
		}(i, grant)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return err
	}
	c.logger.Debug("grants revoked", "count", len(grants))
	return nil
}
