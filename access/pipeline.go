// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

package access

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inrupt/authorization-management-component/credential"
	"github.com/inrupt/authorization-management-component/types"
	"github.com/inrupt/authorization-management-component/verify"
)

// verificationBatchSize bounds the number of concurrently in-flight
// verification calls. Batches run strictly sequentially; an unbounded fan-out
// over an arbitrarily large candidate set risks overwhelming the verification
// service.
const verificationBatchSize = 20

// GrantSource fetches candidate credentials from the issuance service.
// protocol.Client satisfies this.
type GrantSource interface {
	QueryGrants(ctx context.Context, filter types.GrantFilter, includeExpired bool) ([]*credential.AccessCredential, error)
}

// PipelineOptions configures ValidGrants. AccessEndpoint and the
// configuration's VerifierService are preconditions: invoking the pipeline
// without them means discovery has not completed, which is a caller error.
type PipelineOptions struct {
	AccessEndpoint        string
	EndpointConfiguration *types.EndpointConfiguration
	// IncludeExpired forwards expired candidates from the issuance endpoint.
	IncludeExpired bool
	// Logger receives batch progress at Debug level. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// ValidGrants fetches the candidate credentials matching filter and verifies
// them in fixed-size batches: batch N+1 does not start until every
// verification in batch N resolved, while calls within a batch run
// concurrently. Only credentials whose verification returned true are
// retained, in fetch order. An empty result is not an error; errors are
// reserved for precondition failures and a failed candidate fetch.
func ValidGrants(
	ctx context.Context,
	source GrantSource,
	verifier verify.Verifier,
	filter types.GrantFilter,
	opts PipelineOptions,
) ([]*credential.AccessCredential, error) {
	if opts.AccessEndpoint == "" {
		return nil, &types.ErrMissingAccessEndpoint{}
	}
	if opts.EndpointConfiguration == nil || opts.EndpointConfiguration.VerifierService == "" {
		return nil, &types.ErrMissingVerifierService{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	candidates, err := source.QueryGrants(ctx, filter, opts.IncludeExpired)
	if err != nil {
		return nil, fmt.Errorf("access: query candidate grants: %w", err)
	}

	verified := make([]*credential.AccessCredential, 0, len(candidates))
	for start := 0; start < len(candidates); start += verificationBatchSize {
		end := min(start+verificationBatchSize, len(candidates))
		logger.Debug("verifying batch", "from", start, "to", end, "total", len(candidates))

		batch := candidates[start:end]
		results := make([]bool, len(batch))
		var wg sync.WaitGroup
		for i, cred := range batch {
			wg.Add(1)
			go func(i int, cred *credential.AccessCredential) {
				defer wg.Done()
				results[i] = verifier.IsValid(ctx, cred)
			}(i, cred)
		}
		wg.Wait()

		for i, cred := range batch {
			if results[i] {
				verified = append(verified, cred)
			}
		}
	}
	return verified, nil
}
