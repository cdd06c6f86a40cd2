// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

// Package request drives a single incoming access request through its
// fetch, decision and submit lifecycle. The flow moves loading -> ready,
// then ready -> submitting -> approved/denied, with a local-only expired
// transition and a dismissible, retryable error state that never discards
// the fetched request.
package request

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inrupt/authorization-management-component/access"
	"github.com/inrupt/authorization-management-component/credential"
	"github.com/inrupt/authorization-management-component/protocol"
	"github.com/inrupt/authorization-management-component/types"
)

// State is the flow's lifecycle state.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateApproved   State = "approved"
	StateDenied     State = "denied"
	StateExpired    State = "expired"
	StateError      State = "error"
)

// Client is the protocol surface the flow consumes. protocol.Client
// satisfies this.
type Client interface {
	GetAccessRequest(ctx context.Context, requestURL string) (*credential.AccessCredential, error)
	Approve(ctx context.Context, requestID string, overrides *protocol.ApproveOverrides) (*credential.AccessCredential, error)
	Deny(ctx context.Context, requestID string) (*credential.AccessCredential, error)
}

// Decision is the owner's confirmed choice for an access request: the
// selected modes, the accepted purposes, and the chosen expiration (nil
// means unbounded).
type Decision struct {
	Modes      types.AccessModes
	Purposes   []string
	Expiration *time.Time
}

// Options configures a Flow.
type Options struct {
	// OwnerWebID is the logged-in identity, compared against the request's
	// resource owner.
	OwnerWebID string
	// Now is replaceable for expiry tests. Defaults to time.Now.
	Now func() time.Time
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Flow is the state machine for one access request.
type Flow struct {
	client     Client
	requestURL string
	ownerWebID string
	now        func() time.Time
	logger     *slog.Logger

	mu        sync.Mutex
	state     State
	request   *credential.AccessCredential
	err       error
	outcomeID string
}

// NewFlow constructs a Flow in the loading state. Call Load to fetch the
// request.
func NewFlow(client Client, requestURL string, opts Options) *Flow {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Flow{
		client:     client,
		requestURL: requestURL,
		ownerWebID: opts.OwnerWebID,
		now:        now,
		logger:     logger,
		state:      StateLoading,
	}
}

// State returns the current lifecycle state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Request returns the fetched access request, or nil before Load succeeds.
func (f *Flow) Request() *credential.AccessCredential {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.request
}

// Err returns the error recorded by the last failed load or submit.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// OutcomeID returns the identifier of the signed outcome credential once the
// flow reaches approved or denied.
func (f *Flow) OutcomeID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcomeID
}

// Load fetches the access request. It always re-fetches rather than reusing
// a stale copy, so a retry from the error state reloads fresh request state.
func (f *Flow) Load(ctx context.Context) error {
	f.mu.Lock()
	f.state = StateLoading
	f.request = nil
	f.err = nil
	f.mu.Unlock()

	req, err := f.client.GetAccessRequest(ctx, f.requestURL)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateError
		f.err = err
		return err
	}
	f.state = StateReady
	f.request = req
	return nil
}

// OwnerMismatch reports whether the fetched request names a resource owner
// other than the logged-in identity. The caller prompts for re-login rather
// than letting submission fail at the endpoint.
func (f *Flow) OwnerMismatch() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.request == nil || f.ownerWebID == "" {
		return false
	}
	owner := f.request.ResourceOwner()
	return owner != "" && owner != f.ownerWebID
}

// Approve submits an approval with the decision's deviations from the
// request's own terms. Local validation guards run first, in documented
// precedence: purpose, then access, then expiry. A guard blocks submission
// without touching the network and leaves the flow in ready; a returned
// GuardExpiry should be followed by Expire. A network failure moves the flow
// to the error state, from which Dismiss returns to ready for a retry
// without re-fetching.
func (f *Flow) Approve(ctx context.Context, d Decision) (types.GuardReason, error) {
	f.mu.Lock()
	if f.state != StateReady {
		state := f.state
		f.mu.Unlock()
		return types.GuardNone, fmt.Errorf("request: cannot approve in state %q", state)
	}
	req := f.request
	f.mu.Unlock()

	overrides, guard := f.computeOverrides(req, d)
	if guard != types.GuardNone {
		return guard, nil
	}

	f.setState(StateSubmitting)
	outcome, err := f.client.Approve(ctx, req.ID, overrides)
	return types.GuardNone, f.finish(outcome, StateApproved, err)
}

// Deny submits an unconditional denial. No guards apply.
func (f *Flow) Deny(ctx context.Context) error {
	f.mu.Lock()
	if f.state != StateReady {
		state := f.state
		f.mu.Unlock()
		return fmt.Errorf("request: cannot deny in state %q", state)
	}
	req := f.request
	f.mu.Unlock()

	f.setState(StateSubmitting)
	outcome, err := f.client.Deny(ctx, req.ID)
	return f.finish(outcome, StateDenied, err)
}

// Expire marks the request no longer actionable. Local-only: no network
// call is made, and the caller is expected to redirect away.
func (f *Flow) Expire() {
	f.setState(StateExpired)
}

// Dismiss acknowledges a submit failure, returning the flow to ready with
// the fetched request intact so approve or deny can be retried.
func (f *Flow) Dismiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateError && f.request != nil {
		f.state = StateReady
		f.err = nil
	}
}

func (f *Flow) setState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func (f *Flow) finish(outcome *credential.AccessCredential, success State, err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.state = StateError
		f.err = err
		return err
	}
	f.state = success
	f.err = nil
	f.outcomeID = outcome.ID
	return nil
}

// computeOverrides diffs the decision against the request's own terms. An
// override is included only where the decision deviates; a request accepted
// as-is submits with no overrides at all, keeping the credential payload
// minimal.
func (f *Flow) computeOverrides(req *credential.AccessCredential, d Decision) (*protocol.ApproveOverrides, types.GuardReason) {
	baseModes := access.GroupedAccessModes([]*credential.AccessCredential{req})
	basePurposes := req.Purposes()
	baseExpiration, _ := req.Expiration()

	var accessOverride *types.AccessModes
	if d.Modes != baseModes {
		modes := d.Modes
		accessOverride = &modes
	}

	// The purpose override is needed only when not every listed purpose was
	// accepted.
	accepted := make(map[string]struct{}, len(d.Purposes))
	for _, p := range d.Purposes {
		accepted[p] = struct{}{}
	}
	allAccepted := true
	var purposeOverride []string
	for _, p := range basePurposes {
		if _, ok := accepted[p]; ok {
			purposeOverride = append(purposeOverride, p)
		} else {
			allAccepted = false
		}
	}
	if allAccepted {
		purposeOverride = nil
	}

	// Guard precedence: purpose, then access, then expiry.
	if len(basePurposes) > 0 && !allAccepted && len(purposeOverride) == 0 {
		return nil, types.GuardPurpose
	}
	if d.Modes.IsEmpty() {
		return nil, types.GuardAccess
	}

	expirationDiffers := !equalExpiration(d.Expiration, baseExpiration)
	effective := baseExpiration
	if expirationDiffers {
		effective = d.Expiration
	}
	if effective != nil && effective.Before(f.now()) {
		return nil, types.GuardExpiry
	}

	if accessOverride == nil && purposeOverride == nil && !expirationDiffers {
		return nil, types.GuardNone
	}
	overrides := &protocol.ApproveOverrides{
		Access:  accessOverride,
		Purpose: purposeOverride,
	}
	if expirationDiffers {
		if d.Expiration == nil {
			overrides.ClearExpiration = true
		} else {
			overrides.Expiration = d.Expiration
		}
	}
	return overrides, types.GuardNone
}

func equalExpiration(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
