// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

// Package session holds the process-wide authorization context: the
// authentication state machine, the discovered endpoints, and the shared
// caches (agent names, purpose labels, negative verification results). All
// cache lifetimes are bound to the session and cleared on logout; nothing
// here is ambient global state.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/inrupt/authorization-management-component/access"
	"github.com/inrupt/authorization-management-component/credential"
	"github.com/inrupt/authorization-management-component/discovery"
	"github.com/inrupt/authorization-management-component/protocol"
	"github.com/inrupt/authorization-management-component/purpose"
	"github.com/inrupt/authorization-management-component/types"
	"github.com/inrupt/authorization-management-component/verify"
)

// Options configures a Session.
type Options struct {
	// Resolver performs endpoint discovery. If nil, a default Resolver is
	// used.
	Resolver *discovery.Resolver
	// HTTPClient is handed to the protocol and verification clients the
	// session constructs. Nil uses each client's default.
	HTTPClient *http.Client
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Session is the authorization context for one owner. Methods are safe for
// concurrent use.
type Session struct {
	resolver   *discovery.Resolver
	httpClient *http.Client
	logger     *slog.Logger

	mu        sync.Mutex
	state     types.AuthState
	webID     string
	endpoints *discovery.Endpoints
	verifier  *verify.Cached

	names    *NameCache
	purposes *purpose.Cache
}

// New returns a Session in the waiting state with empty caches.
func New(opts Options) *Session {
	resolver := opts.Resolver
	if resolver == nil {
		resolver = discovery.NewResolver(discovery.ResolverOptions{
			HTTPClient: opts.HTTPClient,
			Logger:     opts.Logger,
		})
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		resolver:   resolver,
		httpClient: opts.HTTPClient,
		logger:     logger,
		state:      types.AuthWaiting,
		names:      NewNameCache(NameCacheOptions{HTTPClient: opts.HTTPClient, Logger: opts.Logger}),
		purposes:   purpose.NewCache(),
	}
}

// State returns the current authentication state.
func (s *Session) State() types.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// WebID returns the authenticated identity, or the empty string.
func (s *Session) WebID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.webID
}

// Names returns the session's agent-name cache.
func (s *Session) Names() *NameCache { return s.names }

// Purposes returns the session's purpose-label cache.
func (s *Session) Purposes() *purpose.Cache { return s.purposes }

// BeginLogin transitions the session into the authenticating state.
func (s *Session) BeginLogin() {
	s.mu.Lock()
	s.state = types.AuthAuthenticating
	s.mu.Unlock()
}

// FailLogin records a failed login attempt.
func (s *Session) FailLogin() {
	s.mu.Lock()
	s.state = types.AuthUnauthenticated
	s.mu.Unlock()
}

// CompleteLogin records the authenticated identity and runs endpoint
// discovery, which only ever happens once authenticated. A discovery failure
// leaves the session authenticated but without endpoints; the returned typed
// error tells the presentation layer which remediation to offer.
func (s *Session) CompleteLogin(ctx context.Context, webID string) error {
	s.mu.Lock()
	s.state = types.AuthAuthenticated
	s.webID = webID
	s.mu.Unlock()

	endpoints, err := s.resolver.DiscoverEndpoints(ctx, webID)
	if err != nil {
		return err
	}

	verifier := verify.NewCached(verify.NewClient(endpoints.Configuration.VerifierService, verify.ClientOptions{
		HTTPClient: s.httpClient,
		Logger:     s.logger,
	}))

	s.mu.Lock()
	s.endpoints = endpoints
	s.verifier = verifier
	s.mu.Unlock()
	return nil
}

// Logout clears the identity, the discovered endpoints, and every
// session-scoped cache.
func (s *Session) Logout() {
	s.mu.Lock()
	s.state = types.AuthUnauthenticated
	s.webID = ""
	s.endpoints = nil
	s.verifier = nil
	s.mu.Unlock()

	s.names.Reset()
	s.purposes.Reset()
}

// AccessEndpoint returns the discovered issuance endpoint.
func (s *Session) AccessEndpoint() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endpoints == nil {
		return "", false
	}
	return s.endpoints.AccessEndpoint, true
}

// Configuration returns the discovered endpoint service configuration.
func (s *Session) Configuration() (*types.EndpointConfiguration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.endpoints == nil {
		return nil, false
	}
	return s.endpoints.Configuration, true
}

// Verifier returns the session's caching verifier. The negative cache inside
// it lives exactly as long as the session.
func (s *Session) Verifier() (verify.Verifier, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verifier == nil {
		return nil, false
	}
	return s.verifier, true
}

// ProtocolClient returns a protocol client bound to the discovered issuance
// endpoint.
func (s *Session) ProtocolClient() (*protocol.Client, bool) {
	endpoint, ok := s.AccessEndpoint()
	if !ok {
		return nil, false
	}
	return protocol.NewClient(endpoint, protocol.ClientOptions{
		HTTPClient: s.httpClient,
		Logger:     s.logger,
	}), true
}

// ValidGrants runs the fetch-and-verify pipeline with the session's
// discovered endpoints and caching verifier. Before discovery completes this
// fails fast with the pipeline's precondition errors.
func (s *Session) ValidGrants(ctx context.Context, filter types.GrantFilter, includeExpired bool) ([]*credential.AccessCredential, error) {
	s.mu.Lock()
	endpoints := s.endpoints
	verifier := s.verifier
	s.mu.Unlock()

	opts := access.PipelineOptions{IncludeExpired: includeExpired, Logger: s.logger}
	var source access.GrantSource
	if endpoints != nil {
		opts.AccessEndpoint = endpoints.AccessEndpoint
		opts.EndpointConfiguration = endpoints.Configuration
		source = protocol.NewClient(endpoints.AccessEndpoint, protocol.ClientOptions{
			HTTPClient: s.httpClient,
			Logger:     s.logger,
		})
	}
	return access.ValidGrants(ctx, source, verifier, filter, opts)
}
