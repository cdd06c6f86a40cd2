// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

// Package discovery resolves an owner's WebID document to their storage
// root and from there to the access-grant issuance endpoint and its service
// configuration. The two resolution steps fail independently with distinct
// typed errors so the presentation layer can choose different remediation.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/knakk/rdf"

	"github.com/inrupt/authorization-management-component/types"
)

// storagePredicate links a WebID to its Pod root in the profile document.
const storagePredicate = "http://www.w3.org/ns/pim/space#storage"

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// HTTPClient is used for all discovery fetches. Defaults to a client with
	// a 10s timeout.
	HTTPClient *http.Client
	// MaxResponseBytes caps the size of a fetched document (default 1 MiB).
	MaxResponseBytes int64
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Resolver performs endpoint discovery for one or more owners.
type Resolver struct {
	httpClient       *http.Client
	maxResponseBytes int64
	logger           *slog.Logger
}

// NewResolver constructs a Resolver with the provided options.
func NewResolver(opts ResolverOptions) *Resolver {
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
	return &Resolver{httpClient: httpClient, maxResponseBytes: maxBytes, logger: logger}
}

// PodRoots resolves a WebID document to the storage roots it declares. An
// unreachable or unparsable document and a document declaring no storage are
// the same failure class: both block discovery for this identity.
func (r *Resolver) PodRoots(ctx context.Context, webID string) ([]string, error) {
	body, err := r.get(ctx, webID, "text/turtle")
	if err != nil {
		return nil, &types.ErrWebIDNotAvailable{WebID: webID, Cause: err}
	}

	dec := rdf.NewTripleDecoder(strings.NewReader(string(body)), rdf.Turtle)
	var roots []string
	for {
		triple, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &types.ErrWebIDNotAvailable{WebID: webID, Cause: err}
		}
		if triple.Pred.String() != storagePredicate {
			continue
		}
		if triple.Subj.String() != webID {
			continue
		}
		if triple.Obj.Type() != rdf.TermIRI {
			continue
		}
		roots = append(roots, triple.Obj.String())
	}

	if len(roots) == 0 {
		return nil, &types.ErrWebIDNotAvailable{WebID: webID}
	}
	return roots, nil
}

// wellKnownSolid is the discovery document a storage provider serves under
// <podRoot>/.well-known/solid.
type wellKnownSolid struct {
	AccessEndpoint string `json:"accessEndpoint"`
}

// AccessEndpoint resolves a Pod root to its access-grant issuance endpoint
// via the provider's well-known discovery document. Any failure means the
// provider does not support the access-grant protocol.
func (r *Resolver) AccessEndpoint(ctx context.Context, podRoot string) (string, error) {
	url := strings.TrimSuffix(podRoot, "/") + "/.well-known/solid"
	body, err := r.get(ctx, url, "application/json")
	if err != nil {
		return "", &types.ErrDiscoveryNotAvailable{PodRoot: podRoot, Cause: err}
	}

	var doc wellKnownSolid
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", &types.ErrDiscoveryNotAvailable{PodRoot: podRoot, Cause: err}
	}
	if doc.AccessEndpoint == "" {
		return "", &types.ErrDiscoveryNotAvailable{
			PodRoot: podRoot,
			Cause:   fmt.Errorf("no access endpoint declared in %s", url),
		}
	}
	return doc.AccessEndpoint, nil
}

// EndpointConfiguration fetches the service configuration advertised by an
// access endpoint. Unlike the two discovery steps, a failure here is a plain
// error, not a specialized one.
func (r *Resolver) EndpointConfiguration(ctx context.Context, accessEndpoint string) (*types.EndpointConfiguration, error) {
	url := strings.TrimSuffix(accessEndpoint, "/") + "/.well-known/vc-configuration"
	body, err := r.get(ctx, url, "application/json")
	if err != nil {
		return nil, fmt.Errorf("discovery: fetch endpoint configuration: %w", err)
	}
	var config types.EndpointConfiguration
	if err := json.Unmarshal(body, &config); err != nil {
		return nil, fmt.Errorf("discovery: parse endpoint configuration: %w", err)
	}
	return &config, nil
}

// Endpoints is the result of a full discovery run for one owner.
type Endpoints struct {
	PodRoot        string
	AccessEndpoint string
	Configuration  *types.EndpointConfiguration
}

// DiscoverEndpoints runs the whole discovery chain for a WebID. When the
// profile declares several Pods the first one wins; later roots are never
// attempted, even on failure. That is a documented policy, not a fallback
// waiting to be added.
func (r *Resolver) DiscoverEndpoints(ctx context.Context, webID string) (*Endpoints, error) {
	roots, err := r.PodRoots(ctx, webID)
	if err != nil {
		return nil, err
	}
	podRoot := roots[0]

	endpoint, err := r.AccessEndpoint(ctx, podRoot)
	if err != nil {
		return nil, err
	}

	config, err := r.EndpointConfiguration(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("discovery complete", "webid", webID, "pod", podRoot, "endpoint", endpoint)
	return &Endpoints{PodRoot: podRoot, AccessEndpoint: endpoint, Configuration: config}, nil
}

func (r *Resolver) get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: build request: %w", err)
	}
	req.Header.Set("Accept", accept)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: HTTP fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery: HTTP %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("discovery: read body: %w", err)
	}
	return body, nil
}
