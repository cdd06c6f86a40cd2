// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

// Package protocol is the HTTP client for an owner's access-grant issuance
// endpoint: querying candidate credentials, fetching a single access request,
// approving or denying it, and revoking issued grants.
package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/inrupt/authorization-management-component/credential"
	"github.com/inrupt/authorization-management-component/types"
)

// ClientOptions configures a Client.
type ClientOptions struct {
	// HTTPClient is used for all protocol calls. Defaults to a client with a
	// 10s timeout.
	HTTPClient *http.Client
	// MaxResponseBytes caps the size of a fetched response (default 4 MiB; a
	// derivation response can carry many credentials).
	MaxResponseBytes int64
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client talks to one access-grant issuance endpoint.
type Client struct {
	accessEndpoint   string
	httpClient       *http.Client
	maxResponseBytes int64
	logger           *slog.Logger
}

// NewClient constructs a Client for the given issuance endpoint.
func NewClient(accessEndpoint string, opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	maxBytes := opts.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = 4 << 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		accessEndpoint:   accessEndpoint,
		httpClient:       httpClient,
		maxResponseBytes: maxBytes,
		logger:           logger,
	}
}

// AccessEndpoint returns the issuance endpoint this client is bound to.
func (c *Client) AccessEndpoint() string { return c.accessEndpoint }

// deriveRequest is the body posted to the derivation sub-endpoint. The
// example credential narrows the match; includeExpiredVc forwards expired
// candidates as well.
type deriveRequest struct {
	VerifiableCredential *credential.AccessCredential `json:"verifiableCredential"`
	IncludeExpiredVC     bool                         `json:"includeExpiredVc"`
}

// deriveResponse is the derivation sub-endpoint's answer.
type deriveResponse struct {
	VerifiableCredential []*credential.AccessCredential `json:"verifiableCredential"`
}

// QueryGrants fetches every candidate credential matching the filter. The
// result is unverified; callers feed it through the validation pipeline.
func (c *Client) QueryGrants(ctx context.Context, filter types.GrantFilter, includeExpired bool) ([]*credential.AccessCredential, error) {
	example := &credential.AccessCredential{
		CredentialSubject: credential.Subject{
			ProvidedConsent: &credential.Consent{
				IsProvidedTo: filter.Requestor,
			},
		},
	}
	if filter.Resource != "" {
		example.CredentialSubject.ProvidedConsent.ForPersonalData = credential.StringOrList{filter.Resource}
	}

	body, err := json.Marshal(deriveRequest{
		VerifiableCredential: example,
		IncludeExpiredVC:     includeExpired,
	})
	if err != nil {
		return nil, fmt.Errorf("protocol: encode query: %w", err)
	}

	data, err := c.post(ctx, c.accessEndpoint+"/derive", body)
	if err != nil {
		return nil, err
	}

	var derived deriveResponse
	if err := json.Unmarshal(data, &derived); err != nil {
		return nil, fmt.Errorf("protocol: parse derivation response: %w", err)
	}
	return derived.VerifiableCredential, nil
}

// GetAccessRequest fetches one access-request credential by its URL. The
// fetch is side-effect-free and safe to repeat; retries always reload fresh
// request state.
func (c *Client) GetAccessRequest(ctx context.Context, requestURL string) (*credential.AccessCredential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("protocol: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("protocol: HTTP fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("protocol: HTTP %d from %s", resp.StatusCode, requestURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("protocol: read body: %w", err)
	}

	cred, err := credential.Parse(data)
	if err != nil {
		return nil, err
	}
	if !cred.IsAccessRequest() {
		return nil, &types.ErrMalformedCredential{CredentialID: cred.ID, Reason: "credential is not an access request"}
	}
	return cred, nil
}

// ApproveOverrides carries the approval-time deviations from the request's
// own terms. Nil or absent fields mean "accepted as-is"; the override payload
// is kept minimal on purpose.
type ApproveOverrides struct {
	// Access replaces the requested access modes.
	Access *types.AccessModes `json:"access,omitempty"`
	// Purpose replaces the requested purposes with the accepted subset.
	Purpose []string `json:"purpose,omitempty"`
	// Expiration replaces the requested expiration.
	Expiration *time.Time `json:"expirationDate,omitempty"`
	// ClearExpiration removes the expiration entirely, making the grant
	// unbounded. Distinct from a nil Expiration, which means "no override".
	ClearExpiration bool `json:"clearExpiration,omitempty"`
}

type statusRequest struct {
	RequestVC string            `json:"requestVc"`
	Status    string            `json:"status"`
	Overrides *ApproveOverrides `json:"overrides,omitempty"`
}

// Approve asks the issuance endpoint to turn the identified access request
// into a signed grant, optionally overriding its terms. The returned
// credential is the issued grant; its ID is what callers surface.
func (c *Client) Approve(ctx context.Context, requestID string, overrides *ApproveOverrides) (*credential.AccessCredential, error) {
	return c.submitStatus(ctx, statusRequest{
		RequestVC: requestID,
		Status:    string(types.ConsentStatusExplicitlyGiven),
		Overrides: overrides,
	})
}

// Deny asks the issuance endpoint to issue a denial credential for the
// identified access request. Denial is always unconditional.
func (c *Client) Deny(ctx context.Context, requestID string) (*credential.AccessCredential, error) {
	return c.submitStatus(ctx, statusRequest{
		RequestVC: requestID,
		Status:    string(types.ConsentStatusDenied),
	})
}

func (c *Client) submitStatus(ctx context.Context, sr statusRequest) (*credential.AccessCredential, error) {
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode status request: %w", err)
	}
	data, err := c.post(ctx, c.accessEndpoint+"/issue", body)
	if err != nil {
		return nil, err
	}
	return credential.Parse(data)
}

// Revoke marks one issued credential revoked at the issuance endpoint. The
// caller must re-query grant state afterwards; the endpoint is the single
// source of truth and no local validity cache survives a revocation.
func (c *Client) Revoke(ctx context.Context, cred *credential.AccessCredential) error {
	body, err := json.Marshal(map[string]any{
		"credentialId": cred.ID,
		"credentialStatus": []map[string]string{
			{"type": "RevocationList2020Status", "status": "1"},
		},
	})
	if err != nil {
		return fmt.Errorf("protocol: encode revocation: %w", err)
	}
	if _, err := c.post(ctx, c.accessEndpoint+"/status", body); err != nil {
		return err
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("protocol: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("protocol: HTTP fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("protocol: HTTP %d from %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("protocol: read body: %w", err)
	}
	return data, nil
}
