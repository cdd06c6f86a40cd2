// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

// Package verify checks whether access credentials are currently valid. The
// default implementation calls the discovered verification service and
// normalizes its response to a boolean: a credential that cannot be verified,
// for whatever reason, is invalid. A single bad credential never aborts a
// batch.
package verify

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
)

// Verifier reports whether a single credential is currently valid.
type Verifier interface {
	IsValid(ctx context.Context, cred *credential.AccessCredential) bool
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// HTTPClient is used for verification calls. Defaults to a client with a
	// 10s timeout.
	HTTPClient *http.Client
	// MaxResponseBytes caps the size of a verification response (default 1 MiB).
	MaxResponseBytes int64
	// Logger receives per-credential failure details at Debug level. Defaults
	// to slog.Default().
	Logger *slog.Logger
}

// Client verifies credentials against a verification service endpoint.
type Client struct {
	endpoint         string
	httpClient       *http.Client
	maxResponseBytes int64
	logger           *slog.Logger
}

// NewClient constructs a Client for the given verification endpoint.
func NewClient(verificationEndpoint string, opts ClientOptions) *Client {
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
	return &Client{
		endpoint:         verificationEndpoint,
		httpClient:       httpClient,
		maxResponseBytes: maxBytes,
		logger:           logger,
	}
}

// verificationResult is the verification service's response body. An empty
// errors array means the credential is valid.
type verificationResult struct {
	Errors []string `json:"errors"`
}

// IsValid posts the credential to the verification service. Transport and
// protocol failures resolve to false rather than propagating.
func (c *Client) IsValid(ctx context.Context, cred *credential.AccessCredential) bool {
	valid, err := c.verify(ctx, cred)
	if err != nil {
		c.logger.Debug("credential verification failed", "credential", cred.ID, "error", err)
		return false
	}
	return valid
}

func (c *Client) verify(ctx context.Context, cred *credential.AccessCredential) (bool, error) {
	body, err := json.Marshal(map[string]any{"verifiableCredential": cred})
	if err != nil {
		return false, fmt.Errorf("verify: encode credential: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("verify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("verify: HTTP fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("verify: HTTP %d from %s", resp.StatusCode, c.endpoint)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("verify: read body: %w", err)
	}

	var result verificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return false, fmt.Errorf("verify: parse response: %w", err)
	}
	return len(result.Errors) == 0, nil
}
