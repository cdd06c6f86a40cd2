// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

package types

import "fmt"

// ErrWebIDNotAvailable is returned when an owner's WebID document cannot be
// fetched or parsed, or when it declares no storage location. Both conditions
// block discovery equivalently and are deliberately not distinguished.
type ErrWebIDNotAvailable struct {
	WebID string
	Cause error
}

func (e *ErrWebIDNotAvailable) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("WebID %s is not available: %v", e.WebID, e.Cause)
	}
	return fmt.Sprintf("WebID %s declares no storage location", e.WebID)
}

func (e *ErrWebIDNotAvailable) Unwrap() error { return e.Cause }

// ErrDiscoveryNotAvailable is returned when a storage provider does not
// advertise an access-grant issuance endpoint.
type ErrDiscoveryNotAvailable struct {
	PodRoot string
	Cause   error
}

func (e *ErrDiscoveryNotAvailable) Error() string {
	return fmt.Sprintf("access endpoint discovery for Pod %s failed: %v", e.PodRoot, e.Cause)
}

func (e *ErrDiscoveryNotAvailable) Unwrap() error { return e.Cause }

// ErrAccessGrantsNotSupported is the presentation-facing wrapper for a
// discovery failure: the owner's storage provider does not support the
// access-grant protocol.
type ErrAccessGrantsNotSupported struct {
	Cause error
}

func (e *ErrAccessGrantsNotSupported) Error() string {
	return "the Pod provider does not appear to support Access Grants"
}

func (e *ErrAccessGrantsNotSupported) Unwrap() error { return e.Cause }

// ErrMissingAccessEndpoint is returned when the validation pipeline is
// invoked before endpoint discovery has produced an access endpoint.
type ErrMissingAccessEndpoint struct{}

func (e *ErrMissingAccessEndpoint) Error() string {
	return "the access endpoint must be provided for validation"
}

// ErrMissingVerifierService is returned when the validation pipeline is
// invoked without a verification service in the endpoint configuration.
type ErrMissingVerifierService struct{}

func (e *ErrMissingVerifierService) Error() string {
	return "the verification endpoint must be provided for validation"
}

// ErrMalformedCredential is returned when a credential lacks a field that a
// caller requires, such as a determinable requestor.
type ErrMalformedCredential struct {
	CredentialID string
	Reason       string
}

func (e *ErrMalformedCredential) Error() string {
	return fmt.Sprintf("malformed credential %s: %s", e.CredentialID, e.Reason)
}
