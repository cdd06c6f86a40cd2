// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

// Package types defines shared value types used across the authorization
// management core.
package types

// AccessModes is the set of access modes a credential grants or requests.
// Absence of a mode on a credential counts as false for that credential only.
type AccessModes struct {
	Read   bool `json:"read"`
	Write  bool `json:"write"`
	Append bool `json:"append"`
}

// IsEmpty reports whether no mode is set.
func (m AccessModes) IsEmpty() bool {
	return !m.Read && !m.Write && !m.Append
}

// Wire-level mode names carried in a credential's mode field.
const (
	ModeRead   = "Read"
	ModeWrite  = "Write"
	ModeAppend = "Append"
)

// ConsentStatus is the lifecycle status carried in a credential's consent body.
type ConsentStatus string

const (
	// ConsentStatusRequested marks a pending access request.
	ConsentStatusRequested ConsentStatus = "ConsentStatusRequested"
	// ConsentStatusExplicitlyGiven marks an approved access grant.
	ConsentStatusExplicitlyGiven ConsentStatus = "ConsentStatusExplicitlyGiven"
	// ConsentStatusDenied marks a denied access request.
	ConsentStatusDenied ConsentStatus = "ConsentStatusDenied"
)

// AuthState is the session's authentication state machine value.
type AuthState string

const (
	// AuthWaiting is the initial state before any login attempt.
	AuthWaiting AuthState = "waiting"
	// AuthAuthenticating is set while a login is in progress.
	AuthAuthenticating AuthState = "authenticating"
	// AuthUnauthenticated is set after logout or a failed login.
	AuthUnauthenticated AuthState = "unauthenticated"
	// AuthAuthenticated is set once an identity is established.
	AuthAuthenticated AuthState = "authenticated"
)

// GrantFilter narrows a candidate-grant query against the issuance endpoint.
// Zero-value fields are not part of the filter; the zero filter matches every
// credential issued by the current owner.
type GrantFilter struct {
	// Requestor restricts the query to credentials issued to this agent.
	Requestor string
	// Resource restricts the query to credentials covering this resource IRI.
	Resource string
}

// GuardReason identifies the local validation guard that blocked an approve
// confirmation. Guards never involve the network; the caller is expected to
// prompt for correction. Guard precedence is purpose, then access, then
// expiry.
type GuardReason string

const (
	// GuardNone means no guard fired and the submission proceeded.
	GuardNone GuardReason = ""
	// GuardPurpose fires when the request lists purposes but none were accepted.
	GuardPurpose GuardReason = "purpose"
	// GuardAccess fires when no access mode is selected.
	GuardAccess GuardReason = "access"
	// GuardExpiry fires when the effective expiration already lies in the past.
	GuardExpiry GuardReason = "expiry"
)

// EndpointConfiguration is the service configuration advertised by an
// access-grant issuance endpoint.
type EndpointConfiguration struct {
	// VerifierService validates issued credentials.
	VerifierService string `json:"verifierService,omitempty"`
	// DerivationService answers credential queries.
	DerivationService string `json:"derivationService,omitempty"`
	// IssuerService signs new credentials.
	IssuerService string `json:"issuerService,omitempty"`
	// StatusService records revocations.
	StatusService string `json:"statusService,omitempty"`
}
