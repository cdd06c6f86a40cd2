// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

// Package credential defines the JSON-LD shape of access-grant and
// access-request credentials and the accessors the rest of the core uses to
// read them. Singular-vs-plural wire fields are normalized to slices at the
// parse boundary; nothing past this package branches on field arity.
package credential

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/inrupt/authorization-management-component/types"
)

// StringOrList accepts a JSON string or an array of strings and always holds
// a slice. The access-grant wire format allows either form for mode,
// forPersonalData and forPurpose.
type StringOrList []string

func (s *StringOrList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = StringOrList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("credential: field is neither a string nor a string array")
	}
	*s = many
	return nil
}

// Consent is the body shared by providedConsent (grants) and hasConsent
// (pending requests).
type Consent struct {
	Mode                    StringOrList        `json:"mode,omitempty"`
	HasStatus               types.ConsentStatus `json:"hasStatus,omitempty"`
	ForPersonalData         StringOrList        `json:"forPersonalData,omitempty"`
	ForPurpose              StringOrList        `json:"forPurpose,omitempty"`
	IsProvidedTo            string              `json:"isProvidedTo,omitempty"`
	IsConsentForDataSubject string              `json:"isConsentForDataSubject,omitempty"`
}

// Subject is the credentialSubject of an access credential.
type Subject struct {
	ID              string   `json:"id"`
	Inbox           string   `json:"inbox,omitempty"`
	ProvidedConsent *Consent `json:"providedConsent,omitempty"`
	HasConsent      *Consent `json:"hasConsent,omitempty"`
}

// Proof is the Linked Data Proof attached to an issued credential.
type Proof struct {
	Type               string `json:"type"`
	Created            string `json:"created"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose"`
	// ProofValue is the base64url-encoded Ed25519 signature over the
	// canonical credential bytes.
	ProofValue string `json:"proofValue"`
}

// AccessCredential is an access grant or access request: an immutable signed
// record asserting which agent may (or asks to) reach which resources, under
// which modes, purposes and expiration. It is immutable once issued; removal
// from the active set is an issuer-side state change observed as "no longer
// validates".
type AccessCredential struct {
	Context           []string `json:"@context"`
	ID                string   `json:"id"`
	Type              []string `json:"type"`
	Issuer            string   `json:"issuer"`
	IssuanceDate      string   `json:"issuanceDate,omitempty"`
	ExpirationDate    string   `json:"expirationDate,omitempty"`
	CredentialSubject Subject  `json:"credentialSubject"`
	Proof             *Proof   `json:"proof,omitempty"`
}

// Parse decodes a single credential from JSON. The stable id is required:
// it is the dedup and cache key throughout the core.
func Parse(data []byte) (*AccessCredential, error) {
	var c AccessCredential
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("credential: parse: %w", err)
	}
	if c.ID == "" {
		return nil, fmt.Errorf("credential: missing id")
	}
	return &c, nil
}

// consent returns whichever consent body the credential carries, preferring
// providedConsent (grants) over hasConsent (pending requests).
func (c *AccessCredential) consent() *Consent {
	if c.CredentialSubject.ProvidedConsent != nil {
		return c.CredentialSubject.ProvidedConsent
	}
	return c.CredentialSubject.HasConsent
}

// IsAccessRequest reports whether this credential is a pending access request
// rather than an issued grant.
func (c *AccessCredential) IsAccessRequest() bool {
	return c.CredentialSubject.ProvidedConsent == nil && c.CredentialSubject.HasConsent != nil
}

// Modes returns the access modes the credential declares.
func (c *AccessCredential) Modes() types.AccessModes {
	var m types.AccessModes
	consent := c.consent()
	if consent == nil {
		return m
	}
	for _, mode := range consent.Mode {
		switch mode {
		case types.ModeRead:
			m.Read = true
		case types.ModeWrite:
			m.Write = true
		case types.ModeAppend:
			m.Append = true
		}
	}
	return m
}

// Resources returns the resource IRIs the credential covers.
func (c *AccessCredential) Resources() []string {
	consent := c.consent()
	if consent == nil {
		return nil
	}
	return consent.ForPersonalData
}

// Purposes returns the declared purpose IRIs, with empty entries dropped. A
// malformed credential lacking a purpose does not poison aggregation.
func (c *AccessCredential) Purposes() []string {
	consent := c.consent()
	if consent == nil {
		return nil
	}
	purposes := make([]string, 0, len(consent.ForPurpose))
	for _, p := range consent.ForPurpose {
		if p != "" {
			purposes = append(purposes, p)
		}
	}
	return purposes
}

// Requestor returns the agent the credential was issued to (grants) or the
// agent asking for access (requests).
func (c *AccessCredential) Requestor() (string, error) {
	if pc := c.CredentialSubject.ProvidedConsent; pc != nil && pc.IsProvidedTo != "" {
		return pc.IsProvidedTo, nil
	}
	if c.CredentialSubject.HasConsent != nil && c.CredentialSubject.ID != "" {
		return c.CredentialSubject.ID, nil
	}
	return "", &types.ErrMalformedCredential{CredentialID: c.ID, Reason: "requestor cannot be determined"}
}

// ResourceOwner returns the owner whose data the credential concerns, or the
// empty string when the credential does not name one.
func (c *AccessCredential) ResourceOwner() string {
	if hc := c.CredentialSubject.HasConsent; hc != nil {
		return hc.IsConsentForDataSubject
	}
	if c.CredentialSubject.ProvidedConsent != nil {
		return c.Issuer
	}
	return ""
}

// Expiration parses the credential's expiration timestamp. A nil time with a
// nil error means the credential is unbounded.
func (c *AccessCredential) Expiration() (*time.Time, error) {
	if c.ExpirationDate == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, c.ExpirationDate)
	if err != nil {
		return nil, fmt.Errorf("credential: parse expirationDate: %w", err)
	}
	return &t, nil
}

// ResourceName derives a display name from a resource IRI: the final path
// segment, with a trailing slash stripped for containers.
func ResourceName(iri string) string {
	stripped := strings.TrimSuffix(iri, "/")
	return stripped[strings.LastIndex(stripped, "/")+1:]
}

// IsContainer reports whether a resource IRI names a container.
func IsContainer(iri string) bool {
	return strings.HasSuffix(iri, "/")
}
