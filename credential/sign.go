// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

package credential

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/multiformats/go-multibase"

	"github.com/inrupt/authorization-management-component/types"
)

// ProofTypeEd25519 is the proof type attached to locally issued credentials.
const ProofTypeEd25519 = "Ed25519Signature2020"

// defaultContexts is the @context list stamped onto issued credentials.
var defaultContexts = []string{
	"https://www.w3.org/2018/credentials/v1",
	"https://schema.inrupt.com/credentials/v1.jsonld",
	"https://w3id.org/security/data-integrity/v1",
	"https://w3id.org/security/suites/ed25519-2020/v1",
}

// ed25519MulticodecPrefix is the multicodec varint prefix for Ed25519 public
// keys (0xed01).
var ed25519MulticodecPrefix = []byte{0xed, 0x01}

// Canonical returns the deterministic JSON representation of a credential
// without its proof. This is the byte sequence that is signed and verified.
func Canonical(c *AccessCredential) ([]byte, error) {
	type withoutProof struct {
		Context           []string `json:"@context"`
		ID                string   `json:"id"`
		Type              []string `json:"type"`
		Issuer            string   `json:"issuer"`
		IssuanceDate      string   `json:"issuanceDate,omitempty"`
		ExpirationDate    string   `json:"expirationDate,omitempty"`
		CredentialSubject Subject  `json:"credentialSubject"`
	}
	return json.Marshal(withoutProof{
		Context:           c.Context,
		ID:                c.ID,
		Type:              c.Type,
		Issuer:            c.Issuer,
		IssuanceDate:      c.IssuanceDate,
		ExpirationDate:    c.ExpirationDate,
		CredentialSubject: c.CredentialSubject,
	})
}

// SignatureBytes decodes the base64url ProofValue from a Proof.
func SignatureBytes(proof *Proof) ([]byte, error) {
	if proof == nil {
		return nil, fmt.Errorf("credential: proof is nil")
	}
	sig, err := base64.RawURLEncoding.DecodeString(proof.ProofValue)
	if err != nil {
		return nil, fmt.Errorf("credential: decode ProofValue: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return nil, fmt.Errorf("credential: unexpected signature length %d", len(sig))
	}
	return sig, nil
}

// DecodeVerificationKey decodes a multibase-encoded Ed25519 public key with
// the 0xed01 multicodec prefix, as published by Issuer.VerificationKey.
func DecodeVerificationKey(encoded string) (ed25519.PublicKey, error) {
	_, decoded, err := multibase.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("credential: decode verification key: %w", err)
	}
	if len(decoded) == len(ed25519MulticodecPrefix)+ed25519.PublicKeySize &&
		decoded[0] == ed25519MulticodecPrefix[0] && decoded[1] == ed25519MulticodecPrefix[1] {
		decoded = decoded[len(ed25519MulticodecPrefix):]
	}
	if len(decoded) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("credential: unexpected key length %d", len(decoded))
	}
	return ed25519.PublicKey(decoded), nil
}

// IssueOptions carries parameters for Issuer.IssueGrant and
// Issuer.IssueRequest.
type IssueOptions struct {
	// Requestor is the agent the credential concerns. Required.
	Requestor string
	// Owner is the data owner. Recorded as isConsentForDataSubject on
	// requests.
	Owner string
	// Resources are the resource IRIs covered. Required.
	Resources []string
	// Modes are the access modes granted or requested.
	Modes types.AccessModes
	// Purposes are the purpose IRIs attached to the credential.
	Purposes []string
	// Expiration bounds the credential in time; nil means unbounded.
	Expiration *time.Time
}

// Issuer signs access credentials with an in-process Ed25519 key. It backs
// tests, offline tooling and the example programs; production credentials
// come from the issuance service.
type Issuer struct {
	issuer string
	pub    ed25519.PublicKey
	priv   ed25519.PrivateKey
}

// NewIssuer generates a fresh Ed25519 key pair for the given issuer IRI.
func NewIssuer(issuerIRI string) (*Issuer, error) {
	if issuerIRI == "" {
		return nil, fmt.Errorf("credential: issuer IRI must not be empty")
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("credential: generate Ed25519 key: %w", err)
	}
	return &Issuer{issuer: issuerIRI, pub: pub, priv: priv}, nil
}

// IssuerIRI returns the IRI the issuer stamps onto credentials.
func (i *Issuer) IssuerIRI() string { return i.issuer }

// VerificationKey returns the issuer's public key as multibase base58btc with
// the Ed25519 multicodec prefix, suitable for a trusted-key registry.
func (i *Issuer) VerificationKey() (string, error) {
	prefixed := append(append([]byte{}, ed25519MulticodecPrefix...), i.pub...)
	encoded, err := multibase.Encode(multibase.Base58BTC, prefixed)
	if err != nil {
		return "", fmt.Errorf("credential: multibase encode: %w", err)
	}
	return encoded, nil
}

// IssueGrant creates and signs an access grant.
func (i *Issuer) IssueGrant(opts IssueOptions) (*AccessCredential, error) {
	return i.issue(opts, false)
}

// IssueRequest creates and signs a pending access request.
func (i *Issuer) IssueRequest(opts IssueOptions) (*AccessCredential, error) {
	return i.issue(opts, true)
}

func (i *Issuer) issue(opts IssueOptions, request bool) (*AccessCredential, error) {
	if opts.Requestor == "" {
		return nil, fmt.Errorf("credential: Requestor must not be empty")
	}
	if len(opts.Resources) == 0 {
		return nil, fmt.Errorf("credential: Resources must not be empty")
	}

	now := time.Now().UTC()
	consent := &Consent{
		Mode:            modeList(opts.Modes),
		ForPersonalData: opts.Resources,
		ForPurpose:      opts.Purposes,
	}

	c := &AccessCredential{
		Context:      defaultContexts,
		ID:           "urn:uuid:" + uuid.NewString(),
		Type:         []string{"VerifiableCredential", "SolidAccessGrant"},
		Issuer:       i.issuer,
		IssuanceDate: now.Format(time.RFC3339),
	}
	if opts.Expiration != nil {
		c.ExpirationDate = opts.Expiration.UTC().Format(time.RFC3339)
	}
	if request {
		c.Type[1] = "SolidAccessRequest"
		consent.HasStatus = types.ConsentStatusRequested
		consent.IsConsentForDataSubject = opts.Owner
		c.CredentialSubject = Subject{ID: opts.Requestor, HasConsent: consent}
	} else {
		consent.HasStatus = types.ConsentStatusExplicitlyGiven
		consent.IsProvidedTo = opts.Requestor
		c.CredentialSubject = Subject{ID: opts.Requestor, ProvidedConsent: consent}
	}

	canonical, err := Canonical(c)
	if err != nil {
		return nil, fmt.Errorf("credential: canonicalize: %w", err)
	}
	sig := ed25519.Sign(i.priv, canonical)

	c.Proof = &Proof{
		Type:               ProofTypeEd25519,
		Created:            now.Format(time.RFC3339),
		VerificationMethod: i.issuer + "#key-1",
		ProofPurpose:       "assertionMethod",
		ProofValue:         base64.RawURLEncoding.EncodeToString(sig),
	}
	return c, nil
}

func modeList(m types.AccessModes) StringOrList {
	var modes StringOrList
	if m.Read {
		modes = append(modes, types.ModeRead)
	}
	if m.Write {
		modes = append(modes, types.ModeWrite)
	}
	if m.Append {
		modes = append(modes, types.ModeAppend)
	}
	return modes
}
