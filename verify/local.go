// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

package verify

import (
	"context"
	"crypto/ed25519"
	"sync"
	"time"

	"github.com/inrupt/authorization-management-component/credential"
)

// Local verifies credential proofs in-process against a registry of trusted
// issuer keys, checking expiry and the Ed25519 signature over the canonical
// credential bytes. It backs tests and offline tooling; the deployed system
// delegates verification to the verification service instead.
type Local struct {
	mu   sync.RWMutex
	keys map[string]ed25519.PublicKey

	// now is replaceable for expiry tests.
	now func() time.Time
}

// NewLocal constructs a Local with an empty trust registry.
func NewLocal() *Local {
	return &Local{keys: make(map[string]ed25519.PublicKey), now: time.Now}
}

// Trust registers a multibase-encoded Ed25519 verification key for an issuer.
func (l *Local) Trust(issuer, encodedKey string) error {
	key, err := credential.DecodeVerificationKey(encodedKey)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.keys[issuer] = key
	l.mu.Unlock()
	return nil
}

// IsValid reports whether the credential is unexpired and carries a valid
// Ed25519 proof from a trusted issuer. Every failure mode resolves to false.
func (l *Local) IsValid(_ context.Context, cred *credential.AccessCredential) bool {
	if cred.Proof == nil || cred.Proof.Type != credential.ProofTypeEd25519 {
		return false
	}

	// Check expiry before touching the signature to fail fast.
	expiration, err := cred.Expiration()
	if err != nil {
		return false
	}
	if expiration != nil && l.now().UTC().After(*expiration) {
		return false
	}

	l.mu.RLock()
	key, ok := l.keys[cred.Issuer]
	l.mu.RUnlock()
	if !ok {
		return false
	}

	canonical, err := credential.Canonical(cred)
	if err != nil {
		return false
	}
	sig, err := credential.SignatureBytes(cred.Proof)
	if err != nil {
		return false
	}
	return ed25519.Verify(key, canonical, sig)
}
