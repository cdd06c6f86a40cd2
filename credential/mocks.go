// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

package credential

import (
	"github.com/google/uuid"

	"github.com/inrupt/authorization-management-component/types"
)

// MockParams parameterizes the unsigned mock credentials used by tests
// across the module.
type MockParams struct {
	Requestor      string
	Owner          string
	Resources      []string
	Modes          []string
	Purposes       []string
	ExpirationDate string
}

// NewMockGrant builds an unsigned access grant for tests. Each call mints a
// fresh credential ID.
func NewMockGrant(params MockParams) *AccessCredential {
	c := newMock(params)
	c.Type = []string{"VerifiableCredential", "SolidAccessGrant"}
	c.CredentialSubject.ProvidedConsent = &Consent{
		Mode:            params.Modes,
		HasStatus:       types.ConsentStatusExplicitlyGiven,
		ForPersonalData: params.Resources,
		ForPurpose:      params.Purposes,
		IsProvidedTo:    params.Requestor,
	}
	return c
}

// NewMockRequest builds an unsigned pending access request for tests.
func NewMockRequest(params MockParams) *AccessCredential {
	c := newMock(params)
	c.Type = []string{"VerifiableCredential", "SolidAccessRequest"}
	c.CredentialSubject.HasConsent = &Consent{
		Mode:                    params.Modes,
		HasStatus:               types.ConsentStatusRequested,
		ForPersonalData:         params.Resources,
		ForPurpose:              params.Purposes,
		IsConsentForDataSubject: params.Owner,
	}
	return c
}

func newMock(params MockParams) *AccessCredential {
	return &AccessCredential{
		Context:        defaultContexts,
		ID:             "https://vc.example.org/credentials/" + uuid.NewString(),
		Issuer:         "https://vc.example.org",
		IssuanceDate:   "2021-05-26T16:40:03Z",
		ExpirationDate: params.ExpirationDate,
		CredentialSubject: Subject{
			ID: params.Requestor,
		},
	}
}
