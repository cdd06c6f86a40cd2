// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

package access_test

import (
	"testing"
	"time"

	"github.com/inrupt/authorization-management-component/access"
	"github.com/inrupt/authorization-management-component/credential"
)

func mockGrant(requestor string, resources, modes []string) *credential.AccessCredential {
	return credential.NewMockGrant(credential.MockParams{
		Requestor: requestor,
		Resources: resources,
		Modes:     modes,
	})
}

func TestGroupedAccessModes_UnionWithoutCrossModeLeakage(t *testing.T) {
	a := mockGrant("https://id.example.org/a", []string{"https://pod.example.org/r1"}, []string{"Read"})
	b := mockGrant("https://id.example.org/b", []string{"https://pod.example.org/r1"}, []string{"Write"})

	modes := access.GroupedAccessModes([]*credential.AccessCredential{a, b})
	if !modes.Read || !modes.Write {
		t.Errorf("expected read and write set, got %+v", modes)
	}
	if modes.Append {
		t.Errorf("append leaked into grouped modes: %+v", modes)
	}
}

func TestGroupedAccessModes_Empty(t *testing.T) {
	modes := access.GroupedAccessModes(nil)
	if !modes.IsEmpty() {
		t.Errorf("expected empty modes, got %+v", modes)
	}
}

func TestGroupedPurposes_DeduplicatesAndDropsEmpty(t *testing.T) {
	a := credential.NewMockGrant(credential.MockParams{
		Requestor: "https://id.example.org/a",
		Resources: []string{"https://pod.example.org/r1"},
		Purposes:  []string{"https://w3id.org/dpv#ServiceProvision", ""},
	})
	b := credential.NewMockGrant(credential.MockParams{
		Requestor: "https://id.example.org/b",
		Resources: []string{"https://pod.example.org/r1"},
		Purposes:  []string{"https://w3id.org/dpv#ServiceProvision", "https://w3id.org/dpv#Marketing"},
	})

	purposes := access.GroupedPurposes([]*credential.AccessCredential{a, b})
	if len(purposes) != 2 {
		t.Fatalf("expected 2 distinct purposes, got %v", purposes)
	}
	if purposes[0] != "https://w3id.org/dpv#ServiceProvision" || purposes[1] != "https://w3id.org/dpv#Marketing" {
		t.Errorf("unexpected purposes %v", purposes)
	}
}

func TestLatestExpirationDate_UnboundedDominatesRegardlessOfOrder(t *testing.T) {
	bounded := credential.NewMockGrant(credential.MockParams{
		Requestor:      "https://id.example.org/a",
		Resources:      []string{"https://pod.example.org/r1"},
		ExpirationDate: "2030-01-01T00:00:00Z",
	})
	unbounded := mockGrant("https://id.example.org/b", []string{"https://pod.example.org/r1"}, nil)

	orderings := [][]*credential.AccessCredential{
		{bounded, unbounded},
		{unbounded, bounded},
	}
	for _, grants := range orderings {
		if got := access.LatestExpirationDate(grants); got != nil {
			t.Errorf("expected unbounded aggregate, got %v", got)
		}
	}
}

func TestLatestExpirationDate_AllBoundedReturnsMax(t *testing.T) {
	early := credential.NewMockGrant(credential.MockParams{
		Requestor:      "https://id.example.org/a",
		Resources:      []string{"https://pod.example.org/r1"},
		ExpirationDate: "2027-06-01T00:00:00Z",
	})
	late := credential.NewMockGrant(credential.MockParams{
		Requestor:      "https://id.example.org/a",
		Resources:      []string{"https://pod.example.org/r1"},
		ExpirationDate: "2031-06-01T00:00:00Z",
	})

	got := access.LatestExpirationDate([]*credential.AccessCredential{late, early})
	want := time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestLatestExpirationDate_SkipsUnparsable(t *testing.T) {
	malformed := credential.NewMockGrant(credential.MockParams{
		Requestor:      "https://id.example.org/a",
		Resources:      []string{"https://pod.example.org/r1"},
		ExpirationDate: "not-a-date",
	})
	bounded := credential.NewMockGrant(credential.MockParams{
		Requestor:      "https://id.example.org/a",
		Resources:      []string{"https://pod.example.org/r1"},
		ExpirationDate: "2029-01-01T00:00:00Z",
	})

	got := access.LatestExpirationDate([]*credential.AccessCredential{malformed, bounded})
	want := time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestResourcesFromGrants_GrantAppearsInEveryBucket(t *testing.T) {
	a := mockGrant("https://id.example.org/a", []string{"https://pod.example.org/r1"}, []string{"Read"})
	b := mockGrant("https://id.example.org/b", []string{"https://pod.example.org/r1", "https://pod.example.org/r2"}, []string{"Write"})

	byResource := access.ResourcesFromGrants([]*credential.AccessCredential{a, b})
	if len(byResource) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(byResource))
	}

	r1 := byResource["https://pod.example.org/r1"]
	if len(r1) != 2 {
		t.Fatalf("expected both grants in r1's bucket, got %d", len(r1))
	}
	if modes := access.GroupedAccessModes(r1); !modes.Read || !modes.Write || modes.Append {
		t.Errorf("unexpected grouped modes for r1: %+v", modes)
	}
	if r2 := byResource["https://pod.example.org/r2"]; len(r2) != 1 {
		t.Errorf("expected one grant in r2's bucket, got %d", len(r2))
	}
}

func TestRequestors_DropsMalformedEntries(t *testing.T) {
	a := mockGrant("https://id.example.org/a", []string{"https://pod.example.org/r1"}, []string{"Read"})
	b := mockGrant("https://id.example.org/a", []string{"https://pod.example.org/r2"}, []string{"Read"})
	malformed := &credential.AccessCredential{ID: "urn:uuid:broken"}

	agents := access.Requestors([]*credential.AccessCredential{a, malformed, b})
	if len(agents) != 1 || agents[0] != "https://id.example.org/a" {
		t.Errorf("expected the single well-formed agent, got %v", agents)
	}
}
