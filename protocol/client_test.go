// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

package protocol_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/inrupt/authorization-management-component/credential"
	"github.com/inrupt/authorization-management-component/protocol"
	"github.com/inrupt/authorization-management-component/types"
)

func TestQueryGrants_PostsExampleCredential(t *testing.T) {
	grant := credential.NewMockGrant(credential.MockParams{
		Requestor: "https://id.example.org/a",
		Resources: []string{"https://pod.example.org/r1"},
		Modes:     []string{"Read"},
	})

	var captured map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/vc/derive", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode derive body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"verifiableCredential": []*credential.AccessCredential{grant},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := protocol.NewClient(server.URL+"/vc", protocol.ClientOptions{HTTPClient: server.Client()})
	grants, err := client.QueryGrants(context.Background(), types.GrantFilter{
		Requestor: "https://id.example.org/a",
		Resource:  "https://pod.example.org/r1",
	}, true)
	if err != nil {
		t.Fatalf("QueryGrants: %v", err)
	}
	if len(grants) != 1 || grants[0].ID != grant.ID {
		t.Errorf("unexpected grants %v", grants)
	}

	if captured["includeExpiredVc"] != true {
		t.Errorf("includeExpiredVc not forwarded: %v", captured)
	}
	example, _ := captured["verifiableCredential"].(map[string]any)
	subject, _ := example["credentialSubject"].(map[string]any)
	consent, _ := subject["providedConsent"].(map[string]any)
	if consent == nil || consent["isProvidedTo"] != "https://id.example.org/a" {
		t.Errorf("example credential missing requestor filter: %v", captured)
	}
}

func TestGetAccessRequest_RejectsNonRequestCredential(t *testing.T) {
	grant := credential.NewMockGrant(credential.MockParams{
		Requestor: "https://id.example.org/a",
		Resources: []string{"https://pod.example.org/r1"},
	})
	mux := http.NewServeMux()
	mux.HandleFunc("/request", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(grant)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := protocol.NewClient(server.URL+"/vc", protocol.ClientOptions{HTTPClient: server.Client()})
	_, err := client.GetAccessRequest(context.Background(), server.URL+"/request")
	var malformed *types.ErrMalformedCredential
	if !errors.As(err, &malformed) {
		t.Fatalf("expected ErrMalformedCredential, got %v", err)
	}
	if malformed.CredentialID != grant.ID {
		t.Errorf("error names %q, want %q", malformed.CredentialID, grant.ID)
	}
}

func TestGetAccessRequest_ReturnsRequest(t *testing.T) {
	request := credential.NewMockRequest(credential.MockParams{
		Requestor: "https://id.example.org/a",
		Owner:     "https://id.example.org/owner",
		Resources: []string{"https://pod.example.org/r1"},
		Modes:     []string{"Read", "Write"},
	})
	mux := http.NewServeMux()
	mux.HandleFunc("/request", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(request)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := protocol.NewClient(server.URL+"/vc", protocol.ClientOptions{HTTPClient: server.Client()})
	got, err := client.GetAccessRequest(context.Background(), server.URL+"/request")
	if err != nil {
		t.Fatalf("GetAccessRequest: %v", err)
	}
	if got.ID != request.ID || !got.IsAccessRequest() {
		t.Errorf("unexpected credential %+v", got)
	}
}

func TestApprove_SubmitsStatusAndOverrides(t *testing.T) {
	issued := credential.NewMockGrant(credential.MockParams{
		Requestor: "https://id.example.org/a",
		Resources: []string{"https://pod.example.org/r1"},
	})

	var captured map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/vc/issue", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode issue body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(issued)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := protocol.NewClient(server.URL+"/vc", protocol.ClientOptions{HTTPClient: server.Client()})
	expiration := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	grant, err := client.Approve(context.Background(), "https://vc.example.org/requests/1", &protocol.ApproveOverrides{
		Purpose:    []string{"https://w3id.org/dpv#ServiceProvision"},
		Expiration: &expiration,
	})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if grant.ID != issued.ID {
		t.Errorf("unexpected issued grant %q", grant.ID)
	}

	if captured["requestVc"] != "https://vc.example.org/requests/1" {
		t.Errorf("request id not forwarded: %v", captured)
	}
	if captured["status"] != string(types.ConsentStatusExplicitlyGiven) {
		t.Errorf("unexpected status %v", captured["status"])
	}
	overrides, _ := captured["overrides"].(map[string]any)
	if overrides == nil || overrides["purpose"] == nil || overrides["expirationDate"] == nil {
		t.Errorf("overrides not forwarded: %v", captured)
	}
}

func TestDeny_OmitsOverrides(t *testing.T) {
	denied := credential.NewMockRequest(credential.MockParams{
		Requestor: "https://id.example.org/a",
		Resources: []string{"https://pod.example.org/r1"},
	})

	var captured map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/vc/issue", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode issue body: %v", err)
		}
		json.NewEncoder(w).Encode(denied)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := protocol.NewClient(server.URL+"/vc", protocol.ClientOptions{HTTPClient: server.Client()})
	if _, err := client.Deny(context.Background(), "https://vc.example.org/requests/1"); err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if captured["status"] != string(types.ConsentStatusDenied) {
		t.Errorf("unexpected status %v", captured["status"])
	}
	if _, present := captured["overrides"]; present {
		t.Errorf("denial must not carry overrides: %v", captured)
	}
}

func TestRevoke_PostsRevocationStatus(t *testing.T) {
	grant := credential.NewMockGrant(credential.MockParams{
		Requestor: "https://id.example.org/a",
		Resources: []string{"https://pod.example.org/r1"},
	})

	var captured map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/vc/status", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode status body: %v", err)
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := protocol.NewClient(server.URL+"/vc", protocol.ClientOptions{HTTPClient: server.Client()})
	if err := client.Revoke(context.Background(), grant); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	if captured["credentialId"] != grant.ID {
		t.Errorf("credential id not forwarded: %v", captured)
	}
	statuses, _ := captured["credentialStatus"].([]any)
	if len(statuses) != 1 {
		t.Fatalf("expected one status entry, got %v", captured)
	}
	status, _ := statuses[0].(map[string]any)
	if status["type"] != "RevocationList2020Status" || status["status"] != "1" {
		t.Errorf("unexpected status entry %v", status)
	}
}

func TestClient_SurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	client := protocol.NewClient(server.URL+"/vc", protocol.ClientOptions{HTTPClient: server.Client()})
	if _, err := client.QueryGrants(context.Background(), types.GrantFilter{}, false); err == nil {
		t.Error("expected error from derive")
	}
	if err := client.Revoke(context.Background(), credential.NewMockGrant(credential.MockParams{
		Requestor: "https://id.example.org/a",
		Resources: []string{"https://pod.example.org/r1"},
	})); err == nil {
		t.Error("expected error from status")
	}
	if _, err := client.GetAccessRequest(context.Background(), fmt.Sprintf("%s/request", server.URL)); err == nil {
		t.Error("expected error from request fetch")
	}
}
