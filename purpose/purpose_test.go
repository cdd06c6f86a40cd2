// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

package purpose

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

func TestCache_FirstWriteWins(t *testing.T) {
	cache := NewCache()
	cache.SetLabel("https://w3id.org/dpv#Marketing", "Marketing")
	cache.SetLabel("https://w3id.org/dpv#Marketing", "Advertising")

	info, ok := cache.Get("https://w3id.org/dpv#Marketing")
	if !ok {
		t.Fatal("expected cached entry")
	}
	if info.Label != "Marketing" {
		t.Errorf("later write replaced the label: %q", info.Label)
	}
}

func TestCache_LabelAndDefinitionFillIndependently(t *testing.T) {
	cache := NewCache()
	cache.SetDefinition("https://w3id.org/dpv#Marketing", "Purposes associated with marketing.")
	cache.SetLabel("https://w3id.org/dpv#Marketing", "Marketing")

	info, _ := cache.Get("https://w3id.org/dpv#Marketing")
	if info.Label != "Marketing" || info.Definition != "Purposes associated with marketing." {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestCache_ConcurrentWritersAgreeOnOneValue(t *testing.T) {
	cache := NewCache()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cache.SetLabel("https://w3id.org/dpv#Marketing", fmt.Sprintf("label-%d", i))
		}(i)
	}
	wg.Wait()

	first, _ := cache.Get("https://w3id.org/dpv#Marketing")
	if first.Label == "" {
		t.Fatal("expected a label to stick")
	}
	cache.SetLabel("https://w3id.org/dpv#Marketing", "latecomer")
	second, _ := cache.Get("https://w3id.org/dpv#Marketing")
	if second.Label != first.Label {
		t.Errorf("label changed after the race settled: %q then %q", first.Label, second.Label)
	}
}

func TestCache_ResetDropsEntries(t *testing.T) {
	cache := NewCache()
	cache.SetLabel("https://w3id.org/dpv#Marketing", "Marketing")
	cache.Reset()
	if _, ok := cache.Get("https://w3id.org/dpv#Marketing"); ok {
		t.Error("expected empty cache after reset")
	}
}

// ontologyFixture renders a small SKOS vocabulary whose subjects live under
// base, so on-demand lookups against a test server resolve to it.
func ontologyFixture(base string) string {
	return fmt.Sprintf(`@prefix skos: <http://www.w3.org/2004/02/skos/core#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

<%s#Marketing>
    skos:prefLabel "Marketing" ;
    skos:definition "Purposes associated with marketing." ;
    rdfs:label "ignored" .

<%s#ServiceProvision> skos:prefLabel "Service Provision" .
`, base, base)
}

func newOntologyServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path != "/dpv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/turtle")
		fmt.Fprint(w, ontologyFixture("http://"+r.Host+"/dpv"))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestDereferencer_KeepsOnlySKOSStatements(t *testing.T) {
	server := newOntologyServer(t, nil)
	cache := NewCache()
	deref := NewDereferencer(DereferencerOptions{HTTPClient: server.Client()})

	if err := deref.AddToCache(context.Background(), server.URL+"/dpv", cache); err != nil {
		t.Fatalf("AddToCache: %v", err)
	}

	marketing, ok := cache.Get(server.URL + "/dpv#Marketing")
	if !ok || marketing.Label != "Marketing" || marketing.Definition != "Purposes associated with marketing." {
		t.Errorf("unexpected marketing entry %+v", marketing)
	}
	service, ok := cache.Get(server.URL + "/dpv#ServiceProvision")
	if !ok || service.Label != "Service Provision" || service.Definition != "" {
		t.Errorf("unexpected service entry %+v", service)
	}
}

func TestDereferencer_HTTPFailureIsError(t *testing.T) {
	server := newOntologyServer(t, nil)
	deref := NewDereferencer(DereferencerOptions{HTTPClient: server.Client()})
	if err := deref.AddToCache(context.Background(), server.URL+"/missing", NewCache()); err == nil {
		t.Error("expected error for missing ontology")
	}
}

func TestLookup_ResolvesFromPreloadedCache(t *testing.T) {
	cache := NewCache()
	cache.SetLabel("https://w3id.org/dpv#Marketing", "Marketing")
	lookup := NewLookup(cache, NewDereferencer(DereferencerOptions{}), nil)
	defer lookup.Close()

	info, err := lookup.Resolve(context.Background(), "https://w3id.org/dpv#Marketing")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Label != "Marketing" {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestLookup_FetchesUnknownOntologyOnce(t *testing.T) {
	var hits atomic.Int64
	server := newOntologyServer(t, &hits)
	cache := NewCache()
	lookup := NewLookup(cache, NewDereferencer(DereferencerOptions{HTTPClient: server.Client()}), nil)
	defer lookup.Close()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := lookup.Resolve(context.Background(), server.URL+"/dpv#Marketing")
			if err != nil {
				t.Errorf("Resolve: %v", err)
				return
			}
			if info.Label != "Marketing" {
				t.Errorf("unexpected info %+v", info)
			}
		}()
	}
	wg.Wait()

	if got := hits.Load(); got != 1 {
		t.Errorf("expected a single ontology fetch, got %d", got)
	}
}

func TestLookup_UndescribedIRIResolvesEmpty(t *testing.T) {
	server := newOntologyServer(t, nil)
	lookup := NewLookup(NewCache(), NewDereferencer(DereferencerOptions{HTTPClient: server.Client()}), nil)
	defer lookup.Close()

	info, err := lookup.Resolve(context.Background(), server.URL+"/dpv#Unknown")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Label != "" || info.Definition != "" {
		t.Errorf("expected empty info, got %+v", info)
	}
}

func TestLookup_FailedLoadIsRetried(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/turtle")
		fmt.Fprint(w, ontologyFixture("http://"+r.Host+"/dpv"))
	}))
	defer server.Close()

	cache := NewCache()
	lookup := NewLookup(cache, NewDereferencer(DereferencerOptions{HTTPClient: server.Client()}), nil)
	defer lookup.Close()

	info, err := lookup.Resolve(context.Background(), server.URL+"/dpv#Marketing")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Label != "" {
		t.Errorf("expected empty info while the ontology is unavailable, got %+v", info)
	}

	fail.Store(false)
	if err := lookup.Preload(context.Background(), server.URL+"/dpv"); err != nil {
		t.Fatalf("Preload after recovery: %v", err)
	}
	if _, ok := cache.Get(server.URL + "/dpv#Marketing"); !ok {
		t.Error("expected cache filled after retry")
	}
	if hits.Load() < 2 {
		t.Errorf("expected the failed load to be retried, got %d fetches", hits.Load())
	}
}

func TestLookup_CloseFailsNewRequests(t *testing.T) {
	lookup := NewLookup(NewCache(), NewDereferencer(DereferencerOptions{}), nil)
	lookup.Close()
	if _, err := lookup.Resolve(context.Background(), "https://w3id.org/dpv#Marketing"); err == nil {
		t.Error("expected error after Close")
	}
}
