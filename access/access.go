// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

// Package access derives the owner's current access state from a set of
// already-verified credentials, and runs the fetch-and-verify pipeline that
// produces such sets. The reducers are pure: a malformed entry is skipped,
// never thrown, so one bad credential degrades a view gracefully instead of
// failing it.
package access

import (
	"time"

	"github.com/inrupt/authorization-management-component/credential"
	"github.com/inrupt/authorization-management-component/types"
)

// GroupedAccessModes unions the access modes across every grant: a mode is
// set iff at least one grant declares it.
func GroupedAccessModes(grants []*credential.AccessCredential) types.AccessModes {
	var grouped types.AccessModes
	for _, grant := range grants {
		m := grant.Modes()
		grouped.Read = grouped.Read || m.Read
		grouped.Write = grouped.Write || m.Write
		grouped.Append = grouped.Append || m.Append
	}
	return grouped
}

// GroupedPurposes flattens and deduplicates the purpose IRIs declared across
// all grants, preserving first-seen order.
func GroupedPurposes(grants []*credential.AccessCredential) []string {
	seen := make(map[string]struct{})
	var purposes []string
	for _, grant := range grants {
		for _, p := range grant.Purposes() {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			purposes = append(purposes, p)
		}
	}
	return purposes
}

// GroupedResources flattens and deduplicates the resource IRIs covered across
// all grants, preserving first-seen order.
func GroupedResources(grants []*credential.AccessCredential) []string {
	seen := make(map[string]struct{})
	var resources []string
	for _, grant := range grants {
		for _, r := range grant.Resources() {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			resources = append(resources, r)
		}
	}
	return resources
}

// LatestExpirationDate folds the expirations across all grants. An unbounded
// grant dominates: once any grant in the set has no expiration the aggregate
// has none, regardless of element order. Otherwise the latest date wins.
// Grants with an unparsable expiration are skipped.
func LatestExpirationDate(grants []*credential.AccessCredential) *time.Time {
	var latest *time.Time
	for _, grant := range grants {
		expiration, err := grant.Expiration()
		if err != nil {
			continue
		}
		if expiration == nil {
			return nil
		}
		if latest == nil || expiration.After(*latest) {
			latest = expiration
		}
	}
	return latest
}

// ResourcesFromGrants buckets grants by the resources they cover. A grant
// naming k resources appears in k buckets.
func ResourcesFromGrants(grants []*credential.AccessCredential) map[string][]*credential.AccessCredential {
	byResource := make(map[string][]*credential.AccessCredential)
	for _, grant := range grants {
		for _, resource := range grant.Resources() {
			byResource[resource] = append(byResource[resource], grant)
		}
	}
	return byResource
}

// Requestors returns the distinct agents the grants were issued to, in
// first-seen order. Grants whose requestor cannot be determined are dropped
// from consideration rather than aborting the listing.
func Requestors(grants []*credential.AccessCredential) []string {
	seen := make(map[string]struct{})
	var agents []string
	for _, grant := range grants {
		requestor, err := grant.Requestor()
		if err != nil {
			continue
		}
		if _, ok := seen[requestor]; ok {
			continue
		}
		seen[requestor] = struct{}{}
		agents = append(agents, requestor)
	}
	return agents
}
