// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

// amictl inspects and manages access grants for a Pod owner from the
// command line: discovering the owner's access endpoint, listing the agents
// holding valid grants, listing the resources a given agent can reach, and
// revoking an agent's access to a resource.
//
// Usage:
//
//	amictl [flags] endpoints
//	amictl [flags] agents
//	amictl [flags] resources <agent>
//	amictl [flags] purposes <agent>
//	amictl [flags] revoke <agent> <resource>
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/inrupt/authorization-management-component/access"
	"github.com/inrupt/authorization-management-component/credential"
	"github.com/inrupt/authorization-management-component/purpose"
	"github.com/inrupt/authorization-management-component/revoke"
	"github.com/inrupt/authorization-management-component/session"
	"github.com/inrupt/authorization-management-component/types"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	webID := flag.String("webid", "", "owner WebID (overrides config)")
	includeExpired := flag.Bool("include-expired", false, "include expired grants")
	search := flag.String("search", "", "filter agents by name or WebID")
	verbose := flag.BoolP("verbose", "v", false, "debug logging")
	flag.Parse()

	if err := run(*configPath, *webID, *includeExpired, *search, *verbose, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "amictl:", err)
		os.Exit(1)
	}
}

func run(configPath, webID string, includeExpired bool, search string, verbose bool, args []string) error {
	config, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if webID != "" {
		config.WebID = webID
	}
	if includeExpired {
		config.IncludeExpired = true
	}
	if config.WebID == "" {
		return fmt.Errorf("a WebID is required (--webid or config file)")
	}
	if len(args) == 0 {
		return fmt.Errorf("a command is required: endpoints, agents, resources, purposes, revoke")
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(config.Timeout))
	defer cancel()

	sess := session.New(session.Options{Logger: logger})
	sess.BeginLogin()
	if err := sess.CompleteLogin(ctx, config.WebID); err != nil {
		sess.FailLogin()
		var notSupported *types.ErrDiscoveryNotAvailable
		if errors.As(err, &notSupported) {
			return &types.ErrAccessGrantsNotSupported{Cause: err}
		}
		return err
	}

	switch args[0] {
	case "endpoints":
		return printEndpoints(sess)
	case "agents":
		return printAgents(ctx, sess, search, config.IncludeExpired)
	case "resources":
		if len(args) < 2 {
			return fmt.Errorf("usage: amictl resources <agent>")
		}
		return printResources(ctx, sess, args[1], config.IncludeExpired)
	case "purposes":
		if len(args) < 2 {
			return fmt.Errorf("usage: amictl purposes <agent>")
		}
		return printPurposes(ctx, sess, logger, config, args[1])
	case "revoke":
		if len(args) < 3 {
			return fmt.Errorf("usage: amictl revoke <agent> <resource>")
		}
		return revokeAccess(ctx, sess, logger, args[1], args[2])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printEndpoints(sess *session.Session) error {
	endpoint, _ := sess.AccessEndpoint()
	config, _ := sess.Configuration()
	fmt.Println("access endpoint:", endpoint)
	fmt.Println("verifier:      ", config.VerifierService)
	fmt.Println("derivation:    ", config.DerivationService)
	fmt.Println("issuer:        ", config.IssuerService)
	return nil
}

func printAgents(ctx context.Context, sess *session.Session, search string, includeExpired bool) error {
	grants, err := sess.ValidGrants(ctx, types.GrantFilter{}, includeExpired)
	if err != nil {
		return err
	}
	agents := access.Requestors(grants)
	if len(agents) == 0 {
		fmt.Println("no agents have been granted access")
		return nil
	}
	for _, agent := range agents {
		name, err := sess.Names().NameFromWebID(ctx, agent)
		if err != nil {
			name = ""
		}
		if !session.AgentMatches(agent, name, search) {
			continue
		}
		if name != "" {
			fmt.Printf("%s\t%s\n", name, agent)
		} else {
			fmt.Println(agent)
		}
	}
	return nil
}

func printResources(ctx context.Context, sess *session.Session, agent string, includeExpired bool) error {
	grants, err := sess.ValidGrants(ctx, types.GrantFilter{Requestor: agent}, includeExpired)
	if err != nil {
		return err
	}
	byResource := access.ResourcesFromGrants(grants)
	if len(byResource) == 0 {
		fmt.Println("no valid grants for", agent)
		return nil
	}
	for resource, covering := range byResource {
		modes := access.GroupedAccessModes(covering)
		expiry := "forever"
		if latest := access.LatestExpirationDate(covering); latest != nil {
			expiry = latest.Format("2006-01-02")
		}
		fmt.Printf("%s\t%s\tread=%t write=%t append=%t\tuntil %s\n",
			credential.ResourceName(resource), resource, modes.Read, modes.Write, modes.Append, expiry)
	}
	return nil
}

func printPurposes(ctx context.Context, sess *session.Session, logger *slog.Logger, config *Config, agent string) error {
	grants, err := sess.ValidGrants(ctx, types.GrantFilter{Requestor: agent}, config.IncludeExpired)
	if err != nil {
		return err
	}
	purposes := access.GroupedPurposes(grants)
	if len(purposes) == 0 {
		fmt.Println("no purposes declared on the valid grants for", agent)
		return nil
	}

	cache := sess.Purposes()
	lookup := purpose.NewLookup(cache, purpose.NewDereferencer(purpose.DereferencerOptions{Logger: logger}), logger)
	defer lookup.Close()

	ontologies := append(append([]string{}, purpose.DefaultOntologies...), config.Ontologies...)
	if err := lookup.Preload(ctx, ontologies...); err != nil {
		logger.Debug("ontology preload incomplete", "error", err)
	}

	for _, iri := range purposes {
		info, err := lookup.Resolve(ctx, iri)
		if err != nil {
			return err
		}
		if info.Label != "" {
			fmt.Printf("%s\t%s\n", info.Label, iri)
			if info.Definition != "" {
				fmt.Printf("\t%s\n", info.Definition)
			}
		} else {
			fmt.Println(iri)
		}
	}
	return nil
}

func revokeAccess(ctx context.Context, sess *session.Session, logger *slog.Logger, agent, resource string) error {
	grants, err := sess.ValidGrants(ctx, types.GrantFilter{Requestor: agent, Resource: resource}, false)
	if err != nil {
		return err
	}
	covering := access.ResourcesFromGrants(grants)[resource]
	if len(covering) == 0 {
		return fmt.Errorf("no valid grants cover %s for %s", resource, agent)
	}

	client, ok := sess.ProtocolClient()
	if !ok {
		return &types.ErrMissingAccessEndpoint{}
	}
	if err := revoke.NewCoordinator(client, logger).RevokeAll(ctx, covering); err != nil {
		return err
	}
	fmt.Printf("revoked %d grant(s) covering %s for %s\n", len(covering), resource, agent)
	return nil
}
