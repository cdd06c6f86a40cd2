// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Inrupt Inc.

package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the amictl configuration file.
type Config struct {
	// WebID is the owner identity to inspect.
	WebID string `yaml:"webid"`
	// Ontologies extends the default purpose vocabularies to preload.
	Ontologies []string `yaml:"ontologies"`
	// Timeout bounds each network call (default 30s).
	Timeout duration `yaml:"timeout"`
	// IncludeExpired forwards expired candidates from the issuance endpoint.
	IncludeExpired bool `yaml:"includeExpired"`
}

// duration decodes Go duration strings ("10s", "1m") from YAML.
type duration time.Duration

func (d *duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = duration(parsed)
	return nil
}

// loadConfig reads a YAML config file. An empty path returns defaults.
func loadConfig(path string) (*Config, error) {
	config := &Config{Timeout: duration(30 * time.Second)}
	if path == "" {
		return config, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if config.Timeout <= 0 {
		config.Timeout = duration(30 * time.Second)
	}
	return config, nil
}
