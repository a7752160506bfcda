// Package config loads the layer's YAML configuration: the virtual identity
// triple, the substitution table, the dispatch policy tables, and the
// staging layout.
package config

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/portside/crosshost/dispatch"
	"github.com/portside/crosshost/errors"
	"github.com/portside/crosshost/resolver"
)

// Guest describes the hosted application build.
type Guest struct {
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	MinSupported string `yaml:"min_supported"`
	Entry        string `yaml:"entry"`
}

// Identity is the virtual triple presented to the guest.
type Identity struct {
	Platform  string `yaml:"platform"`
	Arch      string `yaml:"arch"`
	OSVersion string `yaml:"os_version"`
}

// Staging configures the fixed staging directory and its markers.
type Staging struct {
	Root    string   `yaml:"root"`
	Markers []string `yaml:"markers"`
}

// Substitution is one resolution rule, evaluated in order (first match wins).
type Substitution struct {
	Pattern    string `yaml:"pattern"`
	Action     string `yaml:"action"` // "substitute" or "stub"
	Substitute string `yaml:"substitute,omitempty"`
}

// ChannelRule binds a channel-name pattern to a static response value.
type ChannelRule struct {
	Pattern  string    `yaml:"pattern"`
	Response yaml.Node `yaml:"response"`
}

// Dispatch holds the two policy rule lists.
type Dispatch struct {
	ForceOverride   []ChannelRule `yaml:"force_override"`
	FallbackOnError []ChannelRule `yaml:"fallback_on_error"`
}

// Config is the full configuration document.
type Config struct {
	Guest         Guest          `yaml:"guest"`
	Identity      Identity       `yaml:"identity"`
	Markers       []string       `yaml:"trusted_markers"`
	Staging       Staging        `yaml:"staging"`
	Substitutions []Substitution `yaml:"substitutions"`
	Dispatch      Dispatch       `yaml:"dispatch"`
}

// DefaultConfig returns the shipped defaults: a darwin/arm64 virtual triple,
// the swift addon substitution, a stub rule for remaining native binaries,
// and the feature-gate override whose response marks the gated features
// supported.
func DefaultConfig() *Config {
	return &Config{
		Guest: Guest{
			Name:         "guest-app",
			Version:      "1.0.0",
			MinSupported: "1.0.0",
			Entry:        "app/main",
		},
		Identity: Identity{
			Platform:  "darwin",
			Arch:      "arm64",
			OSVersion: "23.5.0",
		},
		Staging: Staging{
			Root:    "staging",
			Markers: []string{"model.fetched"},
		},
		Substitutions: []Substitution{
			{Pattern: "swift_addon.node", Action: "substitute", Substitute: "swift-shim"},
			{Pattern: ".node", Action: "stub"},
		},
		Dispatch: Dispatch{
			ForceOverride: []ChannelRule{
				{
					Pattern:  "AppFeatures_getSupportedFeatures",
					Response: yamlValue(map[string]any{"quietPenguin": "supported", "louderPenguin": "supported"}),
				},
			},
			FallbackOnError: []ChannelRule{
				{
					Pattern:  "Settings_get",
					Response: yamlValue(map[string]any{}),
				},
			},
		},
	}
}

// LoadConfig loads configuration from a YAML file.
// A missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.InvalidConfig(fmt.Sprintf("read %s", path), err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.InvalidConfig(fmt.Sprintf("parse %s", path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural invariants the rest of the layer relies on.
func (c *Config) Validate() error {
	for _, s := range c.Substitutions {
		switch s.Action {
		case "substitute":
			if s.Substitute == "" {
				return errors.InvalidConfig(
					fmt.Sprintf("substitution %q: substitute action requires a substitute name", s.Pattern), nil)
			}
		case "stub":
		default:
			return errors.InvalidConfig(
				fmt.Sprintf("substitution %q: unknown action %q", s.Pattern, s.Action), nil)
		}
	}
	for _, r := range append(c.Dispatch.ForceOverride, c.Dispatch.FallbackOnError...) {
		if r.Pattern == "" {
			return errors.InvalidConfig("dispatch rule with empty pattern", nil)
		}
	}
	return nil
}

// Entries converts the substitution section into resolver entries.
func (c *Config) Entries() []resolver.Entry {
	out := make([]resolver.Entry, 0, len(c.Substitutions))
	for _, s := range c.Substitutions {
		action := resolver.ActionSubstitute
		if s.Action == "stub" {
			action = resolver.ActionStub
		}
		out = append(out, resolver.Entry{
			Pattern:    s.Pattern,
			Action:     action,
			Substitute: s.Substitute,
		})
	}
	return out
}

// PolicyTable builds dispatch policy tables with static handlers that
// return the configured response values.
func (c *Config) PolicyTable() (dispatch.PolicyTable, error) {
	force, err := staticRules(c.Dispatch.ForceOverride)
	if err != nil {
		return dispatch.PolicyTable{}, err
	}
	fallback, err := staticRules(c.Dispatch.FallbackOnError)
	if err != nil {
		return dispatch.PolicyTable{}, err
	}
	return dispatch.PolicyTable{ForceOverride: force, FallbackOnError: fallback}, nil
}

// VirtualDescriptor returns the identity section as a plain triple.
func (c *Config) VirtualDescriptor() (platform, arch, osVersion string) {
	return c.Identity.Platform, c.Identity.Arch, c.Identity.OSVersion
}

func staticRules(rules []ChannelRule) ([]dispatch.Rule, error) {
	out := make([]dispatch.Rule, 0, len(rules))
	for _, r := range rules {
		var value any
		if r.Response.Kind != 0 {
			if err := r.Response.Decode(&value); err != nil {
				return nil, errors.InvalidConfig(fmt.Sprintf("rule %q: bad response", r.Pattern), err)
			}
		}
		v := value
		out = append(out, dispatch.Rule{
			Pattern: r.Pattern,
			Handler: func(context.Context, any) (any, error) { return v, nil },
		})
	}
	return out, nil
}

// yamlValue wraps a Go value as a yaml.Node for use in defaults.
func yamlValue(v any) yaml.Node {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		panic(err)
	}
	return n
}
