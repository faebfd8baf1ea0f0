package config

import (
	"fmt"
	"maps"
	"slices"
	"time"
)

// ServiceConfig holds the connection settings for the TripWell API.
type ServiceConfig struct {
	// BaseURL overrides the API root.
	BaseURL string `yaml:"baseURL,omitempty" toml:"baseURL,omitempty"`

	// Timeout overrides the per-request timeout (e.g. "90s").
	Timeout time.Duration `yaml:"timeout,omitempty" toml:"timeout,omitempty"`

	// Token is the bearer token for authenticated endpoints.
	Token string `yaml:"token,omitempty" toml:"token,omitempty"`

	// Proxy is an optional SOCKS5 proxy address ("host:port").
	Proxy string `yaml:"proxy,omitempty" toml:"proxy,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty" toml:"userAgent,omitempty"`

	// Headers are extra headers sent with every request.
	Headers map[string]string `yaml:"headers,omitempty" toml:"headers,omitempty"`

	// Concurrency overrides the batch concurrency.
	Concurrency int `yaml:"concurrency,omitempty" toml:"concurrency,omitempty"`
}

// Preset is a named, reusable flow invocation.
type Preset struct {
	// Flow is the flow the preset runs.
	Flow string `yaml:"flow" toml:"flow"`

	// Seed holds the seed values. They override File.Defaults.
	Seed map[string]any `yaml:"seed,omitempty" toml:"seed,omitempty"`
}

// File represents the structure of the .tripctl configuration file.
type File struct {
	// Service holds connection settings.
	Service ServiceConfig `yaml:"service,omitempty" toml:"service,omitempty"`

	// Defaults are seed values applied to every run unless the preset or
	// the command line sets the same key.
	Defaults map[string]any `yaml:"defaults,omitempty" toml:"defaults,omitempty"`

	// Presets maps preset names to flow invocations.
	Presets map[string]Preset `yaml:"presets,omitempty" toml:"presets,omitempty"`
}

// GetPreset returns the named preset with File.Defaults merged under its
// seed. The returned seed is a fresh map.
func (cf *File) GetPreset(name string) (Preset, error) {
	p, ok := cf.Presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPreset, name, cf.PresetNames())
	}
	return Preset{Flow: p.Flow, Seed: cf.MergeSeed(p.Seed)}, nil
}

// MergeSeed returns File.Defaults overlaid with seed. Neither input is
// modified.
func (cf *File) MergeSeed(seed map[string]any) map[string]any {
	out := make(map[string]any, len(cf.Defaults)+len(seed))
	maps.Copy(out, cf.Defaults)
	maps.Copy(out, seed)
	return out
}

// PresetNames returns the preset names in the file, sorted.
func (cf *File) PresetNames() []string {
	names := make([]string, 0, len(cf.Presets))
	for name := range cf.Presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
