package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".tripctl"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// isTOML reports whether path should be decoded as TOML. Everything else
// is YAML.
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfigFile loads service settings and presets from a YAML or TOML
// file. Files ending in .toml are TOML.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if isTOML(path) {
		err = toml.Unmarshal(data, &cf)
	} else {
		err = yaml.Unmarshal(data, &cf)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cf.Defaults == nil {
		cf.Defaults = make(map[string]any)
	}
	if cf.Presets == nil {
		cf.Presets = make(map[string]Preset)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .tripctl in the current directory
// 3. Look for .tripctl in the user's home directory
// 4. Look for config.yaml or config.toml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	var candidates []string
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates,
		filepath.Join(XDGConfigDir(), "config.yaml"),
		filepath.Join(XDGConfigDir(), "config.toml"),
	)

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// seedFile is the on-disk shape of a batch seed file.
type seedFile struct {
	Seeds []map[string]any `yaml:"seeds" toml:"seeds"`
}

// LoadSeedFile reads the seeds for a batch run. YAML files may hold either
// a top-level list or a "seeds" list; TOML files use [[seeds]] tables.
func LoadSeedFile(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided seed path is intentional
	if err != nil {
		return nil, err
	}

	if isTOML(path) {
		var sf seedFile
		if err := toml.Unmarshal(data, &sf); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return sf.Seeds, nil
	}

	var list []map[string]any
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return sf.Seeds, nil
}

// ParseAssignments turns "key=value" pairs into a seed map. Integer and
// boolean values are converted; everything else stays a string.
func ParseAssignments(pairs []string) (map[string]any, error) {
	seed := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSeed, p)
		}
		seed[key] = parseScalar(value)
	}
	return seed, nil
}

func parseScalar(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}
