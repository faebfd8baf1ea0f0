// Package config holds tripctl's run options and the .tripctl file
// (service settings, seed defaults and named presets) in YAML or TOML.
package config
