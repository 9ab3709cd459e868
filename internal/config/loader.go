package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.withDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if !cfg.Stream.Pace.IsValid() {
		errs = append(errs, fmt.Errorf("stream.pace %q is invalid; valid values: realtime, fast", cfg.Stream.Pace))
	}

	idsSeen := make(map[string]int, len(cfg.Library))
	for i, file := range cfg.Library {
		prefix := fmt.Sprintf("library[%d]", i)
		if file.Path == "" {
			errs = append(errs, fmt.Errorf("%s.path is required", prefix))
		}
		id := file.ID
		if id == "" {
			id = DeriveID(file.Path)
		}
		if id == "" {
			continue
		}
		if prev, ok := idsSeen[id]; ok {
			errs = append(errs, fmt.Errorf("%s.id %q is a duplicate of library[%d]", prefix, id, prev))
		}
		idsSeen[id] = i
	}

	return errors.Join(errs...)
}

// DeriveID returns the library identifier implied by a file path: the base
// name without its extension.
func DeriveID(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
