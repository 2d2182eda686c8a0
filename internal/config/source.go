package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source looks up configuration values by key.
type Source interface {
	Lookup(key string) (string, bool)
}

// EnvSource reads the process environment.
type EnvSource struct{}

func (EnvSource) Lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// MapSource is a static set of values, typically loaded from a secrets file.
type MapSource map[string]string

func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Chain consults each source in order and returns the first non-empty value.
type Chain []Source

func (c Chain) Lookup(key string) (string, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if v, ok := src.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// LoadYAMLSource reads a flat KEY: value YAML file.
func LoadYAMLSource(path string) (MapSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse secrets file: %w", err)
	}

	values := make(MapSource, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	return values, nil
}

// DefaultSource layers the optional secrets file over the process environment.
// A missing secrets file is not an error.
func DefaultSource(secretsFile string) (Source, error) {
	if secretsFile == "" {
		return EnvSource{}, nil
	}
	if _, err := os.Stat(secretsFile); os.IsNotExist(err) {
		return EnvSource{}, nil
	}
	secrets, err := LoadYAMLSource(secretsFile)
	if err != nil {
		return nil, err
	}
	return Chain{secrets, EnvSource{}}, nil
}
