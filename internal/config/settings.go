// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ScenarioSettings is one of the two top-level settings views. The nested
// shape is free-form; consumers pull the keys they need.
type ScenarioSettings map[string]any

// Settings is the parsed NOAA settings document. The historical and
// projected views are required; everything else is carried as-is for
// downstream consumers.
type Settings struct {
	Historical ScenarioSettings
	Projected  ScenarioSettings

	// Raw holds the full document, including keys this module does not
	// interpret (api, cache, regions, ...).
	Raw map[string]any
}

// LoadSettings reads and parses the NOAA settings YAML file. There are no
// defaults and no fallback: a missing file, malformed YAML, or an absent
// required top-level key is an error.
func LoadSettings(path string) (Settings, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return Settings{}, fmt.Errorf("unsupported settings format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- the settings path is derived from the operator-chosen project root
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read settings file: %w", err)
	}

	return parseSettings(data)
}

func parseSettings(data []byte) (Settings, error) {
	var raw map[string]any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return Settings{}, fmt.Errorf("settings file is empty")
		}
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}

	// A settings file holds exactly one document.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Settings{}, fmt.Errorf("settings file contains multiple documents or trailing content")
	}

	s := Settings{Raw: raw}

	var ok bool
	if s.Historical, ok = scenarioView(raw, "historical"); !ok {
		return Settings{}, fmt.Errorf("settings: missing required key %q", "historical")
	}
	if s.Projected, ok = scenarioView(raw, "projected"); !ok {
		return Settings{}, fmt.Errorf("settings: missing required key %q", "projected")
	}

	return s, nil
}

func scenarioView(raw map[string]any, key string) (ScenarioSettings, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return ScenarioSettings(m), true
}

// Int returns the named setting as an int, with ok reporting presence and
// convertibility. YAML integers decode as int.
func (s ScenarioSettings) Int(key string) (int, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// Float returns the named setting as a float64.
func (s ScenarioSettings) Float(key string) (float64, bool) {
	v, ok := s[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// String returns the named setting as a string.
func (s ScenarioSettings) String(key string) (string, bool) {
	v, ok := s[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Strings returns the named setting as a string slice.
func (s ScenarioSettings) Strings(key string) ([]string, bool) {
	v, ok := s[key]
	if !ok {
		return nil, false
	}
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, str)
	}
	return out, true
}
