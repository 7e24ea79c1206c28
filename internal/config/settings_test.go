// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "noaa_settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSettingsScenarioViews(t *testing.T) {
	path := writeSettings(t, "historical:\n  a: 1\nprojected:\n  b: 2\n")

	s, err := LoadSettings(path)
	require.NoError(t, err)

	if diff := cmp.Diff(ScenarioSettings{"a": 1}, s.Historical); diff != "" {
		t.Errorf("historical view mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ScenarioSettings{"b": 2}, s.Projected); diff != "" {
		t.Errorf("projected view mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSettingsMissingProjectedKey(t *testing.T) {
	path := writeSettings(t, "historical:\n  a: 1\n")

	_, err := LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "projected")
}

func TestLoadSettingsMalformed(t *testing.T) {
	path := writeSettings(t, "historical: [unclosed\n")

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestLoadSettingsMissingFile(t *testing.T) {
	_, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadSettingsRejectsNonYAMLExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestLoadSettingsMultipleDocuments(t *testing.T) {
	path := writeSettings(t, "historical: {}\nprojected: {}\n---\nextra: true\n")

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestLoadSettingsScalarScenarioValue(t *testing.T) {
	// A top-level key that is not a mapping is as unusable as a missing one.
	path := writeSettings(t, "historical: 42\nprojected: {}\n")

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestScenarioSettingsAccessors(t *testing.T) {
	s := ScenarioSettings{
		"start_year":       1950,
		"min_completeness": 0.8,
		"source":           "noaa",
		"scenarios":        []any{"low", "high"},
	}

	year, ok := s.Int("start_year")
	require.True(t, ok)
	assert.Equal(t, 1950, year)

	completeness, ok := s.Float("min_completeness")
	require.True(t, ok)
	assert.InDelta(t, 0.8, completeness, 1e-9)

	source, ok := s.String("source")
	require.True(t, ok)
	assert.Equal(t, "noaa", source)

	scenarios, ok := s.Strings("scenarios")
	require.True(t, ok)
	assert.Equal(t, []string{"low", "high"}, scenarios)

	_, ok = s.Int("absent")
	assert.False(t, ok)
}
