// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpatialConstants(t *testing.T) {
	// Regression guard: downstream reprojection depends on these exact
	// literals.
	assert.Equal(t,
		"+proj=aea +lat_1=20 +lat_2=60 +lat_0=40 +lon_0=-96 +x_0=0 +y_0=0 +ellps=GRS80 +datum=NAD83 +units=m +no_defs",
		AlbersCRS)
	assert.Equal(t, 4326, WGS84EPSG)
	assert.Equal(t, 5000, PointSpacing)
}

func TestLoadReadsSettingsFromConfigDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "config", "noaa_settings.yaml"),
		[]byte("historical:\n  start_year: 1950\nprojected:\n  end_decade: 2100\n"),
		0o644))

	cfg, err := Load(root)
	require.NoError(t, err)

	year, ok := cfg.Settings.Historical.Int("start_year")
	require.True(t, ok)
	assert.Equal(t, 1950, year)

	// Load must not touch the filesystem beyond reading the settings file.
	_, err = os.Stat(filepath.Join(root, "data"))
	assert.True(t, os.IsNotExist(err), "Load must not create directories")
}

func TestLoadFailsWithoutSettings(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestBootstrapCreatesTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "config", "noaa_settings.yaml"),
		[]byte("historical: {}\nprojected: {}\n"),
		0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	require.NoError(t, cfg.Bootstrap())

	for _, rel := range []string{"data/raw", "data/processed", "output/historical", "output/projected", "logs"} {
		_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		assert.NoError(t, err, "expected %s to exist", rel)
	}
}
