// SPDX-License-Identifier: MIT

package stations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRegion(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadNestedLocationLayout(t *testing.T) {
	dir := t.TempDir()
	writeRegion(t, dir, "north_atlantic.yaml", `
region: North_Atlantic
stations:
  "8443970":
    name: Boston, MA
    location:
      lat: 42.3539
      lon: -71.0503
`)

	reg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())

	st, ok := reg.Get("8443970")
	require.True(t, ok)
	assert.Equal(t, "Boston, MA", st.Name)
	assert.Equal(t, "north_atlantic", st.Region)
	assert.InDelta(t, 42.3539, st.Latitude, 1e-9)
	assert.InDelta(t, -71.0503, st.Longitude, 1e-9)
}

func TestLoadFlatCoordinateLayout(t *testing.T) {
	dir := t.TempDir()
	writeRegion(t, dir, "pacific_islands.yaml", `
stations:
  "1611400":
    name: Nawiliwili, HI
    latitude: "21.9544"
    longitude: "-159.3561"
`)

	reg, err := Load(dir)
	require.NoError(t, err)

	st, ok := reg.Get("1611400")
	require.True(t, ok)
	// Region falls back to the file name when absent from the record.
	assert.Equal(t, "pacific_islands", st.Region)
	assert.InDelta(t, 21.9544, st.Latitude, 1e-9)
}

func TestLoadMergesRegions(t *testing.T) {
	dir := t.TempDir()
	writeRegion(t, dir, "west_coast.yaml", `
stations:
  "9447130":
    name: Seattle, WA
    location: {lat: 47.6026, lon: -122.3393}
`)
	writeRegion(t, dir, "gulf_coast.yaml", `
stations:
  "8771341":
    name: Galveston Bay, TX
    location: {lat: 29.357, lon: -94.7247}
`)

	reg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
	assert.ElementsMatch(t, []string{"gulf_coast", "west_coast"}, reg.Regions())
	assert.True(t, reg.Valid("9447130"))
	assert.False(t, reg.Valid("0000000"))

	west := reg.Region("West_Coast")
	require.Len(t, west, 1)
	assert.Equal(t, "9447130", west[0].ID)
}

func TestLoadRejectsDuplicateStation(t *testing.T) {
	dir := t.TempDir()
	writeRegion(t, dir, "a.yaml", `
stations:
  "9447130":
    name: Seattle, WA
    location: {lat: 47.6, lon: -122.3}
`)
	writeRegion(t, dir, "b.yaml", `
stations:
  "9447130":
    name: Seattle, WA
    location: {lat: 47.6, lon: -122.3}
`)

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadRejectsMissingCoordinates(t *testing.T) {
	dir := t.TempDir()
	writeRegion(t, dir, "bad.yaml", `
stations:
  "9447130":
    name: Seattle, WA
`)

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestLoadIgnoresNonYAMLFiles(t *testing.T) {
	dir := t.TempDir()
	writeRegion(t, dir, "readme.txt", "not yaml")
	writeRegion(t, dir, "west_coast.yaml", `
stations:
  "9447130":
    name: Seattle, WA
    location: {lat: 47.6, lon: -122.3}
`)

	reg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}
