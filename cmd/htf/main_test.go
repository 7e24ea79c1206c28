// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihiarc/county-level-tidal-flooding/internal/config"
	"github.com/mihiarc/county-level-tidal-flooding/internal/htf"
)

func TestRunRejectsUnknownCommand(t *testing.T) {
	assert.Equal(t, 2, run([]string{"frobnicate"}))
}

func TestRunWithoutArgsPrintsUsage(t *testing.T) {
	assert.Equal(t, 2, run(nil))
}

func TestRunVersion(t *testing.T) {
	assert.Equal(t, 0, run([]string{"version"}))
}

func TestAPISettings(t *testing.T) {
	s := config.Settings{Raw: map[string]any{
		"api": map[string]any{
			"base_url":            "https://example.test/webapi",
			"requests_per_second": 4,
		},
	}}

	base, rps := apiSettings(s)
	assert.Equal(t, "https://example.test/webapi", base)
	assert.InDelta(t, 4.0, rps, 1e-9)
}

func TestAPISettingsAbsent(t *testing.T) {
	base, rps := apiSettings(config.Settings{Raw: map[string]any{}})
	assert.Empty(t, base)
	assert.Zero(t, rps)
}

func TestStatusDoesNotMutateFilesystem(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	settings := "historical:\n  start_year: 1950\n  end_year: 2024\nprojected:\n  start_decade: 2020\n  end_decade: 2100\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "noaa_settings.yaml"), []byte(settings), 0o644))

	assert.Equal(t, 0, run([]string{"status", "-root", root}))

	_, err := os.Stat(filepath.Join(root, "data"))
	assert.True(t, os.IsNotExist(err), "status must not create the data tree")
	_, err = os.Stat(filepath.Join(root, "data", "processed", "htf.db"))
	assert.True(t, os.IsNotExist(err), "status must not create the store")
}

func TestReportFetch(t *testing.T) {
	require.NoError(t, reportFetch(htf.FetchReport{Stations: 3, Fetched: 2, Failed: 1}))

	err := reportFetch(htf.FetchReport{Stations: 2, Failed: 2})
	assert.Error(t, err, "a run where every station failed must fail")
}
