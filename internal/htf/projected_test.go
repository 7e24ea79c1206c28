// SPDX-License-Identifier: MIT

package htf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihiarc/county-level-tidal-flooding/internal/config"
	"github.com/mihiarc/county-level-tidal-flooding/internal/noaa"
)

func decadalPayload(station string, decades ...int) map[string]any {
	records := make([]map[string]any, 0, len(decades))
	for _, d := range decades {
		records = append(records, map[string]any{
			"stnId": station, "stnName": "Station " + station, "decade": d,
			"source": "noaa", "low": 10.0, "intLow": 20.0,
			"intermediate": 40.0, "intHigh": 80.0, "high": 150.0,
		})
	}
	return map[string]any{"DecadalProjection": records}
}

func TestProjectedFetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(decadalPayload(r.URL.Query().Get("station"), 2050, 2100))
	}))
	t.Cleanup(srv.Close)

	client := noaa.NewClient(srv.URL, 100)
	svc, err := NewProjectedService(client, testCache(t), testRegistry(t, "1611400", "8443970"), config.ScenarioSettings{
		"start_decade": 2020, "end_decade": 2100,
	})
	require.NoError(t, err)

	report, err := svc.FetchAll(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 4, report.Records)

	report, err = svc.FetchAll(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Cached)
}

func TestProjectedProcessAll(t *testing.T) {
	cache := testCache(t)
	reg := testRegistry(t, "1611400")

	require.NoError(t, cache.StoreDecadal("1611400", []noaa.DecadalProjection{
		{StationID: "1611400", Decade: 2010, Source: "noaa", Low: 1, IntermediateLow: 2, Intermediate: 3, IntermediateHigh: 4, High: 5},
		{StationID: "1611400", Decade: 2050, Source: "noaa", Low: 10, IntermediateLow: 20, Intermediate: 40, IntermediateHigh: 80, High: 150},
		// Scenario ordering violated: intermediate above intermediate-high.
		{StationID: "1611400", Decade: 2060, Source: "noaa", Low: 10, IntermediateLow: 20, Intermediate: 90, IntermediateHigh: 80, High: 150},
		{StationID: "1611400", Decade: 2070, Source: "noaa", Low: -1, IntermediateLow: 2, Intermediate: 3, IntermediateHigh: 4, High: 5},
	}))

	svc, err := NewProjectedService(noaa.NewClient("", 0), cache, reg, config.ScenarioSettings{
		"start_decade": 2020, "end_decade": 2100,
	})
	require.NoError(t, err)

	records, err := svc.ProcessAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, 2050, records[0].Decade)
	assert.Equal(t, "test_region", records[0].Region)
	assert.InDelta(t, 40.0, records[0].Intermediate, 1e-9)
}

func TestProjectedStationDataCacheFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(decadalPayload(r.URL.Query().Get("station"), 2050))
	}))
	t.Cleanup(srv.Close)

	client := noaa.NewClient(srv.URL, 100)
	cache := testCache(t)
	svc, err := NewProjectedService(client, cache, testRegistry(t, "1611400"), config.ScenarioSettings{
		"start_decade": 2020, "end_decade": 2100,
	})
	require.NoError(t, err)

	records, err := svc.StationData(context.Background(), "1611400")
	require.NoError(t, err)
	require.Len(t, records, 1)

	// The fetch must have populated the cache.
	cached, ok, err := cache.Decadal("1611400")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, records, cached)
}

func TestNewProjectedServiceValidatesDecades(t *testing.T) {
	cases := []struct {
		name     string
		settings config.ScenarioSettings
	}{
		{"missing keys", config.ScenarioSettings{}},
		{"not decade multiples", config.ScenarioSettings{"start_decade": 2025, "end_decade": 2100}},
		{"inverted range", config.ScenarioSettings{"start_decade": 2100, "end_decade": 2020}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProjectedService(noaa.NewClient("", 0), testCache(t), testRegistry(t, "1611400"), tc.settings)
			assert.Error(t, err)
		})
	}
}
