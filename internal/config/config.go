// SPDX-License-Identifier: MIT

// Package config defines the path registry, settings document, and spatial
// constants for the county-level tidal flooding pipeline.
package config

import "fmt"

// Spatial reference systems.
const (
	// AlbersCRS is the equal-area projection used for all distance and
	// area computation, parameterized for a North-America-centered frame.
	AlbersCRS = "+proj=aea +lat_1=20 +lat_2=60 +lat_0=40 +lon_0=-96 +x_0=0 +y_0=0 +ellps=GRS80 +datum=NAD83 +units=m +no_defs"

	// WGS84EPSG identifies the geographic CRS of all source coordinates.
	WGS84EPSG = 4326
)

// Distance thresholds in meters.
const (
	PointSpacing          = 5000   // spacing between coastal reference points
	CloseThreshold        = 1000   // "very close" gauge threshold
	InitialSearchDistance = 50000  // initial gauge search radius
	MaxSearchDistance     = 200000 // maximum gauge search radius
	DistanceIncrement     = 25000  // increments for expanding search
)

// Gauge association parameters.
const (
	MaxGaugesPerPoint  = 3    // gauges associated with each reference point
	MinWeightThreshold = 0.01 // minimum weight for a gauge to stay relevant
)

// Config is the immutable pipeline configuration: the full path registry
// plus the parsed settings document. Construct it once with Load and pass
// it explicitly to consumers.
type Config struct {
	Paths    Paths
	Settings Settings
}

// Load derives the path registry from the project root and parses the
// settings file at its fixed location under config/. It performs no
// filesystem mutation; call Config.Bootstrap (or Paths.EnsureDirectories)
// to materialize the directory tree.
func Load(root string) (Config, error) {
	paths, err := DerivePaths(root)
	if err != nil {
		return Config{}, err
	}

	settings, err := LoadSettings(paths.SettingsFile)
	if err != nil {
		return Config{}, fmt.Errorf("load settings: %w", err)
	}

	return Config{Paths: paths, Settings: settings}, nil
}

// Bootstrap creates the expected directory tree. Idempotent.
func (c Config) Bootstrap() error {
	return c.Paths.EnsureDirectories()
}
