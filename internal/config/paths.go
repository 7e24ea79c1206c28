// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths holds every filesystem location the pipeline reads or writes,
// derived deterministically from a single project root. The layout is
// fixed; only the root moves with the checkout.
type Paths struct {
	Root string

	DataDir          string
	RawDataDir       string
	ProcessedDataDir string
	OutputDir        string
	LogDir           string
	ConfigDir        string

	HistoricalDataDir   string
	HistoricalOutputDir string
	ProjectedDataDir    string
	ProjectedOutputDir  string

	// Processed artifacts consumed by the assignment and analysis steps.
	// The parquet files are produced by external preprocessing tooling;
	// this module only fixes their locations.
	ShorelineFile           string
	CountyFile              string
	CoastalCountiesFile     string
	TideStationsListFile    string
	HistoricalRefPointsFile string
	ProjectedRefPointsFile  string
	TideGaugeCountyMapFile  string
	HTFStoreFile            string
	SettingsFile            string
	TideStationsConfigDir   string
}

// DerivePaths computes the full path set for a project root. The root is
// made absolute so downstream path confinement checks behave consistently.
func DerivePaths(root string) (Paths, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Paths{}, fmt.Errorf("resolve project root: %w", err)
	}

	p := Paths{Root: abs}
	p.DataDir = filepath.Join(abs, "data")
	p.RawDataDir = filepath.Join(p.DataDir, "raw")
	p.ProcessedDataDir = filepath.Join(p.DataDir, "processed")
	p.OutputDir = filepath.Join(abs, "output")
	p.LogDir = filepath.Join(abs, "logs")
	p.ConfigDir = filepath.Join(abs, "config")

	p.HistoricalDataDir = filepath.Join(p.DataDir, "historical")
	p.HistoricalOutputDir = filepath.Join(p.OutputDir, "historical")
	p.ProjectedDataDir = filepath.Join(p.DataDir, "projected")
	p.ProjectedOutputDir = filepath.Join(p.OutputDir, "projected")

	p.ShorelineFile = filepath.Join(p.ProcessedDataDir, "shoreline.parquet")
	p.CountyFile = filepath.Join(p.ProcessedDataDir, "county.parquet")
	p.CoastalCountiesFile = filepath.Join(p.ProcessedDataDir, "coastal_counties.parquet")
	p.TideStationsListFile = filepath.Join(p.ProcessedDataDir, "tide-stations-list.json")
	p.HistoricalRefPointsFile = filepath.Join(p.ProcessedDataDir, "coastal_reference_points_historical.parquet")
	p.ProjectedRefPointsFile = filepath.Join(p.ProcessedDataDir, "coastal_reference_points_projected.parquet")
	p.TideGaugeCountyMapFile = filepath.Join(p.ProcessedDataDir, "tide_gauge_county_map.json")
	p.HTFStoreFile = filepath.Join(p.ProcessedDataDir, "htf.db")
	p.SettingsFile = filepath.Join(p.ConfigDir, "noaa_settings.yaml")
	p.TideStationsConfigDir = filepath.Join(p.ConfigDir, "tide_stations")

	return p, nil
}

// Directories returns every directory the pipeline expects to exist, in
// creation order (parents before children).
func (p Paths) Directories() []string {
	return []string{
		p.DataDir,
		p.RawDataDir,
		p.ProcessedDataDir,
		p.OutputDir,
		p.LogDir,
		p.ConfigDir,
		p.HistoricalDataDir,
		p.HistoricalOutputDir,
		p.ProjectedDataDir,
		p.ProjectedOutputDir,
	}
}

// EnsureDirectories creates every declared directory, including missing
// ancestors. Safe to call repeatedly and from concurrent processes:
// os.MkdirAll tolerates directories that already exist.
func (p Paths) EnsureDirectories() error {
	for _, dir := range p.Directories() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
