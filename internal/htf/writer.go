// SPDX-License-Identifier: MIT

package htf

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/google/renameio/v2"

	"github.com/mihiarc/county-level-tidal-flooding/internal/store"
)

// Dataset file names under the historical and projected output directories.
const (
	AnnualDatasetJSON = "historical_htf.json"
	AnnualDatasetCSV  = "historical_htf.csv"

	ProjectedDatasetJSON = "projected_htf.json"
	ProjectedDatasetCSV  = "projected_htf.csv"
)

// annualRow is the serialized form of a processed annual record.
type annualRow struct {
	StationID         string  `json:"station_id"`
	StationName       string  `json:"station_name"`
	Region            string  `json:"region"`
	Year              int     `json:"year"`
	MajorFloodDays    int     `json:"major_flood_days"`
	ModerateFloodDays int     `json:"moderate_flood_days"`
	MinorFloodDays    int     `json:"minor_flood_days"`
	MissingDays       int     `json:"missing_days"`
	TotalFloodDays    int     `json:"total_flood_days"`
	Completeness      float64 `json:"data_completeness"`
}

// projectionRow is the serialized form of a processed projection record.
type projectionRow struct {
	StationID        string  `json:"station_id"`
	StationName      string  `json:"station_name"`
	Region           string  `json:"region"`
	Decade           int     `json:"decade"`
	Source           string  `json:"source"`
	Low              float64 `json:"low"`
	IntermediateLow  float64 `json:"int_low"`
	Intermediate     float64 `json:"intermediate"`
	IntermediateHigh float64 `json:"int_high"`
	High             float64 `json:"high"`
}

// WriteAnnualDataset writes the processed historical dataset to dir as both
// JSON and CSV. Writes are atomic: a crash never leaves partial datasets.
func WriteAnnualDataset(dir string, records []store.AnnualRecord) error {
	rows := make([]annualRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, annualRow{
			StationID:         r.StationID,
			StationName:       r.StationName,
			Region:            r.Region,
			Year:              r.Year,
			MajorFloodDays:    r.MajorCount,
			ModerateFloodDays: r.ModerateCount,
			MinorFloodDays:    r.MinorCount,
			MissingDays:       r.MissingCount,
			TotalFloodDays:    r.MajorCount + r.ModerateCount + r.MinorCount,
			Completeness:      r.Completeness,
		})
	}

	if err := writeJSON(filepath.Join(dir, AnnualDatasetJSON), rows); err != nil {
		return err
	}

	header := []string{"station_id", "station_name", "region", "year",
		"major_flood_days", "moderate_flood_days", "minor_flood_days",
		"missing_days", "total_flood_days", "data_completeness"}
	return writeCSV(filepath.Join(dir, AnnualDatasetCSV), header, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.StationID, r.StationName, r.Region, strconv.Itoa(r.Year),
			strconv.Itoa(r.MajorFloodDays), strconv.Itoa(r.ModerateFloodDays),
			strconv.Itoa(r.MinorFloodDays), strconv.Itoa(r.MissingDays),
			strconv.Itoa(r.TotalFloodDays),
			strconv.FormatFloat(r.Completeness, 'f', 4, 64),
		}
	})
}

// WriteProjectedDataset writes the processed projection dataset to dir as
// both JSON and CSV.
func WriteProjectedDataset(dir string, records []store.ProjectionRecord) error {
	rows := make([]projectionRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, projectionRow{
			StationID:        r.StationID,
			StationName:      r.StationName,
			Region:           r.Region,
			Decade:           r.Decade,
			Source:           r.Source,
			Low:              r.Low,
			IntermediateLow:  r.IntermediateLow,
			Intermediate:     r.Intermediate,
			IntermediateHigh: r.IntermediateHigh,
			High:             r.High,
		})
	}

	if err := writeJSON(filepath.Join(dir, ProjectedDatasetJSON), rows); err != nil {
		return err
	}

	header := []string{"station_id", "station_name", "region", "decade",
		"source", "low", "int_low", "intermediate", "int_high", "high"}
	return writeCSV(filepath.Join(dir, ProjectedDatasetCSV), header, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			r.StationID, r.StationName, r.Region, strconv.Itoa(r.Decade), r.Source,
			strconv.FormatFloat(r.Low, 'f', 2, 64),
			strconv.FormatFloat(r.IntermediateLow, 'f', 2, 64),
			strconv.FormatFloat(r.Intermediate, 'f', 2, 64),
			strconv.FormatFloat(r.IntermediateHigh, 'f', 2, 64),
			strconv.FormatFloat(r.High, 'f', 2, 64),
		}
	})
}

func writeJSON(path string, v any) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending dataset file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	enc := json.NewEncoder(pending)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode dataset %s: %w", path, err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace dataset %s: %w", path, err)
	}
	return nil
}

func writeCSV(path string, header []string, n int, row func(i int) []string) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending dataset file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	w := csv.NewWriter(pending)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(row(i)); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush CSV %s: %w", path, err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace dataset %s: %w", path, err)
	}
	return nil
}
