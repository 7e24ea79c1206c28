// SPDX-License-Identifier: MIT

// Package htf implements the historical and projected high tide flooding
// fetch and processing services.
package htf

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mihiarc/county-level-tidal-flooding/internal/config"
	xglog "github.com/mihiarc/county-level-tidal-flooding/internal/log"
	"github.com/mihiarc/county-level-tidal-flooding/internal/noaa"
	"github.com/mihiarc/county-level-tidal-flooding/internal/stations"
	"github.com/mihiarc/county-level-tidal-flooding/internal/store"
)

// DefaultFetchWorkers bounds concurrent station fetches. The client-side
// rate limiter is the real throttle; this only caps in-flight requests.
const DefaultFetchWorkers = 4

// daysPerYear is the simplified completeness denominator, matching the
// upstream dataset convention (leap days ignored).
const daysPerYear = 365

// FetchReport summarizes one fetch run.
type FetchReport struct {
	Stations int // stations attempted
	Fetched  int // stations fetched from the API
	Cached   int // stations served from cache
	Failed   int // stations that errored
	Records  int // total records now available
}

// HistoricalService fetches and processes observed annual flood counts.
type HistoricalService struct {
	client   *noaa.Client
	cache    *noaa.Cache
	registry *stations.Registry

	startYear       int
	endYear         int
	minCompleteness float64
}

// NewHistoricalService builds the service from the historical settings
// view. The start_year and end_year keys are required; min_completeness
// is optional and defaults to keeping every year.
func NewHistoricalService(client *noaa.Client, cache *noaa.Cache, registry *stations.Registry, settings config.ScenarioSettings) (*HistoricalService, error) {
	startYear, ok := settings.Int("start_year")
	if !ok {
		return nil, fmt.Errorf("historical settings: missing start_year")
	}
	endYear, ok := settings.Int("end_year")
	if !ok {
		return nil, fmt.Errorf("historical settings: missing end_year")
	}
	if endYear < startYear {
		return nil, fmt.Errorf("historical settings: end_year %d before start_year %d", endYear, startYear)
	}

	minCompleteness, ok := settings.Float("min_completeness")
	if ok && (minCompleteness < 0 || minCompleteness > 1) {
		return nil, fmt.Errorf("historical settings: min_completeness %v outside [0, 1]", minCompleteness)
	}

	return &HistoricalService{
		client:          client,
		cache:           cache,
		registry:        registry,
		startYear:       startYear,
		endYear:         endYear,
		minCompleteness: minCompleteness,
	}, nil
}

// YearRange returns the configured inclusive observation window.
func (s *HistoricalService) YearRange() (int, int) {
	return s.startYear, s.endYear
}

// StationData returns the annual flood counts for one station, serving
// from cache when possible and falling back to the API. Fresh API data is
// cached before returning.
func (s *HistoricalService) StationData(ctx context.Context, stationID string) ([]noaa.AnnualFloodCount, error) {
	if !s.registry.Valid(stationID) {
		return nil, fmt.Errorf("unknown station: %s", stationID)
	}
	ctx = xglog.ContextWithStationID(ctx, stationID)

	records, ok, err := s.cache.Annual(stationID)
	if err != nil {
		return nil, err
	}
	if ok {
		return records, nil
	}

	records, err = s.client.FetchAnnualFloodCounts(ctx, stationID, noaa.AnnualOptions{})
	if err != nil {
		return nil, err
	}
	if err := s.cache.StoreAnnual(stationID, records); err != nil {
		return nil, err
	}
	return records, nil
}

// FetchAll retrieves annual flood counts for every registered station,
// skipping stations already cached. Station failures are logged and
// counted, not fatal: one dead gauge must not sink a whole run.
func (s *HistoricalService) FetchAll(ctx context.Context, workers int) (FetchReport, error) {
	if workers <= 0 {
		workers = DefaultFetchWorkers
	}

	logger := xglog.WithComponentFromContext(ctx, "htf.historical")

	var (
		mu     sync.Mutex
		report FetchReport
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, st := range s.registry.All() {
		st := st
		g.Go(func() error {
			stationCtx := xglog.ContextWithStationID(ctx, st.ID)
			records, cached, err := s.fetchStation(stationCtx, st.ID)

			mu.Lock()
			defer mu.Unlock()
			report.Stations++
			switch {
			case err != nil:
				report.Failed++
				stLogger := xglog.WithComponentFromContext(stationCtx, "htf.historical")
				stLogger.Warn().
					Err(err).
					Str(xglog.FieldRegion, st.Region).
					Str(xglog.FieldEvent, "fetch.station_failed").
					Msg("failed to fetch station data")
			case cached:
				report.Cached++
				report.Records += len(records)
			default:
				report.Fetched++
				report.Records += len(records)
			}
			// Only context cancellation aborts the group.
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("fetch interrupted: %w", err)
	}

	logger.Info().
		Str(xglog.FieldDataType, noaa.DataTypeHistorical).
		Int("stations", report.Stations).
		Int("fetched", report.Fetched).
		Int("cached", report.Cached).
		Int("failed", report.Failed).
		Str(xglog.FieldEvent, "fetch.completed").
		Msg("historical fetch run completed")

	return report, nil
}

func (s *HistoricalService) fetchStation(ctx context.Context, stationID string) ([]noaa.AnnualFloodCount, bool, error) {
	records, ok, err := s.cache.Annual(stationID)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return records, true, nil
	}

	records, err = s.client.FetchAnnualFloodCounts(ctx, stationID, noaa.AnnualOptions{})
	if err != nil {
		return nil, false, err
	}
	if err := s.cache.StoreAnnual(stationID, records); err != nil {
		return nil, false, err
	}
	return records, false, nil
}

// ProcessAll turns cached annual counts into processed store records for
// the configured year window. Invalid records and years below the
// completeness floor are dropped.
func (s *HistoricalService) ProcessAll(ctx context.Context) ([]store.AnnualRecord, error) {
	var out []store.AnnualRecord
	for _, st := range s.registry.All() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		records, ok, err := s.cache.Annual(st.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		for _, rec := range records {
			if rec.Year < s.startYear || rec.Year > s.endYear {
				continue
			}
			if !validAnnualRecord(rec) {
				continue
			}
			completeness := float64(daysPerYear-rec.MissingCount) / daysPerYear
			if completeness < s.minCompleteness {
				continue
			}
			out = append(out, store.AnnualRecord{
				StationID:     st.ID,
				StationName:   st.Name,
				Region:        st.Region,
				Year:          rec.Year,
				MajorCount:    rec.MajorCount,
				ModerateCount: rec.ModerateCount,
				MinorCount:    rec.MinorCount,
				MissingCount:  rec.MissingCount,
				Completeness:  completeness,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StationID != out[j].StationID {
			return out[i].StationID < out[j].StationID
		}
		return out[i].Year < out[j].Year
	})
	return out, nil
}

// validAnnualRecord applies the upstream sanity checks: non-negative
// counts, and flood plus missing days bounded by a leap year.
func validAnnualRecord(rec noaa.AnnualFloodCount) bool {
	if rec.MinorCount < 0 || rec.MissingCount < 0 || rec.MajorCount < 0 || rec.ModerateCount < 0 {
		return false
	}
	if rec.MinorCount+rec.MissingCount > 366 {
		return false
	}
	return true
}
