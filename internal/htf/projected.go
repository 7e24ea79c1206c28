// SPDX-License-Identifier: MIT

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

// ProjectedService fetches and processes decadal flood projections.
type ProjectedService struct {
	client   *noaa.Client
	cache    *noaa.Cache
	registry *stations.Registry

	startDecade int
	endDecade   int
}

// NewProjectedService builds the service from the projected settings view.
// The start_decade and end_decade keys are required and must be decade
// multiples.
func NewProjectedService(client *noaa.Client, cache *noaa.Cache, registry *stations.Registry, settings config.ScenarioSettings) (*ProjectedService, error) {
	startDecade, ok := settings.Int("start_decade")
	if !ok {
		return nil, fmt.Errorf("projected settings: missing start_decade")
	}
	endDecade, ok := settings.Int("end_decade")
	if !ok {
		return nil, fmt.Errorf("projected settings: missing end_decade")
	}
	if startDecade%10 != 0 || endDecade%10 != 0 {
		return nil, fmt.Errorf("projected settings: decades must be multiples of 10")
	}
	if endDecade < startDecade {
		return nil, fmt.Errorf("projected settings: end_decade %d before start_decade %d", endDecade, startDecade)
	}

	return &ProjectedService{
		client:      client,
		cache:       cache,
		registry:    registry,
		startDecade: startDecade,
		endDecade:   endDecade,
	}, nil
}

// DecadeRange returns the configured inclusive projection window.
func (s *ProjectedService) DecadeRange() (int, int) {
	return s.startDecade, s.endDecade
}

// StationData returns the decadal projections for one station, cache-first
// with API fallback.
func (s *ProjectedService) StationData(ctx context.Context, stationID string) ([]noaa.DecadalProjection, error) {
	if !s.registry.Valid(stationID) {
		return nil, fmt.Errorf("unknown station: %s", stationID)
	}
	ctx = xglog.ContextWithStationID(ctx, stationID)

	records, ok, err := s.cache.Decadal(stationID)
	if err != nil {
		return nil, err
	}
	if ok {
		return records, nil
	}

	records, err = s.client.FetchDecadalProjections(ctx, stationID, noaa.DecadalOptions{})
	if err != nil {
		return nil, err
	}
	if err := s.cache.StoreDecadal(stationID, records); err != nil {
		return nil, err
	}
	return records, nil
}

// FetchAll retrieves decadal projections for every registered station,
// skipping stations already cached. Station failures are counted, not
// fatal.
func (s *ProjectedService) FetchAll(ctx context.Context, workers int) (FetchReport, error) {
	if workers <= 0 {
		workers = DefaultFetchWorkers
	}

	logger := xglog.WithComponentFromContext(ctx, "htf.projected")

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
				stLogger := xglog.WithComponentFromContext(stationCtx, "htf.projected")
				stLogger.Warn().
					Err(err).
					Str(xglog.FieldRegion, st.Region).
					Str(xglog.FieldEvent, "fetch.station_failed").
					Msg("failed to fetch station projections")
			case cached:
				report.Cached++
				report.Records += len(records)
			default:
				report.Fetched++
				report.Records += len(records)
			}
			return ctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("fetch interrupted: %w", err)
	}

	logger.Info().
		Str(xglog.FieldDataType, noaa.DataTypeProjected).
		Int("stations", report.Stations).
		Int("fetched", report.Fetched).
		Int("cached", report.Cached).
		Int("failed", report.Failed).
		Str(xglog.FieldEvent, "fetch.completed").
		Msg("projected fetch run completed")

	return report, nil
}

func (s *ProjectedService) fetchStation(ctx context.Context, stationID string) ([]noaa.DecadalProjection, bool, error) {
	records, ok, err := s.cache.Decadal(stationID)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return records, true, nil
	}

	records, err = s.client.FetchDecadalProjections(ctx, stationID, noaa.DecadalOptions{})
	if err != nil {
		return nil, false, err
	}
	if err := s.cache.StoreDecadal(stationID, records); err != nil {
		return nil, false, err
	}
	return records, false, nil
}

// ProcessAll turns cached projections into processed store records for the
// configured decade window. Records with negative scenario values are
// dropped.
func (s *ProjectedService) ProcessAll(ctx context.Context) ([]store.ProjectionRecord, error) {
	var out []store.ProjectionRecord
	for _, st := range s.registry.All() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		records, ok, err := s.cache.Decadal(st.ID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		for _, rec := range records {
			if rec.Decade < s.startDecade || rec.Decade > s.endDecade {
				continue
			}
			if !validProjectionRecord(rec) {
				continue
			}
			out = append(out, store.ProjectionRecord{
				StationID:        st.ID,
				StationName:      st.Name,
				Region:           st.Region,
				Decade:           rec.Decade,
				Source:           rec.Source,
				Low:              rec.Low,
				IntermediateLow:  rec.IntermediateLow,
				Intermediate:     rec.Intermediate,
				IntermediateHigh: rec.IntermediateHigh,
				High:             rec.High,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StationID != out[j].StationID {
			return out[i].StationID < out[j].StationID
		}
		return out[i].Decade < out[j].Decade
	})
	return out, nil
}

// validProjectionRecord requires non-negative, ordered scenario values:
// projected flood days can only grow with scenario severity.
func validProjectionRecord(rec noaa.DecadalProjection) bool {
	if rec.Low < 0 || rec.IntermediateLow < 0 || rec.Intermediate < 0 || rec.IntermediateHigh < 0 || rec.High < 0 {
		return false
	}
	if rec.Low > rec.IntermediateLow || rec.IntermediateLow > rec.Intermediate ||
		rec.Intermediate > rec.IntermediateHigh || rec.IntermediateHigh > rec.High {
		return false
	}
	return true
}
