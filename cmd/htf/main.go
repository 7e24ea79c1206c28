// SPDX-License-Identifier: MIT

// Command htf drives the county-level high tide flooding pipeline:
// directory bootstrap, NOAA data fetching, processing, and status.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/mihiarc/county-level-tidal-flooding/internal/config"
	"github.com/mihiarc/county-level-tidal-flooding/internal/htf"
	xglog "github.com/mihiarc/county-level-tidal-flooding/internal/log"
	"github.com/mihiarc/county-level-tidal-flooding/internal/noaa"
	"github.com/mihiarc/county-level-tidal-flooding/internal/stations"
	"github.com/mihiarc/county-level-tidal-flooding/internal/store"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

const usage = `usage: htf <command> [flags]

commands:
  init               load configuration and create the directory tree
  fetch-historical   fetch observed annual flood counts from NOAA
  fetch-projected    fetch decadal flood projections from NOAA
  process-historical process cached annual counts into the store and datasets
  process-projected  process cached projections into the store and datasets
  stations           list the tide-station registry
  status             report cache and store contents
  version            print version and exit
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	command := args[0]
	if command == "version" || command == "-version" || command == "--version" {
		fmt.Printf("htf %s (commit: %s, built: %s)\n", version, commit, buildDate)
		return 0
	}

	xglog.Configure(xglog.Config{
		Level:   os.Getenv("LOG_LEVEL"),
		Service: "county-htf",
		Version: version,
	})
	logger := xglog.WithComponent("cli")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	ctx = xglog.ContextWithRunID(ctx, runID)

	var err error
	switch command {
	case "init":
		err = runInit(ctx, args[1:])
	case "fetch-historical":
		err = runFetch(ctx, args[1:], noaa.DataTypeHistorical)
	case "fetch-projected":
		err = runFetch(ctx, args[1:], noaa.DataTypeProjected)
	case "process-historical":
		err = runProcess(ctx, args[1:], noaa.DataTypeHistorical)
	case "process-projected":
		err = runProcess(ctx, args[1:], noaa.DataTypeProjected)
	case "stations":
		err = runStations(args[1:])
	case "status":
		err = runStatus(ctx, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", command, usage)
		return 2
	}

	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldRunID, runID).
			Str(xglog.FieldEvent, "cli.command_failed").
			Msgf("%s failed", command)
		return 1
	}
	return 0
}

// commonFlags registers the flags every subcommand shares.
func commonFlags(fs *flag.FlagSet) *string {
	return fs.String("root", ".", "project root directory")
}

func loadConfig(root string) (config.Config, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return config.Config{}, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	root := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*root)
	if err != nil {
		return err
	}
	if err := cfg.Bootstrap(); err != nil {
		return fmt.Errorf("bootstrap directories: %w", err)
	}

	logger := xglog.WithComponentFromContext(ctx, "cli")
	logger.Info().
		Str(xglog.FieldPath, cfg.Paths.Root).
		Str(xglog.FieldEvent, "init.completed").
		Msg("directory tree ready")
	return nil
}

// buildServices wires the client, cache, and registry from configuration.
func buildServices(cfg config.Config) (*noaa.Client, *noaa.Cache, *stations.Registry, error) {
	base, rps := apiSettings(cfg.Settings)
	client := noaa.NewClient(base, rps)

	cache, err := noaa.NewCache(cfg.Paths.RawDataDir)
	if err != nil {
		return nil, nil, nil, err
	}

	registry, err := stations.Load(cfg.Paths.TideStationsConfigDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load station registry: %w", err)
	}
	return client, cache, registry, nil
}

// apiSettings pulls the optional api block from the settings document.
func apiSettings(s config.Settings) (string, float64) {
	api, ok := s.Raw["api"].(map[string]any)
	if !ok {
		return "", 0
	}
	view := config.ScenarioSettings(api)
	base, _ := view.String("base_url")
	rps, _ := view.Float("requests_per_second")
	return base, rps
}

func runFetch(ctx context.Context, args []string, dataType string) error {
	fs := flag.NewFlagSet("fetch-"+dataType, flag.ExitOnError)
	root := commonFlags(fs)
	station := fs.String("station", "", "fetch a single station instead of all")
	workers := fs.Int("workers", htf.DefaultFetchWorkers, "concurrent station fetches")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*root)
	if err != nil {
		return err
	}
	if err := cfg.Bootstrap(); err != nil {
		return fmt.Errorf("bootstrap directories: %w", err)
	}

	client, cache, registry, err := buildServices(cfg)
	if err != nil {
		return err
	}

	logger := xglog.WithComponentFromContext(ctx, "cli")

	if dataType == noaa.DataTypeHistorical {
		svc, err := htf.NewHistoricalService(client, cache, registry, cfg.Settings.Historical)
		if err != nil {
			return err
		}
		if *station != "" {
			records, err := svc.StationData(ctx, *station)
			if err != nil {
				return err
			}
			logger.Info().
				Str(xglog.FieldStationID, *station).
				Int("records", len(records)).
				Str(xglog.FieldEvent, "fetch.station_completed").
				Msg("station fetch completed")
			return nil
		}
		report, err := svc.FetchAll(ctx, *workers)
		if err != nil {
			return err
		}
		return reportFetch(report)
	}

	svc, err := htf.NewProjectedService(client, cache, registry, cfg.Settings.Projected)
	if err != nil {
		return err
	}
	if *station != "" {
		records, err := svc.StationData(ctx, *station)
		if err != nil {
			return err
		}
		logger.Info().
			Str(xglog.FieldStationID, *station).
			Int("records", len(records)).
			Str(xglog.FieldEvent, "fetch.station_completed").
			Msg("station fetch completed")
		return nil
	}
	report, err := svc.FetchAll(ctx, *workers)
	if err != nil {
		return err
	}
	return reportFetch(report)
}

func reportFetch(report htf.FetchReport) error {
	fmt.Printf("stations: %d  fetched: %d  cached: %d  failed: %d  records: %d\n",
		report.Stations, report.Fetched, report.Cached, report.Failed, report.Records)
	if report.Failed > 0 && report.Fetched == 0 && report.Cached == 0 {
		return fmt.Errorf("all %d stations failed", report.Failed)
	}
	return nil
}

func runProcess(ctx context.Context, args []string, dataType string) error {
	fs := flag.NewFlagSet("process-"+dataType, flag.ExitOnError)
	root := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*root)
	if err != nil {
		return err
	}
	if err := cfg.Bootstrap(); err != nil {
		return fmt.Errorf("bootstrap directories: %w", err)
	}

	client, cache, registry, err := buildServices(cfg)
	if err != nil {
		return err
	}

	db, err := store.New(cfg.Paths.HTFStoreFile)
	if err != nil {
		return fmt.Errorf("open processed store: %w", err)
	}
	defer func() { _ = db.Close() }()

	logger := xglog.WithComponentFromContext(ctx, "cli")

	if dataType == noaa.DataTypeHistorical {
		svc, err := htf.NewHistoricalService(client, cache, registry, cfg.Settings.Historical)
		if err != nil {
			return err
		}
		records, err := svc.ProcessAll(ctx)
		if err != nil {
			return err
		}
		if err := db.UpsertAnnual(ctx, records); err != nil {
			return fmt.Errorf("store annual records: %w", err)
		}
		if err := htf.WriteAnnualDataset(cfg.Paths.HistoricalOutputDir, records); err != nil {
			return fmt.Errorf("write annual dataset: %w", err)
		}
		logger.Info().
			Int("records", len(records)).
			Str(xglog.FieldPath, cfg.Paths.HistoricalOutputDir).
			Str(xglog.FieldEvent, "process.completed").
			Msg("historical processing completed")
		return nil
	}

	svc, err := htf.NewProjectedService(client, cache, registry, cfg.Settings.Projected)
	if err != nil {
		return err
	}
	records, err := svc.ProcessAll(ctx)
	if err != nil {
		return err
	}
	if err := db.UpsertProjections(ctx, records); err != nil {
		return fmt.Errorf("store projection records: %w", err)
	}
	if err := htf.WriteProjectedDataset(cfg.Paths.ProjectedOutputDir, records); err != nil {
		return fmt.Errorf("write projected dataset: %w", err)
	}
	logger.Info().
		Int("records", len(records)).
		Str(xglog.FieldPath, cfg.Paths.ProjectedOutputDir).
		Str(xglog.FieldEvent, "process.completed").
		Msg("projected processing completed")
	return nil
}

func runStations(args []string) error {
	fs := flag.NewFlagSet("stations", flag.ExitOnError)
	root := commonFlags(fs)
	region := fs.String("region", "", "restrict to one region")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*root)
	if err != nil {
		return err
	}

	registry, err := stations.Load(cfg.Paths.TideStationsConfigDir)
	if err != nil {
		return fmt.Errorf("load station registry: %w", err)
	}

	list := registry.All()
	if *region != "" {
		list = registry.Region(*region)
	}
	for _, st := range list {
		fmt.Printf("%s  %-30s  %-18s  %9.4f  %9.4f\n", st.ID, st.Name, st.Region, st.Latitude, st.Longitude)
	}
	fmt.Printf("%d stations\n", len(list))
	return nil
}

func runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	root := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*root)
	if err != nil {
		return err
	}

	// Status only inspects; it must not materialize cache dirs or the db.
	cache := noaa.OpenCache(cfg.Paths.RawDataDir)
	for _, dataType := range []string{noaa.DataTypeHistorical, noaa.DataTypeProjected} {
		ids, err := cache.Stations(dataType)
		if err != nil {
			return err
		}
		fmt.Printf("cache %s: %d stations\n", dataType, len(ids))
	}

	if _, err := os.Stat(cfg.Paths.HTFStoreFile); errors.Is(err, os.ErrNotExist) {
		fmt.Println("store: not created")
		return nil
	}

	db, err := store.New(cfg.Paths.HTFStoreFile)
	if err != nil {
		return fmt.Errorf("open processed store: %w", err)
	}
	defer func() { _ = db.Close() }()

	sum, err := db.Summarize(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("store annual: %d rows across %d stations\n", sum.AnnualRows, sum.AnnualStations)
	fmt.Printf("store projections: %d rows across %d stations\n", sum.ProjectionRows, sum.ProjectionStations)
	return nil
}
