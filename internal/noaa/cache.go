// SPDX-License-Identifier: MIT

package noaa

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// Data types the cache partitions on.
const (
	DataTypeHistorical = "historical"
	DataTypeProjected  = "projected"
)

// Cache is a file-backed store of per-station API responses under the raw
// data directory: <root>/historical/<station>.json and
// <root>/projected/<station>.json. Writes are atomic so a crashed fetch
// never leaves a truncated file behind.
type Cache struct {
	root string
}

// NewCache creates the cache rooted at dir (normally the raw data
// directory) and materializes its data-type subdirectories.
func NewCache(dir string) (*Cache, error) {
	for _, dt := range []string{DataTypeHistorical, DataTypeProjected} {
		if err := os.MkdirAll(filepath.Join(dir, dt), 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	return &Cache{root: dir}, nil
}

// OpenCache wraps an existing cache directory without creating anything.
// Reads against absent subdirectories report misses; use NewCache when the
// caller intends to write.
func OpenCache(dir string) *Cache {
	return &Cache{root: dir}
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

func (c *Cache) stationPath(dataType, station string) string {
	return filepath.Join(c.root, dataType, station+".json")
}

// Annual returns the cached annual flood counts for a station. The bool
// result reports a cache hit.
func (c *Cache) Annual(station string) ([]AnnualFloodCount, bool, error) {
	var records []AnnualFloodCount
	ok, err := c.read(DataTypeHistorical, station, &records)
	return records, ok, err
}

// StoreAnnual replaces the cached annual flood counts for a station.
func (c *Cache) StoreAnnual(station string, records []AnnualFloodCount) error {
	return c.write(DataTypeHistorical, station, records)
}

// Decadal returns the cached decadal projections for a station.
func (c *Cache) Decadal(station string) ([]DecadalProjection, bool, error) {
	var records []DecadalProjection
	ok, err := c.read(DataTypeProjected, station, &records)
	return records, ok, err
}

// StoreDecadal replaces the cached decadal projections for a station.
func (c *Cache) StoreDecadal(station string, records []DecadalProjection) error {
	return c.write(DataTypeProjected, station, records)
}

// Stations lists the station IDs present in the cache for a data type.
func (c *Cache) Stations(dataType string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(c.root, dataType))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) != ".json" {
			continue
		}
		ids = append(ids, name[:len(name)-len(".json")])
	}
	return ids, nil
}

func (c *Cache) read(dataType, station string, out any) (bool, error) {
	path := c.stationPath(dataType, station)
	// #nosec G304 -- cache paths are derived from the configured raw data dir
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			observeCache(dataType, "miss")
			return false, nil
		}
		observeCache(dataType, "error")
		return false, fmt.Errorf("read cache %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		observeCache(dataType, "error")
		return false, fmt.Errorf("decode cache %s: %w", path, err)
	}
	observeCache(dataType, "hit")
	return true, nil
}

func (c *Cache) write(dataType, station string, records any) error {
	path := c.stationPath(dataType, station)

	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		observeCache(dataType, "error")
		return fmt.Errorf("create pending cache file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	enc := json.NewEncoder(pending)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		observeCache(dataType, "error")
		return fmt.Errorf("encode cache %s: %w", path, err)
	}

	// fsync + rename keeps the cache consistent under crashes.
	if err := pending.CloseAtomicallyReplace(); err != nil {
		observeCache(dataType, "error")
		return fmt.Errorf("atomically replace cache %s: %w", path, err)
	}
	observeCache(dataType, "store")
	return nil
}
