// SPDX-License-Identifier: MIT

// Package stations loads the tide-station registry from the per-region
// YAML files under config/tide_stations.
package stations

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Station is one NOAA tide station.
type Station struct {
	ID        string
	Name      string
	Region    string
	Latitude  float64
	Longitude float64
}

// Registry is the loaded station set, indexed by ID.
type Registry struct {
	stations []Station
	byID     map[string]Station
}

// regionFile mirrors the on-disk YAML. Two coordinate layouts are in use:
// a nested location block and flat latitude/longitude keys.
type regionFile struct {
	Region   string                 `yaml:"region"`
	Stations map[string]stationYAML `yaml:"stations"`
}

type stationYAML struct {
	Name     string  `yaml:"name"`
	Region   string  `yaml:"region"`
	Location *struct {
		Lat yamlFloat `yaml:"lat"`
		Lon yamlFloat `yaml:"lon"`
	} `yaml:"location"`
	Latitude  *yamlFloat `yaml:"latitude"`
	Longitude *yamlFloat `yaml:"longitude"`
}

// yamlFloat accepts both numeric and quoted-string coordinates.
type yamlFloat float64

func (f *yamlFloat) UnmarshalYAML(node *yaml.Node) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(node.Value), 64)
	if err != nil {
		return fmt.Errorf("parse coordinate %q: %w", node.Value, err)
	}
	*f = yamlFloat(v)
	return nil
}

// Load reads every region YAML file in dir and merges the stations into
// one registry. A station's region falls back to the file's region key,
// then to the file name.
func Load(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read station config dir: %w", err)
	}

	reg := &Registry{byID: make(map[string]Station)}
	for _, e := range entries {
		name := e.Name()
		ext := filepath.Ext(name)
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if err := reg.loadFile(filepath.Join(dir, name)); err != nil {
			return nil, err
		}
	}

	sort.Slice(reg.stations, func(i, j int) bool {
		return reg.stations[i].ID < reg.stations[j].ID
	})
	return reg, nil
}

func (r *Registry) loadFile(path string) error {
	// #nosec G304 -- station config paths come from the configured config dir
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read station config: %w", err)
	}

	var file regionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse station config %s: %w", filepath.Base(path), err)
	}
	if file.Stations == nil {
		return fmt.Errorf("station config %s: missing stations key", filepath.Base(path))
	}

	fileRegion := file.Region
	if fileRegion == "" {
		base := filepath.Base(path)
		fileRegion = strings.TrimSuffix(base, filepath.Ext(base))
	}

	for id, sy := range file.Stations {
		st := Station{
			ID:     id,
			Name:   sy.Name,
			Region: strings.ToLower(sy.Region),
		}
		if st.Region == "" {
			st.Region = strings.ToLower(fileRegion)
		}

		switch {
		case sy.Location != nil:
			st.Latitude = float64(sy.Location.Lat)
			st.Longitude = float64(sy.Location.Lon)
		case sy.Latitude != nil && sy.Longitude != nil:
			st.Latitude = float64(*sy.Latitude)
			st.Longitude = float64(*sy.Longitude)
		default:
			return fmt.Errorf("station %s in %s: missing coordinates", id, filepath.Base(path))
		}

		if prev, dup := r.byID[id]; dup {
			return fmt.Errorf("station %s defined in both %s and %s regions", id, prev.Region, st.Region)
		}
		r.byID[id] = st
		r.stations = append(r.stations, st)
	}
	return nil
}

// All returns every station ordered by ID.
func (r *Registry) All() []Station {
	out := make([]Station, len(r.stations))
	copy(out, r.stations)
	return out
}

// Get returns the station with the given ID.
func (r *Registry) Get(id string) (Station, bool) {
	st, ok := r.byID[id]
	return st, ok
}

// Valid reports whether a station ID exists in the registry.
func (r *Registry) Valid(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Region returns the stations belonging to a region, ordered by ID.
func (r *Registry) Region(region string) []Station {
	region = strings.ToLower(region)
	var out []Station
	for _, st := range r.stations {
		if st.Region == region {
			out = append(out, st)
		}
	}
	return out
}

// Regions returns the sorted set of region names.
func (r *Registry) Regions() []string {
	seen := make(map[string]struct{})
	for _, st := range r.stations {
		seen[st.Region] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for region := range seen {
		out = append(out, region)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered stations.
func (r *Registry) Len() int {
	return len(r.stations)
}
