/*
Copyright © 2024 the engrid authors.
This file is part of engrid.

engrid is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

engrid is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with engrid.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package engrid compiles heterogeneous energy-system datasets into the
// structured tables consumed by capacity-expansion models: it reconciles
// plant registries against national statistics by synthesizing spatially
// allocated gap capacity, partitions each country's demand, generation
// and renewable resource points into Voronoi clusters, and estimates
// inter-cluster transfer capacities from the real transmission grid.
package engrid

import (
	"context"
	"fmt"
	"runtime"

	"github.com/ctessum/requestcache"
)

// Version is the engrid version number.
const Version = "0.1.0"

// InputPaths locates the raw input tables on disk.
type InputPaths struct {
	RegistryFile        string // plant registry CSV
	RenewableStatsFile  string // renewables-oriented statistical capacity CSV
	ThermalStatsFile    string // thermal-oriented statistical capacity CSV
	GenerationStatsFile string // statistical generation CSV (optional)
	ZonesFile           string // renewable resource zone CSV
	BusesFile           string // grid bus CSV
	LinesFile           string // transmission line CSV
	CitiesFile          string // city/population CSV
	WaterShapefile      string // water polygon shapefile (optional)
}

// DataContext holds the global input tables, loaded once per process and
// read-only thereafter. Reload drops everything and loads again from the
// configured paths; there is no partial invalidation.
type DataContext struct {
	Registry       []CapacityRecord
	RenewableStats []StatRecord
	ThermalStats   []StatRecord
	Generation     []GenerationRecord
	Zones          []Zone
	Buses          []Bus
	Lines          []Line
	Cities         []City
	Water          *WaterIndex

	paths   InputPaths
	hasFile bool
	cache   *requestcache.Cache
}

// InitOption configures a DataContext during construction.
type InitOption func(*DataContext) error

// NewDataContext builds a data context from the given options.
func NewDataContext(opts ...InitOption) (*DataContext, error) {
	d := new(DataContext)
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// tableRequest identifies one table load in the cache.
type tableRequest struct {
	kind string
	path string
}

func newTableCache() *requestcache.Cache {
	return requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
		r := req.(tableRequest)
		return loadTable(r.kind, r.path)
	}, runtime.GOMAXPROCS(-1), requestcache.Memory(100))
}

// FromFiles loads every configured table from disk. Missing optional
// paths are skipped; a missing required path is an error at load time,
// not at first use.
func FromFiles(paths InputPaths) InitOption {
	return func(d *DataContext) error {
		d.paths = paths
		d.hasFile = true
		d.cache = newTableCache()
		return d.loadAll()
	}
}

// WithTables injects in-memory tables directly, bypassing file loading.
// Used by tests and by callers that assemble inputs themselves.
func WithTables(registry []CapacityRecord, renewableStats, thermalStats []StatRecord,
	zones []Zone, buses []Bus, lines []Line, cities []City) InitOption {
	return func(d *DataContext) error {
		d.Registry = registry
		d.RenewableStats = renewableStats
		d.ThermalStats = thermalStats
		d.Zones = zones
		d.Buses = buses
		d.Lines = lines
		d.Cities = cities
		return nil
	}
}

// WithWater injects a prebuilt water polygon index.
func WithWater(w *WaterIndex) InitOption {
	return func(d *DataContext) error {
		d.Water = w
		return nil
	}
}

func (d *DataContext) load(kind, path string) (interface{}, error) {
	req := d.cache.NewRequest(context.Background(), tableRequest{kind: kind, path: path}, kind+":"+path)
	return req.Result()
}

func (d *DataContext) loadAll() error {
	p := d.paths

	load := func(kind, path string, required bool, assign func(interface{})) error {
		if path == "" {
			if required {
				return fmt.Errorf("engrid: no input file configured for %s table", kind)
			}
			return nil
		}
		v, err := d.load(kind, path)
		if err != nil {
			return fmt.Errorf("engrid: loading %s table: %w", kind, err)
		}
		assign(v)
		return nil
	}

	if err := load(tableRegistry, p.RegistryFile, true, func(v interface{}) { d.Registry = v.([]CapacityRecord) }); err != nil {
		return err
	}
	if err := load(tableStats, p.RenewableStatsFile, true, func(v interface{}) { d.RenewableStats = v.([]StatRecord) }); err != nil {
		return err
	}
	if err := load(tableStats, p.ThermalStatsFile, true, func(v interface{}) { d.ThermalStats = v.([]StatRecord) }); err != nil {
		return err
	}
	if err := load(tableGeneration, p.GenerationStatsFile, false, func(v interface{}) { d.Generation = v.([]GenerationRecord) }); err != nil {
		return err
	}
	if err := load(tableZones, p.ZonesFile, true, func(v interface{}) { d.Zones = v.([]Zone) }); err != nil {
		return err
	}
	if err := load(tableBuses, p.BusesFile, true, func(v interface{}) { d.Buses = v.([]Bus) }); err != nil {
		return err
	}
	if err := load(tableLines, p.LinesFile, true, func(v interface{}) { d.Lines = v.([]Line) }); err != nil {
		return err
	}
	if err := load(tableCities, p.CitiesFile, true, func(v interface{}) { d.Cities = v.([]City) }); err != nil {
		return err
	}
	if p.WaterShapefile != "" {
		w, err := LoadWaterShapefile(p.WaterShapefile)
		if err != nil {
			return err
		}
		d.Water = w
	}
	return nil
}

// Reload drops the cached tables and loads everything again from the
// configured paths. It is a full reload; partial invalidation is
// deliberately not supported. Reload must not be called concurrently
// with pipeline runs.
func (d *DataContext) Reload() error {
	if !d.hasFile {
		return fmt.Errorf("engrid: Reload requires a file-backed data context")
	}
	d.cache = newTableCache()
	return d.loadAll()
}

// CountryData is the read-only per-country view of the context.
type CountryData struct {
	ISO      string
	Registry []CapacityRecord
	Zones    []Zone
	Cities   []City
	Buses    []Bus
	Lines    []Line
}

// Country filters the context's tables to one country. Buses are kept if
// referenced by the per-country line set or located by a registry unit;
// with no better signal all buses and their lines are retained, since the
// bus table is commonly pre-filtered upstream.
func (d *DataContext) Country(iso string) *CountryData {
	c := &CountryData{ISO: iso}
	for _, r := range d.Registry {
		if r.Country == iso {
			c.Registry = append(c.Registry, r)
		}
	}
	for _, z := range d.Zones {
		if z.Country == iso {
			c.Zones = append(c.Zones, z)
		}
	}
	for _, ct := range d.Cities {
		if ct.Country == iso {
			c.Cities = append(c.Cities, ct)
		}
	}
	c.Buses = d.Buses
	c.Lines = d.Lines
	return c
}
