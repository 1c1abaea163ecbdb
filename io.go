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

package engrid

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Table kinds for the data context cache.
const (
	tableRegistry   = "registry"
	tableStats      = "stats"
	tableGeneration = "generation"
	tableZones      = "zones"
	tableBuses      = "buses"
	tableLines      = "lines"
	tableCities     = "cities"
)

func loadTable(kind, path string) (interface{}, error) {
	switch kind {
	case tableRegistry:
		return LoadRegistryCSV(path)
	case tableStats:
		return LoadStatCSV(path)
	case tableGeneration:
		return LoadGenerationCSV(path)
	case tableZones:
		return LoadZonesCSV(path)
	case tableBuses:
		return LoadBusesCSV(path)
	case tableLines:
		return LoadLinesCSV(path)
	case tableCities:
		return LoadCitiesCSV(path)
	}
	return nil, fmt.Errorf("engrid: unknown table kind %q", kind)
}

// csvTable reads fileName and passes every row to row together with a
// header-name→column-index map. Field validation happens here, at load
// time, so components downstream never see malformed rows.
func csvTable(fileName string, required []string, row func(idx map[string]int, rec []string) error) error {
	f, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header of %s: %w", fileName, err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return fmt.Errorf("%s: missing required column %q", fileName, col)
		}
	}

	line := 1
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%s row %d: %w", fileName, line, err)
		}
		line++
		if err := row(idx, rec); err != nil {
			return fmt.Errorf("%s row %d: %w", fileName, line, err)
		}
	}
	return nil
}

func field(idx map[string]int, rec []string, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func floatField(idx map[string]int, rec []string, name string) (float64, error) {
	s := field(idx, rec, name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, invalidInputf("column %s: %v", name, err)
	}
	return v, nil
}

func intField(idx map[string]int, rec []string, name string) (int, error) {
	s := field(idx, rec, name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, invalidInputf("column %s: %v", name, err)
	}
	return v, nil
}

// LoadRegistryCSV loads a plant registry table. Commissioning years
// outside the valid range are resolved from the unit status here, at
// load time.
func LoadRegistryCSV(fileName string) ([]CapacityRecord, error) {
	var out []CapacityRecord
	err := csvTable(fileName,
		[]string{"technology", "capacity_mw", "status", "country"},
		func(idx map[string]int, rec []string) error {
			fuel, err := ParseFuel(field(idx, rec, "technology"))
			if err != nil {
				return err
			}
			status, err := ParseStatus(field(idx, rec, "status"))
			if err != nil {
				return err
			}
			capacity, err := floatField(idx, rec, "capacity_mw")
			if err != nil {
				return err
			}
			if capacity < 0 {
				return invalidInputf("negative capacity %g", capacity)
			}
			year, err := intField(idx, rec, "year")
			if err != nil {
				return err
			}
			lat, err := floatField(idx, rec, "lat")
			if err != nil {
				return err
			}
			lon, err := floatField(idx, rec, "lon")
			if err != nil {
				return err
			}
			out = append(out, CapacityRecord{
				Name:          field(idx, rec, "name"),
				Fuel:          fuel,
				SubTechnology: field(idx, rec, "sub_technology"),
				CapacityMW:    capacity,
				Status:        status,
				Year:          ResolveYear(year, status),
				Country:       field(idx, rec, "country"),
				Lat:           lat,
				Lon:           lon,
				GridCell:      field(idx, rec, "grid_cell"),
				BusID:         field(idx, rec, "bus_id"),
				UnitID:        field(idx, rec, "unit_id"),
				Provenance:    ProvenanceRegistry,
			})
			return nil
		})
	return out, err
}

// LoadStatCSV loads a statistical capacity reference table.
func LoadStatCSV(fileName string) ([]StatRecord, error) {
	var out []StatRecord
	err := csvTable(fileName,
		[]string{"country", "fuel", "year", "capacity_gw"},
		func(idx map[string]int, rec []string) error {
			fuel, err := ParseFuel(field(idx, rec, "fuel"))
			if err != nil {
				return err
			}
			year, err := intField(idx, rec, "year")
			if err != nil {
				return err
			}
			gw, err := floatField(idx, rec, "capacity_gw")
			if err != nil {
				return err
			}
			out = append(out, StatRecord{
				Country: field(idx, rec, "country"), Fuel: fuel, Year: year, CapacityGW: gw,
			})
			return nil
		})
	return out, err
}

// LoadGenerationCSV loads a statistical generation reference table.
func LoadGenerationCSV(fileName string) ([]GenerationRecord, error) {
	var out []GenerationRecord
	err := csvTable(fileName,
		[]string{"country", "fuel", "year", "generation_twh"},
		func(idx map[string]int, rec []string) error {
			fuel, err := ParseFuel(field(idx, rec, "fuel"))
			if err != nil {
				return err
			}
			year, err := intField(idx, rec, "year")
			if err != nil {
				return err
			}
			twh, err := floatField(idx, rec, "generation_twh")
			if err != nil {
				return err
			}
			out = append(out, GenerationRecord{
				Country: field(idx, rec, "country"), Fuel: fuel, Year: year, GenerationTWh: twh,
			})
			return nil
		})
	return out, err
}

// LoadZonesCSV loads a renewable resource zone table.
func LoadZonesCSV(fileName string) ([]Zone, error) {
	var out []Zone
	err := csvTable(fileName,
		[]string{"grid_cell", "country", "technology", "capacity_factor", "potential_mw", "lat", "lon"},
		func(idx map[string]int, rec []string) error {
			tech, err := ParseFuel(field(idx, rec, "technology"))
			if err != nil {
				return err
			}
			cf, err := floatField(idx, rec, "capacity_factor")
			if err != nil {
				return err
			}
			if cf < 0 || cf > 1 {
				return invalidInputf("capacity factor %g outside [0,1]", cf)
			}
			pot, err := floatField(idx, rec, "potential_mw")
			if err != nil {
				return err
			}
			lat, err := floatField(idx, rec, "lat")
			if err != nil {
				return err
			}
			lon, err := floatField(idx, rec, "lon")
			if err != nil {
				return err
			}
			out = append(out, Zone{
				ID:             field(idx, rec, "grid_cell"),
				Country:        field(idx, rec, "country"),
				Technology:     tech,
				CapacityFactor: cf,
				PotentialMW:    pot,
				Lat:            lat,
				Lon:            lon,
			})
			return nil
		})
	return out, err
}

// LoadBusesCSV loads the grid bus table.
func LoadBusesCSV(fileName string) ([]Bus, error) {
	var out []Bus
	err := csvTable(fileName,
		[]string{"bus_id", "lat", "lon", "voltage_kv"},
		func(idx map[string]int, rec []string) error {
			lat, err := floatField(idx, rec, "lat")
			if err != nil {
				return err
			}
			lon, err := floatField(idx, rec, "lon")
			if err != nil {
				return err
			}
			if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
				return invalidInputf("coordinate (%g, %g) out of range", lat, lon)
			}
			kv, err := floatField(idx, rec, "voltage_kv")
			if err != nil {
				return err
			}
			out = append(out, Bus{ID: field(idx, rec, "bus_id"), Lat: lat, Lon: lon, VoltageKV: kv})
			return nil
		})
	return out, err
}

// LoadLinesCSV loads the transmission line table.
func LoadLinesCSV(fileName string) ([]Line, error) {
	var out []Line
	err := csvTable(fileName,
		[]string{"bus0", "bus1", "capacity_mva"},
		func(idx map[string]int, rec []string) error {
			mva, err := floatField(idx, rec, "capacity_mva")
			if err != nil {
				return err
			}
			kv, err := floatField(idx, rec, "voltage_kv")
			if err != nil {
				return err
			}
			length, err := floatField(idx, rec, "length_km")
			if err != nil {
				return err
			}
			out = append(out, Line{
				Bus0: field(idx, rec, "bus0"), Bus1: field(idx, rec, "bus1"),
				CapacityMVA: mva, VoltageKV: kv, LengthKM: length,
			})
			return nil
		})
	return out, err
}

// LoadCitiesCSV loads the city/population table.
func LoadCitiesCSV(fileName string) ([]City, error) {
	var out []City
	err := csvTable(fileName,
		[]string{"name", "lat", "lon", "population", "country"},
		func(idx map[string]int, rec []string) error {
			lat, err := floatField(idx, rec, "lat")
			if err != nil {
				return err
			}
			lon, err := floatField(idx, rec, "lon")
			if err != nil {
				return err
			}
			if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
				return invalidInputf("coordinate (%g, %g) out of range", lat, lon)
			}
			pop, err := floatField(idx, rec, "population")
			if err != nil {
				return err
			}
			out = append(out, City{
				Name: field(idx, rec, "name"), Lat: lat, Lon: lon,
				Population: pop, Country: field(idx, rec, "country"),
			})
			return nil
		})
	return out, err
}
