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
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
)

// StatSource is one statistical reference dataset used to reconcile the
// plant registry. The renewables-oriented and thermal-oriented sources
// share the same reconciliation algorithm and differ only in the fuels
// they cover and the weight function family used to place gaps.
type StatSource struct {
	Name     string       // embedded in synthesized plant names
	Capacity []StatRecord // capacity reference rows
	Fuels    []Fuel       // fuels this source reconciles
}

// GapFillConfig controls capacity-gap reconciliation.
type GapFillConfig struct {
	ReferenceYear int
	// GridModeling enables spatial distribution of thermal and hydro
	// gaps onto buses. Variable renewable gaps are always distributed
	// onto resource zones.
	GridModeling bool
}

// GapResult reports the reconciliation outcome for one fuel.
type GapResult struct {
	Fuel          Fuel
	StatisticalGW float64
	RegistryGW    float64
	GapGW         float64 // statistical − registry; ≤ 0 means no-op
	Records       []CapacityRecord
	Err           error // non-nil if reconciliation of this fuel failed
}

// ReconcileFuel compares the statistical capacity estimate for fuel at
// the reference year against the registry's cumulative stock and
// synthesizes records covering any positive gap. The synthesized records
// are spatially anchored via the fuel-appropriate weight function, or
// aggregated into a single unanchored record when spatial distribution is
// disabled for the fuel.
func ReconcileFuel(src StatSource, fuel Fuel, country string, registry []CapacityRecord,
	zones []Zone, buses []Bus, cfg GapFillConfig) GapResult {

	year := cfg.ReferenceYear
	if year == 0 {
		year = ReferenceYear
	}
	res := GapResult{
		Fuel:          fuel,
		StatisticalGW: StatCapacityGW(src.Capacity, country, fuel, year),
		RegistryGW:    CumulativeCapacityMW(registry, fuel, year) / 1000,
	}
	res.GapGW = res.StatisticalGW - res.RegistryGW
	if res.GapGW <= 0 {
		log.WithFields(log.Fields{
			"country": country,
			"fuel":    fuel.String(),
			"source":  src.Name,
		}).Debug("engrid: registry stock covers statistical estimate; no gap fill")
		return res
	}

	spatial := fuel.IsVariableRenewable() || cfg.GridModeling
	if !spatial {
		res.Records = []CapacityRecord{synthesize(src, fuel, country, year, "", "", res.GapGW)}
		return res
	}

	var allocation map[string]float64
	onZones := fuel.IsVariableRenewable()
	if onZones {
		weights := ComputeRenewableWeights(zones, fuel)
		allocation = Distribute(res.GapGW, weights, 0)
	} else {
		weights := ComputeThermalWeights(buses, registry, fuel)
		allocation = Distribute(res.GapGW, weights, MinThermalAllocationGW)
	}
	if len(allocation) == 0 {
		// No candidate locations for this country; fall back to a single
		// aggregated record so the capacity is not lost.
		log.WithFields(log.Fields{
			"country": country,
			"fuel":    fuel.String(),
		}).Warn("engrid: no spatial candidates for gap; synthesizing aggregate record")
		res.Records = []CapacityRecord{synthesize(src, fuel, country, year, "", "", res.GapGW)}
		return res
	}

	ids := make([]string, 0, len(allocation))
	for id := range allocation {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if onZones {
			res.Records = append(res.Records, synthesize(src, fuel, country, year, id, "", allocation[id]))
		} else {
			res.Records = append(res.Records, synthesize(src, fuel, country, year, "", id, allocation[id]))
		}
	}
	return res
}

// synthesize builds one gap-fill record of gw gigawatts anchored at the
// given grid cell or bus (either or neither may be set).
func synthesize(src StatSource, fuel Fuel, country string, year int, gridCell, busID string, gw float64) CapacityRecord {
	anchor := gridCell
	if anchor == "" {
		anchor = busID
	}
	if anchor == "" {
		anchor = country
	}
	return CapacityRecord{
		Name:       fmt.Sprintf("%s gap fill %s %s", src.Name, fuel, anchor),
		Fuel:       fuel,
		CapacityMW: gw * 1000,
		Status:     StatusOperating,
		Year:       year,
		Country:    country,
		GridCell:   gridCell,
		BusID:      busID,
		Provenance: ProvenanceSynthesized,
	}
}

// ReconcileSource reconciles every fuel covered by src. A failure for one
// fuel is recorded in its GapResult and does not abort the other fuels.
func ReconcileSource(src StatSource, country string, registry []CapacityRecord,
	zones []Zone, buses []Bus, cfg GapFillConfig) []GapResult {

	results := make([]GapResult, 0, len(src.Fuels))
	for _, fuel := range src.Fuels {
		res := func() (res GapResult) {
			defer func() {
				if r := recover(); r != nil {
					res = GapResult{Fuel: fuel, Err: fmt.Errorf("engrid: reconciling %s from %s: %v", fuel, src.Name, r)}
					log.WithError(res.Err).Error("engrid: gap reconciliation failed")
				}
			}()
			return ReconcileFuel(src, fuel, country, registry, zones, buses, cfg)
		}()
		results = append(results, res)
	}
	return results
}

// RenewableStatSource builds the renewables-oriented statistical source.
func RenewableStatSource(name string, capacity []StatRecord) StatSource {
	return StatSource{
		Name:     name,
		Capacity: capacity,
		Fuels:    []Fuel{FuelSolar, FuelWindOnshore, FuelWindOffshore, FuelHydro},
	}
}

// ThermalStatSource builds the thermal-oriented statistical source.
func ThermalStatSource(name string, capacity []StatRecord) StatSource {
	return StatSource{
		Name:     name,
		Capacity: capacity,
		Fuels:    []Fuel{FuelBioenergy, FuelCoal, FuelGas, FuelOil},
	}
}
