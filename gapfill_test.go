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
	"math"
	"strings"
	"testing"
)

func TestReconcileFuelSolarGap(t *testing.T) {
	src := StatSource{
		Name: "IRENA",
		Capacity: []StatRecord{
			{Country: "DEU", Fuel: FuelSolar, Year: 2022, CapacityGW: 5.0},
		},
		Fuels: []Fuel{FuelSolar},
	}
	registry := []CapacityRecord{
		{Fuel: FuelSolar, CapacityMW: 3000, Year: 2015, Country: "DEU"},
	}
	zones := []Zone{
		{ID: "DEU_1", Country: "DEU", Technology: FuelSolar, CapacityFactor: 0.25, PotentialMW: 1000},
		{ID: "DEU_2", Country: "DEU", Technology: FuelSolar, CapacityFactor: 0.20, PotentialMW: 1000},
		{ID: "DEU_3", Country: "DEU", Technology: FuelSolar, CapacityFactor: 0.15, PotentialMW: 1000},
	}

	res := ReconcileFuel(src, FuelSolar, "DEU", registry, zones, nil, GapFillConfig{})
	if math.Abs(res.GapGW-2.0) > allocTolerance {
		t.Fatalf("gap: got %g GW, want 2", res.GapGW)
	}
	if len(res.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(res.Records))
	}

	var totalMW float64
	byCell := make(map[string]float64)
	for _, r := range res.Records {
		if r.Provenance != ProvenanceSynthesized {
			t.Errorf("record %q not marked synthesized", r.Name)
		}
		if r.Fuel != FuelSolar || r.Country != "DEU" || r.Year != 2022 {
			t.Errorf("record %q has wrong metadata: %+v", r.Name, r)
		}
		if r.GridCell == "" {
			t.Errorf("record %q has no grid cell anchor", r.Name)
		}
		if !strings.Contains(r.Name, "IRENA") {
			t.Errorf("record name %q does not carry the source name", r.Name)
		}
		totalMW += r.CapacityMW
		byCell[r.GridCell] = r.CapacityMW
	}
	if math.Abs(totalMW-2000) > 1e-6 {
		t.Errorf("synthesized capacity sums to %g MW, want 2000", totalMW)
	}
	// The best zone must receive the largest share.
	if byCell["DEU_1"] <= byCell["DEU_2"] || byCell["DEU_2"] <= byCell["DEU_3"] {
		t.Errorf("allocation not biased toward the best zone: %v", byCell)
	}
}

func TestReconcileFuelNoGap(t *testing.T) {
	src := StatSource{
		Name: "EMBER",
		Capacity: []StatRecord{
			{Country: "DEU", Fuel: FuelGas, Year: 2022, CapacityGW: 10.0},
		},
		Fuels: []Fuel{FuelGas},
	}
	registry := []CapacityRecord{
		{Fuel: FuelGas, CapacityMW: 12000, Year: 2010, Country: "DEU"},
	}
	res := ReconcileFuel(src, FuelGas, "DEU", registry, nil, nil, GapFillConfig{})
	if res.GapGW > 0 {
		t.Fatalf("gap: got %g GW, want ≤ 0", res.GapGW)
	}
	if len(res.Records) != 0 {
		t.Errorf("got %d records for a registry surplus, want 0", len(res.Records))
	}
}

func TestReconcileFuelIdempotent(t *testing.T) {
	src := StatSource{
		Name: "IRENA",
		Capacity: []StatRecord{
			{Country: "FRA", Fuel: FuelSolar, Year: 2022, CapacityGW: 4.0},
		},
		Fuels: []Fuel{FuelSolar},
	}
	registry := []CapacityRecord{
		{Fuel: FuelSolar, CapacityMW: 1000, Year: 2018, Country: "FRA"},
	}
	zones := []Zone{
		{ID: "FRA_1", Country: "FRA", Technology: FuelSolar, CapacityFactor: 0.2, PotentialMW: 100},
	}

	first := ReconcileFuel(src, FuelSolar, "FRA", registry, zones, nil, GapFillConfig{})
	if len(first.Records) == 0 {
		t.Fatal("first pass produced no records")
	}
	// A second pass over the reconciled registry must find no gap.
	second := ReconcileFuel(src, FuelSolar, "FRA", append(registry, first.Records...), zones, nil, GapFillConfig{})
	if second.GapGW > allocTolerance {
		t.Errorf("second pass found a gap of %g GW, want 0", second.GapGW)
	}
	if len(second.Records) != 0 {
		t.Errorf("second pass synthesized %d records, want 0", len(second.Records))
	}
}

func TestReconcileFuelThermalOnBuses(t *testing.T) {
	src := StatSource{
		Name: "EMBER",
		Capacity: []StatRecord{
			{Country: "DEU", Fuel: FuelGas, Year: 2022, CapacityGW: 2.0},
		},
		Fuels: []Fuel{FuelGas},
	}
	registry := []CapacityRecord{
		{Fuel: FuelGas, CapacityMW: 500, Year: 2010, Country: "DEU", BusID: "b1"},
	}
	buses := []Bus{
		{ID: "b1", VoltageKV: 380},
		{ID: "b2", VoltageKV: 220},
	}

	res := ReconcileFuel(src, FuelGas, "DEU", registry, nil, buses, GapFillConfig{GridModeling: true})
	if len(res.Records) == 0 {
		t.Fatal("no records synthesized")
	}
	var totalMW float64
	for _, r := range res.Records {
		if r.BusID == "" {
			t.Errorf("record %q has no bus anchor", r.Name)
		}
		if r.GridCell != "" {
			t.Errorf("thermal record %q anchored on a grid cell", r.Name)
		}
		totalMW += r.CapacityMW
	}
	if math.Abs(totalMW-1500) > 1e-6 {
		t.Errorf("synthesized capacity sums to %g MW, want 1500", totalMW)
	}
}

func TestReconcileFuelThermalAggregate(t *testing.T) {
	src := StatSource{
		Name: "EMBER",
		Capacity: []StatRecord{
			{Country: "DEU", Fuel: FuelCoal, Year: 2022, CapacityGW: 1.0},
		},
		Fuels: []Fuel{FuelCoal},
	}
	// Grid modeling off: a single unanchored record carries the whole gap.
	res := ReconcileFuel(src, FuelCoal, "DEU", nil, nil, nil, GapFillConfig{})
	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(res.Records))
	}
	r := res.Records[0]
	if r.BusID != "" || r.GridCell != "" {
		t.Errorf("aggregate record has a spatial anchor: %+v", r)
	}
	if math.Abs(r.CapacityMW-1000) > 1e-6 {
		t.Errorf("got %g MW, want 1000", r.CapacityMW)
	}
}

func TestReconcileFuelNoZonesFallback(t *testing.T) {
	src := StatSource{
		Name: "IRENA",
		Capacity: []StatRecord{
			{Country: "MLT", Fuel: FuelSolar, Year: 2022, CapacityGW: 0.5},
		},
		Fuels: []Fuel{FuelSolar},
	}
	// No zones for the country: the gap survives as one aggregate record.
	res := ReconcileFuel(src, FuelSolar, "MLT", nil, nil, nil, GapFillConfig{})
	if len(res.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(res.Records))
	}
	if math.Abs(res.Records[0].CapacityMW-500) > 1e-6 {
		t.Errorf("got %g MW, want 500", res.Records[0].CapacityMW)
	}
}

func TestReconcileSource(t *testing.T) {
	src := RenewableStatSource("IRENA", []StatRecord{
		{Country: "DEU", Fuel: FuelSolar, Year: 2022, CapacityGW: 1.0},
		{Country: "DEU", Fuel: FuelHydro, Year: 2022, CapacityGW: 0.2},
	})
	results := ReconcileSource(src, "DEU", nil, nil, nil, GapFillConfig{})
	if len(results) != len(src.Fuels) {
		t.Fatalf("got %d results, want %d", len(results), len(src.Fuels))
	}
	byFuel := make(map[Fuel]GapResult)
	for _, res := range results {
		if res.Err != nil {
			t.Errorf("%s: %v", res.Fuel, res.Err)
		}
		byFuel[res.Fuel] = res
	}
	if g := byFuel[FuelSolar].GapGW; math.Abs(g-1.0) > allocTolerance {
		t.Errorf("solar gap: got %g, want 1", g)
	}
	// Fuels with no statistical estimate reconcile to a zero gap.
	if g := byFuel[FuelWindOnshore].GapGW; g != 0 {
		t.Errorf("windon gap: got %g, want 0", g)
	}
}

func TestStatSources(t *testing.T) {
	ren := RenewableStatSource("IRENA", nil)
	for _, f := range []Fuel{FuelSolar, FuelWindOnshore, FuelWindOffshore, FuelHydro} {
		found := false
		for _, ff := range ren.Fuels {
			if ff == f {
				found = true
			}
		}
		if !found {
			t.Errorf("renewable source does not cover %s", f)
		}
	}
	th := ThermalStatSource("EMBER", nil)
	for _, f := range []Fuel{FuelBioenergy, FuelCoal, FuelGas, FuelOil} {
		found := false
		for _, ff := range th.Fuels {
			if ff == f {
				found = true
			}
		}
		if !found {
			t.Errorf("thermal source does not cover %s", f)
		}
	}
}
