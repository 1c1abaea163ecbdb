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

import "testing"

func testEngineInputs() ([]City, []CapacityRecord, []Zone) {
	cities := []City{
		{Name: "A", Lat: 48, Lon: 8, Population: 1000000, Country: "DEU"},
		{Name: "B", Lat: 52, Lon: 12, Population: 500000, Country: "DEU"},
	}
	plants := []CapacityRecord{
		{Name: "P1", Fuel: FuelGas, SubTechnology: "ccgt", CapacityMW: 400, Lat: 49, Lon: 9, Country: "DEU"},
		{Name: "P2", Fuel: FuelCoal, CapacityMW: 800, Lat: 51, Lon: 11, Country: "DEU"},
		{Name: "synthesized", Fuel: FuelGas, CapacityMW: 100, Country: "DEU"}, // no coordinates
	}
	zones := []Zone{
		{ID: "DEU_1", Technology: FuelSolar, PotentialMW: 1000, Lat: 48.5, Lon: 8.5},
		{ID: "DEU_2", Technology: FuelSolar, PotentialMW: 2000, Lat: 51.5, Lon: 11.5},
		{ID: "DEU_3", Technology: FuelWindOnshore, PotentialMW: 3000, Lat: 54, Lon: 9},
		{ID: "DEU_4", Technology: FuelWindOnshore, PotentialMW: 1500, Lat: 53, Lon: 13},
	}
	return cities, plants, zones
}

func TestAssignClusters(t *testing.T) {
	cities, plants, zones := testEngineInputs()
	set, err := AssignClusters(cities, plants, zones, EngineConfig{
		DemandClusters:     2,
		GenerationClusters: 2,
		RenewableClusters:  map[Fuel]int{FuelSolar: 2, FuelWindOnshore: 2},
		Method:             MethodVoronoi,
		Seed:               1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Errors) != 0 {
		t.Fatalf("errors: %v", set.Errors)
	}
	if n := len(set.Demand.Clusters); n != 2 {
		t.Errorf("demand clusters: got %d, want 2", n)
	}
	if n := len(set.Generation.Clusters); n != 2 {
		t.Errorf("generation clusters: got %d, want 2", n)
	}
	// The unlocated plant contributes no generation point.
	if n := len(set.Generation.Points); n != 2 {
		t.Errorf("generation points: got %d, want 2", n)
	}
	if n := len(set.Renewable); n != 2 {
		t.Errorf("renewable technologies: got %d, want 2", n)
	}
	// Offshore wind has no zones and must be absent, not failed.
	if _, ok := set.Renewable[FuelWindOffshore]; ok {
		t.Error("offshore wind partition present without zones")
	}
	if _, ok := set.Errors[FuelWindOffshore]; ok {
		t.Error("offshore wind recorded as failed")
	}
}

func TestAssignClustersNoLocatedGeneration(t *testing.T) {
	cities, _, zones := testEngineInputs()
	// A registry holding only synthesized units has no coordinates; the
	// generation layer degrades to empty instead of failing the country.
	plants := []CapacityRecord{
		{Name: "synthesized 1", Fuel: FuelGas, CapacityMW: 100, Country: "DEU"},
		{Name: "synthesized 2", Fuel: FuelSolar, CapacityMW: 200, Country: "DEU"},
	}
	set, err := AssignClusters(cities, plants, zones, EngineConfig{
		DemandClusters:     2,
		GenerationClusters: 2,
		RenewableClusters:  map[Fuel]int{FuelSolar: 2, FuelWindOnshore: 2},
		Method:             MethodVoronoi,
		Seed:               1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if set.Generation == nil || len(set.Generation.Clusters) != 0 {
		t.Errorf("generation layer: got %+v, want empty partition", set.Generation)
	}
	if n := len(set.Demand.Clusters); n != 2 {
		t.Errorf("demand clusters: got %d, want 2", n)
	}
	if n := len(set.Renewable); n != 2 {
		t.Errorf("renewable technologies: got %d, want 2", n)
	}
}

func TestRenewableOffsets(t *testing.T) {
	cities, plants, zones := testEngineInputs()
	set, err := AssignClusters(cities, plants, zones, EngineConfig{
		DemandClusters:     2,
		GenerationClusters: 2,
		RenewableClusters:  map[Fuel]int{FuelSolar: 2, FuelWindOnshore: 2},
		Method:             MethodVoronoi,
		Seed:               1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if set.Offsets[FuelSolar] != 0 {
		t.Errorf("solar offset: got %d, want 0", set.Offsets[FuelSolar])
	}
	if set.Offsets[FuelWindOnshore] != len(set.Renewable[FuelSolar].Clusters) {
		t.Errorf("windon offset: got %d, want %d",
			set.Offsets[FuelWindOnshore], len(set.Renewable[FuelSolar].Clusters))
	}

	// The combined id space must be dense and collision-free.
	combined := set.ClustersOfType(ClusterRenewable)
	seen := make(map[int]bool)
	for _, c := range combined {
		if seen[c.ID] {
			t.Fatalf("combined id %d assigned twice", c.ID)
		}
		seen[c.ID] = true
	}
	for i := 0; i < len(combined); i++ {
		if !seen[i] {
			t.Errorf("combined id %d missing", i)
		}
	}
}

func TestAssignments(t *testing.T) {
	cities, plants, zones := testEngineInputs()
	set, err := AssignClusters(cities, plants, zones, EngineConfig{
		DemandClusters:     2,
		GenerationClusters: 2,
		RenewableClusters:  map[Fuel]int{FuelSolar: 2, FuelWindOnshore: 2},
		Method:             MethodVoronoi,
		Seed:               1,
	})
	if err != nil {
		t.Fatal(err)
	}
	rows := set.Assignments()
	// 2 cities + 2 located plants + 4 zones.
	if len(rows) != 8 {
		t.Fatalf("got %d assignment rows, want 8", len(rows))
	}
	renewableIDs := make(map[int]bool)
	for _, r := range rows {
		if r.Cluster < 0 {
			t.Errorf("row %+v left unassigned", r)
		}
		if r.Type == ClusterRenewable {
			renewableIDs[r.Cluster] = true
			if r.Technology == "" {
				t.Errorf("renewable row without a technology tag: %+v", r)
			}
		}
	}
	// Four single-zone clusters across two technologies: combined ids 0-3.
	for i := 0; i < 4; i++ {
		if !renewableIDs[i] {
			t.Errorf("combined renewable id %d missing from assignments", i)
		}
	}
}

func TestConnectedRegionFilter(t *testing.T) {
	points := []ClusterPoint{
		{Lat: 48, Lon: 8, Weight: 100},
		{Lat: 48.5, Lon: 8.5, Weight: 100},
		{Lat: 49, Lon: 9, Weight: 100},
		// An overseas outlier thousands of kilometers away.
		{Lat: -21, Lon: 55, Weight: 50},
	}
	f := &ConnectedRegionFilter{MaxGapKM: 200}
	kept := f.Filter(points)
	if len(kept) != 3 {
		t.Fatalf("got %d points, want 3", len(kept))
	}
	for _, p := range kept {
		if p.Lat < 0 {
			t.Errorf("outlier survived the filter: %+v", p)
		}
	}
}

func TestConnectedRegionFilterKeepsHeaviest(t *testing.T) {
	// The smaller group carries more weight and must win.
	points := []ClusterPoint{
		{Lat: 48, Lon: 8, Weight: 10},
		{Lat: 48.5, Lon: 8.5, Weight: 10},
		{Lat: -21, Lon: 55, Weight: 1000},
	}
	f := &ConnectedRegionFilter{MaxGapKM: 200}
	kept := f.Filter(points)
	if len(kept) != 1 || kept[0].Lat != -21 {
		t.Fatalf("got %+v, want only the heavy outlier group", kept)
	}
}

func TestConnectedRegionFilterDisabled(t *testing.T) {
	points := []ClusterPoint{
		{Lat: 48, Lon: 8, Weight: 1},
		{Lat: -21, Lon: 55, Weight: 1},
	}
	f := &ConnectedRegionFilter{}
	if kept := f.Filter(points); len(kept) != len(points) {
		t.Errorf("zero gap bound must keep all points, got %d", len(kept))
	}
}

func TestGenerationGroup(t *testing.T) {
	if g := generationGroup(CapacityRecord{Fuel: FuelGas, SubTechnology: "ccgt"}); g != "ccgt" {
		t.Errorf("got %q, want ccgt", g)
	}
	if g := generationGroup(CapacityRecord{Fuel: FuelCoal}); g != "coal" {
		t.Errorf("got %q, want coal", g)
	}
}

func TestSubClusterGeneration(t *testing.T) {
	cities, _, zones := testEngineInputs()
	plants := []CapacityRecord{
		{Fuel: FuelGas, SubTechnology: "ccgt", CapacityMW: 500, Lat: 49, Lon: 9},
		{Fuel: FuelGas, SubTechnology: "ccgt", CapacityMW: 500, Lat: 49.2, Lon: 9.2},
		{Fuel: FuelCoal, CapacityMW: 500, Lat: 51, Lon: 11},
		{Fuel: FuelCoal, CapacityMW: 500, Lat: 51.2, Lon: 11.2},
	}
	set, err := AssignClusters(cities, plants, zones, EngineConfig{
		DemandClusters:       2,
		GenerationClusters:   2,
		RenewableClusters:    map[Fuel]int{FuelSolar: 2, FuelWindOnshore: 2},
		Method:               MethodVoronoi,
		Seed:                 1,
		SubClusterGeneration: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	// Each technology group gets its own proportional cluster budget: two
	// equal-weight groups and a target of two yields one cluster each.
	if n := len(set.Generation.Clusters); n != 2 {
		t.Fatalf("got %d generation clusters, want 2", n)
	}
	for _, c := range set.Generation.Clusters {
		if len(c.Technology) != 1 {
			t.Errorf("cluster %d mixes technologies: %v", c.ID, c.Technology)
		}
	}
	seen := make(map[int]bool)
	for _, p := range set.Generation.Points {
		seen[p.Cluster] = true
	}
	if len(seen) != 2 {
		t.Errorf("points cover %d clusters, want 2", len(seen))
	}
}
