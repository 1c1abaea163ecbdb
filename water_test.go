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
	"testing"

	"github.com/ctessum/geom"
)

// rectangle returns a rectangular polygon in lon/lat coordinates.
func rectangle(minLon, minLat, maxLon, maxLat float64) geom.Polygon {
	return geom.Polygon{{
		{X: minLon, Y: minLat},
		{X: maxLon, Y: minLat},
		{X: maxLon, Y: maxLat},
		{X: minLon, Y: maxLat},
	}}
}

func TestClassifyWater(t *testing.T) {
	tests := []struct {
		p    geom.Polygon
		want string
	}{
		// 20° x 20° at the equator, far beyond the ocean threshold.
		{rectangle(0, -10, 20, 10), "ocean"},
		// 1° x 1° at 50° N, roughly 7900 km².
		{rectangle(10, 49.5, 11, 50.5), "lake"},
		// 0.1° x 0.1°, under 100 km².
		{rectangle(10, 50, 10.1, 50.1), "water"},
	}
	for _, test := range tests {
		if got := classifyWater(test.p); got != test.want {
			t.Errorf("got %q, want %q", got, test.want)
		}
	}
}

func TestWaterCrossing(t *testing.T) {
	// A strait between lon 10 and 12 at mid latitudes.
	w := NewWaterIndex([]geom.Polygonal{rectangle(10, 40, 12, 60)})

	frac, kinds := w.Crossing(geom.Point{X: 8, Y: 50}, geom.Point{X: 14, Y: 50})
	// A third of the straight-line path is over water.
	if frac < 0.25 || frac > 0.42 {
		t.Errorf("crossing fraction: got %g, want about 1/3", frac)
	}
	if len(kinds) != 1 || kinds[0] != "ocean" {
		t.Errorf("kinds: got %v, want [ocean]", kinds)
	}

	frac, kinds = w.Crossing(geom.Point{X: 8, Y: 50}, geom.Point{X: 9, Y: 50})
	if frac != 0 {
		t.Errorf("dry path: got fraction %g, want 0", frac)
	}
	if len(kinds) != 0 {
		t.Errorf("dry path: got kinds %v, want none", kinds)
	}
}

func TestAnnotateWaterCrossings(t *testing.T) {
	m := NewMapper(testClusterSet())
	// Water between the two demand cluster centroids at (50,10) and (50,20).
	w := NewWaterIndex([]geom.Polygonal{rectangle(14, 45, 16, 55)})

	edges := []NTCEdge{
		{ // potential edge spanning the water
			From:      ClusterRef{ID: 0, Type: ClusterDemand},
			To:        ClusterRef{ID: 1, Type: ClusterDemand},
			Potential: true,
		},
		{ // real line over the same span; never sampled
			From:        ClusterRef{ID: 0, Type: ClusterDemand},
			To:          ClusterRef{ID: 1, Type: ClusterDemand},
			CapacityMVA: 500,
		},
		{ // potential edge on dry land
			From:      ClusterRef{ID: 0, Type: ClusterGeneration},
			To:        ClusterRef{ID: 0, Type: ClusterDemand},
			Potential: true,
		},
	}
	AnnotateWaterCrossings(edges, m, w)

	if !edges[0].CrossesWater {
		t.Error("potential edge over water not flagged")
	}
	if edges[0].WaterFraction <= waterCrossingThreshold {
		t.Errorf("water fraction: got %g, want above %g", edges[0].WaterFraction, waterCrossingThreshold)
	}
	if edges[1].CrossesWater || edges[1].WaterFraction != 0 {
		t.Errorf("real line annotated as crossing: %+v", edges[1])
	}
	if edges[2].CrossesWater {
		t.Error("dry potential edge flagged as crossing")
	}
}

func TestAnnotateWaterCrossingsNilIndex(t *testing.T) {
	m := NewMapper(testClusterSet())
	edges := []NTCEdge{
		{
			From:      ClusterRef{ID: 0, Type: ClusterDemand},
			To:        ClusterRef{ID: 1, Type: ClusterDemand},
			Potential: true,
		},
	}
	AnnotateWaterCrossings(edges, m, nil)
	if edges[0].CrossesWater || edges[0].WaterFraction != 0 {
		t.Errorf("edge annotated without a water index: %+v", edges[0])
	}
}
