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
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

// Water body classification thresholds by polygon footprint.
const (
	oceanMinAreaKM2 = 10000.0
	lakeMinAreaKM2  = 100.0
)

// waterSampleSpacingKM is the spacing of containment samples along a
// candidate link.
const waterSampleSpacingKM = 2.0

// waterCrossingThreshold is the crossing fraction above which a link is
// flagged as crossing water.
const waterCrossingThreshold = 0.1

// WaterBody is one water polygon with its size class.
type WaterBody struct {
	geom.Polygonal
	Kind string // "ocean", "lake" or "water"
}

// WaterIndex is a spatial index over water polygons.
type WaterIndex struct {
	tree *rtree.Rtree
}

// NewWaterIndex indexes the given polygons, classifying each by its
// approximate footprint area.
func NewWaterIndex(polygons []geom.Polygonal) *WaterIndex {
	w := &WaterIndex{tree: rtree.NewTree(25, 50)}
	for _, p := range polygons {
		w.tree.Insert(&WaterBody{Polygonal: p, Kind: classifyWater(p)})
	}
	return w
}

// LoadWaterShapefile loads water polygons from a shapefile, converting
// them to lon/lat coordinates.
func LoadWaterShapefile(fileName string) (*WaterIndex, error) {
	dec, err := shp.NewDecoder(fileName)
	if err != nil {
		return nil, fmt.Errorf("engrid: opening water shapefile: %w", err)
	}
	defer dec.Close()
	inSR, err := dec.SR()
	if err != nil {
		return nil, fmt.Errorf("engrid: reading water shapefile projection: %w", err)
	}
	outSR, err := proj.Parse("+proj=longlat")
	if err != nil {
		panic(err)
	}
	trans, err := inSR.NewTransform(outSR)
	if err != nil {
		return nil, fmt.Errorf("engrid: creating water shapefile transform: %w", err)
	}

	var polygons []geom.Polygonal
	for {
		g, _, more := dec.DecodeRowFields()
		if !more {
			break
		}
		gg, err := g.Transform(trans)
		if err != nil {
			return nil, fmt.Errorf("engrid: transforming water polygon: %w", err)
		}
		p, ok := gg.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("engrid: water shapes need to be polygons")
		}
		polygons = append(polygons, p)
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("engrid: reading water shapefile: %w", err)
	}
	return NewWaterIndex(polygons), nil
}

// classifyWater labels a polygon by its approximate footprint area.
func classifyWater(p geom.Polygonal) string {
	c := p.Centroid()
	// Degree area scaled to km² at the polygon's latitude.
	areaKM2 := math.Abs(p.Area()) * kmPerDegree * kmPerDegree * math.Cos(c.Y*math.Pi/180)
	switch {
	case areaKM2 >= oceanMinAreaKM2:
		return "ocean"
	case areaKM2 >= lakeMinAreaKM2:
		return "lake"
	default:
		return "water"
	}
}

// inWater returns the kinds of water bodies containing p.
func (w *WaterIndex) inWater(p geom.Point) []string {
	var kinds []string
	for _, bI := range w.tree.SearchIntersect(p.Bounds()) {
		b := bI.(*WaterBody)
		if p.Within(b.Polygonal) != geom.Outside {
			kinds = append(kinds, b.Kind)
		}
	}
	return kinds
}

// Crossing samples points along the straight line from a to b and returns
// the fraction that fall in water, with the set of water body kinds hit.
func (w *WaterIndex) Crossing(a, b geom.Point) (float64, []string) {
	distKM := HaversineKM(a, b)
	n := int(distKM / waterSampleSpacingKM)
	if n < 2 {
		n = 2
	}
	kindSet := make(map[string]bool)
	hits := 0
	for i := 0; i < n; i++ {
		f := float64(i) / float64(n-1)
		p := geom.Point{X: a.X + f*(b.X-a.X), Y: a.Y + f*(b.Y-a.Y)}
		kinds := w.inWater(p)
		if len(kinds) > 0 {
			hits++
			for _, k := range kinds {
				kindSet[k] = true
			}
		}
	}
	kinds := make([]string, 0, len(kindSet))
	for k := range kindSet {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return float64(hits) / float64(n), kinds
}

// AnnotateWaterCrossings fills the water-crossing fields of edges.
// Sampling is only done for potential edges; real lines are physically
// built already and are annotated as not crossing without sampling.
func AnnotateWaterCrossings(edges []NTCEdge, m *Mapper, w *WaterIndex) {
	for i := range edges {
		e := &edges[i]
		if !e.Potential || w == nil {
			e.CrossesWater = false
			e.WaterFraction = 0
			continue
		}
		from := m.Cluster(e.From)
		to := m.Cluster(e.To)
		if from == nil || to == nil {
			continue
		}
		frac, kinds := w.Crossing(from.Centroid(), to.Centroid())
		e.WaterFraction = frac
		e.WaterBodies = kinds
		e.CrossesWater = frac > waterCrossingThreshold
	}
}
