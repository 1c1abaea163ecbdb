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
	"sort"

	"github.com/ctessum/geom"
)

// hullFallbackRadiusDeg is the radius (≈11 km) of the circle standing in
// for the hull of a cluster with fewer than three member points.
const hullFallbackRadiusDeg = 0.1

// hullCircleSegments is the vertex count of the fallback circle polygon.
const hullCircleSegments = 16

// convexHull computes the convex hull of pts with the monotone-chain
// algorithm. Collinear boundary points are dropped. The result has fewer
// than three vertices when pts does not span a polygon.
func convexHull(pts []geom.Point) []geom.Point {
	if len(pts) < 3 {
		out := make([]geom.Point, len(pts))
		copy(out, pts)
		return out
	}
	sorted := make([]geom.Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	cross := func(o, a, b geom.Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	var lower []geom.Point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	var upper []geom.Point
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// circlePolygon approximates a circle of radius r degrees around center.
func circlePolygon(center geom.Point, r float64) geom.Polygon {
	ring := make([]geom.Point, hullCircleSegments)
	for i := range ring {
		a := 2 * math.Pi * float64(i) / hullCircleSegments
		ring[i] = geom.Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)}
	}
	return geom.Polygon{ring}
}

// clusterHull is the containment region of one cluster: the convex hull
// of its members, or a small circle when the members do not span a
// polygon.
type clusterHull struct {
	geom.Polygon
	cluster  *Cluster
	centroid geom.Point
}

// hullForCluster builds the containment region for cluster c given its
// member coordinates.
func hullForCluster(c *Cluster, members []geom.Point) *clusterHull {
	h := &clusterHull{cluster: c, centroid: c.Centroid()}
	hull := convexHull(members)
	if len(hull) < 3 {
		h.Polygon = circlePolygon(h.centroid, hullFallbackRadiusDeg)
		return h
	}
	h.Polygon = geom.Polygon{hull}
	return h
}

// contains reports whether p lies inside the hull.
func (h *clusterHull) contains(p geom.Point) bool {
	return p.Within(h.Polygon) != geom.Outside
}
