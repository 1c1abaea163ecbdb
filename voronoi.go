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

	"github.com/ctessum/geom"
)

// voronoiCells constructs the Voronoi cell of every center, clipped to an
// expanded copy of bounds. Each cell is the intersection of the bounding
// rectangle with the half-planes nearer its center than every other
// center. The cells describe region shapes for hulls and export; point
// assignment uses nearest-center distance directly, which matches cell
// membership by construction.
func voronoiCells(centers []geom.Point, bounds *geom.Bounds) []geom.Polygon {
	if len(centers) == 0 {
		return nil
	}
	// Expand the clip box so boundary points fall strictly inside.
	dx := bounds.Max.X - bounds.Min.X
	dy := bounds.Max.Y - bounds.Min.Y
	pad := 0.1 * math.Max(math.Max(dx, dy), 1)
	box := geom.Polygon{[]geom.Point{
		{X: bounds.Min.X - pad, Y: bounds.Min.Y - pad},
		{X: bounds.Max.X + pad, Y: bounds.Min.Y - pad},
		{X: bounds.Max.X + pad, Y: bounds.Max.Y + pad},
		{X: bounds.Min.X - pad, Y: bounds.Max.Y + pad},
	}}
	// Half-plane quads must cover the whole clip box.
	reach := 4 * (math.Max(dx, dy) + 2*pad)

	cells := make([]geom.Polygon, len(centers))
	for i, ci := range centers {
		cell := box
		for j, cj := range centers {
			if i == j || (ci.X == cj.X && ci.Y == cj.Y) {
				continue
			}
			cell = asPolygon(cell.Intersection(halfPlane(ci, cj, reach)))
			if len(cell) == 0 {
				break
			}
		}
		cells[i] = cell
	}
	return cells
}

// asPolygon flattens a clipping result to a single polygon. Clipping a
// convex region with convex quads stays convex, so the multi-polygon case
// only arises from numerical slivers; its rings are merged.
func asPolygon(p geom.Polygonal) geom.Polygon {
	switch pg := p.(type) {
	case geom.Polygon:
		return pg
	case geom.MultiPolygon:
		var out geom.Polygon
		for _, poly := range pg {
			out = append(out, poly...)
		}
		return out
	default:
		return nil
	}
}

// halfPlane returns a quadrilateral covering the points at least as close
// to a as to b, out to the given reach from their midpoint.
func halfPlane(a, b geom.Point, reach float64) geom.Polygon {
	mx := (a.X + b.X) / 2
	my := (a.Y + b.Y) / 2
	// Unit vector from a toward b and its perpendicular.
	ux := b.X - a.X
	uy := b.Y - a.Y
	norm := math.Hypot(ux, uy)
	ux /= norm
	uy /= norm
	vx, vy := -uy, ux

	// The quad extends from the bisector line backward toward a.
	return geom.Polygon{[]geom.Point{
		{X: mx + vx*reach, Y: my + vy*reach},
		{X: mx - vx*reach, Y: my - vy*reach},
		{X: mx - vx*reach - ux*2*reach, Y: my - vy*reach - uy*2*reach},
		{X: mx + vx*reach - ux*2*reach, Y: my + vy*reach - uy*2*reach},
	}}
}
