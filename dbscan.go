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

import "github.com/ctessum/geom"

// dbscanMinPoints is the core-point neighborhood size for the DBSCAN
// fallback clustering method.
const dbscanMinPoints = 3

// dbscan labels each point with a cluster id using density-based
// clustering under the haversine metric with neighborhood radius epsKM.
// Noise points are labeled -1.
func dbscan(points []ClusterPoint, epsKM float64) []int {
	const (
		unvisited = 0
		visited   = 1
	)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}
	state := make([]int, len(points))

	neighborhood := func(i int) []int {
		var nb []int
		pi := geom.Point{X: points[i].Lon, Y: points[i].Lat}
		for j := range points {
			if j == i {
				continue
			}
			pj := geom.Point{X: points[j].Lon, Y: points[j].Lat}
			if HaversineKM(pi, pj) <= epsKM {
				nb = append(nb, j)
			}
		}
		return nb
	}

	cluster := 0
	for i := range points {
		if state[i] == visited {
			continue
		}
		state[i] = visited
		nb := neighborhood(i)
		if len(nb) < dbscanMinPoints {
			continue // noise, possibly upgraded later via a neighbor's expansion
		}
		labels[i] = cluster
		for qi := 0; qi < len(nb); qi++ {
			q := nb[qi]
			if labels[q] == -1 {
				labels[q] = cluster
			}
			if state[q] == visited {
				continue
			}
			state[q] = visited
			qnb := neighborhood(q)
			if len(qnb) >= dbscanMinPoints {
				nb = append(nb, qnb...)
			}
		}
		cluster++
	}
	return labels
}

// reassignNoise assigns each noise-labeled point (-1) the label of its
// nearest non-noise point by haversine distance. If every point is noise,
// all points are placed in a single cluster 0.
func reassignNoise(points []ClusterPoint, labels []int) {
	anyClustered := false
	for _, l := range labels {
		if l >= 0 {
			anyClustered = true
			break
		}
	}
	if !anyClustered {
		for i := range labels {
			labels[i] = 0
		}
		return
	}
	for i, l := range labels {
		if l >= 0 {
			continue
		}
		pi := geom.Point{X: points[i].Lon, Y: points[i].Lat}
		best := -1
		bestDist := 0.0
		for j, lj := range labels {
			if lj < 0 {
				continue
			}
			d := HaversineKM(pi, geom.Point{X: points[j].Lon, Y: points[j].Lat})
			if best == -1 || d < bestDist {
				best = j
				bestDist = d
			}
		}
		labels[i] = labels[best]
	}
}
