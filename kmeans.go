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
	"math/rand"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

// maxReplication caps how many times a high-weight point is replicated in
// the k-means input multiset, bounding the cost of weighting.
const maxReplication = 10

// maxKMeansIterations bounds Lloyd iteration.
const maxKMeansIterations = 100

// replicateByWeight builds the weighted coordinate multiset for k-means:
// each point appears max(1, min(round(w/meanWeight), maxReplication))
// times, biasing the centers toward high-weight points.
func replicateByWeight(points []ClusterPoint) []geom.Point {
	if len(points) == 0 {
		return nil
	}
	weights := make([]float64, len(points))
	for i, p := range points {
		weights[i] = p.Weight
	}
	mean := floats.Sum(weights) / float64(len(points))
	var out []geom.Point
	for _, p := range points {
		n := 1
		if mean > 0 {
			n = int(p.Weight/mean + 0.5)
			if n < 1 {
				n = 1
			}
			if n > maxReplication {
				n = maxReplication
			}
		}
		for i := 0; i < n; i++ {
			out = append(out, geom.Point{X: p.Lon, Y: p.Lat})
		}
	}
	return out
}

// kmeans runs Lloyd's algorithm with k centers on pts, seeded
// deterministically by rng. The initial centers are k distinct points
// sampled without replacement.
func kmeans(pts []geom.Point, k int, rng *rand.Rand) []geom.Point {
	if k <= 0 || len(pts) == 0 {
		return nil
	}
	if k > len(pts) {
		k = len(pts)
	}

	// Sample initial centers from the distinct coordinates so duplicated
	// (replicated) points cannot collapse two centers onto each other.
	seen := make(map[geom.Point]bool, len(pts))
	distinct := make([]geom.Point, 0, len(pts))
	for _, p := range pts {
		if !seen[p] {
			seen[p] = true
			distinct = append(distinct, p)
		}
	}
	if k > len(distinct) {
		k = len(distinct)
	}
	perm := rng.Perm(len(distinct))
	centers := make([]geom.Point, k)
	for i := 0; i < k; i++ {
		centers[i] = distinct[perm[i]]
	}

	assign := make([]int, len(pts))
	for iter := 0; iter < maxKMeansIterations; iter++ {
		changed := false
		for i, p := range pts {
			best := nearestPointIndex(p, centers)
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		sumX := make([]float64, k)
		sumY := make([]float64, k)
		count := make([]int, k)
		for i, p := range pts {
			c := assign[i]
			sumX[c] += p.X
			sumY[c] += p.Y
			count[c]++
		}
		for c := 0; c < k; c++ {
			if count[c] == 0 {
				// Re-seed an empty center on a random point.
				centers[c] = pts[rng.Intn(len(pts))]
				continue
			}
			centers[c] = geom.Point{X: sumX[c] / float64(count[c]), Y: sumY[c] / float64(count[c])}
		}
	}
	return centers
}

// nearestPointIndex returns the index of the center nearest to p. Exact
// ties resolve to the lowest index; this iteration-order tie-break is an
// accepted non-determinism of the upstream data layout and must not be
// replaced by a coordinate-based rule, which would change assignments.
func nearestPointIndex(p geom.Point, centers []geom.Point) int {
	best := 0
	bestDist := euclid(p, centers[0])
	for i := 1; i < len(centers); i++ {
		if d := euclid(p, centers[i]); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// twoMeansSplit splits the members of one cluster into two groups with a
// k=2 k-means run, returning the two member index sets. The second set is
// empty if the members cannot be split (fewer than two distinct points).
func twoMeansSplit(points []ClusterPoint, members []int, rng *rand.Rand) ([]int, []int) {
	pts := make([]geom.Point, len(members))
	for i, m := range members {
		pts[i] = geom.Point{X: points[m].Lon, Y: points[m].Lat}
	}
	centers := kmeans(pts, 2, rng)
	if len(centers) < 2 {
		return members, nil
	}
	var a, b []int
	for i, p := range pts {
		if nearestPointIndex(p, centers) == 0 {
			a = append(a, members[i])
		} else {
			b = append(b, members[i])
		}
	}
	if len(a) == 0 || len(b) == 0 {
		return members, nil
	}
	return a, b
}
