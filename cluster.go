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
	"math/rand"
	"sort"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/stat"
)

// ClusterType tags points and clusters with the layer of the reduced
// network they belong to.
type ClusterType int

// The three cluster layers.
const (
	ClusterDemand ClusterType = iota
	ClusterGeneration
	ClusterRenewable
)

var clusterTypeNames = []string{"demand", "generation", "renewable"}

func (t ClusterType) String() string {
	if int(t) < 0 || int(t) >= len(clusterTypeNames) {
		return fmt.Sprintf("clustertype(%d)", int(t))
	}
	return clusterTypeNames[t]
}

// ClusterPoint is one atomic input to partitioning. Cluster is -1 until
// the point has been assigned.
type ClusterPoint struct {
	Lat, Lon      float64
	Weight        float64
	Type          ClusterType
	SubTechnology string // generation points only
	Cluster       int
}

// Cluster is one output region of a partitioning run.
type Cluster struct {
	ID       int
	Type     ClusterType
	Lat, Lon float64 // representative centroid
	Weight   float64 // aggregate member weight
	Members  int
	// Technology breaks the aggregate weight down by sub-technology.
	// Populated for generation clusters only.
	Technology map[string]float64
}

// Centroid returns the cluster's representative point in lon/lat order.
func (c *Cluster) Centroid() geom.Point {
	return geom.Point{X: c.Lon, Y: c.Lat}
}

// Partitioning methods.
const (
	MethodVoronoi = "voronoi"
	MethodDBSCAN  = "dbscan"
)

// minClusterShareDefault is the minimum share of total weight a
// generation cluster must hold before being merged into a neighbor.
const minClusterShareDefault = 0.01

// incoherentSpanKM is the member span beyond which a demand cluster's
// centroid switches from the weighted mean to the unweighted geometric
// center, so a single mega-city cannot drag the representative point far
// outside the cluster's footprint.
const incoherentSpanKM = 1000.0

// PartitionConfig controls one partitioning run.
type PartitionConfig struct {
	Type     ClusterType
	Method   string // MethodVoronoi (default) or MethodDBSCAN
	Clusters int    // target cluster count; 0 means no target (DBSCAN only)
	EpsKM    float64
	// MinShare merges clusters below this share of total weight into a
	// neighbor. Applied to non-Voronoi results only: merging would break
	// the Voronoi non-overlap construction.
	MinShare float64
	// AllowReduceK reduces the target count to the point count when there
	// are too few points; if false that condition is an error.
	AllowReduceK bool
	Seed         int64
}

// Partition is the result of one partitioning run. Every input point
// appears exactly once in Points with its cluster id set, and the union
// of all clusters' members is exactly the input set.
type Partition struct {
	Type     ClusterType
	Method   string
	Clusters []Cluster
	Points   []ClusterPoint
	Centers  []geom.Point
	// Cells are the Voronoi cells of Centers, in the same order. They
	// describe the region shapes; assignment uses nearest-center distance,
	// which is equivalent by construction. Voronoi method only.
	Cells []geom.Polygon
}

// PartitionPoints partitions points into clusters per cfg. The input
// slice is not modified; the returned Partition carries a copy with
// cluster ids assigned.
func PartitionPoints(points []ClusterPoint, cfg PartitionConfig) (*Partition, error) {
	if len(points) == 0 {
		return nil, &DataUnavailableError{Table: cfg.Type.String() + " points"}
	}
	p := &Partition{Type: cfg.Type, Method: cfg.Method}
	if p.Method == "" {
		p.Method = MethodVoronoi
	}
	p.Points = make([]ClusterPoint, len(points))
	copy(p.Points, points)
	for i := range p.Points {
		p.Points[i].Cluster = -1
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	switch p.Method {
	case MethodVoronoi:
		k := cfg.Clusters
		if k <= 0 {
			return nil, invalidInputf("voronoi partitioning requires a positive target cluster count")
		}
		if k > len(points) {
			if !cfg.AllowReduceK {
				return nil, &DegenerateClusterError{Points: len(points), Clusters: k}
			}
			k = len(points)
		}
		p.Centers = kmeans(replicateByWeight(p.Points), k, rng)
		p.Cells = voronoiCells(p.Centers, pointBounds(p.Points))
		for i := range p.Points {
			pt := geom.Point{X: p.Points[i].Lon, Y: p.Points[i].Lat}
			p.Points[i].Cluster = nearestPointIndex(pt, p.Centers)
		}
	case MethodDBSCAN:
		if cfg.EpsKM <= 0 {
			return nil, invalidInputf("dbscan partitioning requires a positive epsilon")
		}
		labels := dbscan(p.Points, cfg.EpsKM)
		reassignNoise(p.Points, labels)
		for i := range p.Points {
			p.Points[i].Cluster = labels[i]
		}
		relabelDense(p.Points)
		if cfg.Clusters > 0 {
			if cfg.Clusters > len(points) && !cfg.AllowReduceK {
				return nil, &DegenerateClusterError{Points: len(points), Clusters: cfg.Clusters}
			}
			adjustClusterCount(p.Points, cfg.Clusters, rng)
		}
		if cfg.MinShare > 0 {
			enforceMinClusterShare(p.Points, cfg.MinShare)
		}
	default:
		return nil, invalidInputf("unknown partitioning method %q", p.Method)
	}

	p.Clusters = buildClusters(p.Points, cfg.Type)
	return p, nil
}

// pointBounds returns the bounding box of the points in lon/lat.
func pointBounds(points []ClusterPoint) *geom.Bounds {
	b := geom.NewBounds()
	for _, p := range points {
		b.Extend(geom.Point{X: p.Lon, Y: p.Lat}.Bounds())
	}
	return b
}

// relabelDense renumbers cluster ids to a dense zero-based range,
// preserving first-appearance order.
func relabelDense(points []ClusterPoint) {
	next := 0
	remap := make(map[int]int)
	for i := range points {
		old := points[i].Cluster
		id, ok := remap[old]
		if !ok {
			id = next
			remap[old] = id
			next++
		}
		points[i].Cluster = id
	}
}

// clusterWeights returns the aggregate weight and member indexes per
// cluster id.
func clusterWeights(points []ClusterPoint) (weights map[int]float64, members map[int][]int) {
	weights = make(map[int]float64)
	members = make(map[int][]int)
	for i, p := range points {
		weights[p.Cluster] += p.Weight
		members[p.Cluster] = append(members[p.Cluster], i)
	}
	return weights, members
}

// unweightedCentroid is the plain mean of the member coordinates.
func unweightedCentroid(points []ClusterPoint, members []int) geom.Point {
	var sx, sy float64
	for _, m := range members {
		sx += points[m].Lon
		sy += points[m].Lat
	}
	n := float64(len(members))
	return geom.Point{X: sx / n, Y: sy / n}
}

// weightedCentroid is the weight-weighted mean of the member coordinates.
// With all-zero weights it degrades to the unweighted mean.
func weightedCentroid(points []ClusterPoint, members []int) geom.Point {
	xs := make([]float64, len(members))
	ys := make([]float64, len(members))
	ws := make([]float64, len(members))
	var totalW float64
	for i, m := range members {
		xs[i] = points[m].Lon
		ys[i] = points[m].Lat
		ws[i] = points[m].Weight
		totalW += points[m].Weight
	}
	if totalW == 0 {
		return unweightedCentroid(points, members)
	}
	return geom.Point{X: stat.Mean(xs, ws), Y: stat.Mean(ys, ws)}
}

// memberSpanKM is the diagonal extent of the members' bounding box.
func memberSpanKM(points []ClusterPoint, members []int) float64 {
	b := geom.NewBounds()
	for _, m := range members {
		b.Extend(geom.Point{X: points[m].Lon, Y: points[m].Lat}.Bounds())
	}
	return HaversineKM(b.Min, b.Max)
}

// centroidFor picks the centroid rule for one cluster: the weighted mean,
// except for geographically incoherent demand clusters, which use the
// unweighted geometric center.
func centroidFor(points []ClusterPoint, members []int, typ ClusterType) geom.Point {
	if typ == ClusterDemand && memberSpanKM(points, members) > incoherentSpanKM {
		return unweightedCentroid(points, members)
	}
	return weightedCentroid(points, members)
}

// buildClusters aggregates assigned points into Cluster records with
// dense ids.
func buildClusters(points []ClusterPoint, typ ClusterType) []Cluster {
	_, members := clusterWeights(points)
	ids := make([]int, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	clusters := make([]Cluster, 0, len(ids))
	for dense, id := range ids {
		mm := members[id]
		c := Cluster{ID: dense, Type: typ, Members: len(mm)}
		for _, m := range mm {
			c.Weight += points[m].Weight
		}
		cent := centroidFor(points, mm, typ)
		c.Lon, c.Lat = cent.X, cent.Y
		if typ == ClusterGeneration {
			c.Technology = make(map[string]float64)
			for _, m := range mm {
				tech := points[m].SubTechnology
				if tech == "" {
					tech = "other"
				}
				c.Technology[tech] += points[m].Weight
			}
		}
		clusters = append(clusters, c)
		if dense != id {
			for _, m := range mm {
				points[m].Cluster = dense
			}
		}
	}
	return clusters
}

// adjustClusterCount merges or splits clusters until exactly target
// clusters remain, or no further split is possible. Too many clusters:
// the lowest-weight cluster merges into its nearest neighbor by centroid
// distance. Too few: the highest-weight cluster splits in two.
func adjustClusterCount(points []ClusterPoint, target int, rng *rand.Rand) {
	for {
		weights, members := clusterWeights(points)
		n := len(weights)
		if n == target {
			return
		}
		ids := make([]int, 0, n)
		for id := range weights {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		if n > target {
			// Merge the lowest-weight cluster into its nearest neighbor.
			low := ids[0]
			for _, id := range ids[1:] {
				if weights[id] < weights[low] {
					low = id
				}
			}
			lowCent := centroidFor(points, members[low], points[0].Type)
			nearest := -1
			nearestDist := 0.0
			for _, id := range ids {
				if id == low {
					continue
				}
				d := HaversineKM(lowCent, centroidFor(points, members[id], points[0].Type))
				if nearest == -1 || d < nearestDist {
					nearest = id
					nearestDist = d
				}
			}
			for _, m := range members[low] {
				points[m].Cluster = nearest
			}
			relabelDense(points)
			continue
		}

		// Split the highest-weight cluster.
		high := ids[0]
		for _, id := range ids[1:] {
			if weights[id] > weights[high] {
				high = id
			}
		}
		a, b := twoMeansSplit(points, members[high], rng)
		if len(b) == 0 {
			return // nothing left to split; target unreachable
		}
		newID := ids[len(ids)-1] + 1
		_ = a // first group keeps its id
		for _, m := range b {
			points[m].Cluster = newID
		}
		relabelDense(points)
	}
}

// enforceMinClusterShare merges every cluster holding less than minShare
// of the total weight into its nearest (by centroid haversine distance)
// cluster at or above the share.
func enforceMinClusterShare(points []ClusterPoint, minShare float64) {
	weights, members := clusterWeights(points)
	var total float64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return
	}
	ids := make([]int, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var large []int
	for _, id := range ids {
		if weights[id]/total >= minShare {
			large = append(large, id)
		}
	}
	if len(large) == 0 || len(large) == len(ids) {
		return
	}
	for _, id := range ids {
		if weights[id]/total >= minShare {
			continue
		}
		cent := centroidFor(points, members[id], points[0].Type)
		nearest := large[0]
		nearestDist := HaversineKM(cent, centroidFor(points, members[nearest], points[0].Type))
		for _, lid := range large[1:] {
			if d := HaversineKM(cent, centroidFor(points, members[lid], points[0].Type)); d < nearestDist {
				nearest = lid
				nearestDist = d
			}
		}
		for _, m := range members[id] {
			points[m].Cluster = nearest
		}
	}
	relabelDense(points)
}
