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

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	log "github.com/sirupsen/logrus"
)

// ClusterRef addresses one cluster in the unified registry.
type ClusterRef struct {
	ID   int
	Type ClusterType
}

func (r ClusterRef) String() string { return fmt.Sprintf("%s/%d", r.Type, r.ID) }

// NTCEdge is one inter-cluster transfer capacity record. Potential edges
// carry zero capacity and exist only to restore network connectivity.
type NTCEdge struct {
	From, To      ClusterRef
	CapacityMVA   float64
	Lines         int
	VoltageKV     float64 // mean over constituent lines
	DistanceKM    float64 // between the cluster centroids
	Bus0, Bus1    string  // representative endpoint pair for provenance
	Potential     bool
	CrossesWater  bool
	WaterFraction float64
	WaterBodies   []string
}

// flowValid is the fixed table of valid directed type pairs for a
// transmission line resolved between two clusters. Everything else is
// dropped.
func flowValid(from, to ClusterType) bool {
	switch from {
	case ClusterGeneration:
		return to == ClusterDemand
	case ClusterRenewable:
		return to == ClusterDemand || to == ClusterGeneration
	case ClusterDemand:
		return to == ClusterDemand
	}
	return false
}

// flowValidRelaxed accepts a type pair that is valid in either direction.
// Used by connectivity repair, which only needs an electrically plausible
// connection, not a directed one.
func flowValidRelaxed(a, b ClusterType) bool {
	return flowValid(a, b) || flowValid(b, a)
}

// Mapper assigns real grid substations to clusters and aggregates real
// line capacities into inter-cluster NTC estimates.
type Mapper struct {
	set      *ClusterSet
	hulls    *rtree.Rtree
	all      []*clusterHull
	registry map[ClusterRef]*Cluster
}

// NewMapper builds the cluster hulls for every layer of set and indexes
// them for containment queries.
func NewMapper(set *ClusterSet) *Mapper {
	m := &Mapper{
		set:      set,
		hulls:    rtree.NewTree(25, 50),
		registry: make(map[ClusterRef]*Cluster),
	}
	add := func(clusters []Cluster, points []ClusterPoint, localID func(int) int) {
		for i := range clusters {
			c := clusters[i]
			var members []geom.Point
			for _, p := range points {
				if localID(p.Cluster) == c.ID {
					members = append(members, geom.Point{X: p.Lon, Y: p.Lat})
				}
			}
			cc := c
			h := hullForCluster(&cc, members)
			m.hulls.Insert(h)
			m.all = append(m.all, h)
			m.registry[ClusterRef{ID: cc.ID, Type: cc.Type}] = &cc
		}
	}
	if set.Demand != nil {
		add(set.Demand.Clusters, set.Demand.Points, func(id int) int { return id })
	}
	if set.Generation != nil {
		add(set.Generation.Clusters, set.Generation.Points, func(id int) int { return id })
	}
	for _, tech := range renewableOrder {
		part, ok := set.Renewable[tech]
		if !ok {
			continue
		}
		offset := set.Offsets[tech]
		combined := make([]Cluster, len(part.Clusters))
		for i, c := range part.Clusters {
			c.ID += offset
			combined[i] = c
		}
		add(combined, part.Points, func(id int) int { return id + offset })
	}
	return m
}

// Cluster returns the registry entry for ref, or nil.
func (m *Mapper) Cluster(ref ClusterRef) *Cluster { return m.registry[ref] }

// containingHulls returns the hulls whose region contains p.
func (m *Mapper) containingHulls(p geom.Point) []*clusterHull {
	var out []*clusterHull
	for _, hI := range m.hulls.SearchIntersect(p.Bounds()) {
		h := hI.(*clusterHull)
		if h.contains(p) {
			out = append(out, h)
		}
	}
	return out
}

// assignFirstEndpoint resolves a line's first endpoint: among the hulls
// containing the bus, the one whose centroid is nearest wins. A bus
// outside every hull is unassignable.
func (m *Mapper) assignFirstEndpoint(p geom.Point) (ClusterRef, bool) {
	hulls := m.containingHulls(p)
	if len(hulls) == 0 {
		return ClusterRef{}, false
	}
	best := hulls[0]
	bestDist := HaversineKM(p, best.centroid)
	for _, h := range hulls[1:] {
		if d := HaversineKM(p, h.centroid); d < bestDist {
			best = h
			bestDist = d
		}
	}
	return ClusterRef{ID: best.cluster.ID, Type: best.cluster.Type}, true
}

// assignSecondEndpoint resolves a line's second endpoint given the type
// the first endpoint resolved to. Among containing hulls, candidates are
// ranked by the flow-direction priority of fromType; with no containing
// hull the nearest cluster centroid of any type is used.
func (m *Mapper) assignSecondEndpoint(p geom.Point, fromType ClusterType) (ClusterRef, bool) {
	hulls := m.containingHulls(p)
	if len(hulls) == 0 {
		// Fall back to the nearest cluster center of any type.
		if len(m.all) == 0 {
			return ClusterRef{}, false
		}
		best := m.all[0]
		bestDist := HaversineKM(p, best.centroid)
		for _, h := range m.all[1:] {
			if d := HaversineKM(p, h.centroid); d < bestDist {
				best = h
				bestDist = d
			}
		}
		return ClusterRef{ID: best.cluster.ID, Type: best.cluster.Type}, true
	}

	priority := func(t ClusterType) int {
		switch fromType {
		case ClusterRenewable:
			switch t {
			case ClusterDemand:
				return 1
			case ClusterGeneration:
				return 2
			}
		case ClusterGeneration, ClusterDemand:
			if t == ClusterDemand {
				return 1
			}
		}
		return 0 // not acceptable for this fromType
	}

	var best *clusterHull
	bestPriority := 0
	bestDist := 0.0
	for _, h := range hulls {
		pr := priority(h.cluster.Type)
		if pr == 0 {
			continue
		}
		d := HaversineKM(p, h.centroid)
		if best == nil || pr < bestPriority || (pr == bestPriority && d < bestDist) {
			best = h
			bestPriority = pr
			bestDist = d
		}
	}
	if best == nil {
		return ClusterRef{}, false
	}
	return ClusterRef{ID: best.cluster.ID, Type: best.cluster.Type}, true
}

// SkippedLine records a line that produced no NTC contribution and why.
type SkippedLine struct {
	Line   Line
	Reason string
}

// MapLines resolves every transmission line's endpoints to clusters and
// aggregates the surviving lines into NTC edges. Lines whose endpoints
// cannot be resolved, resolve to the same cluster, or resolve to a
// flow-invalid type pair are skipped and reported, not errors.
func (m *Mapper) MapLines(buses []Bus, lines []Line) ([]NTCEdge, []SkippedLine) {
	busByID := make(map[string]Bus, len(buses))
	for _, b := range buses {
		busByID[b.ID] = b
	}

	type group struct {
		edge NTCEdge
		volt float64
	}
	groups := make(map[[2]ClusterRef]*group)
	var skipped []SkippedLine

	skip := func(l Line, reason string) {
		skipped = append(skipped, SkippedLine{Line: l, Reason: reason})
	}

	for _, l := range lines {
		b0, ok0 := busByID[l.Bus0]
		b1, ok1 := busByID[l.Bus1]
		if !ok0 || !ok1 {
			skip(l, "unknown bus")
			continue
		}
		p0 := geom.Point{X: b0.Lon, Y: b0.Lat}
		p1 := geom.Point{X: b1.Lon, Y: b1.Lat}

		from, ok := m.assignFirstEndpoint(p0)
		if !ok {
			skip(l, "first endpoint outside all hulls")
			continue
		}
		to, ok := m.assignSecondEndpoint(p1, from.Type)
		if !ok {
			skip(l, "invalid")
			continue
		}
		if from == to {
			skip(l, "intra-cluster")
			continue
		}
		if !flowValid(from.Type, to.Type) {
			skip(l, "invalid")
			continue
		}

		key := [2]ClusterRef{from, to}
		g, ok := groups[key]
		if !ok {
			g = &group{edge: NTCEdge{
				From: from, To: to,
				DistanceKM: HaversineKM(m.registry[from].Centroid(), m.registry[to].Centroid()),
				Bus0:       l.Bus0, Bus1: l.Bus1,
			}}
			groups[key] = g
		}
		g.edge.CapacityMVA += l.CapacityMVA
		g.edge.Lines++
		g.volt += l.VoltageKV
	}

	keys := make([][2]ClusterRef, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a[0].Type != b[0].Type {
			return a[0].Type < b[0].Type
		}
		if a[0].ID != b[0].ID {
			return a[0].ID < b[0].ID
		}
		if a[1].Type != b[1].Type {
			return a[1].Type < b[1].Type
		}
		return a[1].ID < b[1].ID
	})

	edges := make([]NTCEdge, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		g.edge.VoltageKV = g.volt / float64(g.edge.Lines)
		edges = append(edges, g.edge)
	}
	log.WithFields(log.Fields{
		"edges":   len(edges),
		"skipped": len(skipped),
	}).Info("engrid: aggregated transmission lines into NTC edges")
	return edges, skipped
}
