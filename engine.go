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

	"github.com/ctessum/geom"
	log "github.com/sirupsen/logrus"
)

// renewableOrder fixes the technologies' order in the combined renewable
// cluster id space: solar ids start at zero, onshore wind after solar's
// count, offshore wind after both.
var renewableOrder = []Fuel{FuelSolar, FuelWindOnshore, FuelWindOffshore}

// RegionFilter discards geographically disconnected outlier points (e.g.
// overseas territories) before clustering.
type RegionFilter interface {
	Filter(points []ClusterPoint) []ClusterPoint
}

// ConnectedRegionFilter keeps only the heaviest connected group of
// points, where two points are connected if they lie within MaxGapKM of
// each other.
type ConnectedRegionFilter struct {
	MaxGapKM float64
}

// Filter implements RegionFilter.
func (f *ConnectedRegionFilter) Filter(points []ClusterPoint) []ClusterPoint {
	if len(points) == 0 || f.MaxGapKM <= 0 {
		return points
	}
	parent := make([]int, len(points))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for i := 0; i < len(points); i++ {
		pi := geom.Point{X: points[i].Lon, Y: points[i].Lat}
		for j := i + 1; j < len(points); j++ {
			pj := geom.Point{X: points[j].Lon, Y: points[j].Lat}
			if HaversineKM(pi, pj) <= f.MaxGapKM {
				parent[find(i)] = find(j)
			}
		}
	}
	weight := make(map[int]float64)
	for i, p := range points {
		weight[find(i)] += p.Weight
	}
	best := find(0)
	for root, w := range weight {
		if w > weight[best] || (w == weight[best] && root < best) {
			best = root
		}
	}
	var kept []ClusterPoint
	for i, p := range points {
		if find(i) == best {
			kept = append(kept, p)
		}
	}
	if n := len(points) - len(kept); n > 0 {
		log.WithField("discarded", n).Info("engrid: dropped disconnected outlier points before clustering")
	}
	return kept
}

// EngineConfig controls the cluster assignment engine.
type EngineConfig struct {
	DemandClusters     int
	GenerationClusters int
	RenewableClusters  map[Fuel]int // per technology target counts
	Method             string       // partitioning method for all runs
	EpsKM              float64      // DBSCAN epsilon
	GenerationMinShare float64      // 0 uses minClusterShareDefault
	Seed               int64
	Filter             RegionFilter // optional outlier filter
	// SubClusterGeneration partitions each generation technology group
	// separately (cluster counts proportional to group weight) before
	// merging into one generation layer.
	SubClusterGeneration bool
}

// ClusterSet is the unified registry produced by the engine: one
// partition per layer, with the renewable technologies sharing a single
// combined id space via per-technology offsets.
type ClusterSet struct {
	Demand     *Partition
	Generation *Partition
	Renewable  map[Fuel]*Partition
	Offsets    map[Fuel]int // renewable id offset per technology
	// Errors records per-technology renewable clustering failures; a
	// failed technology is absent from Renewable but does not abort the
	// others.
	Errors map[Fuel]error
}

// PointAssignment is one row of the combined point→cluster mapping table.
type PointAssignment struct {
	Type       ClusterType
	Technology string // renewable technology or generation sub-technology
	Lat, Lon   float64
	Weight     float64
	Cluster    int // combined id space for renewable points
}

// AssignClusters runs the three partitioning layers and builds the
// unified cluster registry.
func AssignClusters(cities []City, plants []CapacityRecord, zones []Zone, cfg EngineConfig) (*ClusterSet, error) {
	set := &ClusterSet{
		Renewable: make(map[Fuel]*Partition),
		Offsets:   make(map[Fuel]int),
		Errors:    make(map[Fuel]error),
	}

	demandPoints := make([]ClusterPoint, 0, len(cities))
	for _, c := range cities {
		demandPoints = append(demandPoints, ClusterPoint{
			Lat: c.Lat, Lon: c.Lon, Weight: c.Population, Type: ClusterDemand, Cluster: -1,
		})
	}
	demandPoints = filterPoints(cfg.Filter, demandPoints)
	if len(demandPoints) == 0 {
		// An empty layer is degraded output, not a failure; the caller
		// aborts only when every input table is empty.
		log.Warn("engrid: no demand points; demand layer left empty")
		set.Demand = &Partition{Type: ClusterDemand, Method: cfg.Method}
	} else {
		demand, err := PartitionPoints(demandPoints, PartitionConfig{
			Type: ClusterDemand, Method: cfg.Method, Clusters: cfg.DemandClusters,
			EpsKM: cfg.EpsKM, AllowReduceK: true, Seed: cfg.Seed,
		})
		if err != nil {
			return nil, fmt.Errorf("engrid: partitioning demand points: %w", err)
		}
		set.Demand = demand
	}

	genPoints := make([]ClusterPoint, 0, len(plants))
	for _, p := range plants {
		if p.Lat == 0 && p.Lon == 0 {
			continue // synthesized or unlocated units carry no coordinates
		}
		genPoints = append(genPoints, ClusterPoint{
			Lat: p.Lat, Lon: p.Lon, Weight: p.CapacityMW,
			Type: ClusterGeneration, SubTechnology: generationGroup(p), Cluster: -1,
		})
	}
	genPoints = filterPoints(cfg.Filter, genPoints)
	minShare := cfg.GenerationMinShare
	if minShare == 0 {
		minShare = minClusterShareDefault
	}
	if len(genPoints) == 0 {
		// Synthesized gap-fill units carry no coordinates, so a registry
		// of only synthesized rows leaves this layer empty.
		log.Warn("engrid: no locatable generation points; generation layer left empty")
		set.Generation = &Partition{Type: ClusterGeneration, Method: cfg.Method}
	} else {
		generation, err := partitionGeneration(genPoints, cfg, minShare)
		if err != nil {
			return nil, fmt.Errorf("engrid: partitioning generation points: %w", err)
		}
		set.Generation = generation
	}

	offset := 0
	for _, tech := range renewableOrder {
		techPoints := make([]ClusterPoint, 0)
		for _, z := range zones {
			if z.Technology != tech {
				continue
			}
			techPoints = append(techPoints, ClusterPoint{
				Lat: z.Lat, Lon: z.Lon, Weight: z.PotentialMW,
				Type: ClusterRenewable, SubTechnology: tech.String(), Cluster: -1,
			})
		}
		if len(techPoints) == 0 {
			continue
		}
		techPoints = filterPoints(cfg.Filter, techPoints)
		part, err := PartitionPoints(techPoints, PartitionConfig{
			Type: ClusterRenewable, Method: cfg.Method, Clusters: cfg.RenewableClusters[tech],
			EpsKM: cfg.EpsKM, AllowReduceK: true, Seed: cfg.Seed,
		})
		if err != nil {
			// One technology failing must not abort the others.
			set.Errors[tech] = err
			log.WithError(err).WithField("technology", tech.String()).
				Error("engrid: renewable clustering failed")
			continue
		}
		set.Renewable[tech] = part
		set.Offsets[tech] = offset
		offset += len(part.Clusters)
	}

	return set, nil
}

func filterPoints(f RegionFilter, points []ClusterPoint) []ClusterPoint {
	if f == nil {
		return points
	}
	return f.Filter(points)
}

// generationGroup maps a plant to its technology group tag for the
// generation layer breakdown.
func generationGroup(p CapacityRecord) string {
	if p.SubTechnology != "" {
		return p.SubTechnology
	}
	return p.Fuel.String()
}

// partitionGeneration builds the generation layer, either in one run or
// per technology group with a global merge.
func partitionGeneration(points []ClusterPoint, cfg EngineConfig, minShare float64) (*Partition, error) {
	if !cfg.SubClusterGeneration {
		return PartitionPoints(points, PartitionConfig{
			Type: ClusterGeneration, Method: cfg.Method, Clusters: cfg.GenerationClusters,
			EpsKM: cfg.EpsKM, MinShare: minShare, AllowReduceK: true, Seed: cfg.Seed,
		})
	}

	groups := make(map[string][]ClusterPoint)
	var order []string
	var totalWeight float64
	for _, p := range points {
		if _, ok := groups[p.SubTechnology]; !ok {
			order = append(order, p.SubTechnology)
		}
		groups[p.SubTechnology] = append(groups[p.SubTechnology], p)
		totalWeight += p.Weight
	}

	merged := &Partition{Type: ClusterGeneration, Method: cfg.Method}
	offset := 0
	for _, tech := range order {
		gp := groups[tech]
		var gw float64
		for _, p := range gp {
			gw += p.Weight
		}
		k := 1
		if totalWeight > 0 {
			k = int(float64(cfg.GenerationClusters)*gw/totalWeight + 0.5)
			if k < 1 {
				k = 1
			}
		}
		part, err := PartitionPoints(gp, PartitionConfig{
			Type: ClusterGeneration, Method: cfg.Method, Clusters: k,
			EpsKM: cfg.EpsKM, MinShare: minShare, AllowReduceK: true, Seed: cfg.Seed,
		})
		if err != nil {
			return nil, fmt.Errorf("engrid: partitioning %s generation group: %w", tech, err)
		}
		for _, c := range part.Clusters {
			c.ID += offset
			merged.Clusters = append(merged.Clusters, c)
		}
		for _, p := range part.Points {
			p.Cluster += offset
			merged.Points = append(merged.Points, p)
		}
		offset += len(part.Clusters)
	}
	return merged, nil
}

// RenewableClusterID maps a technology-local cluster id into the combined
// renewable id space.
func (s *ClusterSet) RenewableClusterID(tech Fuel, localID int) int {
	return s.Offsets[tech] + localID
}

// ClustersOfType returns the cluster registry for one layer. Renewable
// clusters are returned in the combined id space.
func (s *ClusterSet) ClustersOfType(t ClusterType) []Cluster {
	switch t {
	case ClusterDemand:
		if s.Demand == nil {
			return nil
		}
		return s.Demand.Clusters
	case ClusterGeneration:
		if s.Generation == nil {
			return nil
		}
		return s.Generation.Clusters
	case ClusterRenewable:
		var out []Cluster
		for _, tech := range renewableOrder {
			part, ok := s.Renewable[tech]
			if !ok {
				continue
			}
			for _, c := range part.Clusters {
				c.ID = s.RenewableClusterID(tech, c.ID)
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}

// Assignments returns the combined point→cluster mapping table across all
// layers, with renewable points addressed in the combined id space.
func (s *ClusterSet) Assignments() []PointAssignment {
	var out []PointAssignment
	if s.Demand != nil {
		for _, p := range s.Demand.Points {
			out = append(out, PointAssignment{
				Type: ClusterDemand, Lat: p.Lat, Lon: p.Lon, Weight: p.Weight, Cluster: p.Cluster,
			})
		}
	}
	if s.Generation != nil {
		for _, p := range s.Generation.Points {
			out = append(out, PointAssignment{
				Type: ClusterGeneration, Technology: p.SubTechnology,
				Lat: p.Lat, Lon: p.Lon, Weight: p.Weight, Cluster: p.Cluster,
			})
		}
	}
	for _, tech := range renewableOrder {
		part, ok := s.Renewable[tech]
		if !ok {
			continue
		}
		for _, p := range part.Points {
			out = append(out, PointAssignment{
				Type: ClusterRenewable, Technology: tech.String(),
				Lat: p.Lat, Lon: p.Lon, Weight: p.Weight,
				Cluster: s.RenewableClusterID(tech, p.Cluster),
			})
		}
	}
	return out
}
