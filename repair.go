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
	"sort"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// clusterNodeID encodes a ClusterRef as a graph node id.
func clusterNodeID(r ClusterRef) int64 {
	return int64(r.Type)*1e9 + int64(r.ID)
}

func clusterRefFromNodeID(id int64) ClusterRef {
	return ClusterRef{Type: ClusterType(id / 1e9), ID: int(id % 1e9)}
}

// RepairResult reports the outcome of a connectivity repair pass.
type RepairResult struct {
	// Added are the zero-capacity potential edges created by the repair.
	Added []NTCEdge
	// Unreachable lists clusters that could not be connected within the
	// distance bound; reported, not fatal.
	Unreachable []ClusterRef
}

// RepairConnectivity finds clusters disconnected from the main network
// component after NTC aggregation and adds zero-capacity potential edges
// linking each one to the nearest main-component cluster, under the
// relaxed flow rule and within maxKM. The set of connected clusters grows
// as repairs are made, so later repairs may attach to earlier ones.
func RepairConnectivity(m *Mapper, edges []NTCEdge, maxKM float64) RepairResult {
	g := simple.NewUndirectedGraph()
	refs := make([]ClusterRef, 0, len(m.registry))
	for ref := range m.registry {
		refs = append(refs, ref)
		g.AddNode(simple.Node(clusterNodeID(ref)))
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Type != refs[j].Type {
			return refs[i].Type < refs[j].Type
		}
		return refs[i].ID < refs[j].ID
	})
	for _, e := range edges {
		a := simple.Node(clusterNodeID(e.From))
		b := simple.Node(clusterNodeID(e.To))
		if a != b {
			g.SetEdge(simple.Edge{F: a, T: b})
		}
	}

	components := topo.ConnectedComponents(g)
	main := 0
	for i, comp := range components {
		if len(comp) > len(components[main]) {
			main = i
		}
	}
	connected := make(map[ClusterRef]bool)
	component := make(map[ClusterRef][]ClusterRef)
	for i, comp := range components {
		members := make([]ClusterRef, len(comp))
		for j, n := range comp {
			members[j] = clusterRefFromNodeID(n.ID())
		}
		for _, ref := range members {
			component[ref] = members
			if i == main {
				connected[ref] = true
			}
		}
	}

	var res RepairResult
	for _, ref := range refs {
		if connected[ref] {
			continue
		}
		c := m.registry[ref]
		var best ClusterRef
		bestDist := 0.0
		found := false
		// Search every currently connected cluster, including ones
		// attached by earlier repairs in this pass.
		for _, cand := range refs {
			if !connected[cand] || !flowValidRelaxed(ref.Type, cand.Type) {
				continue
			}
			d := HaversineKM(c.Centroid(), m.registry[cand].Centroid())
			if d > maxKM {
				continue
			}
			if !found || d < bestDist {
				best = cand
				bestDist = d
				found = true
			}
		}
		if !found {
			res.Unreachable = append(res.Unreachable, ref)
			log.WithFields(log.Fields{
				"cluster": ref.String(),
				"maxKM":   maxKM,
			}).Warn("engrid: cluster unreachable within repair distance bound")
			continue
		}
		res.Added = append(res.Added, NTCEdge{
			From: ref, To: best,
			DistanceKM: bestDist,
			Potential:  true,
		})
		// The repaired cluster's whole component is now reachable.
		for _, member := range component[ref] {
			connected[member] = true
		}
	}
	return res
}
