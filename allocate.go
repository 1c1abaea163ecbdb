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

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// MinThermalAllocationGW is the smallest capacity placed on a single bus
// when distributing thermal or hydro gap capacity.
const MinThermalAllocationGW = 0.01

// Relative contributions of resource quality and resource potential to a
// zone's combined score.
const (
	capacityFactorScoreWeight = 0.7
	potentialScoreWeight      = 0.3
)

// maxRenewableZones caps how many zones receive a share of a renewable
// allocation. Concentrating on the best few zones is deliberate; spreading
// capacity thinly over all candidate cells produces degenerate model input.
const maxRenewableZones = 3

// evenSplitLocations is the number of locations used by the even-split
// fallback when no location clears the minimum threshold.
const evenSplitLocations = 5

// ComputeRenewableWeights scores the zones matching technology and
// returns normalized weights for at most maxRenewableZones of them.
// Duplicate zone ids keep the entry with the highest capacity factor
// (then potential). The returned weights sum to 1; the map is empty if no
// zone matches.
func ComputeRenewableWeights(zones []Zone, technology Fuel) map[string]float64 {
	best := make(map[string]Zone)
	for _, z := range zones {
		if z.Technology != technology {
			continue
		}
		if cur, ok := best[z.ID]; ok {
			if z.CapacityFactor < cur.CapacityFactor ||
				(z.CapacityFactor == cur.CapacityFactor && z.PotentialMW <= cur.PotentialMW) {
				continue
			}
		}
		best[z.ID] = z
	}
	if len(best) == 0 {
		return map[string]float64{}
	}

	ids := make([]string, 0, len(best))
	var maxCF, maxPot float64
	for id, z := range best {
		ids = append(ids, id)
		maxCF = math.Max(maxCF, z.CapacityFactor)
		maxPot = math.Max(maxPot, z.PotentialMW)
	}
	score := func(z Zone) float64 {
		var s float64
		if maxCF > 0 {
			s += capacityFactorScoreWeight * z.CapacityFactor / maxCF
		}
		if maxPot > 0 {
			s += potentialScoreWeight * z.PotentialMW / maxPot
		}
		return s
	}
	sort.Slice(ids, func(i, j int) bool {
		si, sj := score(best[ids[i]]), score(best[ids[j]])
		if si != sj {
			return si > sj
		}
		return ids[i] < ids[j]
	})
	if len(ids) > maxRenewableZones {
		ids = ids[:maxRenewableZones]
	}

	weights := make(map[string]float64, len(ids))
	var total float64
	for _, id := range ids {
		s := score(best[id])
		weights[id] = s
		total += s
	}
	if total == 0 {
		// All scores zero; fall back to an even split over the selection.
		for _, id := range ids {
			weights[id] = 1 / float64(len(ids))
		}
		return weights
	}
	for id := range weights {
		weights[id] /= total
	}
	return weights
}

// ComputeThermalWeights weights each bus by its share of the existing
// capacity of fuelType among plants with a bus assignment. If no such
// plants exist the voltage-tier weights are used instead. The returned
// weights sum to 1; the map is empty if buses is empty.
func ComputeThermalWeights(buses []Bus, existingPlants []CapacityRecord, fuelType Fuel) map[string]float64 {
	if len(buses) == 0 {
		return map[string]float64{}
	}
	busSet := make(map[string]bool, len(buses))
	for _, b := range buses {
		busSet[b.ID] = true
	}
	capacity := make(map[string]float64)
	var total float64
	for _, p := range existingPlants {
		if p.Fuel != fuelType || p.BusID == "" || !busSet[p.BusID] {
			continue
		}
		capacity[p.BusID] += p.CapacityMW
		total += p.CapacityMW
	}
	if total == 0 {
		return ComputeVoltageWeights(buses)
	}
	weights := make(map[string]float64, len(capacity))
	for id, c := range capacity {
		if c > 0 {
			weights[id] = c / total
		}
	}
	return weights
}

// voltageTierScore is the fixed per-tier weight used when no existing
// capacity signal is available.
func voltageTierScore(voltageKV float64) float64 {
	switch {
	case voltageKV >= 380:
		return 1.0
	case voltageKV >= 220:
		return 0.7
	case voltageKV >= 110:
		return 0.4
	default:
		return 0.1
	}
}

// ComputeVoltageWeights weights each bus by its voltage tier. The
// returned weights sum to 1; the map is empty if buses is empty.
func ComputeVoltageWeights(buses []Bus) map[string]float64 {
	if len(buses) == 0 {
		return map[string]float64{}
	}
	weights := make(map[string]float64, len(buses))
	var total float64
	for _, b := range buses {
		s := voltageTierScore(b.VoltageKV)
		weights[b.ID] += s
		total += s
	}
	for id := range weights {
		weights[id] /= total
	}
	return weights
}

// Distribute splits total across the weighted locations. Locations whose
// initial share falls below minPerLocation are dropped and their combined
// residual is added to the single largest remaining allocation; the
// residual is deliberately not spread proportionally, mirroring the
// concentration policy of the zone selection. Zero-weight locations are
// always dropped, whatever the threshold. If no location clears the
// threshold the total is split evenly over the top evenSplitLocations
// locations by weight. The output sums to total; drift beyond floating
// tolerance is logged as a warning, not raised.
func Distribute(total float64, weights map[string]float64, minPerLocation float64) map[string]float64 {
	if total <= 0 || len(weights) == 0 {
		return map[string]float64{}
	}
	ids := make([]string, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if weights[ids[i]] != weights[ids[j]] {
			return weights[ids[i]] > weights[ids[j]]
		}
		return ids[i] < ids[j]
	})

	out := make(map[string]float64, len(ids))
	var residual float64
	var largest string
	for _, id := range ids {
		alloc := weights[id] * total
		if alloc == 0 || alloc < minPerLocation {
			residual += alloc
			continue
		}
		out[id] = alloc
		if largest == "" || alloc > out[largest] {
			largest = id
		}
	}

	if len(out) == 0 {
		// Nothing cleared the threshold; split evenly over the best few.
		n := evenSplitLocations
		if len(ids) < n {
			n = len(ids)
		}
		for _, id := range ids[:n] {
			out[id] = total / float64(n)
		}
		return out
	}
	if residual > 0 {
		out[largest] += residual
	}

	values := make([]float64, 0, len(out))
	for _, v := range out {
		values = append(values, v)
	}
	if diff := math.Abs(floats.Sum(values) - total); diff > 1e-6*math.Max(1, total) {
		log.WithFields(log.Fields{
			"total": total,
			"drift": diff,
		}).Warn("engrid: allocation drifted from requested total")
	}
	return out
}
