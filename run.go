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
	"sync"

	log "github.com/sirupsen/logrus"
)

// DefaultWorkers is the worker-pool size for batch runs over independent
// countries.
const DefaultWorkers = 3

// PipelineConfig controls a full per-country compilation run.
type PipelineConfig struct {
	Countries []string
	Workers   int // 0 uses DefaultWorkers

	Gap    GapFillConfig
	Engine EngineConfig

	// RenewableSourceName and ThermalSourceName identify the statistical
	// sources; they are embedded in synthesized plant names.
	RenewableSourceName string
	ThermalSourceName   string

	MaxRepairKM float64
}

// StepStatus is one structured per-step status record. User-visible
// failure is a status record, not a stack trace.
type StepStatus struct {
	Step   string
	Detail string
	Err    error
}

// CountryResult is everything the pipeline produces for one country.
type CountryResult struct {
	Country  string
	Gaps     []GapResult
	Registry []CapacityRecord // input registry plus synthesized rows
	Clusters *ClusterSet
	Mapper   *Mapper
	Edges    []NTCEdge // real and potential, water-annotated
	Skipped  []SkippedLine
	Repair   RepairResult
	Statuses []StepStatus
	Err      error // fatal error; partial results may still be populated
}

func (r *CountryResult) status(step, detail string, err error) {
	r.Statuses = append(r.Statuses, StepStatus{Step: step, Detail: detail, Err: err})
	entry := log.WithFields(log.Fields{"country": r.Country, "step": step})
	if err != nil {
		entry.WithError(err).Error(detail)
	} else {
		entry.Info(detail)
	}
}

// RunCountry compiles one country: gap reconciliation against both
// statistical sources, cluster assignment, substation mapping, NTC
// aggregation, connectivity repair and water annotation. Failures in one
// fuel or technology do not abort the others; a failure in a whole stage
// aborts this country only.
func (d *DataContext) RunCountry(country string, cfg PipelineConfig) *CountryResult {
	res := &CountryResult{Country: country}
	data := d.Country(country)
	if len(data.Registry) == 0 && len(data.Zones) == 0 && len(data.Cities) == 0 {
		res.Err = &DataUnavailableError{Table: "all inputs", Country: country}
		res.status("load", "no input data for country", res.Err)
		return res
	}

	// Gap reconciliation, per source, per fuel.
	sources := []StatSource{
		RenewableStatSource(cfg.RenewableSourceName, d.RenewableStats),
		ThermalStatSource(cfg.ThermalSourceName, d.ThermalStats),
	}
	res.Registry = append(res.Registry, data.Registry...)
	for _, src := range sources {
		gaps := ReconcileSource(src, country, data.Registry, data.Zones, data.Buses, cfg.Gap)
		for _, g := range gaps {
			res.Gaps = append(res.Gaps, g)
			res.Registry = append(res.Registry, g.Records...)
			if g.Err != nil {
				res.status("gapfill", fmt.Sprintf("reconciling %s from %s", g.Fuel, src.Name), g.Err)
			}
		}
		res.status("gapfill", fmt.Sprintf("reconciled %d fuels from %s", len(src.Fuels), src.Name), nil)
	}

	// Cluster assignment.
	set, err := AssignClusters(data.Cities, res.Registry, data.Zones, cfg.Engine)
	if err != nil {
		res.Err = fmt.Errorf("engrid: clustering %s: %w", country, err)
		res.status("cluster", "cluster assignment failed", err)
		return res
	}
	res.Clusters = set
	for tech, terr := range set.Errors {
		res.status("cluster", fmt.Sprintf("renewable clustering failed for %s", tech), terr)
	}
	res.status("cluster", "cluster assignment complete", nil)

	// Substation mapping and NTC aggregation.
	res.Mapper = NewMapper(set)
	res.Edges, res.Skipped = res.Mapper.MapLines(data.Buses, data.Lines)
	res.status("ntc", fmt.Sprintf("aggregated %d NTC edges (%d lines skipped)", len(res.Edges), len(res.Skipped)), nil)

	// Connectivity repair.
	if cfg.MaxRepairKM > 0 {
		res.Repair = RepairConnectivity(res.Mapper, res.Edges, cfg.MaxRepairKM)
		res.Edges = append(res.Edges, res.Repair.Added...)
		detail := fmt.Sprintf("added %d potential edges, %d clusters unreachable",
			len(res.Repair.Added), len(res.Repair.Unreachable))
		res.status("repair", detail, nil)
	}

	// Water crossing annotation (potential edges only).
	AnnotateWaterCrossings(res.Edges, res.Mapper, d.Water)
	res.status("water", "water crossings annotated", nil)

	return res
}

// RunBatch compiles every configured country with a bounded worker pool.
// One country's failure, including a panic, never aborts its siblings.
func (d *DataContext) RunBatch(cfg PipelineConfig) []*CountryResult {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if workers > len(cfg.Countries) {
		workers = len(cfg.Countries)
	}

	results := make([]*CountryResult, len(cfg.Countries))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				country := cfg.Countries[i]
				func() {
					defer func() {
						if r := recover(); r != nil {
							results[i] = &CountryResult{
								Country: country,
								Err:     fmt.Errorf("engrid: pipeline panic for %s: %v", country, r),
							}
							log.WithField("country", country).Errorf("engrid: pipeline panic: %v", r)
						}
					}()
					results[i] = d.RunCountry(country, cfg)
				}()
			}
		}()
	}
	for i := range cfg.Countries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}
