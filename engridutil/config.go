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

package engridutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/engrid"
	"github.com/spf13/cast"
)

// inputPaths assembles the file locations from the configuration,
// expanding any environment variables.
func inputPaths(cfg *viper.Viper) engrid.InputPaths {
	get := func(key string) string { return os.ExpandEnv(cfg.GetString(key)) }
	return engrid.InputPaths{
		RegistryFile:        get("Files.Registry"),
		RenewableStatsFile:  get("Files.RenewableStats"),
		ThermalStatsFile:    get("Files.ThermalStats"),
		GenerationStatsFile: get("Files.GenerationStats"),
		ZonesFile:           get("Files.Zones"),
		BusesFile:           get("Files.Buses"),
		LinesFile:           get("Files.Lines"),
		CitiesFile:          get("Files.Cities"),
		WaterShapefile:      get("Files.Water"),
	}
}

// pipelineConfig assembles the pipeline configuration from the
// configuration store.
func pipelineConfig(cfg *viper.Viper, countries []string) (engrid.PipelineConfig, error) {
	method := cfg.GetString("method")
	if method != engrid.MethodVoronoi && method != engrid.MethodDBSCAN {
		return engrid.PipelineConfig{}, fmt.Errorf("engrid: method must be %q or %q, not %q",
			engrid.MethodVoronoi, engrid.MethodDBSCAN, method)
	}
	var filter engrid.RegionFilter
	if gap := cfg.GetFloat64("outliergapkm"); gap > 0 {
		filter = &engrid.ConnectedRegionFilter{MaxGapKM: gap}
	}
	return engrid.PipelineConfig{
		Countries: countries,
		Workers:   cfg.GetInt("workers"),
		Gap: engrid.GapFillConfig{
			ReferenceYear: engrid.ReferenceYear,
			GridModeling:  cfg.GetBool("gridmodeling"),
		},
		Engine: engrid.EngineConfig{
			DemandClusters:     cfg.GetInt("nc.demand"),
			GenerationClusters: cfg.GetInt("nc.generation"),
			RenewableClusters: map[engrid.Fuel]int{
				engrid.FuelSolar:        cfg.GetInt("nc.solar"),
				engrid.FuelWindOnshore:  cfg.GetInt("nc.windon"),
				engrid.FuelWindOffshore: cfg.GetInt("nc.windoff"),
			},
			Method:             method,
			EpsKM:              cfg.GetFloat64("epskm"),
			GenerationMinShare: cfg.GetFloat64("minshare"),
			Seed:               cast.ToInt64(cfg.Get("seed")),
			Filter:             filter,
		},
		RenewableSourceName: cfg.GetString("RenewableSource.Name"),
		ThermalSourceName:   cfg.GetString("ThermalSource.Name"),
		MaxRepairKM:         cfg.GetFloat64("maxrepairkm"),
	}, nil
}

// compile runs the pipeline for the given countries and writes the
// output artifacts.
func compile(countries []string) error {
	cfg, err := pipelineConfig(Cfg, countries)
	if err != nil {
		return err
	}
	ctx, err := engrid.NewDataContext(engrid.FromFiles(inputPaths(Cfg)))
	if err != nil {
		return err
	}

	outdir := os.ExpandEnv(Cfg.GetString("outdir"))
	if _, err := os.Stat(outdir); err != nil {
		return fmt.Errorf("engrid: the outdir directory doesn't exist: %v", err)
	}

	results := ctx.RunBatch(cfg)
	var failed int
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		if err := res.WriteCSV(outdir); err != nil {
			return err
		}
		if Cfg.GetBool("workbook") {
			if err := res.WriteWorkbook(filepath.Join(outdir, res.Country+".xlsx")); err != nil {
				return err
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("engrid: %d of %d countries failed; see the log for details", failed, len(results))
	}
	return nil
}
