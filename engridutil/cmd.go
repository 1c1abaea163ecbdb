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

// Package engridutil wires the engrid compilation pipeline to a
// command-line and configuration-file interface.
package engridutil

import (
	"fmt"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/engrid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to engrid.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "country",
			usage: `
              country is the ISO 3166-1 alpha-3 code of the country to compile.`,
			shorthand:  "c",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "countries",
			usage: `
              countries lists the ISO codes to compile in a batch run.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "workers",
			usage: `
              workers is the number of countries compiled concurrently in a
              batch run.`,
			defaultVal: engrid.DefaultWorkers,
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "nc.demand",
			usage: `
              nc.demand is the target number of demand clusters.`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "nc.generation",
			usage: `
              nc.generation is the target number of generation clusters.`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "nc.solar",
			usage: `
              nc.solar is the target number of solar resource clusters.`,
			defaultVal: 5,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "nc.windon",
			usage: `
              nc.windon is the target number of onshore wind resource clusters.`,
			defaultVal: 5,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "nc.windoff",
			usage: `
              nc.windoff is the target number of offshore wind resource clusters.`,
			defaultVal: 3,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "method",
			usage: `
              method selects the partitioning method, either voronoi or dbscan.`,
			defaultVal: engrid.MethodVoronoi,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "epskm",
			usage: `
              epskm is the DBSCAN neighborhood radius in kilometers, used when
              method is dbscan.`,
			defaultVal: 50.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "minshare",
			usage: `
              minshare is the minimum share of total weight a generation
              cluster must hold before being merged into a neighbor.`,
			defaultVal: 0.01,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "outliergapkm",
			usage: `
              outliergapkm discards point groups more than this distance from
              the country's main landmass before clustering. Zero disables the
              filter.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "maxrepairkm",
			usage: `
              maxrepairkm bounds the search distance for potential edges added
              to reconnect isolated clusters. Zero disables repair.`,
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "gridmodeling",
			usage: `
              gridmodeling distributes thermal and hydro capacity gaps onto
              grid buses instead of aggregating them per country.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "seed",
			usage: `
              seed is the random seed for the clustering runs.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "outdir",
			usage: `
              outdir is the directory the output CSV tables are written to.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "workbook",
			usage: `
              workbook additionally writes the outputs as one xlsx workbook
              per country, named <country>.xlsx in outdir.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "RenewableSource.Name",
			usage: `
              RenewableSource.Name identifies the renewables-oriented
              statistical dataset in synthesized plant names.`,
			defaultVal: "IRENA",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ThermalSource.Name",
			usage: `
              ThermalSource.Name identifies the thermal-oriented statistical
              dataset in synthesized plant names.`,
			defaultVal: "EMBER",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Files.Registry",
			usage: `
              Files.Registry is the path to the plant registry CSV file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Files.RenewableStats",
			usage: `
              Files.RenewableStats is the path to the renewables-oriented
              statistical capacity CSV file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Files.ThermalStats",
			usage: `
              Files.ThermalStats is the path to the thermal-oriented
              statistical capacity CSV file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Files.GenerationStats",
			usage: `
              Files.GenerationStats is the path to the statistical generation
              CSV file. Optional.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Files.Zones",
			usage: `
              Files.Zones is the path to the renewable resource zone CSV file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Files.Buses",
			usage: `
              Files.Buses is the path to the grid bus CSV file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Files.Lines",
			usage: `
              Files.Lines is the path to the transmission line CSV file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Files.Cities",
			usage: `
              Files.Cities is the path to the city/population CSV file.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Files.Water",
			usage: `
              Files.Water is the path to the water polygon shapefile.
              Optional; without it potential edges are not water-annotated.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
	}
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "engrid",
	Short: "An energy-system data compiler.",
	Long: `engrid compiles heterogeneous global energy datasets into the structured
tables consumed by capacity-expansion models. Use the subcommands specified
below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'ENGRID_var' where 'var' is
the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of engrid.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("engrid v%s\n", engrid.Version)
	},
	DisableAutoGenTag: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compile one country.",
	Long: `run compiles the model input tables for a single country: capacity-gap
reconciliation, cluster assignment, substation mapping, NTC aggregation,
connectivity repair and water annotation.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		country := Cfg.GetString("country")
		if country == "" {
			return fmt.Errorf("engrid: run requires --country")
		}
		return compile([]string{country})
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Compile many countries.",
	Long: `batch compiles the model input tables for several countries using a
bounded worker pool. One country's failure never aborts its siblings.`,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		countries := Cfg.GetStringSlice("countries")
		if len(countries) == 0 {
			return fmt.Errorf("engrid: batch requires --countries")
		}
		return compile(countries)
	},
}

func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("engrid: problem reading configuration file: %v", err)
		}
	}
	return nil
}

func init() {
	Cfg = viper.New()
	Cfg.SetEnvPrefix("ENGRID")
	Cfg.AutomaticEnv()
	Root.AddCommand(versionCmd, runCmd, batchCmd)
	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}
