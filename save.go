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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"
)

// Output table definitions shared by the CSV and workbook writers.

func registryHeader() []string {
	return []string{"name", "technology", "sub_technology", "capacity_mw", "status",
		"year", "country", "lat", "lon", "grid_cell", "bus_id", "unit_id", "provenance"}
}

func registryRow(r CapacityRecord) []string {
	return []string{r.Name, r.Fuel.String(), r.SubTechnology, ftoa(r.CapacityMW),
		r.Status.String(), strconv.Itoa(r.Year), r.Country, ftoa(r.Lat), ftoa(r.Lon),
		r.GridCell, r.BusID, r.UnitID, r.Provenance.String()}
}

func clusterHeader() []string {
	return []string{"cluster_id", "type", "lat", "lon", "weight", "members"}
}

func clusterRow(c Cluster) []string {
	return []string{strconv.Itoa(c.ID), c.Type.String(), ftoa(c.Lat), ftoa(c.Lon),
		ftoa(c.Weight), strconv.Itoa(c.Members)}
}

func assignmentHeader() []string {
	return []string{"type", "technology", "lat", "lon", "weight", "cluster_id"}
}

func assignmentRow(a PointAssignment) []string {
	return []string{a.Type.String(), a.Technology, ftoa(a.Lat), ftoa(a.Lon),
		ftoa(a.Weight), strconv.Itoa(a.Cluster)}
}

func ntcHeader() []string {
	return []string{"from_cluster", "from_type", "to_cluster", "to_type", "capacity_mva",
		"lines", "voltage_kv", "distance_km", "potential", "crosses_water", "water_fraction", "water_bodies"}
}

func ntcRow(e NTCEdge) []string {
	return []string{strconv.Itoa(e.From.ID), e.From.Type.String(),
		strconv.Itoa(e.To.ID), e.To.Type.String(), ftoa(e.CapacityMVA),
		strconv.Itoa(e.Lines), ftoa(e.VoltageKV), ftoa(e.DistanceKM),
		strconv.FormatBool(e.Potential), strconv.FormatBool(e.CrossesWater),
		ftoa(e.WaterFraction), strings.Join(e.WaterBodies, ";")}
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func writeCSVFile(fileName string, header []string, rows [][]string) error {
	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("engrid: creating %s: %w", fileName, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// outputTable is one named output table with its header and rows.
type outputTable struct {
	name   string
	header []string
	rows   [][]string
}

// outputTables assembles the result's four output tables in their fixed
// artifact order.
func (r *CountryResult) outputTables() []outputTable {
	registry := make([][]string, 0, len(r.Registry))
	for _, rec := range r.Registry {
		registry = append(registry, registryRow(rec))
	}
	var clusters [][]string
	var assignments [][]string
	if r.Clusters != nil {
		for _, t := range []ClusterType{ClusterDemand, ClusterGeneration, ClusterRenewable} {
			for _, c := range r.Clusters.ClustersOfType(t) {
				clusters = append(clusters, clusterRow(c))
			}
		}
		for _, a := range r.Clusters.Assignments() {
			assignments = append(assignments, assignmentRow(a))
		}
	}
	edges := make([][]string, 0, len(r.Edges))
	for _, e := range r.Edges {
		edges = append(edges, ntcRow(e))
	}
	return []outputTable{
		{name: "registry", header: registryHeader(), rows: registry},
		{name: "clusters", header: clusterHeader(), rows: clusters},
		{name: "assignments", header: assignmentHeader(), rows: assignments},
		{name: "ntc", header: ntcHeader(), rows: edges},
	}
}

// WriteCSV writes the country's four output tables as CSV files under
// dir, one file per table, named <country>_<table>.csv.
func (r *CountryResult) WriteCSV(dir string) error {
	for _, t := range r.outputTables() {
		fileName := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", r.Country, t.name))
		if err := writeCSVFile(fileName, t.header, t.rows); err != nil {
			return err
		}
	}
	return nil
}

// WriteWorkbook writes the country's output tables into a single xlsx
// workbook, one sheet per table, for the downstream modeling tool.
func (r *CountryResult) WriteWorkbook(fileName string) error {
	f := xlsx.NewFile()
	for _, t := range r.outputTables() {
		sheet, err := f.AddSheet(t.name)
		if err != nil {
			return fmt.Errorf("engrid: adding workbook sheet %s: %w", t.name, err)
		}
		hr := sheet.AddRow()
		for _, h := range t.header {
			hr.AddCell().Value = h
		}
		for _, row := range t.rows {
			xr := sheet.AddRow()
			for _, v := range row {
				xr.AddCell().Value = v
			}
		}
	}
	if err := f.Save(fileName); err != nil {
		return fmt.Errorf("engrid: saving workbook %s: %w", fileName, err)
	}
	return nil
}
