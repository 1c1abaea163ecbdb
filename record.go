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
	"strings"
)

// ReferenceYear is the comparison year for reconciling registry stock
// against the statistical reference datasets.
const ReferenceYear = 2022

// Fuel is the canonical technology category used to join plant records
// across data sources.
type Fuel int

// The canonical fuel classes.
const (
	FuelCoal Fuel = iota
	FuelGas
	FuelOil
	FuelNuclear
	FuelHydro
	FuelSolar
	FuelWindOnshore
	FuelWindOffshore
	FuelBioenergy
	FuelGeothermal
	FuelOther
)

var fuelNames = []string{
	FuelCoal:         "coal",
	FuelGas:          "gas",
	FuelOil:          "oil",
	FuelNuclear:      "nuclear",
	FuelHydro:        "hydro",
	FuelSolar:        "solar",
	FuelWindOnshore:  "windon",
	FuelWindOffshore: "windoff",
	FuelBioenergy:    "bioenergy",
	FuelGeothermal:   "geothermal",
	FuelOther:        "other",
}

func (f Fuel) String() string {
	if int(f) < 0 || int(f) >= len(fuelNames) {
		return fmt.Sprintf("fuel(%d)", int(f))
	}
	return fuelNames[f]
}

// ParseFuel converts a fuel name from an input table to a Fuel.
func ParseFuel(s string) (Fuel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range fuelNames {
		if n == name {
			return Fuel(i), nil
		}
	}
	return FuelOther, invalidInputf("unknown fuel %q", s)
}

// IsVariableRenewable reports whether f is a variable renewable
// technology that is placed on resource grid cells rather than buses.
func (f Fuel) IsVariableRenewable() bool {
	return f == FuelSolar || f == FuelWindOnshore || f == FuelWindOffshore
}

// Status is the operating status of a generation unit.
type Status int

// The recognized operating statuses.
const (
	StatusOperating Status = iota
	StatusConstruction
	StatusMothballed
	StatusRetired
	StatusAnnounced
	StatusPreConstruction
	StatusCancelled
)

var statusNames = []string{
	StatusOperating:       "operating",
	StatusConstruction:    "construction",
	StatusMothballed:      "mothballed",
	StatusRetired:         "retired",
	StatusAnnounced:       "announced",
	StatusPreConstruction: "pre-construction",
	StatusCancelled:       "cancelled",
}

func (s Status) String() string {
	if int(s) < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// ParseStatus converts a status name from an input table to a Status.
func ParseStatus(s string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, " ", "-")
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return StatusOperating, invalidInputf("unknown status %q", s)
}

// statusDefaultYear resolves a missing or out-of-range commissioning year
// from the unit's operating status.
var statusDefaultYear = map[Status]int{
	StatusOperating:       2000,
	StatusConstruction:    2025,
	StatusMothballed:      2000,
	StatusRetired:         1990,
	StatusAnnounced:       2030,
	StatusPreConstruction: 2028,
	StatusCancelled:       2030,
}

// ResolveYear returns year if it is within the valid 1900–2100 range, and
// otherwise the default commissioning year for status.
func ResolveYear(year int, status Status) int {
	if year >= 1900 && year <= 2100 {
		return year
	}
	if y, ok := statusDefaultYear[status]; ok {
		return y
	}
	return statusDefaultYear[StatusOperating]
}

// Provenance distinguishes rows loaded from a plant registry from rows
// synthesized by gap reconciliation.
type Provenance int

// The two provenance classes.
const (
	ProvenanceRegistry Provenance = iota
	ProvenanceSynthesized
)

func (p Provenance) String() string {
	if p == ProvenanceSynthesized {
		return "synthesized"
	}
	return "registry"
}

// CapacityRecord is one physical or synthesized generation unit.
type CapacityRecord struct {
	Name          string
	Fuel          Fuel
	SubTechnology string
	CapacityMW    float64
	Status        Status
	Year          int     // commissioning year
	Country       string  // ISO 3166-1 alpha-3
	Lat, Lon      float64 // plant location; zero for synthesized records
	GridCell      string  // renewable resource cell id, if any
	BusID         string  // grid bus id, if any
	UnitID        string  // registry (GEM) unit id
	Provenance    Provenance
}

// StatRecord is one row of a statistical capacity reference table.
type StatRecord struct {
	Country    string
	Fuel       Fuel
	Year       int
	CapacityGW float64
}

// GenerationRecord is one row of a statistical generation reference table.
type GenerationRecord struct {
	Country       string
	Fuel          Fuel
	Year          int
	GenerationTWh float64
}

// Zone is a renewable resource grid cell.
type Zone struct {
	ID             string
	Country        string
	Technology     Fuel // solar, windon or windoff
	CapacityFactor float64
	PotentialMW    float64
	Lat, Lon       float64
}

// Bus is a real grid substation.
type Bus struct {
	ID        string
	Lat, Lon  float64
	VoltageKV float64
}

// Line is a real transmission line between two buses.
type Line struct {
	Bus0, Bus1  string
	CapacityMVA float64
	VoltageKV   float64
	LengthKM    float64
}

// City is one demand point with its population weight.
type City struct {
	Name       string
	Lat, Lon   float64
	Population float64
	Country    string
}

// CumulativeCapacityMW sums the capacity of records for fuel with a
// commissioning year at or before year, the registry's cumulative stock.
func CumulativeCapacityMW(records []CapacityRecord, fuel Fuel, year int) float64 {
	var sum float64
	for _, r := range records {
		if r.Fuel == fuel && r.Year <= year {
			sum += r.CapacityMW
		}
	}
	return sum
}

// StatCapacityGW sums the statistical capacity estimate for (country,
// fuel, year) over records.
func StatCapacityGW(records []StatRecord, country string, fuel Fuel, year int) float64 {
	var sum float64
	for _, r := range records {
		if r.Country == country && r.Fuel == fuel && r.Year == year {
			sum += r.CapacityGW
		}
	}
	return sum
}
