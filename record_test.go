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

import "testing"

func TestParseFuel(t *testing.T) {
	tests := []struct {
		in   string
		want Fuel
	}{
		{"coal", FuelCoal},
		{"Gas", FuelGas},
		{" solar ", FuelSolar},
		{"WINDON", FuelWindOnshore},
		{"windoff", FuelWindOffshore},
		{"hydro", FuelHydro},
	}
	for _, test := range tests {
		got, err := ParseFuel(test.in)
		if err != nil {
			t.Fatalf("%q: %v", test.in, err)
		}
		if got != test.want {
			t.Errorf("%q: got %v, want %v", test.in, got, test.want)
		}
	}
	if _, err := ParseFuel("plutonium"); !IsInvalidInput(err) {
		t.Errorf("unknown fuel: got %v, want InvalidInputError", err)
	}
}

func TestIsVariableRenewable(t *testing.T) {
	for _, f := range []Fuel{FuelSolar, FuelWindOnshore, FuelWindOffshore} {
		if !f.IsVariableRenewable() {
			t.Errorf("%s: want variable renewable", f)
		}
	}
	for _, f := range []Fuel{FuelCoal, FuelGas, FuelHydro, FuelNuclear, FuelBioenergy} {
		if f.IsVariableRenewable() {
			t.Errorf("%s: want not variable renewable", f)
		}
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"operating", StatusOperating},
		{"Pre-Construction", StatusPreConstruction},
		{"pre construction", StatusPreConstruction},
		{"MOTHBALLED", StatusMothballed},
	}
	for _, test := range tests {
		got, err := ParseStatus(test.in)
		if err != nil {
			t.Fatalf("%q: %v", test.in, err)
		}
		if got != test.want {
			t.Errorf("%q: got %v, want %v", test.in, got, test.want)
		}
	}
	if _, err := ParseStatus("imaginary"); !IsInvalidInput(err) {
		t.Errorf("unknown status: got %v, want InvalidInputError", err)
	}
}

func TestResolveYear(t *testing.T) {
	tests := []struct {
		year   int
		status Status
		want   int
	}{
		{2015, StatusOperating, 2015},
		{0, StatusOperating, 2000},
		{0, StatusConstruction, 2025},
		{0, StatusRetired, 1990},
		{0, StatusAnnounced, 2030},
		{0, StatusPreConstruction, 2028},
		{1850, StatusOperating, 2000}, // before the valid range
		{2150, StatusAnnounced, 2030}, // after the valid range
		{1900, StatusOperating, 1900}, // range boundaries are valid
		{2100, StatusOperating, 2100},
	}
	for _, test := range tests {
		if got := ResolveYear(test.year, test.status); got != test.want {
			t.Errorf("ResolveYear(%d, %s): got %d, want %d", test.year, test.status, got, test.want)
		}
	}
}

func TestCumulativeCapacityMW(t *testing.T) {
	records := []CapacityRecord{
		{Fuel: FuelGas, CapacityMW: 100, Year: 2010},
		{Fuel: FuelGas, CapacityMW: 200, Year: 2022},
		{Fuel: FuelGas, CapacityMW: 400, Year: 2025}, // future unit, excluded
		{Fuel: FuelCoal, CapacityMW: 800, Year: 2010},
	}
	if got := CumulativeCapacityMW(records, FuelGas, 2022); got != 300 {
		t.Errorf("got %g, want 300", got)
	}
	if got := CumulativeCapacityMW(records, FuelGas, 2030); got != 700 {
		t.Errorf("got %g, want 700", got)
	}
	if got := CumulativeCapacityMW(records, FuelNuclear, 2022); got != 0 {
		t.Errorf("got %g, want 0", got)
	}
}

func TestStatCapacityGW(t *testing.T) {
	records := []StatRecord{
		{Country: "DEU", Fuel: FuelSolar, Year: 2022, CapacityGW: 60},
		{Country: "DEU", Fuel: FuelSolar, Year: 2021, CapacityGW: 55},
		{Country: "FRA", Fuel: FuelSolar, Year: 2022, CapacityGW: 15},
	}
	if got := StatCapacityGW(records, "DEU", FuelSolar, 2022); got != 60 {
		t.Errorf("got %g, want 60", got)
	}
	if got := StatCapacityGW(records, "ITA", FuelSolar, 2022); got != 0 {
		t.Errorf("got %g, want 0", got)
	}
}
