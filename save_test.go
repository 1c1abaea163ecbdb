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
	"os"
	"path/filepath"
	"testing"

	"github.com/tealeg/xlsx"
)

func TestWriteCSV(t *testing.T) {
	d := testDataContext(t)
	res := d.RunCountry("DEU", testPipelineConfig())
	if res.Err != nil {
		t.Fatal(res.Err)
	}

	dir := t.TempDir()
	if err := res.WriteCSV(dir); err != nil {
		t.Fatal(err)
	}

	for _, table := range []string{"registry", "clusters", "assignments", "ntc"} {
		path := filepath.Join(dir, "DEU_"+table+".csv")
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("%s: %v", table, err)
		}
		rows, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil {
			t.Fatalf("%s: %v", table, err)
		}
		if len(rows) < 2 {
			t.Errorf("%s: got %d rows, want a header plus data", table, len(rows))
		}
	}

	// Spot-check the registry table contents.
	f, err := os.Open(filepath.Join(dir, "DEU_registry.csv"))
	if err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(f).ReadAll()
	f.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows)-1 != len(res.Registry) {
		t.Errorf("registry: got %d data rows, want %d", len(rows)-1, len(res.Registry))
	}
	if rows[0][0] != "name" || rows[0][1] != "technology" {
		t.Errorf("registry header: %v", rows[0])
	}
}

func TestWriteWorkbook(t *testing.T) {
	d := testDataContext(t)
	res := d.RunCountry("DEU", testPipelineConfig())
	if res.Err != nil {
		t.Fatal(res.Err)
	}

	path := filepath.Join(t.TempDir(), "DEU.xlsx")
	if err := res.WriteWorkbook(path); err != nil {
		t.Fatal(err)
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Sheets) != 4 {
		t.Fatalf("got %d sheets, want 4", len(f.Sheets))
	}
	want := []string{"registry", "clusters", "assignments", "ntc"}
	for i, sheet := range f.Sheets {
		if sheet.Name != want[i] {
			t.Errorf("sheet %d: got %q, want %q", i, sheet.Name, want[i])
		}
		if len(sheet.Rows) < 2 {
			t.Errorf("sheet %q: got %d rows, want a header plus data", sheet.Name, len(sheet.Rows))
		}
	}
}
