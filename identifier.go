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
	"strconv"
	"strings"
)

// Output formats for the identifier transforms.
const (
	FormatCommodity = "commodity"
	FormatProcess   = "process"
)

// Model-name prefixes for the two output formats.
const (
	commodityPrefix = "elc_"
	processPrefix   = "pp_"
)

func formatPrefix(format string) (string, error) {
	switch format {
	case FormatCommodity:
		return commodityPrefix, nil
	case FormatProcess:
		return processPrefix, nil
	default:
		return "", invalidInputf("unknown identifier format %q", format)
	}
}

// BusIDToCommodity converts a grid bus id to a model commodity name,
// shortening the OSM-style "way/" and "relation/" prefixes. If addPrefix
// is true the commodity prefix is prepended.
func BusIDToCommodity(busID string, addPrefix bool) (string, error) {
	if busID == "" {
		return "", invalidInputf("empty bus id")
	}
	id := busID
	if strings.HasPrefix(id, "way/") {
		id = "w" + strings.TrimPrefix(id, "way/")
	} else if strings.HasPrefix(id, "relation/") {
		id = "r" + strings.TrimPrefix(id, "relation/")
	}
	if addPrefix {
		id = commodityPrefix + id
	}
	return id, nil
}

// GridCellToCommodity converts a renewable resource grid cell id of the
// shape COUNTRY_NUMBER to a model commodity or process name. The country
// segment may carry a technology sub-prefix (e.g. "wof-ITA"); only its
// rightmost three characters are used as the country code. The numeric
// segment is zero-padded to four digits.
func GridCellToCommodity(gridCell, resourceType, format string) (string, error) {
	prefix, err := formatPrefix(format)
	if err != nil {
		return "", err
	}
	parts := strings.Split(gridCell, "_")
	if len(parts) != 2 {
		return "", invalidInputf("grid cell %q is not of the shape COUNTRY_NUMBER", gridCell)
	}
	country := parts[0]
	if len(country) < 3 {
		return "", invalidInputf("grid cell %q has country segment shorter than 3 characters", gridCell)
	}
	iso := country[len(country)-3:]
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", invalidInputf("grid cell %q has a non-integer numeric segment", gridCell)
	}
	return fmt.Sprintf("%s%s-%s_%04d", prefix, resourceType, iso, n), nil
}

// ClusterIDToCommodity converts an integer cluster id to a model
// commodity or process name, zero-padding the id to three digits.
func ClusterIDToCommodity(clusterID int, resourceType, format string) (string, error) {
	prefix, err := formatPrefix(format)
	if err != nil {
		return "", err
	}
	if clusterID < 0 {
		return "", invalidInputf("negative cluster id %d", clusterID)
	}
	return fmt.Sprintf("%s%s_%03d", prefix, resourceType, clusterID), nil
}

// BusIDsToCommodities is the batch form of BusIDToCommodity, for use over
// whole table columns.
func BusIDsToCommodities(busIDs []string, addPrefix bool) ([]string, error) {
	out := make([]string, len(busIDs))
	for i, id := range busIDs {
		s, err := BusIDToCommodity(id, addPrefix)
		if err != nil {
			return nil, fmt.Errorf("engrid: converting bus id at row %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// GridCellsToCommodities is the batch form of GridCellToCommodity.
func GridCellsToCommodities(gridCells []string, resourceType, format string) ([]string, error) {
	out := make([]string, len(gridCells))
	for i, c := range gridCells {
		s, err := GridCellToCommodity(c, resourceType, format)
		if err != nil {
			return nil, fmt.Errorf("engrid: converting grid cell at row %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// ClusterIDsToCommodities is the batch form of ClusterIDToCommodity.
func ClusterIDsToCommodities(clusterIDs []int, resourceType, format string) ([]string, error) {
	out := make([]string, len(clusterIDs))
	for i, id := range clusterIDs {
		s, err := ClusterIDToCommodity(id, resourceType, format)
		if err != nil {
			return nil, fmt.Errorf("engrid: converting cluster id at row %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}
