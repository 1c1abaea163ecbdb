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
	"errors"
	"fmt"
)

// InvalidInputError reports a malformed identifier, a non-numeric field,
// or an out-of-range coordinate. It is raised immediately by the
// identifier transforms; other components validate their inputs at table
// load time and should not see it during normal operation.
type InvalidInputError struct {
	msg string
}

func (e *InvalidInputError) Error() string { return "engrid: invalid input: " + e.msg }

func invalidInputf(format string, args ...interface{}) error {
	return &InvalidInputError{msg: fmt.Sprintf(format, args...)}
}

// IsInvalidInput reports whether err is an InvalidInputError.
func IsInvalidInput(err error) bool {
	var e *InvalidInputError
	return errors.As(err, &e)
}

// DataUnavailableError reports that a required reference table is missing
// or empty for the requested country. Callers recover by treating the
// result as empty; it is never fatal to a whole pipeline run unless every
// source for a country is empty.
type DataUnavailableError struct {
	Table   string
	Country string
}

func (e *DataUnavailableError) Error() string {
	if e.Country == "" {
		return fmt.Sprintf("engrid: no data available in table %s", e.Table)
	}
	return fmt.Sprintf("engrid: no data available in table %s for country %s", e.Table, e.Country)
}

// IsDataUnavailable reports whether err is a DataUnavailableError.
func IsDataUnavailable(err error) bool {
	var e *DataUnavailableError
	return errors.As(err, &e)
}

// DegenerateClusterError reports that a partitioning run was given fewer
// usable points than requested clusters. Callers that set
// PartitionConfig.AllowReduceK never see it.
type DegenerateClusterError struct {
	Points   int
	Clusters int
}

func (e *DegenerateClusterError) Error() string {
	return fmt.Sprintf("engrid: cannot partition %d points into %d clusters", e.Points, e.Clusters)
}

// IsDegenerateCluster reports whether err is a DegenerateClusterError.
func IsDegenerateCluster(err error) bool {
	var e *DegenerateClusterError
	return errors.As(err, &e)
}
