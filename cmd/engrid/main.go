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

// Command engrid is a command-line interface for the engrid
// electricity-system grid compilation pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/engrid/engridutil"
)

func main() {
	if err := engridutil.Root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
