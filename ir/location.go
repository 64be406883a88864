// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir

import "fmt"

// Location is a position in the source from which an operation has been generated.
type Location struct {
	File      string
	Line, Col int
}

// UnknownLoc is the location of operations without source information.
var UnknownLoc = Location{}

// FileLineCol returns a location in a source file.
func FileLineCol(file string, line, col int) Location {
	return Location{File: file, Line: line, Col: col}
}

// IsUnknown returns true if the location carries no source information.
func (l Location) IsUnknown() bool {
	return l == UnknownLoc
}

func (l Location) String() string {
	if l.IsUnknown() {
		return "loc(unknown)"
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}
