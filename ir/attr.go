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

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/JackMoriarty/open-earth-compiler/base/stringseq"
)

type (
	// Attribute is a compile-time constant attached to an operation.
	Attribute interface {
		// Equal returns true if other is the same attribute.
		Equal(other Attribute) bool

		String() string
	}

	// IntAttr is an integer attribute.
	IntAttr struct {
		Value int64
		Type  Type
	}

	// IntArrayAttr is an array of integers, used for index tuples.
	IntArrayAttr []int64

	// StringAttr is a string attribute.
	StringAttr string

	// SymbolRefAttr refers to a symbol defined in an enclosing symbol table.
	SymbolRefAttr string

	// TypeAttr stores a type.
	TypeAttr struct {
		Type Type
	}

	// UnitAttr is an attribute whose presence is its only information.
	UnitAttr struct{}
)

var (
	_ Attribute = IntAttr{}
	_ Attribute = IntArrayAttr{}
	_ Attribute = StringAttr("")
	_ Attribute = SymbolRefAttr("")
	_ Attribute = TypeAttr{}
	_ Attribute = UnitAttr{}
)

// IndexAttr returns an integer attribute of index type.
func IndexAttr(v int64) IntAttr {
	return IntAttr{Value: v, Type: IndexType()}
}

// I32Attr returns a 32-bit integer attribute.
func I32Attr(v int64) IntAttr {
	return IntAttr{Value: v, Type: I32()}
}

// I64Attr returns a 64-bit integer attribute.
func I64Attr(v int64) IntAttr {
	return IntAttr{Value: v, Type: I64()}
}

// Equal returns true if other is an integer attribute with the same value and type.
func (a IntAttr) Equal(other Attribute) bool {
	o, ok := other.(IntAttr)
	if !ok || o.Value != a.Value {
		return false
	}
	if a.Type == nil || o.Type == nil {
		return a.Type == o.Type
	}
	return a.Type.Equal(o.Type)
}

func (a IntAttr) String() string {
	if a.Type == nil {
		return strconv.FormatInt(a.Value, 10)
	}
	return fmt.Sprintf("%d : %s", a.Value, a.Type.String())
}

// Equal returns true if other is the same array.
func (a IntArrayAttr) Equal(other Attribute) bool {
	o, ok := other.(IntArrayAttr)
	return ok && slices.Equal(a, o)
}

func (a IntArrayAttr) String() string {
	return "[" + stringseq.JoinFunc(a, func(x int64) string {
		return strconv.FormatInt(x, 10)
	}, ", ") + "]"
}

// Equal returns true if other is the same string.
func (a StringAttr) Equal(other Attribute) bool {
	o, ok := other.(StringAttr)
	return ok && o == a
}

func (a StringAttr) String() string {
	return strconv.Quote(string(a))
}

// Equal returns true if other refers to the same symbol.
func (a SymbolRefAttr) Equal(other Attribute) bool {
	o, ok := other.(SymbolRefAttr)
	return ok && o == a
}

func (a SymbolRefAttr) String() string {
	return "@" + string(a)
}

// Equal returns true if other stores the same type.
func (a TypeAttr) Equal(other Attribute) bool {
	o, ok := other.(TypeAttr)
	return ok && a.Type.Equal(o.Type)
}

func (a TypeAttr) String() string {
	return a.Type.String()
}

// Equal returns true if other is also a unit attribute.
func (UnitAttr) Equal(other Attribute) bool {
	_, ok := other.(UnitAttr)
	return ok
}

func (UnitAttr) String() string {
	return "unit"
}
