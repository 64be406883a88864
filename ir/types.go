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

// Package ir is a minimal multi-level intermediate representation.
//
// A program is a tree of operations. An operation has operands (values),
// results (values), attributes and regions. A region holds blocks and a block
// holds a list of operations and block arguments. Every value records its uses
// so that passes can query users and replace values in place.
//
// Dialects (stencil, std, scf, ...) are defined in their own packages on top of
// the generic operation: an operation is identified by its name, for example
// "stencil.apply", and dialect packages provide typed views over it.
package ir

import (
	"fmt"
	"strings"

	"github.com/JackMoriarty/open-earth-compiler/base/stringseq"
	"github.com/gx-org/backend/dtype"
)

type (
	// Type of a value.
	Type interface {
		// Equal returns true if other is the same type.
		Equal(other Type) bool

		// String representation of the type.
		String() string
	}

	indexType struct{}

	// ScalarType is a numerical element type.
	ScalarType struct {
		DType dtype.DataType
	}

	// FunctionType is the signature of a function.
	FunctionType struct {
		Inputs  []Type
		Results []Type
	}
)

var (
	_ Type = indexType{}
	_ Type = ScalarType{}
	_ Type = (*FunctionType)(nil)
)

// IndexType returns the type of values indexing memory.
func IndexType() Type {
	return indexType{}
}

// IsIndex returns true if a type is the index type.
func IsIndex(typ Type) bool {
	_, ok := typ.(indexType)
	return ok
}

func (indexType) Equal(other Type) bool {
	_, ok := other.(indexType)
	return ok
}

func (indexType) String() string {
	return "index"
}

// I1 returns the boolean type.
func I1() ScalarType { return ScalarType{DType: dtype.Bool} }

// I32 returns the 32-bit integer type.
func I32() ScalarType { return ScalarType{DType: dtype.Int32} }

// I64 returns the 64-bit integer type.
func I64() ScalarType { return ScalarType{DType: dtype.Int64} }

// F32 returns the 32-bit float type.
func F32() ScalarType { return ScalarType{DType: dtype.Float32} }

// F64 returns the 64-bit float type.
func F64() ScalarType { return ScalarType{DType: dtype.Float64} }

// Equal returns true if other is the same scalar type.
func (s ScalarType) Equal(other Type) bool {
	o, ok := other.(ScalarType)
	return ok && o.DType == s.DType
}

// Bitwidth returns the number of bits used to store a scalar.
func (s ScalarType) Bitwidth() int {
	if s.DType == dtype.Bool {
		return 1
	}
	return 8 * dtype.Sizeof(s.DType)
}

// IsFloat returns true if the scalar is a floating point number.
func (s ScalarType) IsFloat() bool {
	switch s.DType {
	case dtype.Bfloat16, dtype.Float32, dtype.Float64:
		return true
	}
	return false
}

func (s ScalarType) String() string {
	switch s.DType {
	case dtype.Bool:
		return "i1"
	case dtype.Int32:
		return "i32"
	case dtype.Int64:
		return "i64"
	case dtype.Uint32:
		return "ui32"
	case dtype.Uint64:
		return "ui64"
	case dtype.Bfloat16:
		return "bf16"
	case dtype.Float32:
		return "f32"
	case dtype.Float64:
		return "f64"
	}
	return fmt.Sprintf("!scalar<%s>", s.DType.String())
}

// NewFunctionType returns a function signature.
func NewFunctionType(inputs, results []Type) *FunctionType {
	return &FunctionType{Inputs: inputs, Results: results}
}

// Equal returns true if other is a function type with the same signature.
func (f *FunctionType) Equal(other Type) bool {
	o, ok := other.(*FunctionType)
	if !ok {
		return false
	}
	return TypesEqual(f.Inputs, o.Inputs) && TypesEqual(f.Results, o.Results)
}

func (f *FunctionType) String() string {
	var s strings.Builder
	s.WriteString("(")
	s.WriteString(stringseq.JoinStringer(f.Inputs, ", "))
	s.WriteString(") -> ")
	if len(f.Results) == 1 {
		s.WriteString(f.Results[0].String())
		return s.String()
	}
	s.WriteString("(")
	s.WriteString(stringseq.JoinStringer(f.Results, ", "))
	s.WriteString(")")
	return s.String()
}

// TypesEqual returns true if two lists of types are equal element-wise.
func TypesEqual(x, y []Type) bool {
	if len(x) != len(y) {
		return false
	}
	for i, xi := range x {
		if !xi.Equal(y[i]) {
			return false
		}
	}
	return true
}

// TypesOf returns the types of a list of values.
func TypesOf(vals []*Value) []Type {
	types := make([]Type, len(vals))
	for i, val := range vals {
		types[i] = val.Type()
	}
	return types
}
