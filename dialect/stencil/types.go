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

package stencil

import (
	"fmt"
	"strings"

	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
)

// Field dimensions.
const (
	// DynamicDimension is an extent known only at runtime.
	DynamicDimension = -1
	// ScalarDimension is a dimension that is not iterated.
	ScalarDimension = 1
)

type (
	// FieldType is an external grid buffer.
	// Every dimension is either dynamic or scalar.
	FieldType struct {
		Elem  ir.ScalarType
		Shape []int64
	}

	// TempType is a bounded intermediate value computed by an apply.
	TempType struct {
		Shape shape.Shape
	}

	// ResultType is the value of a store_result.
	ResultType struct {
		Elem ir.ScalarType
	}
)

var (
	_ ir.Type = (*FieldType)(nil)
	_ ir.Type = (*TempType)(nil)
	_ ir.Type = (*ResultType)(nil)
)

// NewFieldType returns a field type.
func NewFieldType(elem ir.ScalarType, dims []int64) *FieldType {
	return &FieldType{Elem: elem, Shape: dims}
}

// IsDynamic returns true if a field dimension is dynamic.
func IsDynamic(dim int64) bool {
	return dim == DynamicDimension
}

// IsScalar returns true if a field dimension is scalar.
func IsScalar(dim int64) bool {
	return dim == ScalarDimension
}

func formatDims(dims []int64, elem ir.Type) string {
	var s strings.Builder
	for _, dim := range dims {
		if dim == DynamicDimension {
			s.WriteString("?")
		} else {
			s.WriteString(fmt.Sprint(dim))
		}
		s.WriteString("x")
	}
	s.WriteString(elem.String())
	return s.String()
}

// Equal returns true if other is the same field type.
func (f *FieldType) Equal(other ir.Type) bool {
	o, ok := other.(*FieldType)
	if !ok {
		return false
	}
	return f.Elem.Equal(o.Elem) && Index(f.Shape).Equal(o.Shape)
}

func (f *FieldType) String() string {
	return "!stencil.field<" + formatDims(f.Shape, f.Elem) + ">"
}

// NewTempType returns a temporary type given its element type and its extents.
func NewTempType(elem ir.ScalarType, dims []int64) *TempType {
	axes := make([]int, len(dims))
	for i, dim := range dims {
		axes[i] = int(dim)
	}
	return &TempType{Shape: shape.Shape{DType: elem.DType, AxisLengths: axes}}
}

// Elem returns the element type of the temporary.
func (t *TempType) Elem() ir.ScalarType {
	return ir.ScalarType{DType: t.Shape.DType}
}

// Dims returns the extents of the temporary.
func (t *TempType) Dims() []int64 {
	dims := make([]int64, len(t.Shape.AxisLengths))
	for i, axis := range t.Shape.AxisLengths {
		dims[i] = int64(axis)
	}
	return dims
}

// Equal returns true if other is the same temporary type.
func (t *TempType) Equal(other ir.Type) bool {
	o, ok := other.(*TempType)
	if !ok {
		return false
	}
	return t.Shape.DType == o.Shape.DType && Index(t.Dims()).Equal(o.Dims())
}

func (t *TempType) String() string {
	return "!stencil.temp<" + formatDims(t.Dims(), t.Elem()) + ">"
}

// NewResultType returns the type of a store_result.
func NewResultType(elem ir.ScalarType) *ResultType {
	return &ResultType{Elem: elem}
}

// Equal returns true if other is the same result type.
func (r *ResultType) Equal(other ir.Type) bool {
	o, ok := other.(*ResultType)
	return ok && r.Elem.Equal(o.Elem)
}

func (r *ResultType) String() string {
	return "!stencil.result<" + r.Elem.String() + ">"
}

// ElementType returns the element type of a field, a temporary, or a result.
func ElementType(typ ir.Type) (ir.ScalarType, bool) {
	switch t := typ.(type) {
	case *FieldType:
		return t.Elem, true
	case *TempType:
		return t.Elem(), true
	case *ResultType:
		return t.Elem, true
	case ir.ScalarType:
		return t, true
	}
	return ir.ScalarType{DType: dtype.Invalid}, false
}
