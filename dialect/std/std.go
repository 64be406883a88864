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

// Package std provides the standard operations and the memref type
// targeted by the lowering of stencil programs.
package std

import (
	"fmt"
	"slices"
	"strings"

	"github.com/JackMoriarty/open-earth-compiler/base/stringseq"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/pkg/errors"
)

// DynamicSize marks a memref extent known only at runtime.
const DynamicSize = -1

type (
	// StridedLayout describes how the elements of a memref are laid out in memory.
	StridedLayout struct {
		Strides []int64
		Offset  int64
	}

	// MemRefType is a reference to a buffer of elements.
	MemRefType struct {
		Elem   ir.Type
		Shape  []int64
		Layout *StridedLayout
	}
)

var _ ir.Type = (*MemRefType)(nil)

// NewMemRefType returns a memref type without layout.
func NewMemRefType(elem ir.Type, shape []int64) *MemRefType {
	return &MemRefType{Elem: elem, Shape: shape}
}

// NewStridedMemRefType returns a memref type with a strided layout.
func NewStridedMemRefType(elem ir.Type, shape, strides []int64, offset int64) *MemRefType {
	return &MemRefType{
		Elem:   elem,
		Shape:  shape,
		Layout: &StridedLayout{Strides: strides, Offset: offset},
	}
}

// Rank returns the number of dimensions.
func (m *MemRefType) Rank() int {
	return len(m.Shape)
}

// HasStaticShape returns true if all the extents are known.
func (m *MemRefType) HasStaticShape() bool {
	return !slices.Contains(m.Shape, DynamicSize)
}

// Equal returns true if other is the same memref type.
func (m *MemRefType) Equal(other ir.Type) bool {
	o, ok := other.(*MemRefType)
	if !ok {
		return false
	}
	if !m.Elem.Equal(o.Elem) || !slices.Equal(m.Shape, o.Shape) {
		return false
	}
	if m.Layout == nil || o.Layout == nil {
		return m.Layout == o.Layout
	}
	return m.Layout.Offset == o.Layout.Offset && slices.Equal(m.Layout.Strides, o.Layout.Strides)
}

func formatExtent(x int64) string {
	if x == DynamicSize {
		return "?"
	}
	return fmt.Sprint(x)
}

// String representation of the type.
func (m *MemRefType) String() string {
	var s strings.Builder
	s.WriteString("memref<")
	for _, x := range m.Shape {
		s.WriteString(formatExtent(x))
		s.WriteString("x")
	}
	s.WriteString(m.Elem.String())
	if m.Layout != nil {
		s.WriteString(", strided<[")
		s.WriteString(stringseq.JoinFunc(m.Layout.Strides, formatExtent, ", "))
		s.WriteString(fmt.Sprintf("], offset: %s>", formatExtent(m.Layout.Offset)))
	}
	s.WriteString(">")
	return s.String()
}

// AsMemRef returns the memref type of a value or false if the value is not a memref.
func AsMemRef(typ ir.Type) (*MemRefType, bool) {
	m, ok := typ.(*MemRefType)
	return m, ok
}

// Operation names.
const (
	ConstantOpName   = "std.constant"
	CmpIOpName       = "std.cmpi"
	MemRefCastOpName = "std.memref_cast"
	SubViewOpName    = "std.subview"
)

// Integer comparison predicates.
const (
	PredicateEQ  = "eq"
	PredicateNE  = "ne"
	PredicateSLT = "slt"
	PredicateULT = "ult"
)

// CreateConstantIndex creates an index constant.
func CreateConstantIndex(b *ir.Builder, loc ir.Location, v int64) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:  ConstantOpName,
		Loc:   loc,
		Types: []ir.Type{ir.IndexType()},
		Attrs: []ir.NamedAttr{{Name: "value", Value: ir.IndexAttr(v)}},
	})
}

// ConstantValue returns the integer value of a constant operation.
func ConstantValue(op *ir.Operation) (int64, bool) {
	if op == nil || op.Name() != ConstantOpName {
		return 0, false
	}
	attr, _ := op.Attr("value")
	v, ok := attr.(ir.IntAttr)
	return v.Value, ok
}

// CreateCmpI creates an integer comparison returning an i1.
func CreateCmpI(b *ir.Builder, loc ir.Location, predicate string, lhs, rhs *ir.Value) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:     CmpIOpName,
		Loc:      loc,
		Operands: []*ir.Value{lhs, rhs},
		Types:    []ir.Type{ir.I1()},
		Attrs:    []ir.NamedAttr{{Name: "predicate", Value: ir.StringAttr(predicate)}},
	})
}

// CreateMemRefCast casts a memref to another memref type.
func CreateMemRefCast(b *ir.Builder, loc ir.Location, source *ir.Value, typ *MemRefType) (*ir.Operation, error) {
	src, ok := AsMemRef(source.Type())
	if !ok {
		return nil, errors.Errorf("cannot cast %s: not a memref", source.Type())
	}
	if !src.Elem.Equal(typ.Elem) {
		return nil, errors.Errorf("cannot cast %s to %s: element types differ", src, typ)
	}
	return b.Create(ir.OperationState{
		Name:     MemRefCastOpName,
		Loc:      loc,
		Operands: []*ir.Value{source},
		Types:    []ir.Type{typ},
	}), nil
}

// CreateSubView creates a view of a memref at static offsets.
func CreateSubView(b *ir.Builder, loc ir.Location, source *ir.Value, offsets, sizes, strides []int64, typ *MemRefType) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:     SubViewOpName,
		Loc:      loc,
		Operands: []*ir.Value{source},
		Types:    []ir.Type{typ},
		Attrs: []ir.NamedAttr{
			{Name: "static_offsets", Value: ir.IntArrayAttr(offsets)},
			{Name: "static_sizes", Value: ir.IntArrayAttr(sizes)},
			{Name: "static_strides", Value: ir.IntArrayAttr(strides)},
		},
	})
}
