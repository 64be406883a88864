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

import "github.com/JackMoriarty/open-earth-compiler/ir"

// ShapeOp is an operation carrying lower and upper bounds.
type ShapeOp interface {
	Op() *ir.Operation
	HasShape() bool
	LB() Index
	UB() Index
	SetShape(lb, ub Index)
}

// Shaped implements ShapeOp using the lb and ub attributes of an operation.
type Shaped struct {
	*ir.Operation
}

var _ ShapeOp = Shaped{}

// AsShapeOp returns the shape capability of an apply, combine, load, store, or assert.
func AsShapeOp(op *ir.Operation) (ShapeOp, bool) {
	switch KindOf(op) {
	case KindApply:
		return ApplyOp{Shaped{op}}, true
	case KindCombine:
		return CombineOp{Shaped{op}}, true
	case KindLoad:
		return LoadOp{Shaped{op}}, true
	case KindStore:
		return StoreOp{Shaped{op}}, true
	case KindAssert:
		return AssertOp{Shaped{op}}, true
	}
	return nil, false
}

// Op returns the underlying operation.
func (s Shaped) Op() *ir.Operation {
	return s.Operation
}

// HasShape returns true if both bounds are set.
func (s Shaped) HasShape() bool {
	return s.HasAttr(lbAttr) && s.HasAttr(ubAttr)
}

// LB returns the lower bound or nil.
func (s Shaped) LB() Index {
	lb, _ := indexAttrOf(s.Operation, lbAttr)
	return lb
}

// UB returns the upper bound or nil.
func (s Shaped) UB() Index {
	ub, _ := indexAttrOf(s.Operation, ubAttr)
	return ub
}

// SetShape sets the bounds.
func (s Shaped) SetShape(lb, ub Index) {
	s.SetAttr(lbAttr, ir.IntArrayAttr(lb))
	s.SetAttr(ubAttr, ir.IntArrayAttr(ub))
}

// Shape returns the extents of the dimensions that are not ignored.
func Shape(op ShapeOp) []int64 {
	return ShapeOf(op.LB(), op.UB())
}
