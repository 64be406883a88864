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
	"github.com/JackMoriarty/open-earth-compiler/ir"
)

// Operation names.
const (
	ApplyOpName       = "stencil.apply"
	CombineOpName     = "stencil.combine"
	LoadOpName        = "stencil.load"
	StoreOpName       = "stencil.store"
	AssertOpName      = "stencil.assert"
	AccessOpName      = "stencil.access"
	IndexOpName       = "stencil.index"
	ReturnOpName      = "stencil.return"
	StoreResultOpName = "stencil.store_result"
)

// Attribute names.
const (
	// ProgramAttr marks a function as a stencil program.
	ProgramAttr = "stencil.program"
	// FunctionAttr marks a function as a stencil function.
	FunctionAttr = "stencil.function"

	lbAttr       = "lb"
	ubAttr       = "ub"
	dimAttr      = "dim"
	indexAttr    = "index"
	offsetAttr   = "offset"
	unrollAttr   = "unroll"
	segmentsAttr = "operand_segment_sizes"
)

// Kind identifies a stencil operation.
type Kind int

// Kinds of stencil operations.
const (
	KindUnknown Kind = iota
	KindApply
	KindCombine
	KindLoad
	KindStore
	KindAssert
	KindAccess
	KindIndex
	KindReturn
	KindStoreResult
)

var kinds = map[string]Kind{
	ApplyOpName:       KindApply,
	CombineOpName:     KindCombine,
	LoadOpName:        KindLoad,
	StoreOpName:       KindStore,
	AssertOpName:      KindAssert,
	AccessOpName:      KindAccess,
	IndexOpName:       KindIndex,
	ReturnOpName:      KindReturn,
	StoreResultOpName: KindStoreResult,
}

// KindOf returns the kind of a stencil operation.
func KindOf(op *ir.Operation) Kind {
	if op == nil {
		return KindUnknown
	}
	return kinds[op.Name()]
}

// IsStencilProgram returns true if a function is marked as a stencil program.
func IsStencilProgram(fn *ir.Operation) bool {
	return fn.HasAttr(ProgramAttr)
}

// IsStencilFunction returns true if a function is marked as a stencil function.
func IsStencilFunction(fn *ir.Operation) bool {
	return fn.HasAttr(FunctionAttr)
}

func indexAttrOf(op *ir.Operation, name string) (Index, bool) {
	attr, ok := op.Attr(name)
	if !ok {
		return nil, false
	}
	arr, ok := attr.(ir.IntArrayAttr)
	return Index(arr), ok
}

func intAttrOf(op *ir.Operation, name string) int64 {
	attr, _ := op.Attr(name)
	v, _ := attr.(ir.IntAttr)
	return v.Value
}

func boundsAttrs(lb, ub Index) []ir.NamedAttr {
	if lb == nil || ub == nil {
		return nil
	}
	return []ir.NamedAttr{
		{Name: lbAttr, Value: ir.IntArrayAttr(lb)},
		{Name: ubAttr, Value: ir.IntArrayAttr(ub)},
	}
}

type (
	// ApplyOp computes temporaries from a body executed at every point of its domain.
	ApplyOp struct{ Shaped }

	// CombineOp selects the lower or the upper operands depending on the
	// position along a dimension.
	CombineOp struct{ Shaped }

	// LoadOp reads a temporary from a field.
	LoadOp struct{ Shaped }

	// StoreOp writes a temporary to a field.
	StoreOp struct{ Shaped }

	// AssertOp sets the bounds of a field.
	AssertOp struct{ Shaped }

	// ReturnOp terminates the body of an apply.
	ReturnOp struct{ *ir.Operation }
)

// AsApply returns op as an apply.
func AsApply(op *ir.Operation) (ApplyOp, bool) {
	if KindOf(op) != KindApply {
		return ApplyOp{}, false
	}
	return ApplyOp{Shaped{op}}, true
}

// CreateApply creates an apply with an empty body whose arguments mirror the operands.
// lb and ub can be nil if the shape is not known.
func CreateApply(b *ir.Builder, loc ir.Location, operands []*ir.Value, results []ir.Type, lb, ub Index) ApplyOp {
	op := b.Create(ir.OperationState{
		Name:       ApplyOpName,
		Loc:        loc,
		Operands:   operands,
		Types:      results,
		Attrs:      boundsAttrs(lb, ub),
		NumRegions: 1,
	})
	op.Region(0).Append(ir.NewBlock(ir.TypesOf(operands)...))
	return ApplyOp{Shaped{op}}
}

// Body returns the block of the apply.
func (a ApplyOp) Body() *ir.Block {
	return a.Region(0).Front()
}

// Return returns the terminator of the body.
func (a ApplyOp) Return() (ReturnOp, bool) {
	return AsReturn(a.Body().Terminator())
}

// AsCombine returns op as a combine.
func AsCombine(op *ir.Operation) (CombineOp, bool) {
	if KindOf(op) != KindCombine {
		return CombineOp{}, false
	}
	return CombineOp{Shaped{op}}, true
}

// CombineOperands are the operand groups of a combine.
type CombineOperands struct {
	Lower, Upper, LowerExt, UpperExt []*ir.Value
}

// CreateCombine creates a combine. The number of results is
// len(lower) + len(lowerext) + len(upperext).
func CreateCombine(b *ir.Builder, loc ir.Location, results []ir.Type, dim, index int64, operands CombineOperands, lb, ub Index) CombineOp {
	var all []*ir.Value
	all = append(all, operands.Lower...)
	all = append(all, operands.Upper...)
	all = append(all, operands.LowerExt...)
	all = append(all, operands.UpperExt...)
	attrs := []ir.NamedAttr{
		{Name: dimAttr, Value: ir.I64Attr(dim)},
		{Name: indexAttr, Value: ir.I64Attr(index)},
		{Name: segmentsAttr, Value: ir.IntArrayAttr{
			int64(len(operands.Lower)),
			int64(len(operands.Upper)),
			int64(len(operands.LowerExt)),
			int64(len(operands.UpperExt)),
		}},
	}
	return CombineOp{Shaped{b.Create(ir.OperationState{
		Name:     CombineOpName,
		Loc:      loc,
		Operands: all,
		Types:    results,
		Attrs:    append(attrs, boundsAttrs(lb, ub)...),
	})}}
}

// Dim returns the dimension along which the combine splits the domain.
func (c CombineOp) Dim() int64 {
	return intAttrOf(c.Operation, dimAttr)
}

// Index returns the position of the split.
func (c CombineOp) Index() int64 {
	return intAttrOf(c.Operation, indexAttr)
}

func (c CombineOp) segment(i int) []*ir.Value {
	sizes, _ := indexAttrOf(c.Operation, segmentsAttr)
	if len(sizes) != 4 {
		return nil
	}
	start := int64(0)
	for _, size := range sizes[:i] {
		start += size
	}
	return c.Operands()[start : start+sizes[i]]
}

// Groups returns the operand groups of the combine.
func (c CombineOp) Groups() CombineOperands {
	return CombineOperands{
		Lower:    c.Lower(),
		Upper:    c.Upper(),
		LowerExt: c.LowerExt(),
		UpperExt: c.UpperExt(),
	}
}

// Lower returns the operands selected below the split.
func (c CombineOp) Lower() []*ir.Value { return c.segment(0) }

// Upper returns the operands selected above the split.
func (c CombineOp) Upper() []*ir.Value { return c.segment(1) }

// LowerExt returns the operands computed only below the split.
func (c CombineOp) LowerExt() []*ir.Value { return c.segment(2) }

// UpperExt returns the operands computed only above the split.
func (c CombineOp) UpperExt() []*ir.Value { return c.segment(3) }

// AsLoad returns op as a load.
func AsLoad(op *ir.Operation) (LoadOp, bool) {
	if KindOf(op) != KindLoad {
		return LoadOp{}, false
	}
	return LoadOp{Shaped{op}}, true
}

// CreateLoad creates a load of a field.
func CreateLoad(b *ir.Builder, loc ir.Location, field *ir.Value, result ir.Type, lb, ub Index) LoadOp {
	return LoadOp{Shaped{b.Create(ir.OperationState{
		Name:     LoadOpName,
		Loc:      loc,
		Operands: []*ir.Value{field},
		Types:    []ir.Type{result},
		Attrs:    boundsAttrs(lb, ub),
	})}}
}

// Field returns the field read by the load.
func (l LoadOp) Field() *ir.Value {
	return l.Operand(0)
}

// AsStore returns op as a store.
func AsStore(op *ir.Operation) (StoreOp, bool) {
	if KindOf(op) != KindStore {
		return StoreOp{}, false
	}
	return StoreOp{Shaped{op}}, true
}

// CreateStore creates a store of a temporary into a field.
func CreateStore(b *ir.Builder, loc ir.Location, temp, field *ir.Value, lb, ub Index) StoreOp {
	return StoreOp{Shaped{b.Create(ir.OperationState{
		Name:     StoreOpName,
		Loc:      loc,
		Operands: []*ir.Value{temp, field},
		Attrs:    boundsAttrs(lb, ub),
	})}}
}

// Temp returns the stored temporary.
func (s StoreOp) Temp() *ir.Value {
	return s.Operand(0)
}

// Field returns the field written by the store.
func (s StoreOp) Field() *ir.Value {
	return s.Operand(1)
}

// AsAssert returns op as an assert.
func AsAssert(op *ir.Operation) (AssertOp, bool) {
	if KindOf(op) != KindAssert {
		return AssertOp{}, false
	}
	return AssertOp{Shaped{op}}, true
}

// CreateAssert creates an assert setting the bounds of a field.
func CreateAssert(b *ir.Builder, loc ir.Location, field *ir.Value, lb, ub Index) AssertOp {
	return AssertOp{Shaped{b.Create(ir.OperationState{
		Name:     AssertOpName,
		Loc:      loc,
		Operands: []*ir.Value{field},
		Attrs:    boundsAttrs(lb, ub),
	})}}
}

// Field returns the field constrained by the assert.
func (a AssertOp) Field() *ir.Value {
	return a.Operand(0)
}

// CreateAccess creates an access of a temporary at a constant offset.
func CreateAccess(b *ir.Builder, loc ir.Location, temp *ir.Value, offset Index) *ir.Operation {
	elem, _ := ElementType(temp.Type())
	return b.Create(ir.OperationState{
		Name:     AccessOpName,
		Loc:      loc,
		Operands: []*ir.Value{temp},
		Types:    []ir.Type{elem},
		Attrs:    []ir.NamedAttr{{Name: offsetAttr, Value: ir.IntArrayAttr(offset)}},
	})
}

// CreateIndex creates an operation returning the position along a dimension.
func CreateIndex(b *ir.Builder, loc ir.Location, dim int64, offset Index) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:  IndexOpName,
		Loc:   loc,
		Types: []ir.Type{ir.IndexType()},
		Attrs: []ir.NamedAttr{
			{Name: dimAttr, Value: ir.I64Attr(dim)},
			{Name: offsetAttr, Value: ir.IntArrayAttr(offset)},
		},
	})
}

// IndexDim returns the dimension of an index operation.
func IndexDim(op *ir.Operation) int64 {
	return intAttrOf(op, dimAttr)
}

// AsReturn returns op as a return.
func AsReturn(op *ir.Operation) (ReturnOp, bool) {
	if KindOf(op) != KindReturn {
		return ReturnOp{}, false
	}
	return ReturnOp{op}, true
}

// CreateReturn creates a return. unroll can be nil.
func CreateReturn(b *ir.Builder, loc ir.Location, operands []*ir.Value, unroll Index) ReturnOp {
	var attrs []ir.NamedAttr
	if unroll != nil {
		attrs = append(attrs, ir.NamedAttr{Name: unrollAttr, Value: ir.IntArrayAttr(unroll)})
	}
	return ReturnOp{b.Create(ir.OperationState{
		Name:     ReturnOpName,
		Loc:      loc,
		Operands: operands,
		Attrs:    attrs,
	})}
}

// Unroll returns the unroll attribute or nil.
func (r ReturnOp) Unroll() Index {
	unroll, _ := indexAttrOf(r.Operation, unrollAttr)
	return unroll
}

// UnrollFactor returns the number of operands returned per result.
func (r ReturnOp) UnrollFactor() int {
	for _, x := range r.Unroll() {
		if x != 1 {
			return int(x)
		}
	}
	return 1
}

// UnrollDim returns the unrolled dimension or -1 if the return is not unrolled.
func (r ReturnOp) UnrollDim() int {
	for i, x := range r.Unroll() {
		if x != 1 {
			return i
		}
	}
	return -1
}

// CreateStoreResult creates a store_result. value can be nil to create an empty result.
func CreateStoreResult(b *ir.Builder, loc ir.Location, elem ir.ScalarType, value *ir.Value) *ir.Operation {
	var operands []*ir.Value
	if value != nil {
		operands = append(operands, value)
	}
	return b.Create(ir.OperationState{
		Name:     StoreResultOpName,
		Loc:      loc,
		Operands: operands,
		Types:    []ir.Type{NewResultType(elem)},
	})
}
