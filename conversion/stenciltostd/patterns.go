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

package stenciltostd

import (
	"github.com/JackMoriarty/open-earth-compiler/dialect/builtin"
	"github.com/JackMoriarty/open-earth-compiler/dialect/std"
	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/conversion"
	"github.com/JackMoriarty/open-earth-compiler/ir/rewrite"
)

// NewTarget returns the legality rules of the lowering:
// stencil programs and functions, asserts and loads are illegal.
func NewTarget() *conversion.Target {
	target := conversion.NewTarget()
	target.AddDynamicallyLegalOp(builtin.FuncOpName, func(op *ir.Operation) bool {
		return !stencil.IsStencilProgram(op) && !stencil.IsStencilFunction(op)
	})
	target.AddIllegalOp(stencil.AssertOpName, stencil.LoadOpName)
	target.MarkUnknownOpDynamicallyLegal(func(*ir.Operation) bool { return true })
	return target
}

// Patterns returns the patterns lowering a stencil program.
func Patterns(tc *conversion.TypeConverter, fields *FieldBindings) []rewrite.Pattern {
	return []rewrite.Pattern{
		&FuncOpLowering{tc: tc},
		&AssertOpLowering{fields: fields},
		&LoadOpLowering{fields: fields},
	}
}

// FuncOpLowering converts the signature of a stencil program or function.
type FuncOpLowering struct {
	tc *conversion.TypeConverter
}

var _ rewrite.Pattern = (*FuncOpLowering)(nil)

// Name of the pattern.
func (*FuncOpLowering) Name() string { return "func-lowering" }

// RootName returns the name of the matched operations.
func (*FuncOpLowering) RootName() string { return builtin.FuncOpName }

var droppedFuncAttrs = map[string]bool{
	builtin.SymNameAttr:  true,
	builtin.TypeAttr:     true,
	stencil.ProgramAttr:  true,
	stencil.FunctionAttr: true,
}

// MatchAndRewrite replaces the function by a function with a converted signature.
// The body is moved into the new function and its arguments are retyped in place.
func (p *FuncOpLowering) MatchAndRewrite(op *ir.Operation, rw *rewrite.PatternRewriter) error {
	fn, ok := builtin.AsFunc(op)
	if !ok || (!stencil.IsStencilProgram(op) && !stencil.IsStencilFunction(op)) {
		return rw.NotApplicable(op, "not a stencil function")
	}
	sig, err := p.tc.ConvertSignature(fn.Type())
	if err != nil {
		return rw.NotApplicable(op, "cannot convert the signature of %s: %v", fn.SymName(), err)
	}
	entry := fn.EntryBlock()
	if entry != nil && entry.NumArgs() != len(sig.Inputs) {
		return rw.NotApplicable(op, "entry block of %s has %d arguments but its signature has %d inputs", fn.SymName(), entry.NumArgs(), len(sig.Inputs))
	}
	var attrs []ir.NamedAttr
	for _, attr := range op.Attrs() {
		if droppedFuncAttrs[attr.Name] {
			continue
		}
		attrs = append(attrs, attr)
	}
	rw.SetInsertionPointBefore(op)
	lowered := builtin.CreateFunc(rw.Builder, op.Loc(), fn.SymName(), sig, attrs...)
	rw.InlineRegionBefore(fn.Body(), lowered.Body())
	if entry != nil {
		for i, arg := range entry.Args() {
			arg.SetType(sig.Inputs[i])
		}
	}
	rw.EraseOp(op)
	return nil
}

// AssertOpLowering casts the field of an assert to a memref with the shape of the assert.
type AssertOpLowering struct {
	fields *FieldBindings
}

var _ rewrite.Pattern = (*AssertOpLowering)(nil)

// Name of the pattern.
func (*AssertOpLowering) Name() string { return "assert-lowering" }

// RootName returns the name of the matched operations.
func (*AssertOpLowering) RootName() string { return stencil.AssertOpName }

// MatchAndRewrite replaces an assert by a cast of its field.
func (p *AssertOpLowering) MatchAndRewrite(op *ir.Operation, rw *rewrite.PatternRewriter) error {
	assert, ok := stencil.AsAssert(op)
	if !ok {
		return rw.NotApplicable(op, "not an assert")
	}
	field := assert.Field()
	mem, ok := std.AsMemRef(field.Type())
	if !ok {
		return rw.NotApplicable(op, "field of type %s not converted yet", field.Type())
	}
	if !assert.HasShape() {
		return rw.NotApplicable(op, "assert without shape")
	}
	shape := stencil.Shape(assert)
	if len(shape) != mem.Rank() {
		return rw.NotApplicable(op, "assert of rank %d on a field of rank %d", len(shape), mem.Rank())
	}
	rw.SetInsertionPointBefore(op)
	cast, err := std.CreateMemRefCast(rw.Builder, op.Loc(), field, std.NewMemRefType(mem.Elem, shape))
	if err != nil {
		return rw.NotApplicable(op, "%v", err)
	}
	p.fields.SetCast(field, cast)
	rw.EraseOp(op)
	return nil
}

// LoadOpLowering replaces a load by a view of the cast of its field.
type LoadOpLowering struct {
	fields *FieldBindings
}

var _ rewrite.Pattern = (*LoadOpLowering)(nil)

// Name of the pattern.
func (*LoadOpLowering) Name() string { return "load-lowering" }

// RootName returns the name of the matched operations.
func (*LoadOpLowering) RootName() string { return stencil.LoadOpName }

// MatchAndRewrite replaces a load by a subview starting at the lower bound
// of the load relative to the lower bound of the assert of the field.
func (p *LoadOpLowering) MatchAndRewrite(op *ir.Operation, rw *rewrite.PatternRewriter) error {
	load, ok := stencil.AsLoad(op)
	if !ok {
		return rw.NotApplicable(op, "not a load")
	}
	field := load.Field()
	cast, ok := p.fields.Cast(field)
	if !ok {
		return rw.NotApplicable(op, "assert of the field not lowered yet")
	}
	origin, ok := p.fields.Origin(field)
	if !ok {
		return rw.NotApplicable(op, "field without assert")
	}
	if !load.HasShape() {
		return rw.NotApplicable(op, "load without shape")
	}
	if !ir.Dominates(cast.Result(0), op) {
		return rw.NotApplicable(op, "load before the assert of its field")
	}
	if len(load.LB()) != len(origin) {
		return rw.NotApplicable(op, "load of rank %d on an assert of rank %d", len(load.LB()), len(origin))
	}
	buffer, _ := std.AsMemRef(cast.Result(0).Type())
	shape := stencil.Shape(load)
	strides := stencil.ComputeStrides(buffer.Shape)
	offsets := stencil.FilterIgnored(stencil.Subtract(load.LB(), origin))
	offset, err := stencil.ComputeOffset(offsets, strides)
	if err != nil {
		return rw.NotApplicable(op, "%v", err)
	}
	steps := make([]int64, len(shape))
	for i := range steps {
		steps[i] = 1
	}
	rw.SetInsertionPointBefore(op)
	view := std.CreateSubView(rw.Builder, op.Loc(), cast.Result(0), offsets, shape, steps,
		std.NewStridedMemRefType(buffer.Elem, shape, strides, offset))
	rw.ReplaceOp(op, view.Results())
	return nil
}
