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

// Package stencilhelper provides helper functions to build stencil programs programmatically.
package stencilhelper

import (
	"github.com/JackMoriarty/open-earth-compiler/dialect/builtin"
	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"go.uber.org/multierr"
)

// Loc returns a location in a test file.
func Loc(line int) ir.Location {
	return ir.FileLineCol("test.mlir", line, 1)
}

// Field returns a f64 field type with three dynamic dimensions.
func Field() *stencil.FieldType {
	return stencil.NewFieldType(ir.F64(), []int64{
		stencil.DynamicDimension,
		stencil.DynamicDimension,
		stencil.DynamicDimension,
	})
}

// Temp returns a f64 temporary type.
func Temp(dims ...int64) *stencil.TempType {
	return stencil.NewTempType(ir.F64(), dims)
}

// Temps returns n identical temporary types.
func Temps(n int, dims ...int64) []ir.Type {
	types := make([]ir.Type, n)
	for i := range types {
		types[i] = Temp(dims...)
	}
	return types
}

// Program returns a module with a single function marked as a stencil program.
// The builder inserts at the end of the entry block of the function.
func Program(name string, inputs ...ir.Type) (*ir.Operation, builtin.FuncOp, *ir.Builder) {
	module := builtin.NewModule(Loc(1))
	b := ir.NewBuilder()
	b.SetInsertionPointToEnd(builtin.Body(module))
	fn := builtin.CreateFunc(b, Loc(2), name, ir.NewFunctionType(inputs, nil),
		ir.NamedAttr{Name: stencil.ProgramAttr, Value: ir.UnitAttr{}})
	b.SetInsertionPointToEnd(fn.AddEntryBlock())
	return module, fn, b
}

// Return terminates the body of a function.
func Return(b *ir.Builder) {
	builtin.CreateReturn(b, ir.UnknownLoc)
}

// ApplyConfig configures an apply built by Apply.
type ApplyConfig struct {
	Loc      ir.Location
	Operands []*ir.Value
	Results  []ir.Type
	LB, UB   stencil.Index
	Unroll   stencil.Index
	// Offset of the accesses in the body.
	Offset int64
}

// Apply creates an apply whose body returns, for every result, an access of one
// of its arguments stored in a result. The access is repeated for every unrolled position.
func Apply(b *ir.Builder, cfg ApplyConfig) stencil.ApplyOp {
	apply := stencil.CreateApply(b, cfg.Loc, cfg.Operands, cfg.Results, cfg.LB, cfg.UB)
	saved := b.Save()
	defer b.Restore(saved)
	body := apply.Body()
	b.SetInsertionPointToEnd(body)
	factor := 1
	for _, x := range cfg.Unroll {
		if x != 1 {
			factor = int(x)
		}
	}
	var returned []*ir.Value
	for i, typ := range cfg.Results {
		elem, _ := stencil.ElementType(typ)
		for u := 0; u < factor; u++ {
			var value *ir.Value
			if body.NumArgs() > 0 {
				arg := body.Arg(i % body.NumArgs())
				value = stencil.CreateAccess(b, cfg.Loc, arg, stencil.Index{cfg.Offset, int64(u), 0}).Result(0)
			}
			returned = append(returned, stencil.CreateStoreResult(b, cfg.Loc, elem, value).Result(0))
		}
	}
	stencil.CreateReturn(b, cfg.Loc, returned, cfg.Unroll)
	return apply
}

// Verify checks the structural and the stencil invariants.
func Verify(root *ir.Operation) error {
	return multierr.Combine(ir.Verify(root), stencil.Verify(root))
}
