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
	"github.com/JackMoriarty/open-earth-compiler/base/ordered"
	"github.com/JackMoriarty/open-earth-compiler/dialect/builtin"
	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/fmterr"
)

type binding struct {
	origin stencil.Index
	cast   *ir.Operation
}

// FieldBindings associates every field of a stencil program with its assert.
// Once the assert has been lowered, the binding also stores the cast of the field.
type FieldBindings struct {
	fields *ordered.Map[*ir.Value, *binding]
}

// NewFieldBindings returns an empty side table.
func NewFieldBindings() *FieldBindings {
	return &FieldBindings{fields: ordered.NewMap[*ir.Value, *binding]()}
}

// Bind scans the uses of the arguments of a function and records the assert of
// every field. An error is reported for a field with more than one assert.
func (fb *FieldBindings) Bind(errs *fmterr.Appender, fn builtin.FuncOp) bool {
	entry := fn.EntryBlock()
	if entry == nil {
		return true
	}
	ok := true
	for _, arg := range entry.Args() {
		if _, isField := arg.Type().(*stencil.FieldType); !isField {
			continue
		}
		for i, assert := range stencil.Asserts(arg) {
			if i > 0 {
				errs.Errorf(assert.Loc(), "field %%arg%d of %s has more than one assert", arg.Index(), fn.SymName())
				ok = false
				break
			}
			if !assert.HasShape() {
				continue
			}
			fb.fields.Store(arg, &binding{origin: assert.LB()})
		}
	}
	return ok
}

// Origin returns the lower bound of the assert of a field.
func (fb *FieldBindings) Origin(field *ir.Value) (stencil.Index, bool) {
	b, ok := fb.fields.Load(field)
	if !ok {
		return nil, false
	}
	return b.origin, true
}

// Cast returns the cast created when the assert of a field was lowered.
func (fb *FieldBindings) Cast(field *ir.Value) (*ir.Operation, bool) {
	b, ok := fb.fields.Load(field)
	if !ok || b.cast == nil {
		return nil, false
	}
	return b.cast, true
}

// SetCast records the cast of a field.
func (fb *FieldBindings) SetCast(field *ir.Value, cast *ir.Operation) {
	b, ok := fb.fields.Load(field)
	if !ok {
		b = &binding{}
		fb.fields.Store(field, b)
	}
	b.cast = cast
}

// Len returns the number of bound fields.
func (fb *FieldBindings) Len() int {
	return fb.fields.Size()
}
