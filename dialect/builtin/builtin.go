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

// Package builtin provides the operations structuring a program: modules, functions and returns.
package builtin

import (
	"github.com/JackMoriarty/open-earth-compiler/internal/base/scope"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/pkg/errors"
)

// Operation names.
const (
	ModuleOpName = "module"
	FuncOpName   = "func"
	ReturnOpName = "return"
)

// Attribute names.
const (
	SymNameAttr = "sym_name"
	TypeAttr    = "type"
)

// NewModule returns a module with an empty body.
func NewModule(loc ir.Location) *ir.Operation {
	module := ir.NewOperation(ir.OperationState{
		Name:       ModuleOpName,
		Loc:        loc,
		NumRegions: 1,
	})
	module.Region(0).Append(ir.NewBlock())
	return module
}

// Body returns the block of a module or of any operation with a single block region.
func Body(op *ir.Operation) *ir.Block {
	return op.Region(0).Front()
}

// SymbolName returns the symbol name of an operation.
func SymbolName(op *ir.Operation) (string, bool) {
	attr, ok := op.Attr(SymNameAttr)
	if !ok {
		return "", false
	}
	name, ok := attr.(ir.StringAttr)
	return string(name), ok
}

// SymbolTable returns the symbols defined directly in the body of op.
func SymbolTable(op *ir.Operation, parent scope.Scope[*ir.Operation]) (*scope.RWScope[*ir.Operation], error) {
	table := scope.NewScope(parent)
	for _, nested := range Body(op).Operations() {
		name, ok := SymbolName(nested)
		if !ok {
			continue
		}
		if err := table.DefineNew(name, nested); err != nil {
			return nil, errors.Errorf("%s: symbol %s", nested.Loc(), err)
		}
	}
	return table, nil
}

// LookupSymbol returns the operation defining a symbol in the body of op.
func LookupSymbol(op *ir.Operation, name string) *ir.Operation {
	for _, nested := range Body(op).Operations() {
		if sym, ok := SymbolName(nested); ok && sym == name {
			return nested
		}
	}
	return nil
}

// FuncOp is a function.
type FuncOp struct {
	*ir.Operation
}

// AsFunc returns op as a function if op is a function.
func AsFunc(op *ir.Operation) (FuncOp, bool) {
	if op == nil || op.Name() != FuncOpName {
		return FuncOp{}, false
	}
	return FuncOp{Operation: op}, true
}

// CreateFunc creates a function without body.
func CreateFunc(b *ir.Builder, loc ir.Location, name string, typ *ir.FunctionType, attrs ...ir.NamedAttr) FuncOp {
	all := []ir.NamedAttr{
		{Name: SymNameAttr, Value: ir.StringAttr(name)},
		{Name: TypeAttr, Value: ir.TypeAttr{Type: typ}},
	}
	return FuncOp{Operation: b.Create(ir.OperationState{
		Name:       FuncOpName,
		Loc:        loc,
		Attrs:      append(all, attrs...),
		NumRegions: 1,
	})}
}

// Funcs returns the functions defined in a module.
func Funcs(module *ir.Operation) []FuncOp {
	var fns []FuncOp
	for _, op := range Body(module).Operations() {
		if fn, ok := AsFunc(op); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// SymName returns the name of the function.
func (f FuncOp) SymName() string {
	name, _ := SymbolName(f.Operation)
	return name
}

// Type returns the signature of the function.
func (f FuncOp) Type() *ir.FunctionType {
	attr, _ := f.Attr(TypeAttr)
	typ, _ := attr.(ir.TypeAttr)
	fn, _ := typ.Type.(*ir.FunctionType)
	return fn
}

// SetType changes the signature of the function.
func (f FuncOp) SetType(typ *ir.FunctionType) {
	f.SetAttr(TypeAttr, ir.TypeAttr{Type: typ})
}

// Body returns the region of the function.
func (f FuncOp) Body() *ir.Region {
	return f.Region(0)
}

// IsExternal returns true if the function has no body.
func (f FuncOp) IsExternal() bool {
	return f.Body().Empty()
}

// EntryBlock returns the first block of the function.
func (f FuncOp) EntryBlock() *ir.Block {
	return f.Body().Front()
}

// AddEntryBlock adds a block whose arguments are the inputs of the function.
func (f FuncOp) AddEntryBlock() *ir.Block {
	block := ir.NewBlock(f.Type().Inputs...)
	f.Body().Append(block)
	return block
}

// CreateReturn creates a return operation.
func CreateReturn(b *ir.Builder, loc ir.Location, operands ...*ir.Value) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:     ReturnOpName,
		Loc:      loc,
		Operands: operands,
	})
}
