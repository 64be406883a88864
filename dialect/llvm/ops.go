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

// Package llvm defines the operations of the LLVM dialect used to call the GPU runtime.
package llvm

import (
	"github.com/JackMoriarty/open-earth-compiler/dialect/builtin"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/pkg/errors"
)

// Operation names.
const (
	FuncOpName      = "llvm.func"
	CallOpName      = "llvm.call"
	GlobalOpName    = "llvm.mlir.global"
	AddressOfOpName = "llvm.mlir.addressof"
	ConstantOpName  = "llvm.mlir.constant"
	NullOpName      = "llvm.mlir.null"
	AllocaOpName    = "llvm.alloca"
	LoadOpName      = "llvm.load"
	StoreOpName     = "llvm.store"
	BitcastOpName   = "llvm.bitcast"
	GEPOpName       = "llvm.getelementptr"
	PtrToIntOpName  = "llvm.ptrtoint"
	ReturnOpName    = "llvm.return"
)

// Attribute names.
const (
	CalleeAttr     = "callee"
	GlobalTypeAttr = "global_type"
	GlobalNameAttr = "global_name"
	ConstantAttr   = "constant"
	LinkageAttr    = "linkage"
	ValueAttr      = "value"
	AlignmentAttr  = "alignment"
)

// Linkages of globals.
const (
	LinkageInternal = "internal"
	LinkageExternal = "external"
)

// FuncOp is a LLVM function.
type FuncOp struct {
	*ir.Operation
}

// AsFunc returns op as a LLVM function.
func AsFunc(op *ir.Operation) (FuncOp, bool) {
	if op == nil || op.Name() != FuncOpName {
		return FuncOp{}, false
	}
	return FuncOp{Operation: op}, true
}

// CreateFunc creates a function without body.
func CreateFunc(b *ir.Builder, loc ir.Location, name string, typ *FuncType) FuncOp {
	return FuncOp{Operation: b.Create(ir.OperationState{
		Name: FuncOpName,
		Loc:  loc,
		Attrs: []ir.NamedAttr{
			{Name: builtin.SymNameAttr, Value: ir.StringAttr(name)},
			{Name: builtin.TypeAttr, Value: ir.TypeAttr{Type: typ}},
		},
		NumRegions: 1,
	})}
}

// SymName returns the name of the function.
func (f FuncOp) SymName() string {
	name, _ := builtin.SymbolName(f.Operation)
	return name
}

// Type returns the signature of the function.
func (f FuncOp) Type() *FuncType {
	attr, _ := f.Attr(builtin.TypeAttr)
	typ, _ := attr.(ir.TypeAttr).Type.(*FuncType)
	return typ
}

// Body returns the region of the function.
func (f FuncOp) Body() *ir.Region {
	return f.Region(0)
}

// IsExternal returns true if the function is only declared.
func (f FuncOp) IsExternal() bool {
	return f.Body().Empty()
}

// AddEntryBlock adds a block whose arguments are the parameters of the function.
func (f FuncOp) AddEntryBlock() *ir.Block {
	block := ir.NewBlock(f.Type().Params...)
	f.Body().Append(block)
	return block
}

// CreateCall calls a function given its name.
func CreateCall(b *ir.Builder, loc ir.Location, callee string, results []ir.Type, operands ...*ir.Value) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:     CallOpName,
		Loc:      loc,
		Operands: operands,
		Types:    results,
		Attrs:    []ir.NamedAttr{{Name: CalleeAttr, Value: ir.SymbolRefAttr(callee)}},
	})
}

// CallFunc calls a function. A void function has no result.
func CallFunc(b *ir.Builder, loc ir.Location, fn FuncOp, operands ...*ir.Value) *ir.Operation {
	var results []ir.Type
	if result := fn.Type().Result; !result.Equal(Void()) {
		results = append(results, result)
	}
	return CreateCall(b, loc, fn.SymName(), results, operands...)
}

// Callee returns the name of the function called by a call operation.
func Callee(op *ir.Operation) string {
	attr, ok := op.Attr(CalleeAttr)
	if !ok {
		return ""
	}
	callee, _ := attr.(ir.SymbolRefAttr)
	return string(callee)
}

// CreateGlobal creates a global variable.
// value can be nil for a global without initializer.
func CreateGlobal(b *ir.Builder, loc ir.Location, typ ir.Type, constant bool, linkage, name string, value ir.Attribute) *ir.Operation {
	attrs := []ir.NamedAttr{
		{Name: builtin.SymNameAttr, Value: ir.StringAttr(name)},
		{Name: GlobalTypeAttr, Value: ir.TypeAttr{Type: typ}},
		{Name: LinkageAttr, Value: ir.StringAttr(linkage)},
	}
	if constant {
		attrs = append(attrs, ir.NamedAttr{Name: ConstantAttr, Value: ir.UnitAttr{}})
	}
	if value != nil {
		attrs = append(attrs, ir.NamedAttr{Name: ValueAttr, Value: value})
	}
	return b.Create(ir.OperationState{
		Name:  GlobalOpName,
		Loc:   loc,
		Attrs: attrs,
	})
}

// GlobalType returns the type of a global.
func GlobalType(global *ir.Operation) ir.Type {
	attr, _ := global.Attr(GlobalTypeAttr)
	typeAttr, _ := attr.(ir.TypeAttr)
	return typeAttr.Type
}

// CreateAddressOf returns a pointer to a global.
func CreateAddressOf(b *ir.Builder, loc ir.Location, global *ir.Operation) (*ir.Operation, error) {
	name, ok := builtin.SymbolName(global)
	if !ok || global.Name() != GlobalOpName {
		return nil, errors.Errorf("cannot take the address of %s: not a global", global.Name())
	}
	return b.Create(ir.OperationState{
		Name:  AddressOfOpName,
		Loc:   loc,
		Types: []ir.Type{Ptr(GlobalType(global))},
		Attrs: []ir.NamedAttr{{Name: GlobalNameAttr, Value: ir.SymbolRefAttr(name)}},
	}), nil
}

// CreateConstant creates an integer constant.
func CreateConstant(b *ir.Builder, loc ir.Location, typ IntegerType, v int64) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:  ConstantOpName,
		Loc:   loc,
		Types: []ir.Type{typ},
		Attrs: []ir.NamedAttr{{Name: ValueAttr, Value: ir.IntAttr{Value: v, Type: typ}}},
	})
}

// ConstantValue returns the value of an integer constant.
func ConstantValue(op *ir.Operation) (int64, bool) {
	if op == nil || op.Name() != ConstantOpName {
		return 0, false
	}
	attr, _ := op.Attr(ValueAttr)
	v, ok := attr.(ir.IntAttr)
	return v.Value, ok
}

// CreateNull creates a null pointer.
func CreateNull(b *ir.Builder, loc ir.Location, typ PointerType) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:  NullOpName,
		Loc:   loc,
		Types: []ir.Type{typ},
	})
}

// CreateAlloca allocates size elements on the stack.
func CreateAlloca(b *ir.Builder, loc ir.Location, typ PointerType, size *ir.Value, alignment int64) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:     AllocaOpName,
		Loc:      loc,
		Operands: []*ir.Value{size},
		Types:    []ir.Type{typ},
		Attrs:    []ir.NamedAttr{{Name: AlignmentAttr, Value: ir.I64Attr(alignment)}},
	})
}

// CreateLoad loads the value pointed to by ptr.
func CreateLoad(b *ir.Builder, loc ir.Location, ptr *ir.Value) (*ir.Operation, error) {
	typ, ok := ptr.Type().(PointerType)
	if !ok {
		return nil, errors.Errorf("cannot load from %s: not a pointer", ptr.Type())
	}
	return b.Create(ir.OperationState{
		Name:     LoadOpName,
		Loc:      loc,
		Operands: []*ir.Value{ptr},
		Types:    []ir.Type{typ.Elem},
	}), nil
}

// CreateStore stores a value at the address ptr.
func CreateStore(b *ir.Builder, loc ir.Location, value, ptr *ir.Value) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:     StoreOpName,
		Loc:      loc,
		Operands: []*ir.Value{value, ptr},
	})
}

// CreateBitcast reinterprets a pointer as another pointer type.
func CreateBitcast(b *ir.Builder, loc ir.Location, typ ir.Type, v *ir.Value) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:     BitcastOpName,
		Loc:      loc,
		Operands: []*ir.Value{v},
		Types:    []ir.Type{typ},
	})
}

// CreateGEP computes the address of an element.
func CreateGEP(b *ir.Builder, loc ir.Location, typ ir.Type, base *ir.Value, indices ...*ir.Value) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:     GEPOpName,
		Loc:      loc,
		Operands: append([]*ir.Value{base}, indices...),
		Types:    []ir.Type{typ},
	})
}

// CreatePtrToInt converts a pointer to an integer.
func CreatePtrToInt(b *ir.Builder, loc ir.Location, typ IntegerType, v *ir.Value) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:     PtrToIntOpName,
		Loc:      loc,
		Operands: []*ir.Value{v},
		Types:    []ir.Type{typ},
	})
}

// CreateReturn terminates a function.
func CreateReturn(b *ir.Builder, loc ir.Location, operands ...*ir.Value) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:     ReturnOpName,
		Loc:      loc,
		Operands: operands,
	})
}

// CreateSizeOf computes the size in bytes of a type with the null pointer idiom:
// the address of the element 1 of an array starting at address 0.
func CreateSizeOf(b *ir.Builder, loc ir.Location, typ ir.Type, one *ir.Value) *ir.Value {
	null := CreateNull(b, loc, Ptr(typ))
	gep := CreateGEP(b, loc, Ptr(typ), null.Result(0), one)
	return CreatePtrToInt(b, loc, I64(), gep.Result(0)).Result(0)
}
