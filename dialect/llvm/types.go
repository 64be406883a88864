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

package llvm

import (
	"fmt"
	"strings"

	"github.com/JackMoriarty/open-earth-compiler/base/stringseq"
	"github.com/JackMoriarty/open-earth-compiler/ir"
)

type (
	// VoidType is the type of functions without result.
	VoidType struct{}

	// IntegerType is an integer of a given bit width.
	IntegerType struct {
		Width int
	}

	// PointerType points to an element type.
	PointerType struct {
		Elem ir.Type
	}

	// ArrayType is a fixed-size array.
	ArrayType struct {
		Elem ir.Type
		Len  int
	}

	// StructType is a structure with unnamed fields.
	StructType struct {
		Fields []ir.Type
	}

	// FuncType is the type of a function.
	FuncType struct {
		Result ir.Type
		Params []ir.Type
	}
)

var (
	_ ir.Type = VoidType{}
	_ ir.Type = IntegerType{}
	_ ir.Type = PointerType{}
	_ ir.Type = ArrayType{}
	_ ir.Type = (*StructType)(nil)
	_ ir.Type = (*FuncType)(nil)
)

// Void returns the void type.
func Void() VoidType { return VoidType{} }

// Int returns an integer type.
func Int(width int) IntegerType { return IntegerType{Width: width} }

// I8 returns the byte type.
func I8() IntegerType { return Int(8) }

// I32 returns the 32-bit integer type.
func I32() IntegerType { return Int(32) }

// I64 returns the 64-bit integer type.
func I64() IntegerType { return Int(64) }

// Ptr returns a pointer to a type.
func Ptr(elem ir.Type) PointerType { return PointerType{Elem: elem} }

// I8Ptr returns the type of opaque pointers.
func I8Ptr() PointerType { return Ptr(I8()) }

// I8PtrPtr returns a pointer to an opaque pointer.
func I8PtrPtr() PointerType { return Ptr(I8Ptr()) }

// Array returns an array type.
func Array(elem ir.Type, n int) ArrayType { return ArrayType{Elem: elem, Len: n} }

// Struct returns a structure type.
func Struct(fields ...ir.Type) *StructType { return &StructType{Fields: fields} }

// Func returns a function type.
func Func(result ir.Type, params ...ir.Type) *FuncType {
	return &FuncType{Result: result, Params: params}
}

// Equal returns true if other is void.
func (VoidType) Equal(other ir.Type) bool {
	_, ok := other.(VoidType)
	return ok
}

func (VoidType) String() string { return "!llvm.void" }

// Equal returns true if other is an integer of the same width.
func (t IntegerType) Equal(other ir.Type) bool {
	o, ok := other.(IntegerType)
	return ok && o.Width == t.Width
}

func (t IntegerType) String() string { return fmt.Sprintf("!llvm.i%d", t.Width) }

// Equal returns true if other points to the same type.
func (t PointerType) Equal(other ir.Type) bool {
	o, ok := other.(PointerType)
	return ok && o.Elem.Equal(t.Elem)
}

func (t PointerType) String() string { return fmt.Sprintf("!llvm.ptr<%s>", t.Elem) }

// Equal returns true if other is an array of the same type and length.
func (t ArrayType) Equal(other ir.Type) bool {
	o, ok := other.(ArrayType)
	return ok && o.Len == t.Len && o.Elem.Equal(t.Elem)
}

func (t ArrayType) String() string { return fmt.Sprintf("!llvm.array<%d x %s>", t.Len, t.Elem) }

// Equal returns true if other has the same fields.
func (t *StructType) Equal(other ir.Type) bool {
	o, ok := other.(*StructType)
	return ok && ir.TypesEqual(t.Fields, o.Fields)
}

func (t *StructType) String() string {
	return "!llvm.struct<(" + stringseq.JoinStringer(t.Fields, ", ") + ")>"
}

// Equal returns true if other is the same signature.
func (t *FuncType) Equal(other ir.Type) bool {
	o, ok := other.(*FuncType)
	return ok && t.Result.Equal(o.Result) && ir.TypesEqual(t.Params, o.Params)
}

func (t *FuncType) String() string {
	var s strings.Builder
	s.WriteString("!llvm.func<")
	s.WriteString(t.Result.String())
	s.WriteString(" (")
	s.WriteString(stringseq.JoinStringer(t.Params, ", "))
	s.WriteString(")>")
	return s.String()
}

// IsStruct returns true if a type is a structure.
func IsStruct(typ ir.Type) bool {
	_, ok := typ.(*StructType)
	return ok
}
