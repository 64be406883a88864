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
	"github.com/JackMoriarty/open-earth-compiler/dialect/builtin"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/pkg/errors"
)

// CreateGlobalString returns a pointer to the first character of a constant
// global string. The global is created at the beginning of the module body
// unless a global with the same name and value already exists.
func CreateGlobalString(b *ir.Builder, loc ir.Location, module *ir.Operation, name, value string) (*ir.Value, error) {
	global := builtin.LookupSymbol(module, name)
	if global == nil {
		globals := ir.NewBuilder()
		globals.SetInsertionPointToStart(builtin.Body(module))
		global = CreateGlobal(globals, loc, Array(I8(), len(value)), true, LinkageInternal, name, ir.StringAttr(value))
	} else if attr, _ := global.Attr(ValueAttr); global.Name() != GlobalOpName || !ir.StringAttr(value).Equal(attr) {
		return nil, errors.Errorf("symbol %s already defined", name)
	}
	addr, err := CreateAddressOf(b, loc, global)
	if err != nil {
		return nil, err
	}
	zero := CreateConstant(b, loc, I64(), 0)
	first := CreateGEP(b, loc, I8Ptr(), addr.Result(0), zero.Result(0), zero.Result(0))
	return first.Result(0), nil
}
