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

package kerneltocuda

import (
	"github.com/JackMoriarty/open-earth-compiler/base/ordered"
	"github.com/JackMoriarty/open-earth-compiler/dialect/llvm"
	"github.com/JackMoriarty/open-earth-compiler/ir"
)

// Names of the functions of the runtime library.
const (
	TeardownFunc           = "oecTeardown"
	ModuleLoadFunc         = "oecModuleLoad"
	ModuleGetFunctionFunc  = "oecModuleGetFunction"
	LaunchKernelFunc       = "oecLaunchKernel"
	StreamSynchronizeFunc  = "oecStreamSynchronize"
	StoreParameterFunc     = "oecStoreParameter"
	LoadParametersFunc     = "oecLoadParameters"
	AllocTemporaryFunc     = "oecAllocTemporary"
	defaultPointerSizeBits = 64
)

// resultType is the type of the status returned by the runtime.
func resultType() llvm.IntegerType {
	return llvm.I32()
}

// runtimeSignatures returns the signatures of the runtime functions in declaration order.
func runtimeSignatures(intPtr llvm.IntegerType) *ordered.Map[string, *llvm.FuncType] {
	sigs := ordered.NewMap[string, *llvm.FuncType]()
	sigs.Store(TeardownFunc, llvm.Func(resultType()))
	sigs.Store(ModuleLoadFunc, llvm.Func(resultType(),
		llvm.I8PtrPtr(), // module
		llvm.I8Ptr(),    // cubin
	))
	sigs.Store(ModuleGetFunctionFunc, llvm.Func(resultType(),
		llvm.I8PtrPtr(), // function
		llvm.I8Ptr(),    // module
		llvm.I8Ptr(),    // name
	))
	sigs.Store(LaunchKernelFunc, llvm.Func(resultType(),
		llvm.I8Ptr(), // function
		intPtr, intPtr, intPtr, // grid
		intPtr, intPtr, intPtr, // block
		llvm.I8PtrPtr(), // parameters
	))
	sigs.Store(StreamSynchronizeFunc, llvm.Func(resultType()))
	sigs.Store(StoreParameterFunc, llvm.Func(resultType(),
		llvm.I8Ptr(), // value
		llvm.I64(),   // size in bytes
		llvm.I32(),   // 1 to store on the device, 0 on the host
	))
	sigs.Store(LoadParametersFunc, llvm.Func(llvm.Void(),
		llvm.I8PtrPtr(), // parameters
		llvm.I32(),      // offset
		llvm.I32(),      // size
	))
	sigs.Store(AllocTemporaryFunc, llvm.Func(llvm.I8Ptr(),
		llvm.I64(), // size in bytes
	))
	return sigs
}

// declareRuntime declares the runtime functions missing from the module.
func (l *lowering) declareRuntime(loc ir.Location) {
	for name, sig := range runtimeSignatures(l.opts.intPtrType()).Iter() {
		if existing, ok := l.symbols.Find(name); ok {
			l.runtime[name], _ = llvm.AsFunc(existing)
			continue
		}
		fn := llvm.CreateFunc(l.b, loc, name, sig)
		l.symbols.Define(name, fn.Operation)
		l.runtime[name] = fn
	}
}

// call calls a runtime function.
func (l *lowering) call(b *ir.Builder, loc ir.Location, name string, operands ...*ir.Value) *ir.Operation {
	return llvm.CallFunc(b, loc, l.runtime[name], operands...)
}
