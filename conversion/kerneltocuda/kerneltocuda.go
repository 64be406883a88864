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

// Package kerneltocuda replaces GPU kernel launches by calls to the CUDA runtime library.
//
// The function launching the kernels is replaced by three functions:
// setup_<fn> loads the kernel modules and stores the kernel parameters,
// run_<fn> launches the kernels, and teardown releases the runtime resources.
package kerneltocuda

import (
	"context"

	"github.com/JackMoriarty/open-earth-compiler/base/ordered"
	"github.com/JackMoriarty/open-earth-compiler/base/uname"
	"github.com/JackMoriarty/open-earth-compiler/dialect/builtin"
	"github.com/JackMoriarty/open-earth-compiler/dialect/gpu"
	"github.com/JackMoriarty/open-earth-compiler/dialect/llvm"
	"github.com/JackMoriarty/open-earth-compiler/internal/base/scope"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/fmterr"
	"github.com/JackMoriarty/open-earth-compiler/pass"
	"github.com/pkg/errors"
)

// PassName is the name of the pass in pipelines.
const PassName = "stencil-gpu-to-cuda"

const (
	cubinSuffix    = "_cubin_cst"
	nameSuffix     = "_name"
	functionSuffix = "_function"
	setupPrefix    = "setup_"
	runPrefix      = "run_"
	teardownName   = "teardown"
)

// Options of the lowering.
type Options struct {
	// PointerSizeInBits is the width of the integers passed as launch dimensions.
	// 64 if not set.
	PointerSizeInBits int
}

func (o Options) intPtrType() llvm.IntegerType {
	if o.PointerSizeInBits <= 0 {
		return llvm.Int(defaultPointerSizeBits)
	}
	return llvm.Int(o.PointerSizeInBits)
}

// Pass lowers the kernel launches of a module.
type Pass struct {
	opts     Options
	passOpts pass.Options
}

var _ pass.Pass = (*Pass)(nil)

// New returns a new lowering pass.
func New(passOpts pass.Options, opts Options) *Pass {
	return &Pass{opts: opts, passOpts: passOpts.WithDefaults()}
}

// NewFromArgs returns a new lowering pass given textual arguments.
func NewFromArgs(passOpts pass.Options, args pass.Args) (pass.Pass, error) {
	if err := args.Check("pointer-size"); err != nil {
		return nil, err
	}
	bits, err := args.Int("pointer-size", defaultPointerSizeBits)
	if err != nil {
		return nil, err
	}
	if bits != 32 && bits != 64 {
		return nil, errors.Errorf("invalid pointer size %d: expected 32 or 64", bits)
	}
	return New(passOpts, Options{PointerSizeInBits: bits}), nil
}

// Name of the pass.
func (*Pass) Name() string {
	return PassName
}

// kernel identifies a kernel of a kernel module.
type kernel struct {
	module, name string
}

// kernelGlobals are the globals storing the name and the handle of a kernel.
type kernelGlobals struct {
	name, function string
}

type lowering struct {
	module  *ir.Operation
	parent  llvm.FuncOp
	opts    Options
	errs    *fmterr.Appender
	symbols *scope.RWScope[*ir.Operation]
	names   *uname.Unique
	b       *ir.Builder

	launches []gpu.LaunchFuncOp
	cubins   map[string]string
	kernels  *ordered.Map[kernel, kernelGlobals]
	runtime  map[string]llvm.FuncOp
	handles  map[kernel]*ir.Operation
}

// Run the lowering.
func (p *Pass) Run(ctx context.Context, module *ir.Operation) error {
	logger := p.passOpts.Logger.With("pass", PassName)
	launchOps := ir.CollectByName(module, gpu.LaunchFuncOpName)
	if len(launchOps) == 0 {
		logger.Debug("no kernel launch")
		return nil
	}
	l := &lowering{
		module:  module,
		opts:    p.opts,
		errs:    p.passOpts.Diags,
		names:   uname.New(),
		cubins:  make(map[string]string),
		kernels: ordered.NewMap[kernel, kernelGlobals](),
		runtime: make(map[string]llvm.FuncOp),
		handles: make(map[kernel]*ir.Operation),
	}
	if !l.check(launchOps) {
		return errors.Errorf("cannot lower the kernel launches:\n%s", l.errs.Errors())
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Debug("lowering kernel launches", "func", l.parent.SymName(), "launches", len(l.launches))
	l.b = ir.NewBuilder()
	l.b.SetInsertionPointToEnd(builtin.Body(module))
	loc := l.parent.Loc()
	l.declareRuntime(loc)
	if err := l.declareSetup(loc); err != nil {
		return err
	}
	l.declareTeardown(loc)
	l.declareRun(loc)
	for _, mod := range gpu.Modules(module) {
		mod.Erase()
	}
	l.parent.Erase()
	return nil
}

// check validates the module before any modification.
func (l *lowering) check(launchOps []*ir.Operation) bool {
	parent := launchOps[0].ParentOfName(llvm.FuncOpName)
	for _, op := range launchOps {
		if op.ParentOfName(llvm.FuncOpName) != parent {
			l.errs.Errorf(l.module.Loc(), "'%s' op expected exactly one kernel function", l.module.Name())
			return false
		}
	}
	if parent == nil || parent.ParentOp() != l.module {
		l.errs.Errorf(launchOps[0].Loc(), "expected kernel launches in a function of the module")
		return false
	}
	l.parent, _ = llvm.AsFunc(parent)
	symbols, err := builtin.SymbolTable(l.module, nil)
	if err != nil {
		l.errs.Errorf(l.module.Loc(), "%v", err)
		return false
	}
	l.symbols = symbols
	for name := range symbols.LocalKeys() {
		l.names.Register(name)
	}
	ok := true
	fnName := l.parent.SymName()
	for _, name := range []string{setupPrefix + fnName, runPrefix + fnName, teardownName} {
		if _, exists := symbols.Find(name); exists {
			l.errs.Errorf(l.parent.Loc(), "cannot generate %s: symbol already defined", name)
			ok = false
		}
	}
	for name := range runtimeSignatures(l.opts.intPtrType()).Keys() {
		if existing, exists := symbols.Find(name); exists && existing.Name() != llvm.FuncOpName {
			l.errs.Errorf(existing.Loc(), "runtime function %s redefined by a %s operation", name, existing.Name())
			ok = false
		}
	}
	for _, op := range launchOps {
		launch, _ := gpu.AsLaunchFunc(op)
		if !l.checkLaunch(launch) {
			ok = false
			continue
		}
		l.launches = append(l.launches, launch)
	}
	for _, call := range ir.CollectByName(parent, llvm.CallOpName) {
		if llvm.Callee(call) == "malloc" && (call.NumOperands() != 1 || call.NumResults() != 1) {
			l.errs.Errorf(call.Loc(), "expected malloc to take a size and to return a pointer")
			ok = false
		}
	}
	return ok
}

func (l *lowering) checkLaunch(launch gpu.LaunchFuncOp) bool {
	if launch.NumKernelOperands() < 0 {
		l.errs.Errorf(launch.Loc(), "expected %d launch configuration operands", gpu.NumConfigOperands)
		return false
	}
	ok := true
	for i, dim := range launch.ConfigOperands() {
		if _, isConstant := llvm.ConstantValue(dim.DefiningOp()); !isConstant {
			l.errs.Errorf(launch.Loc(), "expected launch configuration operand %d to be a constant", i)
			ok = false
		}
	}
	modName := launch.KernelModuleName()
	sym, _ := l.symbols.Find(modName)
	mod, isModule := gpu.AsModule(sym)
	if !isModule {
		l.errs.Errorf(launch.Loc(), "kernel module %s not found", modName)
		return false
	}
	cubin, hasCubin := mod.Cubin()
	if !hasCubin {
		l.errs.Errorf(mod.Loc(), "kernel module %s without %s attribute", modName, gpu.CubinAttr)
		return false
	}
	if _, done := l.cubins[modName]; !done {
		cubinName := modName + cubinSuffix
		if _, exists := l.symbols.Find(cubinName); exists {
			l.errs.Errorf(mod.Loc(), "cannot store the binary of %s: symbol %s already defined", modName, cubinName)
			return false
		}
		l.names.Register(cubinName)
		l.cubins[modName] = cubin
	}
	key := kernel{module: modName, name: launch.KernelName()}
	if !l.kernels.Has(key) {
		l.kernels.Store(key, kernelGlobals{
			name:     l.names.Name(modName + nameSuffix),
			function: l.names.Name(modName + functionSuffix),
		})
	}
	return ok
}

// functionHandle returns the global storing the handle of a kernel.
func (l *lowering) functionHandle(loc ir.Location, key kernel) *ir.Operation {
	if handle, ok := l.handles[key]; ok {
		return handle
	}
	globals, _ := l.kernels.Load(key)
	saved := l.b.Save()
	l.b.SetInsertionPointToEnd(builtin.Body(l.module))
	handle := llvm.CreateGlobal(l.b, loc, llvm.I8Ptr(), false, llvm.LinkageInternal, globals.function,
		ir.IntAttr{Value: 0, Type: llvm.I8Ptr()})
	l.b.Restore(saved)
	l.symbols.Define(globals.function, handle)
	l.handles[key] = handle
	return handle
}

func (l *lowering) declareSetup(loc ir.Location) error {
	l.b.SetInsertionPointToEnd(builtin.Body(l.module))
	setup := llvm.CreateFunc(l.b, loc, setupPrefix+l.parent.SymName(), l.parent.Type())
	l.parent.Body().CloneInto(setup.Body(), ir.NewMapping())

	b := ir.NewBuilder()
	one := func() *ir.Value {
		return llvm.CreateConstant(b, loc, llvm.I32(), 1).Result(0)
	}
	for _, op := range ir.CollectByName(setup.Operation, gpu.LaunchFuncOpName) {
		launch, _ := gpu.AsLaunchFunc(op)
		key := kernel{module: launch.KernelModuleName(), name: launch.KernelName()}
		globals, _ := l.kernels.Load(key)
		b.SetInsertionPointBefore(op)

		cubin, err := llvm.CreateGlobalString(b, loc, l.module, key.module+cubinSuffix, l.cubins[key.module])
		if err != nil {
			return err
		}
		modulePtr := llvm.CreateAlloca(b, loc, llvm.I8PtrPtr(), one(), 0)
		l.call(b, loc, ModuleLoadFunc, modulePtr.Result(0), cubin)
		moduleRef, err := llvm.CreateLoad(b, loc, modulePtr.Result(0))
		if err != nil {
			return err
		}
		funcPtr, err := llvm.CreateAddressOf(b, loc, l.functionHandle(loc, key))
		if err != nil {
			return err
		}
		kernelName, err := llvm.CreateGlobalString(b, loc, l.module, globals.name, key.name+"\x00")
		if err != nil {
			return err
		}
		l.call(b, loc, ModuleGetFunctionFunc, funcPtr.Result(0), moduleRef.Result(0), kernelName)

		for _, operand := range launch.KernelOperands() {
			typ := operand.Type()
			mem := llvm.CreateAlloca(b, loc, llvm.Ptr(typ), one(), 1)
			llvm.CreateStore(b, loc, operand, mem.Result(0))
			casted := llvm.CreateBitcast(b, loc, llvm.I8Ptr(), mem.Result(0))
			device := int64(0)
			if llvm.IsStruct(typ) {
				device = 1
			}
			onDevice := llvm.CreateConstant(b, loc, llvm.I32(), device)
			size := llvm.CreateSizeOf(b, loc, typ, one())
			l.call(b, loc, StoreParameterFunc, casted.Result(0), size, onDevice.Result(0))
		}
		op.Erase()
	}

	for _, call := range ir.CollectByName(setup.Operation, llvm.CallOpName) {
		switch llvm.Callee(call) {
		case "malloc":
			b.SetInsertionPointBefore(call)
			temporary := l.call(b, loc, AllocTemporaryFunc, call.Operand(0))
			call.Result(0).ReplaceAllUsesWith(temporary.Result(0))
			call.Erase()
		case "free":
			call.Erase()
		}
	}
	return nil
}

func (l *lowering) declareTeardown(loc ir.Location) {
	l.b.SetInsertionPointToEnd(builtin.Body(l.module))
	teardown := llvm.CreateFunc(l.b, loc, teardownName, llvm.Func(llvm.Void()))
	b := ir.NewBuilder()
	b.SetInsertionPointToEnd(teardown.AddEntryBlock())
	l.call(b, loc, TeardownFunc)
	llvm.CreateReturn(b, loc)
}

func (l *lowering) declareRun(loc ir.Location) {
	l.b.SetInsertionPointToEnd(builtin.Body(l.module))
	run := llvm.CreateFunc(l.b, loc, runPrefix+l.parent.SymName(), llvm.Func(llvm.Void()))
	b := ir.NewBuilder()
	b.SetInsertionPointToEnd(run.AddEntryBlock())
	offset := 0
	for _, launch := range l.launches {
		key := kernel{module: launch.KernelModuleName(), name: launch.KernelName()}
		// Handles are created by the setup function.
		funcPtr, _ := llvm.CreateAddressOf(b, loc, l.handles[key])
		function, _ := llvm.CreateLoad(b, loc, funcPtr.Result(0))

		numOperands := launch.NumKernelOperands()
		size := llvm.CreateConstant(b, loc, llvm.I32(), int64(numOperands))
		start := llvm.CreateConstant(b, loc, llvm.I32(), int64(offset))
		params := llvm.CreateAlloca(b, loc, llvm.I8PtrPtr(), size.Result(0), 0)
		l.call(b, loc, LoadParametersFunc, params.Result(0), start.Result(0), size.Result(0))

		operands := []*ir.Value{function.Result(0)}
		for _, dim := range launch.ConfigOperands() {
			operands = append(operands, b.Clone(dim.DefiningOp(), ir.NewMapping()).Result(0))
		}
		operands = append(operands, params.Result(0))
		l.call(b, loc, LaunchKernelFunc, operands...)
		offset += numOperands
	}
	l.call(b, loc, StreamSynchronizeFunc)
	llvm.CreateReturn(b, loc)
}

