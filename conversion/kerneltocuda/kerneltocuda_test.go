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

package kerneltocuda_test

import (
	"context"
	"slices"
	"sort"
	"strings"
	"testing"

	"github.com/JackMoriarty/open-earth-compiler/conversion/kerneltocuda"
	"github.com/JackMoriarty/open-earth-compiler/dialect/builtin"
	"github.com/JackMoriarty/open-earth-compiler/dialect/gpu"
	"github.com/JackMoriarty/open-earth-compiler/dialect/llvm"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/fmterr"
	"github.com/JackMoriarty/open-earth-compiler/pass"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func loc(line int) ir.Location {
	return ir.FileLineCol("test.mlir", line, 1)
}

type launchConfig struct {
	noCubin      bool
	dynamicGrid  bool
	secondFunc   bool
	setupDefined bool
}

func paramType() *llvm.StructType {
	return llvm.Struct(llvm.Ptr(llvm.I64()), llvm.I64())
}

// buildLaunches builds a function allocating a temporary and launching two kernels of the same module.
func buildLaunches(cfg launchConfig) *ir.Operation {
	module := builtin.NewModule(loc(1))
	b := ir.NewBuilder()
	b.SetInsertionPointToEnd(builtin.Body(module))
	kernels := gpu.CreateModule(b, loc(2), "laplace_kernel")
	if !cfg.noCubin {
		kernels.SetCubin("CUBIN")
	}
	if cfg.setupDefined {
		llvm.CreateFunc(b, loc(3), "setup_laplace", llvm.Func(llvm.Void()))
	}
	fn := llvm.CreateFunc(b, loc(4), "laplace", llvm.Func(llvm.Void(), paramType(), llvm.I64()))
	entry := fn.AddEntryBlock()
	b.SetInsertionPointToEnd(entry)
	size := llvm.CreateConstant(b, loc(5), llvm.I64(), 1024)
	malloc := llvm.CreateCall(b, loc(6), "malloc", []ir.Type{llvm.I8Ptr()}, size.Result(0))
	var dims [6]*ir.Value
	for i := range dims {
		dims[i] = llvm.CreateConstant(b, loc(7), llvm.I64(), int64(i+1)).Result(0)
	}
	if cfg.dynamicGrid {
		dims[0] = entry.Arg(1)
	}
	grid, block := [3]*ir.Value(dims[:3]), [3]*ir.Value(dims[3:])
	gpu.CreateLaunchFunc(b, loc(8), "laplace_kernel", "laplace", grid, block, entry.Arg(0), malloc.Result(0))
	gpu.CreateLaunchFunc(b, loc(9), "laplace_kernel", "copy", grid, block, entry.Arg(0), malloc.Result(0), entry.Arg(1))
	llvm.CreateCall(b, loc(10), "free", nil, malloc.Result(0))
	llvm.CreateReturn(b, loc(11))
	if cfg.secondFunc {
		b.SetInsertionPointToEnd(builtin.Body(module))
		other := llvm.CreateFunc(b, loc(12), "other", llvm.Func(llvm.Void()))
		b.SetInsertionPointToEnd(other.AddEntryBlock())
		one := llvm.CreateConstant(b, loc(13), llvm.I64(), 1).Result(0)
		ones := [3]*ir.Value{one, one, one}
		gpu.CreateLaunchFunc(b, loc(14), "laplace_kernel", "laplace", ones, ones)
		llvm.CreateReturn(b, loc(15))
	}
	return module
}

func symbols(module *ir.Operation) []string {
	var names []string
	for _, op := range builtin.Body(module).Operations() {
		name, _ := builtin.SymbolName(op)
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func callees(t *testing.T, module *ir.Operation, name string) []string {
	fn := builtin.LookupSymbol(module, name)
	require.NotNil(t, fn, "function %s not found", name)
	var got []string
	for _, call := range ir.CollectByName(fn, llvm.CallOpName) {
		got = append(got, llvm.Callee(call))
	}
	return got
}

func constantOperands(t *testing.T, module *ir.Operation, fnName, callee string, operand int) []int64 {
	fn := builtin.LookupSymbol(module, fnName)
	require.NotNil(t, fn)
	var got []int64
	for _, call := range ir.CollectByName(fn, llvm.CallOpName) {
		if llvm.Callee(call) != callee {
			continue
		}
		v, ok := llvm.ConstantValue(call.Operand(operand).DefiningOp())
		require.True(t, ok, "operand %d of %s is not a constant", operand, callee)
		got = append(got, v)
	}
	return got
}

func TestLowering(t *testing.T) {
	module := buildLaunches(launchConfig{})
	p := kerneltocuda.New(pass.Options{}, kerneltocuda.Options{})
	require.NoError(t, p.Run(context.Background(), module))
	require.NoError(t, ir.Verify(module))

	wantSymbols := []string{
		"laplace_kernel_cubin_cst",
		"laplace_kernel_function",
		"laplace_kernel_function_1",
		"laplace_kernel_name",
		"laplace_kernel_name_1",
		"oecAllocTemporary",
		"oecLaunchKernel",
		"oecLoadParameters",
		"oecModuleGetFunction",
		"oecModuleLoad",
		"oecStoreParameter",
		"oecStreamSynchronize",
		"oecTeardown",
		"run_laplace",
		"setup_laplace",
		"teardown",
	}
	if diff := cmp.Diff(wantSymbols, symbols(module)); diff != "" {
		t.Errorf("unexpected symbols (-want +got):\n%s", diff)
	}

	wantSetup := []string{
		"oecAllocTemporary",
		"oecModuleLoad", "oecModuleGetFunction", "oecStoreParameter", "oecStoreParameter",
		"oecModuleLoad", "oecModuleGetFunction", "oecStoreParameter", "oecStoreParameter", "oecStoreParameter",
	}
	if diff := cmp.Diff(wantSetup, callees(t, module, "setup_laplace")); diff != "" {
		t.Errorf("unexpected calls in setup (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{1, 0, 1, 0, 0}, constantOperands(t, module, "setup_laplace", kerneltocuda.StoreParameterFunc, 2)); diff != "" {
		t.Errorf("unexpected device flags (-want +got):\n%s", diff)
	}

	wantRun := []string{
		"oecLoadParameters", "oecLaunchKernel",
		"oecLoadParameters", "oecLaunchKernel",
		"oecStreamSynchronize",
	}
	if diff := cmp.Diff(wantRun, callees(t, module, "run_laplace")); diff != "" {
		t.Errorf("unexpected calls in run (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{0, 2}, constantOperands(t, module, "run_laplace", kerneltocuda.LoadParametersFunc, 1)); diff != "" {
		t.Errorf("unexpected parameter offsets (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{2, 3}, constantOperands(t, module, "run_laplace", kerneltocuda.LoadParametersFunc, 2)); diff != "" {
		t.Errorf("unexpected parameter counts (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{1, 1}, constantOperands(t, module, "run_laplace", kerneltocuda.LaunchKernelFunc, 1)); diff != "" {
		t.Errorf("unexpected grid sizes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{kerneltocuda.TeardownFunc}, callees(t, module, "teardown")); diff != "" {
		t.Errorf("unexpected calls in teardown (-want +got):\n%s", diff)
	}

	for _, call := range ir.CollectByName(module, llvm.CallOpName) {
		if llvm.Callee(call) == kerneltocuda.LoadParametersFunc && call.NumResults() != 0 {
			t.Errorf("%s returns %d values but want none", kerneltocuda.LoadParametersFunc, call.NumResults())
		}
	}
	if launches := ir.CollectByName(module, gpu.LaunchFuncOpName); len(launches) != 0 {
		t.Errorf("got %d kernel launches after lowering", len(launches))
	}
	kernelName := builtin.LookupSymbol(module, "laplace_kernel_name_1")
	require.NotNil(t, kernelName)
	value, _ := kernelName.Attr(llvm.ValueAttr)
	if got, want := value, ir.StringAttr("copy\x00"); !want.Equal(got) {
		t.Errorf("got kernel name %v but want %v", got, want)
	}
}

func TestPointerSize(t *testing.T) {
	module := buildLaunches(launchConfig{})
	p, err := kerneltocuda.NewFromArgs(pass.Options{}, pass.Args{"pointer-size": "32"})
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background(), module))
	launch, ok := llvm.AsFunc(builtin.LookupSymbol(module, kerneltocuda.LaunchKernelFunc))
	require.True(t, ok)
	if got, want := launch.Type().Params[1], llvm.I32(); !want.Equal(got) {
		t.Errorf("got launch dimension type %s but want %s", got, want)
	}

	if _, err := kerneltocuda.NewFromArgs(pass.Options{}, pass.Args{"pointer-size": "16"}); err == nil {
		t.Errorf("expected an error for an invalid pointer size")
	}
}

func TestExistingDeclarations(t *testing.T) {
	module := buildLaunches(launchConfig{})
	b := ir.NewBuilder()
	b.SetInsertionPointToStart(builtin.Body(module))
	llvm.CreateFunc(b, loc(1), kerneltocuda.TeardownFunc, llvm.Func(llvm.I32()))
	p := kerneltocuda.New(pass.Options{}, kerneltocuda.Options{})
	require.NoError(t, p.Run(context.Background(), module))
	names := symbols(module)
	if got := len(names) - len(slices.Compact(slices.Clone(names))); got != 0 {
		t.Errorf("got %d duplicated symbols in %v", got, names)
	}
}

func TestNoLaunch(t *testing.T) {
	module := builtin.NewModule(loc(1))
	p := kerneltocuda.New(pass.Options{}, kerneltocuda.Options{})
	require.NoError(t, p.Run(context.Background(), module))
	if n := len(builtin.Body(module).Operations()); n != 0 {
		t.Errorf("got %d operations but want an empty module", n)
	}
}

func TestLoweringFailures(t *testing.T) {
	tests := []struct {
		cfg  launchConfig
		want string
	}{
		{
			cfg:  launchConfig{noCubin: true},
			want: "test.mlir:2:1: error: kernel module laplace_kernel without nvvm.cubin attribute",
		},
		{
			cfg:  launchConfig{dynamicGrid: true},
			want: "test.mlir:8:1: error: expected launch configuration operand 0 to be a constant",
		},
		{
			cfg:  launchConfig{secondFunc: true},
			want: "test.mlir:1:1: error: 'module' op expected exactly one kernel function",
		},
		{
			cfg:  launchConfig{setupDefined: true},
			want: "test.mlir:4:1: error: cannot generate setup_laplace: symbol already defined",
		},
	}
	for i, test := range tests {
		module := buildLaunches(test.cfg)
		before := ir.Print(module)
		diags := fmterr.NewAppender()
		p := kerneltocuda.New(pass.Options{Diags: diags}, kerneltocuda.Options{})
		err := p.Run(context.Background(), module)
		if err == nil {
			t.Errorf("test %d: expected an error", i)
			continue
		}
		if !strings.Contains(diags.String(), test.want) {
			t.Errorf("test %d: got diagnostics:\n%s\nbut want:\n%s", i, diags, test.want)
		}
		if after := ir.Print(module); after != before {
			t.Errorf("test %d: module modified by a failing lowering:\n%s", i, after)
		}
	}
}
