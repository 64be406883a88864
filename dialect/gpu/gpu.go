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

// Package gpu defines the GPU kernel modules and the kernel launch operation.
package gpu

import (
	"github.com/JackMoriarty/open-earth-compiler/dialect/builtin"
	"github.com/JackMoriarty/open-earth-compiler/ir"
)

// Operation names.
const (
	ModuleOpName     = "gpu.module"
	LaunchFuncOpName = "gpu.launch_func"
)

// Attribute names.
const (
	// CubinAttr stores the compiled binary of a kernel module.
	CubinAttr = "nvvm.cubin"

	KernelAttr       = "kernel"
	KernelModuleAttr = "kernel_module"
)

// NumConfigOperands is the number of launch configuration operands:
// three grid dimensions followed by three block dimensions.
const NumConfigOperands = 6

// ModuleOp is a module of kernels.
type ModuleOp struct {
	*ir.Operation
}

// AsModule returns op as a kernel module.
func AsModule(op *ir.Operation) (ModuleOp, bool) {
	if op == nil || op.Name() != ModuleOpName {
		return ModuleOp{}, false
	}
	return ModuleOp{Operation: op}, true
}

// CreateModule creates an empty kernel module.
func CreateModule(b *ir.Builder, loc ir.Location, name string) ModuleOp {
	op := b.Create(ir.OperationState{
		Name:       ModuleOpName,
		Loc:        loc,
		Attrs:      []ir.NamedAttr{{Name: builtin.SymNameAttr, Value: ir.StringAttr(name)}},
		NumRegions: 1,
	})
	op.Region(0).Append(ir.NewBlock())
	return ModuleOp{Operation: op}
}

// Modules returns the kernel modules defined in a module.
func Modules(module *ir.Operation) []ModuleOp {
	var mods []ModuleOp
	for _, op := range builtin.Body(module).Operations() {
		if mod, ok := AsModule(op); ok {
			mods = append(mods, mod)
		}
	}
	return mods
}

// SymName returns the name of the kernel module.
func (m ModuleOp) SymName() string {
	name, _ := builtin.SymbolName(m.Operation)
	return name
}

// Cubin returns the binary of the module.
func (m ModuleOp) Cubin() (string, bool) {
	attr, ok := m.Attr(CubinAttr)
	if !ok {
		return "", false
	}
	cubin, ok := attr.(ir.StringAttr)
	return string(cubin), ok
}

// SetCubin sets the binary of the module.
func (m ModuleOp) SetCubin(cubin string) {
	m.SetAttr(CubinAttr, ir.StringAttr(cubin))
}

// LaunchFuncOp launches a kernel of a kernel module.
type LaunchFuncOp struct {
	*ir.Operation
}

// AsLaunchFunc returns op as a kernel launch.
func AsLaunchFunc(op *ir.Operation) (LaunchFuncOp, bool) {
	if op == nil || op.Name() != LaunchFuncOpName {
		return LaunchFuncOp{}, false
	}
	return LaunchFuncOp{Operation: op}, true
}

// CreateLaunchFunc launches a kernel with a grid and block configuration.
func CreateLaunchFunc(b *ir.Builder, loc ir.Location, module, kernel string, grid, block [3]*ir.Value, operands ...*ir.Value) LaunchFuncOp {
	all := append(append(append([]*ir.Value{}, grid[:]...), block[:]...), operands...)
	return LaunchFuncOp{Operation: b.Create(ir.OperationState{
		Name:     LaunchFuncOpName,
		Loc:      loc,
		Operands: all,
		Attrs: []ir.NamedAttr{
			{Name: KernelAttr, Value: ir.StringAttr(kernel)},
			{Name: KernelModuleAttr, Value: ir.SymbolRefAttr(module)},
		},
	})}
}

// KernelName returns the name of the launched kernel.
func (l LaunchFuncOp) KernelName() string {
	attr, _ := l.Attr(KernelAttr)
	name, _ := attr.(ir.StringAttr)
	return string(name)
}

// KernelModuleName returns the name of the module defining the kernel.
func (l LaunchFuncOp) KernelModuleName() string {
	attr, _ := l.Attr(KernelModuleAttr)
	name, _ := attr.(ir.SymbolRefAttr)
	return string(name)
}

// ConfigOperands returns the grid and block dimensions.
func (l LaunchFuncOp) ConfigOperands() []*ir.Value {
	return l.Operands()[:NumConfigOperands]
}

// NumKernelOperands returns the number of operands passed to the kernel.
func (l LaunchFuncOp) NumKernelOperands() int {
	return l.NumOperands() - NumConfigOperands
}

// KernelOperands returns the operands passed to the kernel.
func (l LaunchFuncOp) KernelOperands() []*ir.Value {
	return l.Operands()[NumConfigOperands:]
}
