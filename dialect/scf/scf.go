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

// Package scf provides structured control flow operations.
package scf

import "github.com/JackMoriarty/open-earth-compiler/ir"

// Operation names.
const (
	IfOpName    = "scf.if"
	YieldOpName = "scf.yield"
)

// IfOp executes its then region if its condition is true, its else region otherwise.
type IfOp struct {
	*ir.Operation
}

// AsIf returns op as an if operation.
func AsIf(op *ir.Operation) (IfOp, bool) {
	if op == nil || op.Name() != IfOpName {
		return IfOp{}, false
	}
	return IfOp{Operation: op}, true
}

// CreateIf creates an if operation with empty then and else regions.
func CreateIf(b *ir.Builder, loc ir.Location, cond *ir.Value, results []ir.Type) IfOp {
	return IfOp{Operation: b.Create(ir.OperationState{
		Name:       IfOpName,
		Loc:        loc,
		Operands:   []*ir.Value{cond},
		Types:      results,
		NumRegions: 2,
	})}
}

// Condition returns the condition of the if.
func (op IfOp) Condition() *ir.Value {
	return op.Operand(0)
}

// ThenRegion returns the region executed when the condition is true.
func (op IfOp) ThenRegion() *ir.Region {
	return op.Region(0)
}

// ElseRegion returns the region executed when the condition is false.
func (op IfOp) ElseRegion() *ir.Region {
	return op.Region(1)
}

// CreateYield creates the terminator of an if region.
func CreateYield(b *ir.Builder, loc ir.Location, operands ...*ir.Value) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:     YieldOpName,
		Loc:      loc,
		Operands: operands,
	})
}
