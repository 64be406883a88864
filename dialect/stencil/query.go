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

package stencil

import (
	"slices"

	oeciter "github.com/JackMoriarty/open-earth-compiler/base/iter"
	"github.com/JackMoriarty/open-earth-compiler/ir"
)

func isResult(v *ir.Value) bool {
	return !v.IsBlockArgument()
}

func definingOps(groups ...[]*ir.Value) []*ir.Operation {
	results := oeciter.Filter(isResult, groups...)
	return slices.Collect(oeciter.Unique(oeciter.Map(results, (*ir.Value).DefiningOp)))
}

// LowerDefiningOps returns the operations defining the lower and lowerext operands,
// without duplicates, in operand order.
func (c CombineOp) LowerDefiningOps() []*ir.Operation {
	return definingOps(c.Lower(), c.LowerExt())
}

// UpperDefiningOps returns the operations defining the upper and upperext operands,
// without duplicates, in operand order.
func (c CombineOp) UpperDefiningOps() []*ir.Operation {
	return definingOps(c.Upper(), c.UpperExt())
}

// CombineTreeRoot returns the last combine of the chain of combines
// consuming the results of c.
func (c CombineOp) CombineTreeRoot() CombineOp {
	root := c
	for {
		next, found := CombineOp{}, false
		for _, user := range root.Users() {
			if next, found = AsCombine(user); found {
				break
			}
		}
		if !found {
			return root
		}
		root = next
	}
}

// Asserts returns the asserts constraining a field, in use order.
func Asserts(field *ir.Value) []AssertOp {
	var asserts []AssertOp
	for _, user := range field.Users() {
		if assert, ok := AsAssert(user); ok {
			asserts = append(asserts, assert)
		}
	}
	return asserts
}

// ResultIndex returns the position of a value in the results of op or -1.
func ResultIndex(op *ir.Operation, v *ir.Value) int {
	if v.DefiningOp() != op {
		return -1
	}
	return v.Index()
}
