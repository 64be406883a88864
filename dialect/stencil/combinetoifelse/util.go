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

package combinetoifelse

import (
	"slices"

	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/rewrite"
)

// singleApply returns the apply if ops contains exactly one apply and nothing else.
func singleApply(ops []*ir.Operation) (stencil.ApplyOp, bool) {
	if len(ops) != 1 {
		return stencil.ApplyOp{}, false
	}
	return stencil.AsApply(ops[0])
}

// definedBy returns true if all the values are results of op.
func definedBy(op *ir.Operation, values ...[]*ir.Value) bool {
	for _, group := range values {
		for _, v := range group {
			if v.DefiningOp() != op {
				return false
			}
		}
	}
	return true
}

// unrollMatches returns true if both applies unroll the same dimension by the same factor.
func unrollMatches(a, b stencil.ReturnOp) bool {
	return a.UnrollFactor() == b.UnrollFactor() && a.UnrollDim() == b.UnrollDim()
}

// shapesMatch returns false if both ops have a shape and the shapes differ.
func shapesMatch(a, b stencil.ShapeOp) bool {
	if !a.HasShape() || !b.HasShape() {
		return true
	}
	return a.LB().Equal(b.LB()) && a.UB().Equal(b.UB())
}

// ancestorIn returns the ancestor of op in block or nil.
func ancestorIn(block *ir.Block, op *ir.Operation) *ir.Operation {
	for ; op != nil; op = op.ParentOp() {
		if op.Block() == block {
			return op
		}
	}
	return nil
}

// usedAfter returns true if all the users of the results of op are after point.
func usedAfter(op, point *ir.Operation) bool {
	block := point.Block()
	pos := block.IndexOf(point)
	for _, user := range op.Users() {
		ancestor := ancestorIn(block, user)
		if ancestor == nil || block.IndexOf(ancestor) < pos {
			return false
		}
	}
	return true
}

// dependsOn returns true if an operand of op is a result of other.
func dependsOn(op, other *ir.Operation) bool {
	return slices.ContainsFunc(op.Operands(), func(v *ir.Value) bool {
		return v.DefiningOp() == other
	})
}

// onlyUsedBy returns true if all the users of the results of op are user.
func onlyUsedBy(op, user *ir.Operation) bool {
	users := op.Users()
	return len(users) > 0 && !slices.ContainsFunc(users, func(other *ir.Operation) bool {
		return other != user
	})
}

// returnOf returns the terminator of an apply or an error if the body is not
// terminated by a stencil return.
func returnOf(apply stencil.ApplyOp, rw *rewrite.PatternRewriter) (stencil.ReturnOp, error) {
	if apply.Region(0).Empty() {
		return stencil.ReturnOp{}, rw.NotApplicable(apply.Operation, "apply without body")
	}
	ret, ok := apply.Return()
	if !ok {
		return stencil.ReturnOp{}, rw.NotApplicable(apply.Operation, "apply body not terminated by %s", stencil.ReturnOpName)
	}
	return ret, nil
}
