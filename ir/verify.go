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

package ir

import (
	"slices"

	"github.com/JackMoriarty/open-earth-compiler/ir/fmterr"
)

// Verify checks the structural invariants of an operation and of all the operations
// nested in its regions: parent links, use lists, and dominance of operands.
func Verify(root *Operation) error {
	errs := fmterr.NewAppender()
	for _, op := range PreOrder(root) {
		verifyOp(errs, root, op)
	}
	return errs.Err()
}

func verifyOp(errs *fmterr.Appender, root, op *Operation) {
	if op.erased {
		errs.AppendInternalf(op.loc, "%s has been erased but is still reachable", op.name)
		return
	}
	for i, operand := range op.operands {
		if operand.owner != op || operand.index != i {
			errs.AppendInternalf(op.loc, "%s: invalid back link for operand %d", op.name, i)
			continue
		}
		val := operand.value
		if val == nil {
			errs.Errorf(op.loc, "%s: operand %d is null", op.name, i)
			continue
		}
		if !slices.Contains(val.uses, operand) {
			errs.AppendInternalf(op.loc, "%s: operand %d missing from the use list of its value", op.name, i)
		}
		if !dominates(root, val, op) {
			errs.Errorf(op.loc, "%s: operand %d does not dominate its use", op.name, i)
		}
	}
	for i, res := range op.results {
		if res.def != op || res.index != i {
			errs.AppendInternalf(op.loc, "%s: invalid back link for result %d", op.name, i)
		}
	}
	for _, region := range op.regions {
		if region.parent != op {
			errs.AppendInternalf(op.loc, "%s: region with an invalid parent", op.name)
		}
		for _, block := range region.blocks {
			if block.region != region {
				errs.AppendInternalf(op.loc, "%s: block with an invalid region", op.name)
			}
			for i, arg := range block.args {
				if arg.block != block || arg.index != i {
					errs.AppendInternalf(op.loc, "%s: invalid back link for block argument %d", op.name, i)
				}
			}
			for _, nested := range block.ops {
				if nested.block != block {
					errs.AppendInternalf(nested.loc, "%s: invalid parent block", nested.name)
				}
			}
		}
	}
}

// Dominates returns true if val can be used by user: val is defined earlier
// in the same block or in a block enclosing the block of user.
func Dominates(val *Value, user *Operation) bool {
	return dominates(nil, val, user)
}

func dominates(root *Operation, val *Value, user *Operation) bool {
	defBlock := val.ParentBlock()
	if defBlock == nil {
		return false
	}
	for op := user; op != nil && op.block != nil; op = op.block.ParentOp() {
		if op.block == defBlock {
			if val.IsBlockArgument() {
				return true
			}
			return defBlock.IndexOf(val.def) < defBlock.IndexOf(op)
		}
		if op == root {
			break
		}
	}
	return false
}
