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
	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/rewrite"
)

// Fuse merges two applies defining operands on the same side of a combine.
type Fuse struct{}

var _ rewrite.Pattern = Fuse{}

// Name of the pattern.
func (Fuse) Name() string { return "fuse" }

// RootName returns the name of the matched operations.
func (Fuse) RootName() string { return stencil.CombineOpName }

// MatchAndRewrite fuses the first two applies defining the lower operands of a
// combine or, if there is only one, the first two applies defining the upper operands.
func (Fuse) MatchAndRewrite(op *ir.Operation, rw *rewrite.PatternRewriter) error {
	combine, ok := stencil.AsCombine(op)
	if !ok {
		return rw.NotApplicable(op, "not a combine")
	}
	for _, defining := range [][]*ir.Operation{combine.LowerDefiningOps(), combine.UpperDefiningOps()} {
		if len(defining) < 2 {
			continue
		}
		first, firstOk := stencil.AsApply(defining[0])
		second, secondOk := stencil.AsApply(defining[1])
		if !firstOk || !secondOk {
			return rw.NotApplicable(op, "operands not defined by applies")
		}
		return fuseApplies(first, second, combine, rw)
	}
	return rw.NotApplicable(op, "no side of the combine is defined by more than one operation")
}

func fuseApplies(apply1, apply2 stencil.ApplyOp, combine stencil.CombineOp, rw *rewrite.PatternRewriter) error {
	op := combine.Operation
	if !shapesMatch(apply1, apply2) {
		return rw.Warning(op, "expected shapes to match")
	}
	ret1, err := returnOf(apply1, rw)
	if err != nil {
		return err
	}
	ret2, err := returnOf(apply2, rw)
	if err != nil {
		return err
	}
	if !unrollMatches(ret1, ret2) {
		return rw.Warning(op, "expected matching unroll configurations")
	}
	block := apply1.Block()
	if block == nil || block != apply2.Block() {
		return rw.NotApplicable(op, "applies in different blocks")
	}
	if dependsOn(apply1.Operation, apply2.Operation) || dependsOn(apply2.Operation, apply1.Operation) {
		return rw.NotApplicable(op, "applies depend on each other")
	}
	earlier, later := apply1.Operation, apply2.Operation
	if block.IndexOf(later) < block.IndexOf(earlier) {
		earlier, later = later, earlier
	}
	if !usedAfter(earlier, later) {
		return rw.NotApplicable(op, "results of %s used before %s", earlier.Name(), later.Name())
	}

	var operands []*ir.Value
	operands = append(operands, apply1.Operands()...)
	operands = append(operands, apply2.Operands()...)
	var results []ir.Type
	results = append(results, apply1.ResultTypes()...)
	results = append(results, apply2.ResultTypes()...)
	rw.SetInsertionPointBefore(later)
	fused := stencil.CreateApply(rw.Builder, op.Loc(), operands, results, apply1.LB(), apply1.UB())
	body := fused.Body()
	rw.MergeBlocks(apply1.Body(), body, body.Args()[:apply1.NumOperands()])
	rw.MergeBlocks(apply2.Body(), body, body.Args()[apply1.NumOperands():])

	var returned []*ir.Value
	returned = append(returned, ret1.Operands()...)
	returned = append(returned, ret2.Operands()...)
	rw.SetInsertionPointToEnd(body)
	stencil.CreateReturn(rw.Builder, op.Loc(), returned, ret1.Unroll())
	rw.EraseOp(ret1.Operation)
	rw.EraseOp(ret2.Operation)

	fusedResults := fused.Results()
	rw.ReplaceOp(apply1.Operation, fusedResults[:apply1.NumResults()])
	rw.ReplaceOp(apply2.Operation, fusedResults[apply1.NumResults():])
	return nil
}
