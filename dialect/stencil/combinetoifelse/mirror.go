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
	"github.com/pkg/errors"
)

// Mirror removes the extra operands of a combine. Every extra operand of one side
// is matched by an empty result added to the apply of the other side.
type Mirror struct{}

var _ rewrite.Pattern = Mirror{}

// Name of the pattern.
func (Mirror) Name() string { return "mirror" }

// RootName returns the name of the matched operations.
func (Mirror) RootName() string { return stencil.CombineOpName }

// MatchAndRewrite replaces the combine by a combine without extra operands.
func (Mirror) MatchAndRewrite(op *ir.Operation, rw *rewrite.PatternRewriter) error {
	combine, ok := stencil.AsCombine(op)
	if !ok {
		return rw.NotApplicable(op, "not a combine")
	}
	groups := combine.Groups()
	if len(groups.LowerExt) == 0 && len(groups.UpperExt) == 0 {
		return rw.NotApplicable(op, "combine without extra operands")
	}
	lower, lowerOk := singleApply(combine.LowerDefiningOps())
	upper, upperOk := singleApply(combine.UpperDefiningOps())
	if !lowerOk || !upperOk {
		return rw.NotApplicable(op, "expected a single apply on each side")
	}
	if lower.Operation == upper.Operation {
		return rw.NotApplicable(op, "same apply on both sides")
	}
	if !definedBy(lower.Operation, groups.Lower, groups.LowerExt) || !definedBy(upper.Operation, groups.Upper, groups.UpperExt) {
		return rw.NotApplicable(op, "operands not defined by the applies")
	}
	lowerRet, err := returnOf(lower, rw)
	if err != nil {
		return err
	}
	upperRet, err := returnOf(upper, rw)
	if err != nil {
		return err
	}
	lowerEmpty, err := emptyResultTypes(lower, groups.UpperExt)
	if err != nil {
		return rw.NotApplicable(op, "%v", err)
	}
	upperEmpty, err := emptyResultTypes(upper, groups.LowerExt)
	if err != nil {
		return rw.NotApplicable(op, "%v", err)
	}

	newLower := addEmptyStores(lower, lowerRet, lowerEmpty, rw)
	newUpper := addEmptyStores(upper, upperRet, upperEmpty, rw)
	var lowerOperands, upperOperands []*ir.Value
	lowerOperands = append(lowerOperands, mapResults(newLower, groups.Lower)...)
	lowerOperands = append(lowerOperands, mapResults(newLower, groups.LowerExt)...)
	lowerOperands = append(lowerOperands, trailing(newLower, len(groups.UpperExt))...)
	upperOperands = append(upperOperands, mapResults(newUpper, groups.Upper)...)
	upperOperands = append(upperOperands, trailing(newUpper, len(groups.LowerExt))...)
	upperOperands = append(upperOperands, mapResults(newUpper, groups.UpperExt)...)

	rw.SetInsertionPointBefore(op)
	mirrored := stencil.CreateCombine(rw.Builder, op.Loc(), op.ResultTypes(), combine.Dim(), combine.Index(),
		stencil.CombineOperands{Lower: lowerOperands, Upper: upperOperands},
		combine.LB(), combine.UB())
	rw.ReplaceOp(op, mirrored.Results())
	replaceApply(lower, newLower, rw)
	replaceApply(upper, newUpper, rw)
	return nil
}

// emptyResultTypes returns the types of the empty results added to an apply
// for the extra operands of the other side of a combine.
func emptyResultTypes(apply stencil.ApplyOp, extra []*ir.Value) ([]ir.Type, error) {
	types := make([]ir.Type, len(extra))
	for i, value := range extra {
		temp, ok := value.Type().(*stencil.TempType)
		if !ok {
			return nil, errors.Errorf("extra operand of type %s is not a temporary", value.Type())
		}
		dims := temp.Dims()
		if apply.HasShape() {
			dims = stencil.Subtract(apply.UB(), apply.LB())
		}
		types[i] = stencil.NewTempType(temp.Elem(), dims)
	}
	return types, nil
}

// addEmptyStores replaces an apply by an apply returning additional empty results.
func addEmptyStores(apply stencil.ApplyOp, ret stencil.ReturnOp, empty []ir.Type, rw *rewrite.PatternRewriter) stencil.ApplyOp {
	results := slices.Concat(apply.ResultTypes(), empty)
	rw.SetInsertionPointBefore(apply.Operation)
	newApply := stencil.CreateApply(rw.Builder, apply.Loc(), apply.Operands(), results, apply.LB(), apply.UB())
	rw.MergeBlocks(apply.Body(), newApply.Body(), newApply.Body().Args())

	rw.SetInsertionPointBefore(ret.Operation)
	returned := ret.Operands()
	for _, typ := range empty {
		elem, _ := stencil.ElementType(typ)
		store := stencil.CreateStoreResult(rw.Builder, ret.Loc(), elem, nil)
		for range ret.UnrollFactor() {
			returned = append(returned, store.Result(0))
		}
	}
	stencil.CreateReturn(rw.Builder, ret.Loc(), returned, ret.Unroll())
	rw.EraseOp(ret.Operation)
	return newApply
}

// mapResults returns the results of newApply at the positions of values in the old apply.
func mapResults(newApply stencil.ApplyOp, values []*ir.Value) []*ir.Value {
	mapped := make([]*ir.Value, len(values))
	for i, v := range values {
		mapped[i] = newApply.Result(v.Index())
	}
	return mapped
}

func trailing(apply stencil.ApplyOp, n int) []*ir.Value {
	results := apply.Results()
	return results[len(results)-n:]
}

// replaceApply redirects the remaining uses of an apply to the leading results
// of its replacement and erases it.
func replaceApply(old, replacement stencil.ApplyOp, rw *rewrite.PatternRewriter) {
	rw.ReplaceOp(old.Operation, replacement.Results()[:old.NumResults()])
}
