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
	"github.com/JackMoriarty/open-earth-compiler/dialect/scf"
	"github.com/JackMoriarty/open-earth-compiler/dialect/std"
	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/rewrite"
)

// IfElse replaces a combine of two applies by a single apply
// selecting the computation of one of them with an if/else.
type IfElse struct{}

var _ rewrite.Pattern = IfElse{}

// Name of the pattern.
func (IfElse) Name() string { return "if-else" }

// RootName returns the name of the matched operations.
func (IfElse) RootName() string { return stencil.CombineOpName }

// MatchAndRewrite lowers a combine without extra operands.
func (IfElse) MatchAndRewrite(op *ir.Operation, rw *rewrite.PatternRewriter) error {
	combine, ok := stencil.AsCombine(op)
	if !ok {
		return rw.NotApplicable(op, "not a combine")
	}
	return lowerCombine(combine, rw)
}

// InternalIfElse lowers only the combines whose combine tree feeds an apply.
type InternalIfElse struct{}

var _ rewrite.Pattern = InternalIfElse{}

// Name of the pattern.
func (InternalIfElse) Name() string { return "internal-if-else" }

// RootName returns the name of the matched operations.
func (InternalIfElse) RootName() string { return stencil.CombineOpName }

// MatchAndRewrite lowers a combine if the root of its combine tree is used by an apply.
func (InternalIfElse) MatchAndRewrite(op *ir.Operation, rw *rewrite.PatternRewriter) error {
	combine, ok := stencil.AsCombine(op)
	if !ok {
		return rw.NotApplicable(op, "not a combine")
	}
	internal := false
	for _, user := range combine.CombineTreeRoot().Users() {
		if _, isApply := stencil.AsApply(user); isApply {
			internal = true
			break
		}
	}
	if !internal {
		return rw.NotApplicable(op, "combine tree not consumed by an apply")
	}
	return lowerCombine(combine, rw)
}

// selectedResults returns, for every combine operand, the values returned by the apply
// for the corresponding result. Every result is returned unroll factor times.
func selectedResults(apply stencil.ApplyOp, ret stencil.ReturnOp, operands []*ir.Value) []*ir.Value {
	factor := ret.UnrollFactor()
	returned := ret.Operands()
	var selected []*ir.Value
	for _, v := range operands {
		start := stencil.ResultIndex(apply.Operation, v) * factor
		selected = append(selected, returned[start:start+factor]...)
	}
	return selected
}

func lowerCombine(combine stencil.CombineOp, rw *rewrite.PatternRewriter) error {
	op := combine.Operation
	groups := combine.Groups()
	if len(groups.LowerExt) > 0 || len(groups.UpperExt) > 0 {
		return rw.NotApplicable(op, "combine with extra operands")
	}
	lower, lowerOk := singleApply(combine.LowerDefiningOps())
	upper, upperOk := singleApply(combine.UpperDefiningOps())
	if !lowerOk || !upperOk {
		return rw.NotApplicable(op, "expected a single apply on each side")
	}
	if lower.Operation == upper.Operation {
		return rw.NotApplicable(op, "same apply on both sides")
	}
	if !definedBy(lower.Operation, groups.Lower) || !definedBy(upper.Operation, groups.Upper) {
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
	if !unrollMatches(lowerRet, upperRet) {
		return rw.Warning(op, "expected matching unroll configurations")
	}
	if !onlyUsedBy(lower.Operation, op) || !onlyUsedBy(upper.Operation, op) {
		return rw.NotApplicable(op, "apply results used outside of the combine")
	}
	if lowerRet.NumOperands() != lower.NumResults()*lowerRet.UnrollFactor() ||
		upperRet.NumOperands() != upper.NumResults()*upperRet.UnrollFactor() {
		return rw.NotApplicable(op, "invalid number of returned values")
	}
	lowerYield := selectedResults(lower, lowerRet, groups.Lower)
	upperYield := selectedResults(upper, upperRet, groups.Upper)
	types := ir.TypesOf(lowerYield)
	if len(types) == 0 {
		return rw.NotApplicable(op, "expected applies to return at least one value")
	}
	if !ir.TypesEqual(types, ir.TypesOf(upperYield)) {
		return rw.NotApplicable(op, "expected both applies to return the same types")
	}

	loc := op.Loc()
	var operands []*ir.Value
	operands = append(operands, lower.Operands()...)
	operands = append(operands, upper.Operands()...)
	rw.SetInsertionPointBefore(op)
	apply := stencil.CreateApply(rw.Builder, loc, operands, op.ResultTypes(), combine.LB(), combine.UB())
	body := apply.Body()
	rw.SetInsertionPointToStart(body)
	index := stencil.CreateIndex(rw.Builder, loc, combine.Dim(), make(stencil.Index, stencil.IndexSize))
	split := std.CreateConstantIndex(rw.Builder, loc, combine.Index())
	cond := std.CreateCmpI(rw.Builder, loc, std.PredicateULT, index.Result(0), split.Result(0))
	ifOp := scf.CreateIf(rw.Builder, loc, cond.Result(0), types)
	stencil.CreateReturn(rw.Builder, loc, ifOp.Results(), lowerRet.Unroll())
	thenBlock, elseBlock := ir.NewBlock(), ir.NewBlock()
	ifOp.ThenRegion().Append(thenBlock)
	ifOp.ElseRegion().Append(elseBlock)

	rw.SetInsertionPointBefore(lowerRet.Operation)
	scf.CreateYield(rw.Builder, lowerRet.Loc(), lowerYield...)
	rw.EraseOp(lowerRet.Operation)
	rw.SetInsertionPointBefore(upperRet.Operation)
	scf.CreateYield(rw.Builder, upperRet.Loc(), upperYield...)
	rw.EraseOp(upperRet.Operation)

	// The arguments of the new apply are the operands of the lower apply
	// followed by the operands of the upper apply.
	args := body.Args()
	rw.MergeBlocks(lower.Body(), thenBlock, args[:lower.NumOperands()])
	rw.MergeBlocks(upper.Body(), elseBlock, args[lower.NumOperands():])

	rw.ReplaceOp(op, apply.Results())
	rw.EraseOp(upper.Operation)
	rw.EraseOp(lower.Operation)
	return nil
}
