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
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/fmterr"
)

// Verify checks the invariants of the stencil operations nested in root.
func Verify(root *ir.Operation) error {
	errs := fmterr.NewAppender()
	for _, op := range ir.PreOrder(root) {
		verifyFieldTypes(errs, op)
		if shapeOp, ok := AsShapeOp(op); ok {
			verifyShape(errs, shapeOp)
		}
		switch KindOf(op) {
		case KindApply:
			apply, _ := AsApply(op)
			verifyApply(errs, apply)
		case KindCombine:
			combine, _ := AsCombine(op)
			verifyCombine(errs, combine)
		case KindReturn:
			ret, _ := AsReturn(op)
			verifyReturn(errs, ret)
		}
	}
	return errs.Err()
}

func verifyField(errs *fmterr.Appender, loc ir.Location, typ ir.Type) {
	field, ok := typ.(*FieldType)
	if !ok {
		return
	}
	for _, dim := range field.Shape {
		if !IsDynamic(dim) && !IsScalar(dim) {
			errs.Errorf(loc, "%s: expected fields to have a dynamic shape", field)
			return
		}
	}
}

func verifyFieldTypes(errs *fmterr.Appender, op *ir.Operation) {
	for _, typ := range op.ResultTypes() {
		verifyField(errs, op.Loc(), typ)
	}
	for _, region := range op.Regions() {
		for _, block := range region.Blocks() {
			for _, arg := range block.Args() {
				verifyField(errs, op.Loc(), arg.Type())
			}
		}
	}
}

func verifyShape(errs *fmterr.Appender, op ShapeOp) {
	if !op.HasShape() {
		return
	}
	lb, ub := op.LB(), op.UB()
	loc := op.Op().Loc()
	if len(lb) != len(ub) {
		errs.Errorf(loc, "%s: expected bounds of equal length but got %v and %v", op.Op().Name(), lb, ub)
		return
	}
	for i := range lb {
		if lb[i] == IgnoreDimension || ub[i] == IgnoreDimension {
			continue
		}
		if lb[i] > ub[i] {
			errs.Errorf(loc, "%s: expected lower bound %v to be smaller than upper bound %v", op.Op().Name(), lb, ub)
			return
		}
	}
}

func verifyApply(errs *fmterr.Appender, apply ApplyOp) {
	if apply.Region(0).Empty() {
		errs.Errorf(apply.Loc(), "%s: expected a body", apply.Name())
		return
	}
	body := apply.Body()
	if body.NumArgs() != apply.NumOperands() {
		errs.Errorf(apply.Loc(), "%s: expected %d body arguments but got %d", apply.Name(), apply.NumOperands(), body.NumArgs())
	}
	ret, ok := apply.Return()
	if !ok {
		errs.Errorf(apply.Loc(), "%s: expected the body to end with %s", apply.Name(), ReturnOpName)
		return
	}
	if want := apply.NumResults() * ret.UnrollFactor(); ret.NumOperands() != want {
		errs.Errorf(ret.Loc(), "%s: expected %d operands but got %d", ret.Name(), want, ret.NumOperands())
	}
}

func verifyCombine(errs *fmterr.Appender, combine CombineOp) {
	groups := combine.Groups()
	if len(groups.Lower) != len(groups.Upper) {
		errs.Errorf(combine.Loc(), "%s: expected the same number of lower and upper operands", combine.Name())
	}
	want := len(groups.Lower) + len(groups.LowerExt) + len(groups.UpperExt)
	if combine.NumResults() != want {
		errs.Errorf(combine.Loc(), "%s: expected %d results but got %d", combine.Name(), want, combine.NumResults())
	}
}

func verifyReturn(errs *fmterr.Appender, ret ReturnOp) {
	unroll := ret.Unroll()
	if unroll == nil {
		return
	}
	if ret.UnrollFactor() < 1 {
		errs.Errorf(ret.Loc(), "%s: invalid unroll factor in %v", ret.Name(), unroll)
		return
	}
	for i, x := range unroll {
		if x != 1 && i != ret.UnrollDim() {
			errs.Errorf(ret.Loc(), "%s: expected a single unrolled dimension in %v", ret.Name(), unroll)
			return
		}
	}
	if ret.NumOperands()%ret.UnrollFactor() != 0 {
		errs.Errorf(ret.Loc(), "%s: expected the number of operands to be a multiple of the unroll factor %d", ret.Name(), ret.UnrollFactor())
	}
}
