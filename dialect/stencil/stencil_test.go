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

package stencil_test

import (
	"strings"
	"testing"

	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil"
	sh "github.com/JackMoriarty/open-earth-compiler/dialect/stencil/stencilhelper"
	"github.com/JackMoriarty/open-earth-compiler/ir"
)

var (
	lb = stencil.Index{0, 0, 0}
	ub = stencil.Index{64, 64, 60}
)

func TestDefiningOps(t *testing.T) {
	module, fn, b := sh.Program("defining", sh.Field())
	load := stencil.CreateLoad(b, sh.Loc(3), fn.EntryBlock().Arg(0), sh.Temp(64, 64, 60), lb, ub)
	in := load.Results()
	apply1 := sh.Apply(b, sh.ApplyConfig{Operands: in, Results: sh.Temps(2, 64, 64, 60), LB: lb, UB: ub})
	apply2 := sh.Apply(b, sh.ApplyConfig{Operands: in, Results: sh.Temps(1, 64, 64, 60), LB: lb, UB: ub})
	apply3 := sh.Apply(b, sh.ApplyConfig{Operands: in, Results: sh.Temps(1, 64, 64, 60), LB: lb, UB: ub})
	combine := stencil.CreateCombine(b, sh.Loc(4), sh.Temps(2, 64, 64, 60), 0, 32, stencil.CombineOperands{
		Lower:    []*ir.Value{apply1.Result(0)},
		Upper:    []*ir.Value{apply3.Result(0)},
		LowerExt: []*ir.Value{apply2.Result(0)},
	}, lb, ub)
	sh.Return(b)
	if err := sh.Verify(module); err != nil {
		t.Fatalf("invalid IR: %+v\n%s", err, module)
	}
	lower := combine.LowerDefiningOps()
	if len(lower) != 2 || lower[0] != apply1.Operation || lower[1] != apply2.Operation {
		t.Errorf("unexpected lower defining operations: %v", lower)
	}
	upper := combine.UpperDefiningOps()
	if len(upper) != 1 || upper[0] != apply3.Operation {
		t.Errorf("unexpected upper defining operations: %v", upper)
	}
	if got := len(combine.Groups().LowerExt); got != 1 {
		t.Errorf("got %d lowerext operands but want 1", got)
	}
	if got := stencil.ResultIndex(apply1.Operation, apply1.Result(1)); got != 1 {
		t.Errorf("got result index %d but want 1", got)
	}
	if got := stencil.ResultIndex(apply2.Operation, apply1.Result(1)); got != -1 {
		t.Errorf("got result index %d but want -1", got)
	}
}

func TestCombineTreeRoot(t *testing.T) {
	_, fn, b := sh.Program("tree", sh.Field())
	load := stencil.CreateLoad(b, sh.Loc(3), fn.EntryBlock().Arg(0), sh.Temp(64, 64, 60), lb, ub)
	in := load.Results()
	mk := func() *ir.Value {
		return sh.Apply(b, sh.ApplyConfig{Operands: in, Results: sh.Temps(1, 64, 64, 60), LB: lb, UB: ub}).Result(0)
	}
	inner := stencil.CreateCombine(b, sh.Loc(4), sh.Temps(1, 64, 64, 60), 0, 16, stencil.CombineOperands{
		Lower: []*ir.Value{mk()},
		Upper: []*ir.Value{mk()},
	}, lb, ub)
	outer := stencil.CreateCombine(b, sh.Loc(5), sh.Temps(1, 64, 64, 60), 0, 32, stencil.CombineOperands{
		Lower: inner.Results(),
		Upper: []*ir.Value{mk()},
	}, lb, ub)
	sh.Return(b)
	if got := inner.CombineTreeRoot(); got.Operation != outer.Operation {
		t.Errorf("got root %v but want the outer combine", got.Operation)
	}
	if got := outer.CombineTreeRoot(); got.Operation != outer.Operation {
		t.Errorf("the root of the outer combine is not itself")
	}
}

func TestAsShapeOp(t *testing.T) {
	_, fn, b := sh.Program("shapes", sh.Field())
	field := fn.EntryBlock().Arg(0)
	assert := stencil.CreateAssert(b, sh.Loc(3), field, stencil.Index{-3, -3, 0}, stencil.Index{67, 67, 60})
	load := stencil.CreateLoad(b, sh.Loc(4), field, sh.Temp(64, 64, 60), nil, nil)
	ret := stencil.CreateReturn(b, sh.Loc(5), nil, nil)
	tests := []struct {
		op       *ir.Operation
		isShape  bool
		hasShape bool
	}{
		{op: assert.Operation, isShape: true, hasShape: true},
		{op: load.Operation, isShape: true, hasShape: false},
		{op: ret.Operation, isShape: false},
	}
	for _, test := range tests {
		shapeOp, ok := stencil.AsShapeOp(test.op)
		if ok != test.isShape {
			t.Errorf("%s: got shape capability %v but want %v", test.op.Name(), ok, test.isShape)
			continue
		}
		if !ok {
			continue
		}
		if got := shapeOp.HasShape(); got != test.hasShape {
			t.Errorf("%s: got HasShape() = %v but want %v", test.op.Name(), got, test.hasShape)
		}
	}
	load.SetShape(lb, ub)
	if !load.HasShape() || !load.UB().Equal(ub) {
		t.Errorf("shape of the load has not been set")
	}
	if asserts := stencil.Asserts(field); len(asserts) != 1 || asserts[0].Operation != assert.Operation {
		t.Errorf("unexpected asserts: %v", asserts)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *ir.Builder, field *ir.Value)
		want  string
	}{
		{
			name: "valid",
			build: func(b *ir.Builder, field *ir.Value) {
				load := stencil.CreateLoad(b, sh.Loc(3), field, sh.Temp(64, 64, 60), lb, ub)
				sh.Apply(b, sh.ApplyConfig{Operands: load.Results(), Results: sh.Temps(1, 64, 64, 60), LB: lb, UB: ub, Unroll: stencil.Index{1, 2, 1}})
			},
		},
		{
			name: "bounds",
			build: func(b *ir.Builder, field *ir.Value) {
				stencil.CreateAssert(b, sh.Loc(3), field, stencil.Index{0, 4, 0}, stencil.Index{8, 2, 8})
			},
			want: "expected lower bound [0 4 0] to be smaller than upper bound [8 2 8]",
		},
		{
			name: "return",
			build: func(b *ir.Builder, field *ir.Value) {
				load := stencil.CreateLoad(b, sh.Loc(3), field, sh.Temp(64, 64, 60), lb, ub)
				apply := sh.Apply(b, sh.ApplyConfig{Operands: load.Results(), Results: sh.Temps(1, 64, 64, 60), LB: lb, UB: ub, Unroll: stencil.Index{1, 2, 1}})
				ret, _ := apply.Return()
				ret.SetOperands(ret.Operands()[:1])
			},
			want: "expected the number of operands to be a multiple of the unroll factor 2",
		},
		{
			name: "combine",
			build: func(b *ir.Builder, field *ir.Value) {
				load := stencil.CreateLoad(b, sh.Loc(3), field, sh.Temp(64, 64, 60), lb, ub)
				apply := sh.Apply(b, sh.ApplyConfig{Operands: load.Results(), Results: sh.Temps(2, 64, 64, 60), LB: lb, UB: ub})
				stencil.CreateCombine(b, sh.Loc(4), sh.Temps(2, 64, 64, 60), 0, 32, stencil.CombineOperands{
					Lower: apply.Results()[:1],
					Upper: apply.Results()[1:],
				}, lb, ub)
			},
			want: "expected 1 results but got 2",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			module, fn, b := sh.Program(test.name, sh.Field())
			test.build(b, fn.EntryBlock().Arg(0))
			sh.Return(b)
			err := sh.Verify(module)
			if test.want == "" {
				if err != nil {
					t.Errorf("unexpected error: %+v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected an error containing %q", test.want)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("got error %q but want an error containing %q", err.Error(), test.want)
			}
		})
	}
}

func TestFieldTypeVerify(t *testing.T) {
	module, _, b := sh.Program("static", stencil.NewFieldType(ir.F64(), []int64{-1, 10, -1}))
	sh.Return(b)
	err := sh.Verify(module)
	if err == nil || !strings.Contains(err.Error(), "expected fields to have a dynamic shape") {
		t.Errorf("unexpected error: %v", err)
	}
}
