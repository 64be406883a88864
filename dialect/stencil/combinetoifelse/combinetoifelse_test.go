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

package combinetoifelse_test

import (
	"context"
	"testing"

	"github.com/JackMoriarty/open-earth-compiler/dialect/builtin"
	"github.com/JackMoriarty/open-earth-compiler/dialect/scf"
	"github.com/JackMoriarty/open-earth-compiler/dialect/std"
	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil"
	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil/combinetoifelse"
	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil/stencilhelper"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/fmterr"
	"github.com/JackMoriarty/open-earth-compiler/ir/rewrite"
	"github.com/JackMoriarty/open-earth-compiler/pass"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type combineConfig struct {
	// fuse defines the lower operands with two applies.
	fuse bool
	// dependent makes the second lower apply read a result of the first one.
	dependent bool
	// fuseUB and fuseUnroll configure the second lower apply.
	fuseUB     stencil.Index
	fuseUnroll stencil.Index
	// lowerExt adds an extra lower operand.
	lowerExt bool
	// upperExt adds an extra upper operand.
	upperExt bool
	// extraUse stores the first lower operand a second time.
	extraUse bool
	// consumer feeds the combine into an apply.
	consumer bool

	lowerUnroll, upperUnroll stencil.Index
}

var (
	domainLB = stencil.Index{0, 0, 0}
	domainUB = stencil.Index{64, 64, 60}
	lowerLB  = stencil.Index{0, 0, 0}
	lowerUB  = stencil.Index{32, 64, 60}
	upperLB  = stencil.Index{32, 0, 0}
	upperUB  = stencil.Index{64, 64, 60}
)

// buildCombine builds a program splitting its domain along the first dimension at 32.
func buildCombine(cfg combineConfig) (*ir.Operation, builtin.FuncOp) {
	module, fn, b := stencilhelper.Program("combine", stencilhelper.Temp(64, 64, 60), stencilhelper.Field())
	in, out := fn.EntryBlock().Arg(0), fn.EntryBlock().Arg(1)
	lowerApply := func(line int, operand *ir.Value, results int, offset int64, ub, unroll stencil.Index) stencil.ApplyOp {
		return stencilhelper.Apply(b, stencilhelper.ApplyConfig{
			Loc:      stencilhelper.Loc(line),
			Operands: []*ir.Value{operand},
			Results:  stencilhelper.Temps(results, 32, 64, 60),
			LB:       lowerLB,
			UB:       ub,
			Unroll:   unroll,
			Offset:   offset,
		})
	}
	var lower, lowerExt, upperExt []*ir.Value
	switch {
	case cfg.fuse:
		firstResults := 1
		if cfg.dependent {
			firstResults = 2
		}
		first := lowerApply(3, in, firstResults, -1, lowerUB, cfg.lowerUnroll)
		secondIn, secondUB, secondUnroll := in, lowerUB, cfg.lowerUnroll
		if cfg.dependent {
			secondIn = first.Result(1)
		}
		if cfg.fuseUB != nil {
			secondUB = cfg.fuseUB
		}
		if cfg.fuseUnroll != nil {
			secondUnroll = cfg.fuseUnroll
		}
		second := lowerApply(4, secondIn, 1, -2, secondUB, secondUnroll)
		lower = append(lower, first.Result(0), second.Result(0))
	case cfg.lowerExt:
		apply := lowerApply(3, in, 2, -1, lowerUB, cfg.lowerUnroll)
		lower = append(lower, apply.Result(0))
		lowerExt = append(lowerExt, apply.Result(1))
	default:
		lower = append(lower, lowerApply(3, in, 1, -1, lowerUB, cfg.lowerUnroll).Result(0))
	}
	numUpper := len(lower)
	if cfg.upperExt {
		numUpper++
	}
	upper := stencilhelper.Apply(b, stencilhelper.ApplyConfig{
		Loc:      stencilhelper.Loc(5),
		Operands: []*ir.Value{in},
		Results:  stencilhelper.Temps(numUpper, 32, 64, 60),
		LB:       upperLB,
		UB:       upperUB,
		Unroll:   cfg.upperUnroll,
		Offset:   1,
	})
	upperResults := upper.Results()
	if cfg.upperExt {
		upperExt = upperResults[len(lower):]
		upperResults = upperResults[:len(lower)]
	}
	numResults := len(lower) + len(lowerExt) + len(upperExt)
	combine := stencil.CreateCombine(b, stencilhelper.Loc(6), stencilhelper.Temps(numResults, 64, 64, 60), 0, 32,
		stencil.CombineOperands{Lower: lower, Upper: upperResults, LowerExt: lowerExt, UpperExt: upperExt},
		domainLB, domainUB)
	if cfg.extraUse {
		stencil.CreateStore(b, stencilhelper.Loc(7), lower[0], out, lowerLB, lowerUB)
	}
	results := combine.Results()
	if cfg.consumer {
		consumer := stencilhelper.Apply(b, stencilhelper.ApplyConfig{
			Loc:      stencilhelper.Loc(8),
			Operands: results,
			Results:  stencilhelper.Temps(1, 64, 64, 60),
			LB:       domainLB,
			UB:       domainUB,
		})
		results = consumer.Results()
	}
	for _, res := range results {
		stencil.CreateStore(b, stencilhelper.Loc(9), res, out, domainLB, domainUB)
	}
	stencilhelper.Return(b)
	return module, fn
}

func runPass(t *testing.T, module *ir.Operation, opts combinetoifelse.Options) (*fmterr.Appender, error) {
	t.Helper()
	diags := fmterr.NewAppender()
	err := combinetoifelse.New(pass.Options{Diags: diags}, opts).Run(context.Background(), module)
	return diags, err
}

func opNames(block *ir.Block) []string {
	var names []string
	for _, op := range block.Operations() {
		names = append(names, op.Name())
	}
	return names
}

func accessedArg(t *testing.T, block *ir.Block) *ir.Value {
	t.Helper()
	for _, op := range block.Operations() {
		if op.Name() == stencil.AccessOpName {
			return op.Operand(0)
		}
	}
	t.Fatalf("no access in block %s", spew.Sdump(opNames(block)))
	return nil
}

func TestIfElse(t *testing.T) {
	module, _ := buildCombine(combineConfig{})
	diags, err := runPass(t, module, combinetoifelse.Options{})
	require.NoError(t, err)
	require.True(t, diags.Empty(), "diagnostics:\n%s", diags)
	require.NoError(t, stencilhelper.Verify(module), "module:\n%s", module)

	require.Empty(t, ir.CollectByName(module, stencil.CombineOpName))
	applies := ir.CollectByName(module, stencil.ApplyOpName)
	require.Len(t, applies, 1, "module:\n%s", module)
	apply, _ := stencil.AsApply(applies[0])
	require.Equal(t, 2, apply.NumOperands())
	require.True(t, apply.LB().Equal(domainLB))
	require.True(t, apply.UB().Equal(domainUB))

	body := apply.Body()
	want := []string{
		stencil.IndexOpName,
		std.ConstantOpName,
		std.CmpIOpName,
		scf.IfOpName,
		stencil.ReturnOpName,
	}
	if diff := cmp.Diff(want, opNames(body)); diff != "" {
		t.Fatalf("unexpected apply body (-want +got):\n%s", diff)
	}
	ops := body.Operations()
	require.Equal(t, int64(0), stencil.IndexDim(ops[0]))
	split, ok := std.ConstantValue(ops[1])
	require.True(t, ok)
	require.Equal(t, int64(32), split)
	pred, _ := ops[2].Attr("predicate")
	require.Equal(t, ir.StringAttr(std.PredicateULT), pred)
	require.Equal(t, ops[0].Result(0), ops[2].Operand(0))
	require.Equal(t, ops[1].Result(0), ops[2].Operand(1))

	ifOp, _ := scf.AsIf(ops[3])
	require.Equal(t, ops[2].Result(0), ifOp.Condition())
	thenBlock := ifOp.ThenRegion().Front()
	elseBlock := ifOp.ElseRegion().Front()
	wantBranch := []string{stencil.AccessOpName, stencil.StoreResultOpName, scf.YieldOpName}
	if diff := cmp.Diff(wantBranch, opNames(thenBlock)); diff != "" {
		t.Errorf("unexpected then block (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantBranch, opNames(elseBlock)); diff != "" {
		t.Errorf("unexpected else block (-want +got):\n%s", diff)
	}
	require.Equal(t, body.Arg(0), accessedArg(t, thenBlock), "then branch must read the lower operands")
	require.Equal(t, body.Arg(1), accessedArg(t, elseBlock), "else branch must read the upper operands")

	ret, _ := stencil.AsReturn(ops[4])
	require.Equal(t, ifOp.Results(), ret.Operands())
}

func TestFuse(t *testing.T) {
	module, fn := buildCombine(combineConfig{fuse: true})
	rewrite.ApplyPatternsGreedily(fn.Operation, []rewrite.Pattern{combinetoifelse.Fuse{}}, rewrite.Config{})
	require.NoError(t, stencilhelper.Verify(module), "module:\n%s", module)

	combines := ir.CollectByName(module, stencil.CombineOpName)
	require.Len(t, combines, 1)
	combine, _ := stencil.AsCombine(combines[0])
	defining := combine.LowerDefiningOps()
	require.Len(t, defining, 1)
	fused, ok := stencil.AsApply(defining[0])
	require.True(t, ok)
	require.Equal(t, 2, fused.NumResults())
	require.Equal(t, 2, fused.NumOperands())
	require.Equal(t, fused.Results(), combine.Lower())
	ret, ok := fused.Return()
	require.True(t, ok)
	require.Equal(t, 2, ret.NumOperands())
	require.Len(t, ir.CollectByName(module, stencil.ApplyOpName), 2)
}

func TestFuseThenIfElse(t *testing.T) {
	module, _ := buildCombine(combineConfig{fuse: true})
	diags, err := runPass(t, module, combinetoifelse.Options{})
	require.NoError(t, err)
	require.Empty(t, diags.Warnings())
	require.NoError(t, stencilhelper.Verify(module), "module:\n%s", module)
	require.Empty(t, ir.CollectByName(module, stencil.CombineOpName))
	applies := ir.CollectByName(module, stencil.ApplyOpName)
	require.Len(t, applies, 1)
	require.Equal(t, 3, applies[0].NumOperands())
	require.Equal(t, 2, applies[0].NumResults())
}

// isPlaceholder returns true if v is returned by its apply as a store_result without value.
func isPlaceholder(t *testing.T, v *ir.Value) bool {
	t.Helper()
	apply, ok := stencil.AsApply(v.DefiningOp())
	require.True(t, ok, "%v not defined by an apply", v)
	ret, ok := apply.Return()
	require.True(t, ok)
	stored := ret.Operand(v.Index() * ret.UnrollFactor()).DefiningOp()
	require.Equal(t, stencil.StoreResultOpName, stored.Name())
	return stored.NumOperands() == 0
}

func TestMirror(t *testing.T) {
	tests := []struct {
		name         string
		cfg          combineConfig
		lower, upper []bool
	}{
		{
			name:  "lowerext",
			cfg:   combineConfig{lowerExt: true},
			lower: []bool{false, false},
			upper: []bool{false, true},
		},
		{
			name:  "upperext",
			cfg:   combineConfig{upperExt: true},
			lower: []bool{false, true},
			upper: []bool{false, false},
		},
		{
			name:  "both",
			cfg:   combineConfig{lowerExt: true, upperExt: true},
			lower: []bool{false, false, true},
			upper: []bool{false, true, false},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			module, fn := buildCombine(test.cfg)
			rewrite.ApplyPatternsGreedily(fn.Operation, []rewrite.Pattern{combinetoifelse.Mirror{}}, rewrite.Config{})
			require.NoError(t, stencilhelper.Verify(module), "module:\n%s", module)

			combines := ir.CollectByName(module, stencil.CombineOpName)
			require.Len(t, combines, 1)
			combine, _ := stencil.AsCombine(combines[0])
			require.Empty(t, combine.LowerExt())
			require.Empty(t, combine.UpperExt())
			require.Equal(t, len(test.lower), combine.NumResults())
			require.Len(t, combine.LowerDefiningOps(), 1)
			require.Len(t, combine.UpperDefiningOps(), 1)
			check := func(side string, values []*ir.Value, want []bool) {
				require.Len(t, values, len(want), "%s operands", side)
				for i, v := range values {
					require.True(t, v.Type().Equal(stencilhelper.Temp(32, 64, 60)), "%s operand %d has type %s", side, i, v.Type())
					if got := isPlaceholder(t, v); got != want[i] {
						t.Errorf("%s operand %d: got placeholder %v but want %v", side, i, got, want[i])
					}
				}
			}
			check("lower", combine.Lower(), test.lower)
			check("upper", combine.Upper(), test.upper)

			module, _ = buildCombine(test.cfg)
			_, err := runPass(t, module, combinetoifelse.Options{})
			require.NoError(t, err)
			require.NoError(t, stencilhelper.Verify(module), "module:\n%s", module)
			require.Empty(t, ir.CollectByName(module, stencil.CombineOpName))
			require.Len(t, ir.CollectByName(module, stencil.ApplyOpName), 1)
			require.Len(t, ir.CollectByName(module, stencil.StoreOpName), len(test.lower))
		})
	}
}

func TestFuseMismatch(t *testing.T) {
	tests := []struct {
		name string
		cfg  combineConfig
		want string
	}{
		{
			name: "unroll",
			cfg:  combineConfig{fuse: true, fuseUnroll: stencil.Index{1, 2, 1}},
			want: "test.mlir:6:1: warning: expected matching unroll configurations",
		},
		{
			name: "shape",
			cfg:  combineConfig{fuse: true, fuseUB: stencil.Index{32, 64, 59}},
			want: "test.mlir:6:1: warning: expected shapes to match",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			module, _ := buildCombine(test.cfg)
			before := ir.Print(module)
			diags, err := runPass(t, module, combinetoifelse.Options{})
			require.NoError(t, err)
			warnings := diags.Warnings()
			require.Len(t, warnings, 1, spew.Sdump(warnings))
			require.Equal(t, test.want, warnings[0].Error())
			if after := ir.Print(module); after != before {
				t.Errorf("module modified:\ngot:\n%s\nwant:\n%s", after, before)
			}
		})
	}
}

func TestFuseDependentApplies(t *testing.T) {
	module, fn := buildCombine(combineConfig{fuse: true, dependent: true})
	require.NoError(t, stencilhelper.Verify(module), "module:\n%s", module)
	before := ir.Print(module)
	rewrite.ApplyPatternsGreedily(fn.Operation, []rewrite.Pattern{combinetoifelse.Fuse{}}, rewrite.Config{})
	require.NoError(t, stencilhelper.Verify(module), "module:\n%s", module)
	require.Equal(t, before, ir.Print(module))

	combines := ir.CollectByName(module, stencil.CombineOpName)
	require.Len(t, combines, 1)
	combine, _ := stencil.AsCombine(combines[0])
	require.Len(t, combine.LowerDefiningOps(), 2)
}

func TestUnrollMismatch(t *testing.T) {
	module, _ := buildCombine(combineConfig{
		lowerUnroll: stencil.Index{1, 2, 1},
		upperUnroll: stencil.Index{1, 4, 1},
	})
	before := ir.Print(module)
	diags, err := runPass(t, module, combinetoifelse.Options{})
	require.NoError(t, err)
	warnings := diags.Warnings()
	require.Len(t, warnings, 1, spew.Sdump(warnings))
	require.Equal(t, "test.mlir:6:1: warning: expected matching unroll configurations", warnings[0].Error())
	if after := ir.Print(module); after != before {
		t.Errorf("module modified:\ngot:\n%s\nwant:\n%s", after, before)
	}
}

func TestUnrolledIfElse(t *testing.T) {
	module, _ := buildCombine(combineConfig{
		lowerUnroll: stencil.Index{1, 2, 1},
		upperUnroll: stencil.Index{1, 2, 1},
	})
	_, err := runPass(t, module, combinetoifelse.Options{})
	require.NoError(t, err)
	require.NoError(t, stencilhelper.Verify(module), "module:\n%s", module)
	ifs := ir.CollectByName(module, scf.IfOpName)
	require.Len(t, ifs, 1)
	require.Equal(t, 2, ifs[0].NumResults())
	ret, ok := stencil.AsReturn(ifs[0].Block().Terminator())
	require.True(t, ok)
	require.Equal(t, 2, ret.UnrollFactor())
}

func TestMultipleUses(t *testing.T) {
	module, _ := buildCombine(combineConfig{extraUse: true})
	before := ir.Print(module)
	diags, err := runPass(t, module, combinetoifelse.Options{})
	require.Error(t, err)
	errs := diags.Errors()
	require.NotNil(t, errs)
	require.Len(t, errs.Errors(), 1)
	want := "test.mlir:2:1: error: 'func' op execute domain splitting before combine op conversion"
	require.Equal(t, want, errs.Errors()[0].Error())
	require.Equal(t, before, ir.Print(module))
}

func TestInternalOnly(t *testing.T) {
	tests := []struct {
		name     string
		consumer bool
		combines int
	}{
		{name: "stored", consumer: false, combines: 1},
		{name: "consumed", consumer: true, combines: 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			module, _ := buildCombine(combineConfig{consumer: test.consumer})
			_, err := runPass(t, module, combinetoifelse.Options{InternalOnly: true})
			require.NoError(t, err)
			require.NoError(t, stencilhelper.Verify(module), "module:\n%s", module)
			require.Len(t, ir.CollectByName(module, stencil.CombineOpName), test.combines)
		})
	}
}

func TestSkipsNonPrograms(t *testing.T) {
	module, fn := buildCombine(combineConfig{})
	fn.RemoveAttr(stencil.ProgramAttr)
	before := ir.Print(module)
	_, err := runPass(t, module, combinetoifelse.Options{})
	require.NoError(t, err)
	require.Equal(t, before, ir.Print(module))
}

func TestPassFromArgs(t *testing.T) {
	p, err := combinetoifelse.NewFromArgs(pass.Options{}, pass.Args{"internal-only": "true"})
	require.NoError(t, err)
	require.Equal(t, combinetoifelse.PassName, p.Name())
	require.True(t, p.(*combinetoifelse.Pass).Options().InternalOnly)

	_, err = combinetoifelse.NewFromArgs(pass.Options{}, pass.Args{"internal-only": "maybe"})
	require.Error(t, err)
	_, err = combinetoifelse.NewFromArgs(pass.Options{}, pass.Args{"unknown": "1"})
	require.Error(t, err)
}
