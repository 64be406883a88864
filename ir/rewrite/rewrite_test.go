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

package rewrite_test

import (
	"strings"
	"testing"

	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/fmterr"
	"github.com/JackMoriarty/open-earth-compiler/ir/rewrite"
	"github.com/google/go-cmp/cmp"
)

func constant(b *ir.Builder, v int64) *ir.Operation {
	return b.Create(ir.OperationState{
		Name:  "test.constant",
		Types: []ir.Type{ir.IndexType()},
		Attrs: []ir.NamedAttr{{Name: "value", Value: ir.IndexAttr(v)}},
	})
}

func constantValue(op *ir.Operation) (int64, bool) {
	if op == nil || op.Name() != "test.constant" {
		return 0, false
	}
	attr, _ := op.Attr("value")
	return attr.(ir.IntAttr).Value, true
}

// foldAdd replaces the addition of two constants by a constant.
type foldAdd struct{}

func (foldAdd) Name() string     { return "fold-add" }
func (foldAdd) RootName() string { return "test.add" }

func (foldAdd) MatchAndRewrite(op *ir.Operation, rw *rewrite.PatternRewriter) error {
	x, xOk := constantValue(op.Operand(0).DefiningOp())
	y, yOk := constantValue(op.Operand(1).DefiningOp())
	if !xOk || !yOk {
		return rw.NotApplicable(op, "operands are not constants")
	}
	rw.SetInsertionPointBefore(op)
	sum := constant(rw.Builder, x+y)
	rw.ReplaceOp(op, sum.Results())
	return nil
}

// eraseDead erases constants without uses.
type eraseDead struct{}

func (eraseDead) Name() string     { return "erase-dead" }
func (eraseDead) RootName() string { return "test.constant" }

func (eraseDead) MatchAndRewrite(op *ir.Operation, rw *rewrite.PatternRewriter) error {
	if !op.UseEmpty() {
		return rewrite.ErrNotApplicable
	}
	rw.EraseOp(op)
	return nil
}

// warnAll emits a warning on every operation and never applies.
type warnAll struct{}

func (warnAll) Name() string     { return "warn-all" }
func (warnAll) RootName() string { return "" }

func (warnAll) MatchAndRewrite(op *ir.Operation, rw *rewrite.PatternRewriter) error {
	return rw.Warning(op, "visited %s", op.Name())
}

// warnUse emits a warning on the uses of the sum and never applies.
type warnUse struct{}

func (warnUse) Name() string     { return "warn-use" }
func (warnUse) RootName() string { return "test.use" }

func (warnUse) MatchAndRewrite(op *ir.Operation, rw *rewrite.PatternRewriter) error {
	return rw.Warning(op, "cannot consume %s", op.Operand(0).DefiningOp().Name())
}

func buildSum() *ir.Operation {
	module := ir.NewOperation(ir.OperationState{Name: "module", NumRegions: 1})
	b := ir.NewBuilder()
	b.CreateBlock(module.Region(0))
	c1 := constant(b, 1)
	c2 := constant(b, 2)
	s1 := b.Create(ir.OperationState{Name: "test.add", Operands: []*ir.Value{c1.Result(0), c2.Result(0)}, Types: []ir.Type{ir.IndexType()}})
	s2 := b.Create(ir.OperationState{Name: "test.add", Operands: []*ir.Value{s1.Result(0), c2.Result(0)}, Types: []ir.Type{ir.IndexType()}})
	b.Create(ir.OperationState{Name: "test.use", Operands: []*ir.Value{s2.Result(0)}})
	return module
}

func TestGreedyFold(t *testing.T) {
	module := buildSum()
	converged := rewrite.ApplyPatternsGreedily(module, []rewrite.Pattern{foldAdd{}, eraseDead{}}, rewrite.Config{})
	if !converged {
		t.Errorf("greedy driver did not converge")
	}
	if err := ir.Verify(module); err != nil {
		t.Fatalf("invalid IR: %+v", err)
	}
	var names []string
	for _, op := range module.Region(0).Front().Operations() {
		names = append(names, op.Name())
	}
	if diff := cmp.Diff([]string{"test.constant", "test.use"}, names); diff != "" {
		t.Errorf("unexpected operations (-want +got):\n%s", diff)
	}
	got, _ := constantValue(module.Region(0).Front().Operations()[0])
	if got != 5 {
		t.Errorf("got folded value %d but want 5", got)
	}
}

func TestWarningsDoNotApply(t *testing.T) {
	module := buildSum()
	before := ir.Print(module)
	diags := fmterr.NewAppender()
	converged := rewrite.ApplyPatternsGreedily(module, []rewrite.Pattern{warnAll{}}, rewrite.Config{Diags: diags})
	if !converged {
		t.Errorf("greedy driver did not converge")
	}
	if after := ir.Print(module); after != before {
		t.Errorf("IR has been modified:\n%s", after)
	}
	if !diags.Empty() {
		t.Errorf("unexpected errors: %v", diags.Errors())
	}
	warnings := diags.Warnings()
	if len(warnings) != 5 {
		t.Fatalf("got %d warnings but want 5: %v", len(warnings), warnings)
	}
	if !strings.Contains(warnings[0].Error(), "warning: visited test.constant") {
		t.Errorf("unexpected warning: %v", warnings[0])
	}
}

func TestWarningReportedOnce(t *testing.T) {
	module := buildSum()
	diags := fmterr.NewAppender()
	patterns := []rewrite.Pattern{foldAdd{}, eraseDead{}, warnUse{}}
	converged := rewrite.ApplyPatternsGreedily(module, patterns, rewrite.Config{Diags: diags})
	if !converged {
		t.Errorf("greedy driver did not converge")
	}
	// The use is visited again in the sweep following the folding.
	warnings := diags.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings but want 1: %v", len(warnings), warnings)
	}
	if got, want := warnings[0].Error(), "warning: cannot consume test.constant"; !strings.Contains(got, want) {
		t.Errorf("got %q but want %q", got, want)
	}
}
