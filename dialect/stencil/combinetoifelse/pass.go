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

// Package combinetoifelse replaces the combines of stencil programs by if/else
// computations in a single apply.
package combinetoifelse

import (
	"context"

	"github.com/JackMoriarty/open-earth-compiler/dialect/builtin"
	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/rewrite"
	"github.com/JackMoriarty/open-earth-compiler/pass"
	"github.com/pkg/errors"
)

// PassName is the name of the pass in pipelines.
const PassName = "stencil-combine-to-ifelse"

// Options of the pass.
type Options struct {
	// InternalOnly restricts the lowering to the combines consumed by an apply.
	InternalOnly bool
}

// Patterns returns the patterns of the pass.
func Patterns(opts Options) []rewrite.Pattern {
	if opts.InternalOnly {
		return []rewrite.Pattern{InternalIfElse{}}
	}
	return []rewrite.Pattern{IfElse{}, Mirror{}, Fuse{}}
}

// Pass lowers the combines of all the stencil programs of a module.
type Pass struct {
	*pass.FunctionPass
	opts     Options
	passOpts pass.Options
}

var _ pass.Pass = (*Pass)(nil)

// New returns a new pass.
func New(passOpts pass.Options, opts Options) *Pass {
	p := &Pass{opts: opts, passOpts: passOpts.WithDefaults()}
	p.FunctionPass = pass.NewFunctionPass(PassName, p.runOnFunction)
	return p
}

// NewFromArgs returns a new pass given textual arguments.
func NewFromArgs(passOpts pass.Options, args pass.Args) (pass.Pass, error) {
	if err := args.Check("internal-only"); err != nil {
		return nil, err
	}
	internalOnly, err := args.Bool("internal-only", false)
	if err != nil {
		return nil, err
	}
	return New(passOpts, Options{InternalOnly: internalOnly}), nil
}

// Options returns the options of the pass.
func (p *Pass) Options() Options {
	return p.opts
}

func checkSingleUses(fn builtin.FuncOp) bool {
	for _, op := range ir.CollectByName(fn.Operation, stencil.CombineOpName) {
		for _, operand := range op.Operands() {
			if !operand.HasOneUse() {
				return false
			}
		}
	}
	return true
}

func (p *Pass) runOnFunction(ctx context.Context, fn builtin.FuncOp) error {
	if !stencil.IsStencilProgram(fn.Operation) {
		return nil
	}
	if !checkSingleUses(fn) {
		p.passOpts.Diags.Errorf(fn.Loc(), "'%s' op execute domain splitting before combine op conversion", fn.Name())
		return errors.Errorf("execute domain splitting before combine op conversion")
	}
	logger := p.passOpts.Logger.With("pass", PassName, "func", fn.SymName())
	converged := rewrite.ApplyPatternsGreedily(fn.Operation, Patterns(p.opts), rewrite.Config{
		Logger: logger,
		Diags:  p.passOpts.Diags,
	})
	if !converged {
		logger.Debug("combine lowering did not converge")
	}
	return nil
}
