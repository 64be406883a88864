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

package stenciltostd

import (
	"context"

	"github.com/JackMoriarty/open-earth-compiler/dialect/builtin"
	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/conversion"
	"github.com/JackMoriarty/open-earth-compiler/pass"
	"github.com/pkg/errors"
)

// PassName is the name of the lowering in pipelines.
const PassName = "convert-stencil-to-std"

// Pass lowers the stencil programs of a module.
type Pass struct {
	opts pass.Options
}

var _ pass.Pass = (*Pass)(nil)

// New returns a new lowering pass.
func New(opts pass.Options) *Pass {
	return &Pass{opts: opts.WithDefaults()}
}

// NewFromArgs returns a new lowering pass given textual arguments.
func NewFromArgs(opts pass.Options, args pass.Args) (pass.Pass, error) {
	if err := args.Check(); err != nil {
		return nil, err
	}
	return New(opts), nil
}

// Name of the pass.
func (*Pass) Name() string {
	return PassName
}

// Run the lowering. The module is left unchanged if the lowering fails.
func (p *Pass) Run(ctx context.Context, module *ir.Operation) error {
	diags := p.opts.Diags
	logger := p.opts.Logger.With("pass", PassName)
	tc := NewTypeConverter()
	fields := NewFieldBindings()
	ok := true
	for _, fn := range builtin.Funcs(module) {
		if !stencil.IsStencilProgram(fn.Operation) && !stencil.IsStencilFunction(fn.Operation) {
			continue
		}
		if _, err := tc.ConvertSignature(fn.Type()); err != nil {
			diags.Errorf(fn.Loc(), "cannot lower %s: %v", fn.SymName(), err)
			ok = false
			continue
		}
		ok = fields.Bind(diags, fn) && ok
	}
	if !ok {
		return errors.Errorf("cannot lower the stencil programs:\n%s", diags.Errors())
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Debug("lowering", "fields", fields.Len())
	return conversion.ApplyFullConversion(module, NewTarget(), Patterns(tc, fields), conversion.Config{
		Logger: logger,
		Diags:  diags,
	})
}
