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

// Package pass runs transformations over modules.
package pass

import (
	"context"
	"log/slog"

	oecfmt "github.com/JackMoriarty/open-earth-compiler/base/fmt"
	"github.com/JackMoriarty/open-earth-compiler/dialect/builtin"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/fmterr"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

type (
	// Pass transforms a module in place.
	Pass interface {
		// Name of the pass, as used in pipelines.
		Name() string

		// Run the pass on a module.
		Run(ctx context.Context, module *ir.Operation) error
	}

	// Options shared by the passes of a pipeline.
	Options struct {
		// Logger receives the traces of the passes. slog.Default() if nil.
		Logger *slog.Logger
		// Diags collects the diagnostics emitted by the passes.
		Diags *fmterr.Appender
		// VerifyEach verifies the module after each pass.
		VerifyEach bool
		// Verify checks a module. ir.Verify if nil.
		Verify func(*ir.Operation) error
	}
)

// WithDefaults returns a copy of the options in which unset fields have a default value.
func (opts Options) WithDefaults() Options {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Diags == nil {
		opts.Diags = fmterr.NewAppender()
	}
	if opts.Verify == nil {
		opts.Verify = ir.Verify
	}
	return opts
}

// Manager runs a pipeline of passes.
type Manager struct {
	opts   Options
	passes []Pass
}

// NewManager returns a new pass manager.
func NewManager(opts Options, passes ...Pass) *Manager {
	return &Manager{opts: opts.WithDefaults(), passes: passes}
}

// Options returns the options of the manager.
func (m *Manager) Options() Options {
	return m.opts
}

// Add appends passes to the pipeline.
func (m *Manager) Add(passes ...Pass) {
	m.passes = append(m.passes, passes...)
}

// Passes returns the passes of the pipeline.
func (m *Manager) Passes() []Pass {
	return append([]Pass{}, m.passes...)
}

// Run all the passes in order. It stops at the first pass failing.
// Formatting the returned error with %+v prints where the failure was raised.
func (m *Manager) Run(ctx context.Context, module *ir.Operation) error {
	logger := m.opts.Logger
	for _, p := range m.passes {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "pipeline interrupted before %s", p.Name())
		}
		logger.Debug("running pass", "pass", p.Name())
		if err := p.Run(ctx, module); err != nil {
			logger.Debug("pass failed", "pass", p.Name(), "error", err)
			return fmterr.WithTrace(errors.Wrapf(err, "pass %s failed", p.Name()))
		}
		if !m.opts.VerifyEach {
			continue
		}
		if err := m.opts.Verify(module); err != nil {
			logger.Debug("invalid module", "pass", p.Name(), "ir", oecfmt.Number(ir.Print(module)))
			return fmterr.WithTrace(errors.Wrapf(err, "invalid IR after pass %s", p.Name()))
		}
	}
	return nil
}

// FunctionPass runs a transformation on every function of a module.
type FunctionPass struct {
	name string
	run  func(context.Context, builtin.FuncOp) error
}

var _ Pass = (*FunctionPass)(nil)

// NewFunctionPass returns a pass running f on every function of a module.
func NewFunctionPass(name string, f func(context.Context, builtin.FuncOp) error) *FunctionPass {
	return &FunctionPass{name: name, run: f}
}

// Name of the pass.
func (p *FunctionPass) Name() string {
	return p.name
}

// Run the transformation on all the functions.
// All the functions are processed even if some fail.
func (p *FunctionPass) Run(ctx context.Context, module *ir.Operation) error {
	var errs error
	for _, fn := range builtin.Funcs(module) {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if err := p.run(ctx, fn); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "%s", fn.SymName()))
		}
	}
	return errs
}
