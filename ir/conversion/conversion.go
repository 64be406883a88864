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

package conversion

import (
	"log/slog"

	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/fmterr"
	"github.com/JackMoriarty/open-earth-compiler/ir/rewrite"
	"github.com/pkg/errors"
)

// Config configures a full conversion.
type Config struct {
	// MaxIterations bounds the number of sweeps over the illegal operations.
	MaxIterations int
	// Logger receives debug traces. slog.Default() if nil.
	Logger *slog.Logger
	// Diags collects the diagnostics. Errors for the operations that could not
	// be legalized are appended to it.
	Diags *fmterr.Appender
}

// ApplyFullConversion rewrites the illegal operations nested in root using patterns
// until all of them are legal. If some operations remain illegal, an error is reported
// for each of them, root is restored to its state before the conversion,
// and an error is returned.
func ApplyFullConversion(root *ir.Operation, target *Target, patterns []rewrite.Pattern, cfg Config) error {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = rewrite.DefaultMaxIterations
	}
	if cfg.Diags == nil {
		cfg.Diags = fmterr.NewAppender()
	}
	snapshot := root.Snapshot()
	rw := rewrite.NewPatternRewriter(cfg.Diags, cfg.Logger)
	logger := rw.Logger()
	for iteration := 0; iteration < cfg.MaxIterations; iteration++ {
		progress := false
		for _, op := range ir.PreOrder(root)[1:] {
			if op.IsErased() || !root.IsAncestor(op) || target.IsLegal(op) {
				continue
			}
			if legalize(op, patterns, rw) {
				progress = true
			}
		}
		if !progress {
			break
		}
	}
	illegal := ir.Collect(root, func(op *ir.Operation) bool {
		return !target.IsLegal(op)
	})
	if len(illegal) == 0 {
		return nil
	}
	for _, op := range illegal {
		cfg.Diags.Errorf(op.Loc(), "failed to legalize operation '%s'", op.Name())
	}
	logger.Debug("conversion failed: restoring the module", "illegal", len(illegal))
	root.Restore(snapshot)
	return errors.Errorf("failed to legalize %d operation(s)", len(illegal))
}

func legalize(op *ir.Operation, patterns []rewrite.Pattern, rw *rewrite.PatternRewriter) bool {
	for _, p := range patterns {
		if root := p.RootName(); root != "" && root != op.Name() {
			continue
		}
		name := op.Name()
		if err := p.MatchAndRewrite(op, rw); err != nil {
			continue
		}
		rw.Logger().Debug("pattern applied", "pattern", p.Name(), "op", name)
		return true
	}
	return false
}
