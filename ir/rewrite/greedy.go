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

package rewrite

import (
	"log/slog"

	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/fmterr"
	"github.com/oleiade/lane"
)

// DefaultMaxIterations is the number of sweeps over the IR after which
// the greedy driver stops if it has not converged.
const DefaultMaxIterations = 10

// Config configures the greedy driver.
type Config struct {
	// MaxIterations bounds the number of sweeps over the IR.
	MaxIterations int
	// Logger receives debug traces. slog.Default() if nil.
	Logger *slog.Logger
	// Diags collects the diagnostics emitted by the patterns.
	Diags *fmterr.Appender
}

type worklist struct {
	root    *ir.Operation
	queue   *lane.Queue
	pending map[*ir.Operation]bool
}

func newWorklist(root *ir.Operation) *worklist {
	return &worklist{
		root:    root,
		queue:   lane.NewQueue(),
		pending: make(map[*ir.Operation]bool),
	}
}

func (wl *worklist) push(op *ir.Operation) {
	if op == wl.root || wl.pending[op] {
		return
	}
	wl.pending[op] = true
	wl.queue.Enqueue(op)
}

func (wl *worklist) pop() *ir.Operation {
	op := wl.queue.Dequeue().(*ir.Operation)
	delete(wl.pending, op)
	return op
}

func (wl *worklist) empty() bool {
	return wl.queue.Empty()
}

// OperationInserted adds a new operation to the worklist.
func (wl *worklist) OperationInserted(op *ir.Operation) {
	wl.push(op)
}

// OperationErased removes an operation from the worklist.
func (wl *worklist) OperationErased(op *ir.Operation) {
	delete(wl.pending, op)
	for _, operand := range op.Operands() {
		if def := operand.DefiningOp(); def != nil {
			wl.push(def)
		}
	}
}

// OperationModified adds a modified operation and its users to the worklist.
func (wl *worklist) OperationModified(op *ir.Operation) {
	wl.push(op)
	for _, user := range op.Users() {
		wl.push(user)
	}
}

func matches(p Pattern, op *ir.Operation) bool {
	root := p.RootName()
	return root == "" || root == op.Name()
}

// ApplyPatternsGreedily applies patterns on all the operations nested in root
// until no pattern applies anymore or the maximum number of iterations is reached.
// Patterns are tried in order. It returns true if a fixpoint has been reached.
func ApplyPatternsGreedily(root *ir.Operation, patterns []Pattern, cfg Config) bool {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	rw := NewPatternRewriter(cfg.Diags, cfg.Logger)
	logger := rw.Logger()
	for iteration := 0; iteration < cfg.MaxIterations; iteration++ {
		wl := newWorklist(root)
		rw.SetListener(wl)
		for _, op := range ir.PreOrder(root) {
			wl.push(op)
		}
		changed := false
		for !wl.empty() {
			op := wl.pop()
			if op.IsErased() || !root.IsAncestor(op) {
				continue
			}
			for _, p := range patterns {
				if !matches(p, op) {
					continue
				}
				name := op.Name()
				if err := p.MatchAndRewrite(op, rw); err != nil {
					continue
				}
				logger.Debug("pattern applied", "pattern", p.Name(), "op", name, "iteration", iteration)
				changed = true
				break
			}
		}
		if !changed {
			logger.Debug("greedy rewrite converged", "iterations", iteration+1)
			return true
		}
	}
	logger.Debug("greedy rewrite did not converge", "max_iterations", cfg.MaxIterations)
	return false
}
