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

// Package rewrite provides pattern based rewriting of the IR:
// patterns, a rewriter notifying the driver of every change,
// and a greedy driver applying patterns until a fixpoint is reached.
package rewrite

import (
	"fmt"
	"log/slog"

	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/fmterr"
	"github.com/pkg/errors"
)

// ErrNotApplicable is returned by a pattern when it does not match an operation.
var ErrNotApplicable = errors.New("pattern not applicable")

type (
	// Pattern rewrites an operation.
	// A pattern checks all its preconditions before modifying the IR: when an error
	// is returned, the IR must be left untouched.
	Pattern interface {
		// Name of the pattern, used for logging.
		Name() string

		// RootName returns the name of the operations matched by the pattern
		// or an empty string to match any operation.
		RootName() string

		// MatchAndRewrite rewrites op or returns an error if the pattern does not apply.
		MatchAndRewrite(op *ir.Operation, rw *PatternRewriter) error
	}

	// Listener is notified of every change made through a PatternRewriter.
	Listener interface {
		ir.Listener
		OperationErased(op *ir.Operation)
		OperationModified(op *ir.Operation)
	}

	// PatternRewriter is the builder used by patterns to modify the IR.
	PatternRewriter struct {
		*ir.Builder
		listener Listener
		diags    *fmterr.Appender
		logger   *slog.Logger
		warned   map[warning]bool
	}

	warning struct {
		op  *ir.Operation
		msg string
	}
)

// NewPatternRewriter returns a rewriter reporting diagnostics into diags.
func NewPatternRewriter(diags *fmterr.Appender, logger *slog.Logger) *PatternRewriter {
	if diags == nil {
		diags = fmterr.NewAppender()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PatternRewriter{
		Builder: ir.NewBuilder(),
		diags:   diags,
		logger:  logger,
		warned:  make(map[warning]bool),
	}
}

// SetListener sets the listener notified of all the changes.
func (rw *PatternRewriter) SetListener(l Listener) {
	rw.listener = l
	rw.Builder.SetListener(l)
}

// Diag returns the diagnostic accumulator.
func (rw *PatternRewriter) Diag() *fmterr.Appender {
	return rw.diags
}

// Logger returns the logger of the rewriter.
func (rw *PatternRewriter) Logger() *slog.Logger {
	return rw.logger
}

// NotApplicable logs why a pattern does not apply and returns ErrNotApplicable.
func (rw *PatternRewriter) NotApplicable(op *ir.Operation, format string, a ...any) error {
	err := errors.Wrapf(ErrNotApplicable, format, a...)
	rw.logger.Debug("pattern not applicable", "op", op.Name(), "loc", op.Loc().String(), "reason", err.Error())
	return err
}

// Warning reports a warning on an operation and returns ErrNotApplicable.
// A warning already reported on the same operation is not reported again
// when the driver retries the operation.
func (rw *PatternRewriter) Warning(op *ir.Operation, format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	if key := (warning{op: op, msg: msg}); !rw.warned[key] {
		rw.warned[key] = true
		rw.diags.Warningf(op.Loc(), "%s", msg)
	}
	return errors.Wrap(ErrNotApplicable, msg)
}

func (rw *PatternRewriter) notifyModified(op *ir.Operation) {
	if rw.listener != nil {
		rw.listener.OperationModified(op)
	}
}

func (rw *PatternRewriter) notifyErased(op *ir.Operation) {
	if rw.listener == nil {
		return
	}
	for _, nested := range ir.PreOrder(op) {
		rw.listener.OperationErased(nested)
	}
}

// ModifyOpInPlace calls f to update op in place and notifies the listener.
func (rw *PatternRewriter) ModifyOpInPlace(op *ir.Operation, f func()) {
	f()
	rw.notifyModified(op)
}

// ReplaceAllUsesWith replaces all the uses of a value and notifies the users.
func (rw *PatternRewriter) ReplaceAllUsesWith(from, to *ir.Value) {
	for _, user := range from.Users() {
		rw.notifyModified(user)
	}
	from.ReplaceAllUsesWith(to)
}

// ReplaceOp replaces the results of op by values and erases op.
func (rw *PatternRewriter) ReplaceOp(op *ir.Operation, values []*ir.Value) {
	if len(values) != op.NumResults() {
		panic(errors.Errorf("cannot replace %s: got %d values but want %d", op.Name(), len(values), op.NumResults()))
	}
	for i, res := range op.Results() {
		rw.ReplaceAllUsesWith(res, values[i])
	}
	rw.EraseOp(op)
}

// EraseOp erases an operation without uses.
func (rw *PatternRewriter) EraseOp(op *ir.Operation) {
	rw.notifyErased(op)
	op.Erase()
}

// MoveOpBefore moves an operation before another one.
func (rw *PatternRewriter) MoveOpBefore(op, before *ir.Operation) {
	op.MoveBefore(before)
	rw.notifyModified(op)
}

// InlineRegionBefore moves all the blocks of a region at the end of another region.
func (rw *PatternRewriter) InlineRegionBefore(from, to *ir.Region) {
	to.TakeBody(from)
}

// MergeBlocks moves the operations of src at the end of dest,
// replacing the arguments of src by args. src is left empty.
func (rw *PatternRewriter) MergeBlocks(src, dest *ir.Block, args []*ir.Value) {
	for i, arg := range src.Args() {
		rw.ReplaceAllUsesWith(arg, args[i])
	}
	for _, op := range src.Operations() {
		dest.Append(op)
		rw.notifyModified(op)
	}
}
