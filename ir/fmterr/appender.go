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

package fmterr

import "github.com/pkg/errors"

type (
	contextError struct {
		f      func(error) error
		errors Errors
	}

	// Appender accumulates the diagnostics emitted while running a pass.
	// Errors and warnings are kept separately: warnings never fail a pass.
	Appender struct {
		stack    []contextError
		errors   Errors
		warnings Errors
	}
)

// NewAppender returns a new appender to collect diagnostics.
func NewAppender() *Appender {
	return &Appender{}
}

// Push a new context in the error stack.
// Errors appended until the matching Pop are transformed by f.
func (app *Appender) Push(f func(error) error) {
	app.stack = append(app.stack, contextError{f: f})
}

// Pop removes the last error context in the stack.
func (app *Appender) Pop() {
	last := app.stack[len(app.stack)-1]
	app.stack = app.stack[:len(app.stack)-1]
	for _, err := range last.errors.errs {
		app.Append(last.f(err))
	}
}

// Append an error to the list of errors.
// Warnings are routed to the list of warnings.
func (app *Appender) Append(err error) bool {
	if err == nil {
		return true
	}
	if IsWarning(err) {
		app.warnings.Append(err)
		return false
	}
	if len(app.stack) == 0 {
		app.errors.Append(err)
	} else {
		app.stack[len(app.stack)-1].errors.Append(err)
	}
	return false
}

// Errorf appends an error at a position.
func (app *Appender) Errorf(pos Pos, format string, a ...any) bool {
	return app.Append(Errorf(pos, format, a...))
}

// Warningf appends a warning at a position.
func (app *Appender) Warningf(pos Pos, format string, a ...any) bool {
	return app.Append(Warningf(pos, format, a...))
}

// AppendInternalf appends an internal error at a position.
func (app *Appender) AppendInternalf(pos Pos, format string, a ...any) bool {
	return app.Append(Internalf(pos, format, a...))
}

// Errors returns the set of errors or nil if no errors has been appended.
func (app *Appender) Errors() *Errors {
	if len(app.stack) > 0 {
		var errs Errors
		errs.Append(Internal(errors.New("cannot fetch errors while the context stack is non-empty")))
		return &errs
	}
	if app.errors.Empty() {
		return nil
	}
	return &app.errors
}

// Warnings returns all the warnings appended so far.
func (app *Appender) Warnings() []error {
	return app.warnings.Errors()
}

// Empty returns true if no errors has been appended.
// Warnings are ignored.
func (app *Appender) Empty() bool {
	if !app.errors.Empty() {
		return false
	}
	for _, ctx := range app.stack {
		if !ctx.errors.Empty() {
			return false
		}
	}
	return true
}

// Err returns the errors as a single error or nil.
func (app *Appender) Err() error {
	return app.Errors().ToError()
}

// String representation of the errors.
func (app *Appender) String() string {
	return app.errors.String()
}
