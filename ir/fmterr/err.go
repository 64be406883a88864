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

import (
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"
)

// Severity of a diagnostic.
type Severity int

const (
	// SeverityError marks a diagnostic failing the current pass.
	SeverityError Severity = iota
	// SeverityWarning marks a recoverable diagnostic.
	SeverityWarning
)

// String returns the prefix used when printing a diagnostic.
func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

type (
	// Pos is a position in the source from which the IR has been generated.
	Pos interface {
		String() string
	}

	// ErrorWithPos is an error attached to a position.
	ErrorWithPos interface {
		error
		Pos() Pos
		Severity() Severity
		Err() error
	}

	errorWithPos struct {
		pos      Pos
		severity Severity
		err      error
	}
)

// Position adds position information to an error.
func Position(pos Pos, err error) ErrorWithPos {
	return errorWithPos{pos: pos, severity: SeverityError, err: err}
}

// Errorf returns a formatted error at a given position.
func Errorf(pos Pos, format string, a ...any) error {
	return Position(pos, errors.Errorf(format, a...))
}

// Warningf returns a formatted warning at a given position.
func Warningf(pos Pos, format string, a ...any) error {
	return errorWithPos{pos: pos, severity: SeverityWarning, err: errors.Errorf(format, a...)}
}

// Internal marks an error as internal, potentially adding additional information.
func Internal(err error) error {
	return fmt.Errorf("internal compiler error. This is a bug. Please report it. Error:\n%+v", err)
}

// Internalf returns a formatted internal error at a position.
func Internalf(pos Pos, format string, a ...any) error {
	return Internal(Errorf(pos, format, a...))
}

// IsWarning returns true if the error is a warning diagnostic.
func IsWarning(err error) bool {
	var withPos ErrorWithPos
	if !errors.As(err, &withPos) {
		return false
	}
	return withPos.Severity() == SeverityWarning
}

// Error returns a string description of the error.
func (err errorWithPos) Error() (s string) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s = fmt.Sprintf("recovered from panic when building error message: %T:\n%v", err.err, string(debug.Stack()))
	}()
	if err.pos == nil {
		return err.severity.String() + ": " + err.err.Error()
	}
	return err.pos.String() + ": " + err.severity.String() + ": " + err.err.Error()
}

// Unwrap the error.
func (err errorWithPos) Unwrap() error {
	return err.err
}

// Format writes the error into the state of the formatter.
func (err errorWithPos) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}

func (err errorWithPos) Pos() Pos {
	return err.pos
}

func (err errorWithPos) Severity() Severity {
	return err.severity
}

func (err errorWithPos) Err() error {
	return err.err
}
