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
	"io"

	"github.com/pkg/errors"
)

type tracedError struct {
	err error
}

// WithTrace wraps err so that the %+v verb prints, after the message,
// the stack trace recorded where the innermost traced error was created.
func WithTrace(err error) error {
	if err == nil {
		return nil
	}
	return tracedError{err: err}
}

// innermostTrace returns the stack trace of the deepest error of the chain carrying one.
func innermostTrace(err error) (errors.StackTrace, bool) {
	var trace errors.StackTrace
	for ; err != nil; err = errors.Unwrap(err) {
		if withTrace, ok := err.(interface{ StackTrace() errors.StackTrace }); ok {
			trace = withTrace.StackTrace()
		}
	}
	return trace, trace != nil
}

func (err tracedError) Unwrap() error {
	return err.err
}

func (err tracedError) Error() string {
	return err.err.Error()
}

func (err tracedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'q':
		fmt.Fprintf(s, "%q", err.Error())
	case 'v':
		io.WriteString(s, err.Error())
		if !s.Flag('+') {
			return
		}
		if trace, ok := innermostTrace(err.err); ok {
			fmt.Fprintf(s, "\nraised at:%+v", trace)
		}
	default:
		io.WriteString(s, err.Error())
	}
}
