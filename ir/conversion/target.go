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

import "github.com/JackMoriarty/open-earth-compiler/ir"

// Target defines which operations are legal after a conversion.
type Target struct {
	legalDialects map[string]bool
	legalOps      map[string]bool
	illegalOps    map[string]bool
	dynamic       map[string]func(*ir.Operation) bool
	unknown       func(*ir.Operation) bool
}

// NewTarget returns a target in which no operation is legal.
func NewTarget() *Target {
	return &Target{
		legalDialects: make(map[string]bool),
		legalOps:      make(map[string]bool),
		illegalOps:    make(map[string]bool),
		dynamic:       make(map[string]func(*ir.Operation) bool),
	}
}

// AddLegalDialect marks all the operations of some dialects as legal.
func (t *Target) AddLegalDialect(dialects ...string) {
	for _, dialect := range dialects {
		t.legalDialects[dialect] = true
	}
}

// AddLegalOp marks operations as legal.
func (t *Target) AddLegalOp(names ...string) {
	for _, name := range names {
		t.legalOps[name] = true
	}
}

// AddIllegalOp marks operations as illegal.
func (t *Target) AddIllegalOp(names ...string) {
	for _, name := range names {
		t.illegalOps[name] = true
	}
}

// AddDynamicallyLegalOp decides the legality of an operation with a function.
func (t *Target) AddDynamicallyLegalOp(name string, legal func(*ir.Operation) bool) {
	t.dynamic[name] = legal
}

// MarkUnknownOpDynamicallyLegal decides the legality of the operations
// that have not been registered otherwise.
func (t *Target) MarkUnknownOpDynamicallyLegal(legal func(*ir.Operation) bool) {
	t.unknown = legal
}

// IsLegal returns true if an operation is legal.
func (t *Target) IsLegal(op *ir.Operation) bool {
	name := op.Name()
	if legal, ok := t.dynamic[name]; ok {
		return legal(op)
	}
	if t.illegalOps[name] {
		return false
	}
	if t.legalOps[name] || t.legalDialects[op.Dialect()] {
		return true
	}
	if t.unknown != nil {
		return t.unknown(op)
	}
	return false
}
