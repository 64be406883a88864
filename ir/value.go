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

package ir

import "slices"

type (
	// Value is an SSA value: either the result of an operation or a block argument.
	Value struct {
		typ   Type
		def   *Operation
		block *Block
		index int
		uses  []*OpOperand
	}

	// OpOperand is the use of a value by an operation.
	OpOperand struct {
		owner *Operation
		value *Value
		index int
	}
)

// Type returns the type of the value.
func (v *Value) Type() Type {
	return v.typ
}

// SetType changes the type of a value in place.
// It is used by signature conversions, which keep the identity of block arguments.
func (v *Value) SetType(typ Type) {
	v.typ = typ
}

// DefiningOp returns the operation defining the value or nil for block arguments.
func (v *Value) DefiningOp() *Operation {
	return v.def
}

// IsBlockArgument returns true if the value is the argument of a block.
func (v *Value) IsBlockArgument() bool {
	return v.def == nil
}

// ParentBlock returns the block in which the value is defined.
func (v *Value) ParentBlock() *Block {
	if v.def != nil {
		return v.def.block
	}
	return v.block
}

// Index returns the result number or the argument number of the value.
func (v *Value) Index() int {
	return v.index
}

// Uses returns the list of uses of the value.
func (v *Value) Uses() []*OpOperand {
	return slices.Clone(v.uses)
}

// NumUses returns the number of uses of the value.
func (v *Value) NumUses() int {
	return len(v.uses)
}

// HasOneUse returns true if the value is used exactly once.
func (v *Value) HasOneUse() bool {
	return len(v.uses) == 1
}

// UseEmpty returns true if the value has no use.
func (v *Value) UseEmpty() bool {
	return len(v.uses) == 0
}

// Users returns the operations using the value, without duplicates,
// in the order in which the uses have been created.
func (v *Value) Users() []*Operation {
	var users []*Operation
	for _, use := range v.uses {
		if !slices.Contains(users, use.owner) {
			users = append(users, use.owner)
		}
	}
	return users
}

// ReplaceAllUsesWith replaces every use of the value by another value.
func (v *Value) ReplaceAllUsesWith(other *Value) {
	if v == other {
		return
	}
	for _, use := range v.Uses() {
		use.Set(other)
	}
}

// ReplaceUsesIf replaces the uses of the value for which f returns true.
func (v *Value) ReplaceUsesIf(other *Value, f func(*OpOperand) bool) {
	for _, use := range v.Uses() {
		if f(use) {
			use.Set(other)
		}
	}
}

func (v *Value) addUse(use *OpOperand) {
	v.uses = append(v.uses, use)
}

func (v *Value) dropUse(use *OpOperand) {
	i := slices.Index(v.uses, use)
	if i < 0 {
		return
	}
	v.uses = slices.Delete(v.uses, i, i+1)
}

// Owner returns the operation using the value.
func (o *OpOperand) Owner() *Operation {
	return o.owner
}

// Get returns the value being used.
func (o *OpOperand) Get() *Value {
	return o.value
}

// Index returns the position of the operand in the list of operands of its owner.
func (o *OpOperand) Index() int {
	return o.index
}

// Set changes the value being used.
func (o *OpOperand) Set(v *Value) {
	if o.value != nil {
		o.value.dropUse(o)
	}
	o.value = v
	if v != nil {
		v.addUse(o)
	}
}

// ReplaceAllUsesWith replaces the uses of a list of values by another list of values.
// Both lists must have the same length.
func ReplaceAllUsesWith(from, to []*Value) {
	for i, v := range from {
		v.ReplaceAllUsesWith(to[i])
	}
}
