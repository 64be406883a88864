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

import (
	"slices"
	"strings"

	"github.com/JackMoriarty/open-earth-compiler/base/ordered"
	"github.com/pkg/errors"
)

type (
	// NamedAttr is an attribute with its name.
	NamedAttr struct {
		Name  string
		Value Attribute
	}

	// OperationState collects everything needed to create an operation.
	OperationState struct {
		Name       string
		Loc        Location
		Operands   []*Value
		Types      []Type
		Attrs      []NamedAttr
		NumRegions int
	}

	// Operation is a node of the IR.
	Operation struct {
		name     string
		loc      Location
		operands []*OpOperand
		results  []*Value
		attrs    *ordered.Map[string, Attribute]
		regions  []*Region
		block    *Block
		erased   bool
	}
)

// NewOperation creates an operation which is not inserted in any block.
func NewOperation(st OperationState) *Operation {
	op := &Operation{
		name:  st.Name,
		loc:   st.Loc,
		attrs: ordered.NewMap[string, Attribute](),
	}
	op.SetOperands(st.Operands)
	op.results = make([]*Value, len(st.Types))
	for i, typ := range st.Types {
		op.results[i] = &Value{typ: typ, def: op, index: i}
	}
	for _, attr := range st.Attrs {
		op.attrs.Store(attr.Name, attr.Value)
	}
	op.regions = make([]*Region, st.NumRegions)
	for i := range op.regions {
		op.regions[i] = &Region{parent: op}
	}
	return op
}

// Name returns the name of the operation, for example "stencil.apply".
func (op *Operation) Name() string {
	return op.name
}

// Dialect returns the namespace of the operation.
func (op *Operation) Dialect() string {
	dialect, _, found := strings.Cut(op.name, ".")
	if !found {
		return ""
	}
	return dialect
}

// Loc returns the location of the operation.
func (op *Operation) Loc() Location {
	return op.loc
}

// NumOperands returns the number of operands.
func (op *Operation) NumOperands() int {
	return len(op.operands)
}

// Operand returns the i-th operand.
func (op *Operation) Operand(i int) *Value {
	return op.operands[i].value
}

// OpOperand returns the i-th use.
func (op *Operation) OpOperand(i int) *OpOperand {
	return op.operands[i]
}

// Operands returns the list of operands.
func (op *Operation) Operands() []*Value {
	vals := make([]*Value, len(op.operands))
	for i, operand := range op.operands {
		vals[i] = operand.value
	}
	return vals
}

// SetOperand replaces the i-th operand.
func (op *Operation) SetOperand(i int, v *Value) {
	op.operands[i].Set(v)
}

// SetOperands replaces the full list of operands.
func (op *Operation) SetOperands(vals []*Value) {
	op.dropOperands()
	op.operands = make([]*OpOperand, len(vals))
	for i, v := range vals {
		use := &OpOperand{owner: op, index: i}
		use.Set(v)
		op.operands[i] = use
	}
}

func (op *Operation) dropOperands() {
	for _, use := range op.operands {
		use.Set(nil)
	}
	op.operands = nil
}

// NumResults returns the number of results.
func (op *Operation) NumResults() int {
	return len(op.results)
}

// Result returns the i-th result.
func (op *Operation) Result(i int) *Value {
	return op.results[i]
}

// Results returns the list of results.
func (op *Operation) Results() []*Value {
	return slices.Clone(op.results)
}

// ResultTypes returns the types of the results.
func (op *Operation) ResultTypes() []Type {
	return TypesOf(op.results)
}

// OperandTypes returns the types of the operands.
func (op *Operation) OperandTypes() []Type {
	return TypesOf(op.Operands())
}

// Attr returns an attribute given its name.
func (op *Operation) Attr(name string) (Attribute, bool) {
	return op.attrs.Load(name)
}

// HasAttr returns true if the operation carries an attribute.
func (op *Operation) HasAttr(name string) bool {
	return op.attrs.Has(name)
}

// SetAttr sets the value of an attribute.
func (op *Operation) SetAttr(name string, attr Attribute) {
	op.attrs.Store(name, attr)
}

// RemoveAttr removes an attribute.
func (op *Operation) RemoveAttr(name string) bool {
	return op.attrs.Delete(name)
}

// Attrs returns the attributes of the operation in insertion order.
func (op *Operation) Attrs() []NamedAttr {
	var attrs []NamedAttr
	for name, attr := range op.attrs.Iter() {
		attrs = append(attrs, NamedAttr{Name: name, Value: attr})
	}
	return attrs
}

// NumRegions returns the number of regions.
func (op *Operation) NumRegions() int {
	return len(op.regions)
}

// Region returns the i-th region.
func (op *Operation) Region(i int) *Region {
	return op.regions[i]
}

// Regions returns the regions of the operation.
func (op *Operation) Regions() []*Region {
	return slices.Clone(op.regions)
}

// Block returns the block containing the operation or nil.
func (op *Operation) Block() *Block {
	return op.block
}

// ParentOp returns the operation owning the block containing the operation.
func (op *Operation) ParentOp() *Operation {
	if op.block == nil {
		return nil
	}
	return op.block.ParentOp()
}

// ParentOfName returns the closest ancestor with a given name.
func (op *Operation) ParentOfName(name string) *Operation {
	for parent := op.ParentOp(); parent != nil; parent = parent.ParentOp() {
		if parent.name == name {
			return parent
		}
	}
	return nil
}

// IsAncestor returns true if op is other or contains other.
func (op *Operation) IsAncestor(other *Operation) bool {
	for ; other != nil; other = other.ParentOp() {
		if other == op {
			return true
		}
	}
	return false
}

// IsErased returns true if the operation has been erased.
func (op *Operation) IsErased() bool {
	return op.erased
}

// Users returns the operations using any of the results.
func (op *Operation) Users() []*Operation {
	var users []*Operation
	for _, res := range op.results {
		for _, user := range res.Users() {
			if !slices.Contains(users, user) {
				users = append(users, user)
			}
		}
	}
	return users
}

// UseEmpty returns true if no result is used.
func (op *Operation) UseEmpty() bool {
	for _, res := range op.results {
		if !res.UseEmpty() {
			return false
		}
	}
	return true
}

// Remove detaches the operation from its block without erasing it.
func (op *Operation) Remove() {
	if op.block == nil {
		return
	}
	op.block.remove(op)
}

// MoveBefore moves the operation before another operation.
func (op *Operation) MoveBefore(other *Operation) {
	op.Remove()
	other.block.insertBefore(op, other)
}

// Erase removes the operation from its block and drops all its uses.
// The results of the operation must not have any use left.
func (op *Operation) Erase() {
	if !op.UseEmpty() {
		panic(errors.Errorf("cannot erase %s: its results are still in use", op.name))
	}
	op.erase()
}

func (op *Operation) erase() {
	for _, region := range op.regions {
		region.dropAllReferences()
	}
	for _, region := range op.regions {
		region.eraseAll()
	}
	op.dropOperands()
	op.Remove()
	op.erased = true
}

// DropAllReferences drops the operands of the operation and of all the nested operations.
func (op *Operation) DropAllReferences() {
	op.dropOperands()
	for _, region := range op.regions {
		region.dropAllReferences()
	}
}

// Walk calls f on the operation and all nested operations, parents after children.
// The nested operations are collected before f is called so that f can erase operations.
func (op *Operation) Walk(f func(*Operation)) {
	for _, nested := range PostOrder(op) {
		if nested.erased {
			continue
		}
		f(nested)
	}
}
