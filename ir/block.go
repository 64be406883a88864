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
	// Block is a list of operations with arguments.
	Block struct {
		args   []*Value
		ops    []*Operation
		region *Region
	}

	// Region is a list of blocks owned by an operation.
	Region struct {
		blocks []*Block
		parent *Operation
	}
)

// NewBlock returns a new block with arguments of the given types.
func NewBlock(argTypes ...Type) *Block {
	b := &Block{}
	for _, typ := range argTypes {
		b.AddArgument(typ)
	}
	return b
}

// AddArgument appends an argument to the block.
func (b *Block) AddArgument(typ Type) *Value {
	arg := &Value{typ: typ, block: b, index: len(b.args)}
	b.args = append(b.args, arg)
	return arg
}

// EraseArgument removes an argument without any use.
func (b *Block) EraseArgument(i int) {
	b.args = slices.Delete(b.args, i, i+1)
	for j := i; j < len(b.args); j++ {
		b.args[j].index = j
	}
}

// NumArgs returns the number of arguments.
func (b *Block) NumArgs() int {
	return len(b.args)
}

// Arg returns the i-th argument.
func (b *Block) Arg(i int) *Value {
	return b.args[i]
}

// Args returns the arguments of the block.
func (b *Block) Args() []*Value {
	return slices.Clone(b.args)
}

// Operations returns the operations in the block.
func (b *Block) Operations() []*Operation {
	return slices.Clone(b.ops)
}

// Len returns the number of operations in the block.
func (b *Block) Len() int {
	return len(b.ops)
}

// Empty returns true if the block has no operation.
func (b *Block) Empty() bool {
	return len(b.ops) == 0
}

// Terminator returns the last operation of the block or nil.
func (b *Block) Terminator() *Operation {
	if len(b.ops) == 0 {
		return nil
	}
	return b.ops[len(b.ops)-1]
}

// Region returns the region containing the block.
func (b *Block) Region() *Region {
	return b.region
}

// ParentOp returns the operation owning the region containing the block.
func (b *Block) ParentOp() *Operation {
	if b.region == nil {
		return nil
	}
	return b.region.parent
}

// IndexOf returns the position of an operation in the block or -1.
func (b *Block) IndexOf(op *Operation) int {
	return slices.Index(b.ops, op)
}

// Append an operation at the end of the block.
func (b *Block) Append(op *Operation) {
	b.insertAt(len(b.ops), op)
}

func (b *Block) insertBefore(op, before *Operation) {
	if before == nil {
		b.Append(op)
		return
	}
	b.insertAt(b.IndexOf(before), op)
}

func (b *Block) insertAt(i int, op *Operation) {
	if op.block != nil {
		op.Remove()
	}
	b.ops = slices.Insert(b.ops, i, op)
	op.block = b
}

func (b *Block) remove(op *Operation) {
	i := b.IndexOf(op)
	if i < 0 {
		return
	}
	b.ops = slices.Delete(b.ops, i, i+1)
	op.block = nil
}

// Blocks returns the blocks of the region.
func (r *Region) Blocks() []*Block {
	return slices.Clone(r.blocks)
}

// Empty returns true if the region has no block.
func (r *Region) Empty() bool {
	return len(r.blocks) == 0
}

// Front returns the first block of the region or nil.
func (r *Region) Front() *Block {
	if len(r.blocks) == 0 {
		return nil
	}
	return r.blocks[0]
}

// ParentOp returns the operation owning the region.
func (r *Region) ParentOp() *Operation {
	return r.parent
}

// Append a block at the end of the region.
func (r *Region) Append(b *Block) {
	if b.region != nil {
		b.region.removeBlock(b)
	}
	b.region = r
	r.blocks = append(r.blocks, b)
}

func (r *Region) removeBlock(b *Block) {
	i := slices.Index(r.blocks, b)
	if i < 0 {
		return
	}
	r.blocks = slices.Delete(r.blocks, i, i+1)
	b.region = nil
}

// TakeBody moves all the blocks of another region at the end of this region.
func (r *Region) TakeBody(other *Region) {
	for _, b := range other.Blocks() {
		r.Append(b)
	}
}

func (r *Region) dropAllReferences() {
	for _, b := range r.blocks {
		for _, op := range b.ops {
			op.DropAllReferences()
		}
	}
}

func (r *Region) eraseAll() {
	for _, b := range r.blocks {
		for _, op := range slices.Clone(b.ops) {
			for _, res := range op.results {
				res.uses = nil
			}
			op.erase()
		}
		for _, arg := range b.args {
			arg.uses = nil
		}
	}
	r.blocks = nil
}
