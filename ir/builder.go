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

type (
	// Listener is notified when a builder inserts an operation.
	Listener interface {
		OperationInserted(op *Operation)
	}

	// InsertPoint is a position in a block.
	// A nil before operation inserts at the end of the block.
	InsertPoint struct {
		block  *Block
		before *Operation
	}

	// Builder creates operations at an insertion point.
	Builder struct {
		ip       InsertPoint
		listener Listener
	}
)

// NewBuilder returns a builder without insertion point.
func NewBuilder() *Builder {
	return &Builder{}
}

// SetListener sets the listener notified on every insertion.
func (b *Builder) SetListener(l Listener) {
	b.listener = l
}

// SetInsertionPointBefore sets the insertion point just before an operation.
func (b *Builder) SetInsertionPointBefore(op *Operation) {
	b.ip = InsertPoint{block: op.block, before: op}
}

// SetInsertionPointAfter sets the insertion point just after an operation.
func (b *Builder) SetInsertionPointAfter(op *Operation) {
	block := op.block
	i := block.IndexOf(op)
	var next *Operation
	if i+1 < len(block.ops) {
		next = block.ops[i+1]
	}
	b.ip = InsertPoint{block: block, before: next}
}

// SetInsertionPointToStart sets the insertion point to the beginning of a block.
func (b *Builder) SetInsertionPointToStart(block *Block) {
	var first *Operation
	if len(block.ops) > 0 {
		first = block.ops[0]
	}
	b.ip = InsertPoint{block: block, before: first}
}

// SetInsertionPointToEnd sets the insertion point to the end of a block.
func (b *Builder) SetInsertionPointToEnd(block *Block) {
	b.ip = InsertPoint{block: block}
}

// InsertionBlock returns the block in which operations are inserted.
func (b *Builder) InsertionBlock() *Block {
	return b.ip.block
}

// Save returns the current insertion point.
func (b *Builder) Save() InsertPoint {
	return b.ip
}

// Restore an insertion point previously returned by Save.
func (b *Builder) Restore(ip InsertPoint) {
	b.ip = ip
}

// Insert an operation at the insertion point.
func (b *Builder) Insert(op *Operation) *Operation {
	if b.ip.block == nil {
		return op
	}
	b.ip.block.insertBefore(op, b.ip.before)
	if b.listener != nil {
		b.listener.OperationInserted(op)
	}
	return op
}

// Create an operation and insert it at the insertion point.
func (b *Builder) Create(st OperationState) *Operation {
	return b.Insert(NewOperation(st))
}

// CreateBlock creates a block at the end of a region and moves
// the insertion point to its end.
func (b *Builder) CreateBlock(region *Region, argTypes ...Type) *Block {
	block := NewBlock(argTypes...)
	region.Append(block)
	b.SetInsertionPointToEnd(block)
	return block
}

// Clone an operation using the mapping and insert it at the insertion point.
func (b *Builder) Clone(op *Operation, mapping *Mapping) *Operation {
	cloned := op.Clone(mapping)
	b.Insert(cloned)
	if b.listener != nil {
		for _, nested := range PreOrder(cloned)[1:] {
			b.listener.OperationInserted(nested)
		}
	}
	return cloned
}
