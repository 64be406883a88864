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

// Mapping maps values of an original IR to values of a cloned IR.
type Mapping struct {
	values map[*Value]*Value
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[*Value]*Value)}
}

// Map records that from is replaced by to.
func (m *Mapping) Map(from, to *Value) {
	m.values[from] = to
}

// MapAll maps a list of values to another list of values of the same length.
func (m *Mapping) MapAll(from, to []*Value) {
	for i, v := range from {
		m.Map(v, to[i])
	}
}

// Lookup returns the value mapped to v or nil.
func (m *Mapping) Lookup(v *Value) *Value {
	return m.values[v]
}

// LookupOrDefault returns the value mapped to v or v itself.
func (m *Mapping) LookupOrDefault(v *Value) *Value {
	if mapped, ok := m.values[v]; ok {
		return mapped
	}
	return v
}

// Clone an operation and all its regions.
// Operands found in the mapping are replaced; results and block arguments
// of the clone are added to the mapping.
func (op *Operation) Clone(mapping *Mapping) *Operation {
	operands := make([]*Value, len(op.operands))
	for i, operand := range op.operands {
		operands[i] = mapping.LookupOrDefault(operand.value)
	}
	cloned := NewOperation(OperationState{
		Name:       op.name,
		Loc:        op.loc,
		Operands:   operands,
		Types:      op.ResultTypes(),
		Attrs:      op.Attrs(),
		NumRegions: len(op.regions),
	})
	mapping.MapAll(op.results, cloned.results)
	for i, region := range op.regions {
		region.CloneInto(cloned.regions[i], mapping)
	}
	return cloned
}

// CloneInto clones the blocks of a region at the end of another region.
func (r *Region) CloneInto(dest *Region, mapping *Mapping) {
	for _, block := range r.blocks {
		cloned := NewBlock(TypesOf(block.args)...)
		mapping.MapAll(block.args, cloned.args)
		dest.Append(cloned)
	}
	blocks := dest.blocks[len(dest.blocks)-len(r.blocks):]
	for i, block := range r.blocks {
		for _, op := range block.ops {
			blocks[i].Append(op.Clone(mapping))
		}
	}
}

// Snapshot returns a deep copy of the operation.
func (op *Operation) Snapshot() *Operation {
	return op.Clone(NewMapping())
}

// Restore replaces the regions and the attributes of the operation
// with the ones of a snapshot. The snapshot cannot be used afterwards.
func (op *Operation) Restore(snapshot *Operation) {
	for _, region := range op.regions {
		region.dropAllReferences()
	}
	for i, region := range op.regions {
		region.eraseAll()
		region.TakeBody(snapshot.regions[i])
	}
	op.attrs = snapshot.attrs.Clone()
}
