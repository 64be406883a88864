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

	"github.com/oleiade/lane"
)

// PreOrder returns the operation and all the operations nested in its regions,
// parents before children, in program order.
func PreOrder(root *Operation) []*Operation {
	var ops []*Operation
	st := lane.NewStack()
	for st.Push(root); !st.Empty(); {
		op := st.Pop().(*Operation)
		ops = append(ops, op)
		var nested []*Operation
		for _, region := range op.regions {
			for _, block := range region.blocks {
				nested = append(nested, block.ops...)
			}
		}
		for i := len(nested) - 1; i >= 0; i-- {
			st.Push(nested[i])
		}
	}
	return ops
}

// PostOrder returns the operation and all the operations nested in its regions,
// children before parents.
func PostOrder(root *Operation) []*Operation {
	var ops []*Operation
	for _, region := range root.regions {
		for _, block := range region.blocks {
			for _, op := range block.ops {
				ops = append(ops, PostOrder(op)...)
			}
		}
	}
	return append(ops, root)
}

// Collect returns the operations nested in root, root excluded,
// in pre-order for which f returns true.
func Collect(root *Operation, f func(*Operation) bool) []*Operation {
	all := PreOrder(root)[1:]
	return slices.DeleteFunc(all, func(op *Operation) bool {
		return !f(op)
	})
}

// CollectByName returns the operations nested in root with a given name.
func CollectByName(root *Operation, name string) []*Operation {
	return Collect(root, func(op *Operation) bool {
		return op.name == name
	})
}
