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

// Package stencil provides the stencil dialect: fields, temporaries,
// and the operations computing temporaries from fields over index ranges.
package stencil

import (
	"math"
	"slices"

	"github.com/pkg/errors"
)

// IndexSize is the number of spatial dimensions.
const IndexSize = 3

// IgnoreDimension marks a dimension of an index that is not iterated.
const IgnoreDimension = math.MinInt64

// Index is a tuple of integers, one per spatial dimension.
type Index []int64

// ComputeStrides returns the strides of a buffer with the first dimension contiguous.
func ComputeStrides(shape []int64) []int64 {
	if len(shape) == 0 {
		return nil
	}
	strides := make([]int64, len(shape))
	strides[0] = 1
	for i := 1; i < len(shape); i++ {
		strides[i] = strides[i-1] * shape[i-1]
	}
	return strides
}

// ComputeOffset linearizes an offset given strides.
func ComputeOffset(offset, strides []int64) (int64, error) {
	if len(offset) != len(strides) {
		return 0, errors.Errorf("cannot linearize offset %v with strides %v: lengths differ", offset, strides)
	}
	var linear int64
	for i, x := range offset {
		linear += x * strides[i]
	}
	return linear, nil
}

// Subtract returns a-b element-wise.
// A dimension ignored in a or b is ignored in the result.
func Subtract(a, b Index) Index {
	r := make(Index, len(a))
	for i := range a {
		if a[i] == IgnoreDimension || b[i] == IgnoreDimension {
			r[i] = IgnoreDimension
			continue
		}
		r[i] = a[i] - b[i]
	}
	return r
}

// FilterIgnored removes the ignored dimensions of an index.
func FilterIgnored(idx Index) []int64 {
	return slices.DeleteFunc(slices.Clone(idx), func(x int64) bool {
		return x == IgnoreDimension
	})
}

// ShapeOf returns the extents ub-lb of the dimensions not ignored.
func ShapeOf(lb, ub Index) []int64 {
	return FilterIgnored(Subtract(ub, lb))
}

// Equal returns true if two indices are identical.
func (idx Index) Equal(other Index) bool {
	return slices.Equal(idx, other)
}
