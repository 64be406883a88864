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

package stencil_test

import (
	"testing"

	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil"
	"github.com/google/go-cmp/cmp"
)

func TestComputeStrides(t *testing.T) {
	tests := []struct {
		shape []int64
		want  []int64
	}{
		{shape: []int64{4, 5, 6}, want: []int64{1, 4, 20}},
		{shape: []int64{7}, want: []int64{1}},
		{shape: []int64{0, 5, 6}, want: []int64{1, 0, 0}},
		{shape: []int64{3, 0, 2}, want: []int64{1, 3, 0}},
		{shape: nil, want: nil},
	}
	for _, test := range tests {
		got := stencil.ComputeStrides(test.shape)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("ComputeStrides(%v): unexpected strides (-want +got):\n%s", test.shape, diff)
		}
	}
}

func TestComputeOffset(t *testing.T) {
	got, err := stencil.ComputeOffset([]int64{1, 2, 3}, []int64{1, 4, 20})
	if err != nil {
		t.Fatal(err)
	}
	if got != 69 {
		t.Errorf("got offset %d but want 69", got)
	}
	if _, err := stencil.ComputeOffset([]int64{1, 2}, []int64{1, 4, 20}); err == nil {
		t.Errorf("expected an error for offset and strides of different lengths")
	}
}

func TestShapeOf(t *testing.T) {
	ignore := int64(stencil.IgnoreDimension)
	tests := []struct {
		lb, ub stencil.Index
		want   []int64
	}{
		{lb: stencil.Index{0, 0, 0}, ub: stencil.Index{64, 64, 60}, want: []int64{64, 64, 60}},
		{lb: stencil.Index{-3, -3, 0}, ub: stencil.Index{67, 67, 60}, want: []int64{70, 70, 60}},
		{lb: stencil.Index{2, 2, 2}, ub: stencil.Index{2, 5, 2}, want: []int64{0, 3, 0}},
		{lb: stencil.Index{0, ignore, 0}, ub: stencil.Index{8, ignore, 4}, want: []int64{8, 4}},
	}
	for _, test := range tests {
		got := stencil.ShapeOf(test.lb, test.ub)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("ShapeOf(%v, %v): unexpected shape (-want +got):\n%s", test.lb, test.ub, diff)
		}
		for _, x := range got {
			if x < 0 {
				t.Errorf("ShapeOf(%v, %v) = %v: negative extent", test.lb, test.ub, got)
			}
		}
		if strides := stencil.ComputeStrides(got); len(strides) != len(got) {
			t.Errorf("got %d strides for shape %v", len(strides), got)
		}
	}
}

func TestSubtract(t *testing.T) {
	ignore := int64(stencil.IgnoreDimension)
	got := stencil.Subtract(stencil.Index{1, ignore, 5}, stencil.Index{-1, 2, 3})
	want := stencil.Index{2, ignore, 2}
	if !got.Equal(want) {
		t.Errorf("got %v but want %v", got, want)
	}
}
