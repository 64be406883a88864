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

// Package stenciltostd lowers the field accesses of stencil programs to memrefs.
package stenciltostd

import (
	"github.com/JackMoriarty/open-earth-compiler/dialect/std"
	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil"
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/JackMoriarty/open-earth-compiler/ir/conversion"
	"github.com/pkg/errors"
)

// NewTypeConverter returns a converter mapping fields to memrefs.
// Any other type is kept unchanged.
func NewTypeConverter() *conversion.TypeConverter {
	tc := &conversion.TypeConverter{}
	tc.AddConversion(conversion.Identity)
	tc.AddConversion(convertField)
	return tc
}

// convertField keeps one dynamic extent per dynamic dimension of a field.
// Scalar dimensions are dropped.
func convertField(typ ir.Type) (ir.Type, bool, error) {
	field, ok := typ.(*stencil.FieldType)
	if !ok {
		return nil, false, nil
	}
	var shape []int64
	for _, dim := range field.Shape {
		switch {
		case stencil.IsDynamic(dim):
			shape = append(shape, std.DynamicSize)
		case stencil.IsScalar(dim):
		default:
			return nil, false, errors.Errorf("%s: expected fields to have a dynamic shape", field)
		}
	}
	return std.NewMemRefType(field.Elem, shape), true, nil
}
