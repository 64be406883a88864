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

// Package conversion converts operations from one set of dialects to another.
// A conversion either legalizes every operation of a module or leaves the module unchanged.
package conversion

import (
	"github.com/JackMoriarty/open-earth-compiler/ir"
	"github.com/pkg/errors"
)

// TypeConversion converts a type. It returns false if it does not handle the type.
type TypeConversion func(ir.Type) (ir.Type, bool, error)

// TypeConverter converts types using a list of conversions.
// Conversions are tried from the last added to the first added.
type TypeConverter struct {
	conversions []TypeConversion
}

// AddConversion registers a new type conversion.
func (tc *TypeConverter) AddConversion(conv TypeConversion) {
	tc.conversions = append(tc.conversions, conv)
}

// Identity is a conversion returning any type unchanged.
func Identity(typ ir.Type) (ir.Type, bool, error) {
	return typ, true, nil
}

// Convert a type.
func (tc *TypeConverter) Convert(typ ir.Type) (ir.Type, error) {
	for i := len(tc.conversions) - 1; i >= 0; i-- {
		converted, ok, err := tc.conversions[i](typ)
		if err != nil {
			return nil, err
		}
		if ok {
			return converted, nil
		}
	}
	return nil, errors.Errorf("no conversion for type %s", typ.String())
}

// ConvertTypes converts a list of types.
func (tc *TypeConverter) ConvertTypes(types []ir.Type) ([]ir.Type, error) {
	converted := make([]ir.Type, len(types))
	for i, typ := range types {
		var err error
		if converted[i], err = tc.Convert(typ); err != nil {
			return nil, err
		}
	}
	return converted, nil
}

// IsLegal returns true if the conversion of a type is the type itself.
func (tc *TypeConverter) IsLegal(typ ir.Type) bool {
	converted, err := tc.Convert(typ)
	return err == nil && converted.Equal(typ)
}

// ConvertSignature converts the inputs and the results of a function type.
func (tc *TypeConverter) ConvertSignature(fn *ir.FunctionType) (*ir.FunctionType, error) {
	inputs, err := tc.ConvertTypes(fn.Inputs)
	if err != nil {
		return nil, err
	}
	results, err := tc.ConvertTypes(fn.Results)
	if err != nil {
		return nil, err
	}
	return ir.NewFunctionType(inputs, results), nil
}
