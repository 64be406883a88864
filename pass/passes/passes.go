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

// Package passes registers the passes of the compiler so that
// they can be referred to by name in textual pipelines.
package passes

import (
	"github.com/JackMoriarty/open-earth-compiler/conversion/kerneltocuda"
	"github.com/JackMoriarty/open-earth-compiler/conversion/stenciltostd"
	"github.com/JackMoriarty/open-earth-compiler/dialect/stencil/combinetoifelse"
	"github.com/JackMoriarty/open-earth-compiler/pass"
)

func init() {
	pass.Register(stenciltostd.PassName,
		"Lower stencil programs to the standard dialect",
		stenciltostd.NewFromArgs)
	pass.Register(combinetoifelse.PassName,
		"Lower combine operations to conditionals",
		combinetoifelse.NewFromArgs)
	pass.Register(kerneltocuda.PassName,
		"Lower kernel launches to calls to the CUDA runtime",
		kerneltocuda.NewFromArgs)
}
