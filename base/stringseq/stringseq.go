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

// Package stringseq provides functions for converting iterator sequences to strings.
package stringseq

import (
	"fmt"
	"iter"
	"strings"
)

// Append appends the elements of its second argument to the given string builder. The separator
// string sep is placed between elements in the resulting string.
func Append(b *strings.Builder, seq iter.Seq[string], sep string) {
	n := 0
	for item := range seq {
		if n > 0 {
			b.WriteString(sep)
		}
		b.WriteString(item)
		n++
	}
}

// JoinStringer concatenates the stringified elements of a slice.
func JoinStringer[T fmt.Stringer](items []T, sep string) string {
	return JoinFunc(items, func(item T) string { return item.String() }, sep)
}

// JoinFunc concatenates the elements of a slice converted to strings by f.
func JoinFunc[T any](items []T, f func(T) string, sep string) string {
	var b strings.Builder
	Append(&b, func(yield func(string) bool) {
		for _, item := range items {
			if !yield(f(item)) {
				return
			}
		}
	}, sep)
	return b.String()
}
