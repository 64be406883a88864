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

package scope_test

import (
	"slices"
	"testing"

	"github.com/JackMoriarty/open-earth-compiler/internal/base/scope"
	"github.com/google/go-cmp/cmp"
)

func TestDefine(t *testing.T) {
	s := scope.NewScope[int](nil)
	s.Define("x", 1)
	s.Define("y", 2)
	if value, ok := s.Find("x"); value != 1 || !ok {
		t.Errorf("Find('x') = %v, %v, want 1, true", value, ok)
	}
	if value, ok := s.Find("y"); value != 2 || !ok {
		t.Errorf("Find('y') = %v, %v, want 2, true", value, ok)
	}
	if value, ok := s.Find("z"); value != 0 || ok {
		t.Errorf("Find('z') = %v, %v, want 0, false", value, ok)
	}
	if err := s.DefineNew("x", 3); err == nil {
		t.Errorf("DefineNew('x') succeeded, expected failure")
	}
}

func TestDelete(t *testing.T) {
	s := scope.NewScope[int](nil)
	s.Define("x", 1)
	if err := s.Delete("x"); err != nil {
		t.Error(err)
	}
	if err := s.Delete("y"); err == nil {
		t.Error("Delete() succeeded, expected failure")
	}
	if value, ok := s.Find("x"); value != 0 || ok {
		t.Errorf("Find('x') = %v, %v, want 0, false", value, ok)
	}
}

func TestNestedScope(t *testing.T) {
	s1 := scope.NewScope[int](nil)
	s1.Define("x", 1)
	s1.Define("z", 20)
	s2 := s1.NewChild()
	s2.Define("x", 10)
	s2.Define("y", 2)
	if value, ok := s1.Find("y"); ok {
		t.Errorf("s1.Find('y') = %v, %v, want 0, false", value, ok)
	}
	if value, ok := s2.Find("x"); value != 10 || !ok {
		t.Errorf("s2.Find('x') = %v, %v, want 10, true", value, ok)
	}
	if value, ok := s2.ReadOnly().Find("z"); value != 20 || !ok {
		t.Errorf("s2.Find('z') = %v, %v, want 20, true", value, ok)
	}
	if s2.IsLocal("z") {
		t.Errorf("z should not be local to s2")
	}
	got := slices.Collect(s2.Items().Keys())
	if diff := cmp.Diff([]string{"x", "z", "y"}, got); diff != "" {
		t.Errorf("unexpected items (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"x", "y"}, slices.Collect(s2.LocalKeys())); diff != "" {
		t.Errorf("unexpected local keys (-want +got):\n%s", diff)
	}
}
