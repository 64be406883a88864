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

// Package scope provides nested namespaces mapping names to values.
// Symbol tables of modules are scopes of operations.
package scope

import (
	"fmt"
	"iter"
	"strings"

	"github.com/JackMoriarty/open-earth-compiler/base/ordered"
	"github.com/pkg/errors"
)

type (
	// Scope provides a set of values that can be found given their name.
	Scope[V any] interface {
		Find(string) (V, bool)
		Items() *ordered.Map[string, V]
	}

	roScope[V any] struct {
		parent Scope[V]
		local  *ordered.Map[string, V]
	}
)

func find[V any](key string, local *ordered.Map[string, V], parent Scope[V]) (value V, ok bool) {
	value, ok = local.Load(key)
	if ok || parent == nil {
		return
	}
	return parent.Find(key)
}

func mergeItems[V any](parent Scope[V], local *ordered.Map[string, V]) *ordered.Map[string, V] {
	all := ordered.NewMap[string, V]()
	if parent != nil {
		for k, v := range parent.Items().Iter() {
			all.Store(k, v)
		}
	}
	for k, v := range local.Iter() {
		all.Store(k, v)
	}
	return all
}

// Find returns the value associated with key in the scope or its parents.
func (s *roScope[V]) Find(key string) (V, bool) {
	return find(key, s.local, s.parent)
}

// Items returns all the items visible from the scope.
func (s *roScope[V]) Items() *ordered.Map[string, V] {
	return mergeItems(s.parent, s.local)
}

// RWScope stores key,value pairs.
// A value is retrieved from its key by querying the scope and,
// if not found, its parents recursively.
type RWScope[V any] struct {
	parent Scope[V]
	local  *ordered.Map[string, V]
}

var _ Scope[any] = (*RWScope[any])(nil)

// NewScope returns a new scope given a parent, which can be nil.
func NewScope[V any](parent Scope[V]) *RWScope[V] {
	return &RWScope[V]{
		parent: parent,
		local:  ordered.NewMap[string, V](),
	}
}

// NewChild returns a new scope with s as its parent.
func (s *RWScope[V]) NewChild() *RWScope[V] {
	return NewScope[V](s)
}

// Define maps key to value in the local scope, overwriting if necessary.
func (s *RWScope[V]) Define(key string, value V) {
	s.local.Store(key, value)
}

// DefineNew maps key to value in the local scope.
// It fails if the key is already defined locally.
func (s *RWScope[V]) DefineNew(key string, value V) error {
	if s.local.Has(key) {
		return errors.Errorf("%s redefined", key)
	}
	s.local.Store(key, value)
	return nil
}

// Delete removes a key from the local scope.
func (s *RWScope[V]) Delete(key string) error {
	if !s.local.Delete(key) {
		return errors.Errorf("cannot delete %s: not defined in scope", key)
	}
	return nil
}

// Find a key in the scope and its parents.
func (s *RWScope[V]) Find(key string) (V, bool) {
	return find(key, s.local, s.parent)
}

// IsLocal returns true if the key is defined in the local scope.
func (s *RWScope[V]) IsLocal(key string) bool {
	return s.local.Has(key)
}

// LocalKeys returns the keys of the local scope without the parent.
func (s *RWScope[V]) LocalKeys() iter.Seq[string] {
	return s.local.Keys()
}

// Items returns the items of the scope and its parents.
// Local items shadow the items of the parents.
func (s *RWScope[V]) Items() *ordered.Map[string, V] {
	return mergeItems(s.parent, s.local)
}

// ReadOnly returns a view of the scope to which values cannot be defined.
func (s *RWScope[V]) ReadOnly() Scope[V] {
	return &roScope[V]{parent: s.parent, local: s.local}
}

// String representation of the local scope.
func (s *RWScope[V]) String() string {
	if s.local.Size() == 0 {
		return "empty"
	}
	var kvs []string
	for k, v := range s.local.Iter() {
		kvs = append(kvs, fmt.Sprintf("%s: %T", k, v))
	}
	return strings.Join(kvs, "\n")
}
