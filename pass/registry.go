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

package pass

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

type (
	// Args are the textual arguments of a pass in a pipeline.
	Args map[string]string

	// Factory creates a pass given its arguments.
	Factory func(opts Options, args Args) (Pass, error)

	// Entry describes a pass available to pipelines.
	Entry struct {
		Description string
		New         Factory
	}

	// Registry maps pass names to their factory.
	Registry map[string]Entry
)

var registered = Registry{}

// Register a pass under a name for pipelines parsed with Parse.
// Registering the same name twice panics.
func Register(name, description string, factory Factory) {
	if _, ok := registered[name]; ok {
		panic(errors.Errorf("pass %s already registered", name))
	}
	registered[name] = Entry{Description: description, New: factory}
}

// Registered returns the names of the registered passes, sorted.
func Registered() []string {
	return registered.Names()
}

// Describe returns the description of a registered pass.
func Describe(name string) (string, bool) {
	entry, ok := registered[name]
	return entry.Description, ok
}

// Parse builds a pass manager from a textual pipeline using the registered passes.
func Parse(pipeline string, opts Options) (*Manager, error) {
	return registered.Parse(pipeline, opts)
}

// Names returns the names of the registered passes, sorted.
func (r Registry) Names() []string {
	keys := maps.Keys(r)
	sort.Strings(keys)
	return keys
}

// Parse builds a pass manager from a textual pipeline.
// The pipeline is a comma-separated list of pass names,
// each optionally followed by arguments: name{key=value,key2=value2}.
func (r Registry) Parse(pipeline string, opts Options) (*Manager, error) {
	m := NewManager(opts)
	elements, err := splitPipeline(pipeline)
	if err != nil {
		return nil, err
	}
	for _, element := range elements {
		name, args, err := parseElement(element)
		if err != nil {
			return nil, err
		}
		entry, ok := r[name]
		if !ok {
			return nil, errors.Errorf("unknown pass %q. Available passes are %v", name, r.Names())
		}
		p, err := entry.New(m.Options(), args)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot create pass %s", name)
		}
		m.Add(p)
	}
	return m, nil
}

func splitPipeline(pipeline string) ([]string, error) {
	var elements []string
	depth, start := 0, 0
	for i, c := range pipeline {
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return nil, errors.Errorf("unbalanced '}' at position %d in pipeline %q", i, pipeline)
			}
		case ',':
			if depth == 0 {
				elements = append(elements, pipeline[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.Errorf("missing '}' in pipeline %q", pipeline)
	}
	elements = append(elements, pipeline[start:])
	var trimmed []string
	for _, element := range elements {
		element = strings.TrimSpace(element)
		if element == "" {
			continue
		}
		trimmed = append(trimmed, element)
	}
	return trimmed, nil
}

func parseElement(element string) (string, Args, error) {
	name, rest, hasArgs := strings.Cut(element, "{")
	name = strings.TrimSpace(name)
	args := Args{}
	if !hasArgs {
		return name, args, nil
	}
	if !strings.HasSuffix(rest, "}") {
		return "", nil, errors.Errorf("invalid arguments for pass %s: %q", name, element)
	}
	rest = strings.TrimSuffix(rest, "}")
	for _, kv := range strings.Split(rest, ",") {
		if strings.TrimSpace(kv) == "" {
			continue
		}
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return "", nil, errors.Errorf("invalid argument %q for pass %s: expected key=value", kv, name)
		}
		args[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return name, args, nil
}

// Check returns an error if the arguments contain a key not in allowed.
func (a Args) Check(allowed ...string) error {
	for _, key := range a.Keys() {
		found := false
		for _, want := range allowed {
			if key == want {
				found = true
				break
			}
		}
		if !found {
			return errors.Errorf("unknown argument %q. Available arguments are %v", key, allowed)
		}
	}
	return nil
}

// Keys returns the argument names, sorted.
func (a Args) Keys() []string {
	keys := maps.Keys(a)
	sort.Strings(keys)
	return keys
}

// Bool returns the value of a boolean argument or def if the argument is absent.
func (a Args) Bool(key string, def bool) (bool, error) {
	s, ok := a[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, errors.Errorf("invalid value %q for argument %s: expected a boolean", s, key)
	}
	return v, nil
}

// Int returns the value of an integer argument or def if the argument is absent.
func (a Args) Int(key string, def int) (int, error) {
	s, ok := a[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("invalid value %q for argument %s: expected an integer", s, key)
	}
	return v, nil
}
