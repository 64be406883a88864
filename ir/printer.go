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
	"fmt"
	"strconv"
	"strings"

	oecfmt "github.com/JackMoriarty/open-earth-compiler/base/fmt"
	"github.com/JackMoriarty/open-earth-compiler/base/stringseq"
)

type printer struct {
	names   map[*Value]string
	numVals int
	numArgs int
}

// Print returns the generic textual form of an operation and its regions.
// Values are numbered in the order in which they are printed.
func Print(op *Operation) string {
	p := &printer{names: make(map[*Value]string)}
	return p.op(op)
}

// String returns the generic textual form of the operation.
func (op *Operation) String() string {
	return Print(op)
}

func (p *printer) name(v *Value) string {
	if v == nil {
		return "<<null>>"
	}
	if name, ok := p.names[v]; ok {
		return name
	}
	return "<<unknown>>"
}

func (p *printer) define(v *Value) string {
	var name string
	if v.IsBlockArgument() {
		name = fmt.Sprintf("%%arg%d", p.numArgs)
		p.numArgs++
	} else {
		name = fmt.Sprintf("%%%d", p.numVals)
		p.numVals++
	}
	p.names[v] = name
	return name
}

func typeList(types []Type) string {
	if len(types) == 1 {
		if _, isFunc := types[0].(*FunctionType); !isFunc {
			return types[0].String()
		}
	}
	return "(" + stringseq.JoinStringer(types, ", ") + ")"
}

func (p *printer) op(op *Operation) string {
	var s strings.Builder
	if len(op.results) > 0 {
		s.WriteString(stringseq.JoinFunc(op.results, p.define, ", "))
		s.WriteString(" = ")
	}
	s.WriteString(strconv.Quote(op.name))
	s.WriteString("(")
	s.WriteString(stringseq.JoinFunc(op.Operands(), p.name, ", "))
	s.WriteString(")")
	if len(op.regions) > 0 {
		s.WriteString(" (")
		s.WriteString(stringseq.JoinFunc(op.regions, p.region, ", "))
		s.WriteString(")")
	}
	if op.attrs.Size() > 0 {
		s.WriteString(" {")
		s.WriteString(stringseq.JoinFunc(op.Attrs(), func(attr NamedAttr) string {
			if _, isUnit := attr.Value.(UnitAttr); isUnit {
				return attr.Name
			}
			return attr.Name + " = " + attr.Value.String()
		}, ", "))
		s.WriteString("}")
	}
	s.WriteString(" : (")
	s.WriteString(stringseq.JoinStringer(op.OperandTypes(), ", "))
	s.WriteString(") -> ")
	s.WriteString(typeList(op.ResultTypes()))
	return s.String()
}

func (p *printer) region(r *Region) string {
	var s strings.Builder
	s.WriteString("{\n")
	for i, block := range r.blocks {
		if i > 0 || len(block.args) > 0 {
			s.WriteString(fmt.Sprintf("^bb%d", i))
			if len(block.args) > 0 {
				s.WriteString("(")
				s.WriteString(stringseq.JoinFunc(block.args, func(arg *Value) string {
					return p.define(arg) + ": " + arg.typ.String()
				}, ", "))
				s.WriteString(")")
			}
			s.WriteString(":\n")
		}
		var body strings.Builder
		for _, op := range block.ops {
			body.WriteString(p.op(op))
			body.WriteString("\n")
		}
		s.WriteString(oecfmt.Indent(body.String()))
	}
	s.WriteString("}")
	return s.String()
}
