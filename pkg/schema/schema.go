// Copyright 2025 Kadir Pekel
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

// Package schema describes the declared parameter shape of a Function or
// Tool (spec.md §3 "Function": "declared parameter schema (list of {name,
// type tag, required?, default, enum?})") and validates an AgentData
// argument bag against it. It replaces the teacher's reflection-driven
// invopop/jsonschema generation (pkg/component/tool.go) with the small
// hand-described parameter list the spec calls for — there is no Go struct
// to derive a schema from here, only a closure and a declared shape.
package schema

import (
	"fmt"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
)

// ParamSpec describes one declared parameter of a Function or Tool.
type ParamSpec struct {
	Name     string
	Type     agentdata.Kind
	Required bool
	Default  *agentdata.Value
	Enum     []string
}

// Schema is an ordered list of declared parameters.
type Schema []ParamSpec

// Validate checks params against s: every required parameter must be
// present with the declared type tag; an enum-constrained string parameter
// must match one of its allowed values. It returns a human-readable mismatch
// description, or "" if params is valid.
func (s Schema) Validate(params *agentdata.AgentData) string {
	if params == nil {
		params = agentdata.New()
	}
	for _, spec := range s {
		v, ok := params.Get(spec.Name)
		if !ok {
			if spec.Required {
				return fmt.Sprintf("missing required parameter %q", spec.Name)
			}
			continue
		}
		if v.Kind() != spec.Type {
			return fmt.Sprintf("parameter %q: expected type %q, got %q", spec.Name, spec.Type, v.Kind())
		}
		if len(spec.Enum) > 0 {
			sv, _ := v.AsString()
			if !contains(spec.Enum, sv) {
				return fmt.Sprintf("parameter %q: value %q not in allowed set %v", spec.Name, sv, spec.Enum)
			}
		}
	}
	return ""
}

// WithDefaults returns a copy of params with every declared default filled
// in for parameters the caller omitted.
func (s Schema) WithDefaults(params *agentdata.AgentData) *agentdata.AgentData {
	out := agentdata.New()
	if params != nil {
		out = params.Clone()
	}
	for _, spec := range s {
		if spec.Default == nil {
			continue
		}
		if !out.Has(spec.Name) {
			out.Set(spec.Name, *spec.Default)
		}
	}
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
