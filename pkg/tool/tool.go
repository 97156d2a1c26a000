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

// Package tool implements the shared, registry-hosted catalog of callable
// tools (C3): a name-unique registry on top of pkg/registry.BaseRegistry,
// with category and tag secondary indices and filtered discovery, exactly
// as spec.md §4.3 describes. Grounded on the teacher's pkg/tool package for
// the Tool/Context shape and pkg/registry for the storage primitive.
package tool

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/registry"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/schema"
)

// Context is passed to a tool's closure at execution time; it carries the
// calling agent's id and whatever ambient values the caller chooses to
// forward (spec.md §3 "Tool ... with ... a tool-context it receives at
// execution").
type Context struct {
	AgentID string
	Values  *agentdata.AgentData
}

// Executor is the capability a Tool composes to run (spec.md §9's
// "Executor" capability interface, replacing the teacher's deep base-class
// chain).
type Executor interface {
	Execute(ctx context.Context, params *agentdata.AgentData, toolCtx Context) agentdata.FunctionResult
}

// SchemaProvider exposes a Tool's declared parameter schema.
type SchemaProvider interface {
	Schema() schema.Schema
}

// Tool is a reusable, registry-hosted callable shared across agents
// (spec.md §3 "Tool").
type Tool struct {
	Name          string
	Description   string
	Category      string
	Tags          []string
	EstimatedCost float64
	params        schema.Schema
	fn            func(ctx context.Context, params *agentdata.AgentData, toolCtx Context) agentdata.FunctionResult
}

// New builds a Tool. fn is the closure invoked on Execute.
func New(name, description, category string, tags []string, cost float64, params schema.Schema,
	fn func(ctx context.Context, params *agentdata.AgentData, toolCtx Context) agentdata.FunctionResult) *Tool {
	return &Tool{
		Name:          name,
		Description:   description,
		Category:      category,
		Tags:          tags,
		EstimatedCost: cost,
		params:        params,
		fn:            fn,
	}
}

// Schema implements SchemaProvider.
func (t *Tool) Schema() schema.Schema { return t.params }

// Execute validates params against the declared schema and, on success,
// invokes the tool's closure; a closure panic is recovered and reported as
// a failed FunctionResult rather than crashing the caller (spec.md §4.3
// "wraps thrown errors into (false, 'Tool execution error: …')").
func (t *Tool) Execute(ctx context.Context, params *agentdata.AgentData, toolCtx Context) (result agentdata.FunctionResult) {
	if msg := t.params.Validate(params); msg != "" {
		return agentdata.Fail("Invalid parameters: " + msg)
	}

	defer func() {
		if r := recover(); r != nil {
			result = agentdata.Fail(fmt.Sprintf("Tool execution error: %v", r))
		}
	}()

	return t.fn(ctx, t.params.WithDefaults(params), toolCtx)
}

// Filter constrains Discover/GetSchemas (spec.md §4.3).
type Filter struct {
	Categories []string
	Tags       []string
	NameRegex  string
	MaxCost    float64 // zero means unbounded
}

func (f Filter) matches(t *Tool) bool {
	if len(f.Categories) > 0 && !containsFold(f.Categories, t.Category) {
		return false
	}
	if len(f.Tags) > 0 && !anyTagMatches(f.Tags, t.Tags) {
		return false
	}
	if f.NameRegex != "" {
		if re, err := regexp.Compile("(?i)" + f.NameRegex); err == nil {
			if !re.MatchString(t.Name) {
				return false
			}
		} else if !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.NameRegex)) {
			return false
		}
	}
	if f.MaxCost > 0 && t.EstimatedCost > f.MaxCost {
		return false
	}
	return true
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func anyTagMatches(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(w, h) {
				return true
			}
		}
	}
	return false
}

// Registry is the C3 tool catalog: name-unique storage plus category/tag
// secondary indices kept up to date on Register/Unregister. Discover and
// GetSchemas do not read the indices; they filter a scan of every tool.
type Registry struct {
	base *registry.BaseRegistry[*Tool]

	mu         sync.RWMutex
	byCategory map[string]map[string]struct{}
	byTag      map[string]map[string]struct{}
}

// NewRegistry builds an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		base:       registry.NewBaseRegistry[*Tool](),
		byCategory: make(map[string]map[string]struct{}),
		byTag:      make(map[string]map[string]struct{}),
	}
}

// Register adds t, failing if a tool of the same name is already present.
func (r *Registry) Register(t *Tool) error {
	if err := r.base.Register(t.Name, t); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexLocked(t)
	return nil
}

func (r *Registry) indexLocked(t *Tool) {
	if t.Category != "" {
		set, ok := r.byCategory[t.Category]
		if !ok {
			set = make(map[string]struct{})
			r.byCategory[t.Category] = set
		}
		set[t.Name] = struct{}{}
	}
	for _, tag := range t.Tags {
		set, ok := r.byTag[tag]
		if !ok {
			set = make(map[string]struct{})
			r.byTag[tag] = set
		}
		set[t.Name] = struct{}{}
	}
}

// Unregister removes the tool named name from the catalog and its indices.
func (r *Registry) Unregister(name string) error {
	t, ok := r.base.Get(name)
	if !ok {
		return fmt.Errorf("tool %q not found", name)
	}
	if err := r.base.Remove(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.byCategory[t.Category]; ok {
		delete(set, name)
	}
	for _, tag := range t.Tags {
		if set, ok := r.byTag[tag]; ok {
			delete(set, name)
		}
	}
	return nil
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) { return r.base.Get(name) }

// Has reports whether a tool named name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.base.Get(name)
	return ok
}

// Discover returns the names of all tools matching filter.
func (r *Registry) Discover(filter Filter) []string {
	names := make([]string, 0)
	for _, t := range r.base.List() {
		if filter.matches(t) {
			names = append(names, t.Name)
		}
	}
	return names
}

// ToolSchema is the JSON-facing description of a tool's declared parameters.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
	Params      []schema.ParamSpec `json:"params"`
}

// GetSchemas returns the schema description of every tool matching filter.
func (r *Registry) GetSchemas(filter Filter) []ToolSchema {
	out := make([]ToolSchema, 0)
	for _, t := range r.base.List() {
		if !filter.matches(t) {
			continue
		}
		out = append(out, ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			Category:    t.Category,
			Tags:        t.Tags,
			Params:      []schema.ParamSpec(t.Schema()),
		})
	}
	return out
}

// Execute looks up name and, if found, runs it; an unknown tool name is
// reported as a failed FunctionResult rather than an error, matching the
// uniform dispatch contract the rest of the runtime relies on.
func (r *Registry) Execute(ctx context.Context, name string, params *agentdata.AgentData, toolCtx Context) agentdata.FunctionResult {
	t, ok := r.base.Get(name)
	if !ok {
		return agentdata.Fail(fmt.Sprintf("tool %q not found", name))
	}
	return t.Execute(ctx, params, toolCtx)
}

// Count returns the number of registered tools.
func (r *Registry) Count() int { return r.base.Count() }
