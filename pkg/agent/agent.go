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

// Package agent implements one named actor (C4): a function table, LLM
// configuration, and a lifecycle gate, dispatched through a single entry
// point, execute_function, exactly per spec.md §4.4. An Agent holds no tools
// of its own; it only counts tool executions reported to it. *Agent is a
// plain concrete struct rather than the teacher's deep Agent/Checkpointable
// interface chain; the Executor/SchemaProvider capability interfaces live in
// pkg/tool.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/schema"
	"golang.org/x/sync/semaphore"
)

// LLMConfig is the per-agent inference configuration (spec.md §3 "Agent").
type LLMConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Endpoint    string
}

// Function is one named, agent-bound capability (spec.md §3 "Function").
type Function struct {
	Name        string
	Description string
	Params      schema.Schema
	Timeout     time.Duration
	Handler     func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult
}

// Statistics tracks per-agent execution counters (spec.md §3 "Agent").
type Statistics struct {
	FunctionsExecuted int64
	ToolsExecuted     int64
	PlansCreated      int64
	AverageExecMS     float64
	LastActivity      time.Time

	totalExecMS float64
}

// Config is the set of attributes an Agent Manager applies when it builds
// an Agent (spec.md §4.5 "create").
type Config struct {
	Type              string
	Capabilities      []string
	SystemPrompt      string
	LLM               LLMConfig
	MaxConcurrentJobs int
	HeartbeatInterval time.Duration
}

// Agent is a stateful actor with a function table (spec.md §3/§4.4).
type Agent struct {
	ID   string
	Name string
	cfg  Config

	mu        sync.RWMutex
	running   bool
	functions map[string]*Function
	stats     Statistics

	sem *semaphore.Weighted
}

// New builds an Agent. It is not started; callers must call Start.
func New(id, name string, cfg Config) *Agent {
	maxJobs := cfg.MaxConcurrentJobs
	if maxJobs <= 0 {
		maxJobs = 5
	}
	return &Agent{
		ID:        id,
		Name:      name,
		cfg:       cfg,
		functions: make(map[string]*Function),
		sem:       semaphore.NewWeighted(int64(maxJobs)),
	}
}

// RegisterFunction adds fn to the agent's function table.
func (a *Agent) RegisterFunction(fn *Function) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.functions[fn.Name] = fn
}

// Start flips the agent into the running state, accepting calls.
func (a *Agent) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = true
}

// Stop flips the agent out of the running state.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
}

// IsRunning reports whether the agent currently accepts calls.
func (a *Agent) IsRunning() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.running
}

// ExecuteFunction is the single dispatch entry point (spec.md §4.4,
// steps 1-7).
func (a *Agent) ExecuteFunction(ctx context.Context, name string, params *agentdata.AgentData) agentdata.FunctionResult {
	if !a.IsRunning() {
		return agentdata.Fail("agent not running")
	}

	a.mu.RLock()
	fn, ok := a.functions[name]
	a.mu.RUnlock()
	if !ok {
		return agentdata.Fail(fmt.Sprintf("function '%s' not found", name))
	}

	if msg := fn.Params.Validate(params); msg != "" {
		return agentdata.Fail("invalid parameters: " + msg)
	}

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return agentdata.Fail(fmt.Sprintf("acquiring concurrency slot: %v", err))
	}
	defer a.sem.Release(1)

	result := a.invoke(ctx, fn, params)
	return result
}

// invoke records timing/statistics around fn's handler and recovers a
// handler panic into a failed FunctionResult (spec.md §4.4 step 6).
func (a *Agent) invoke(ctx context.Context, fn *Function, params *agentdata.AgentData) (result agentdata.FunctionResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = agentdata.Fail(fmt.Sprintf("%v", r))
		}
		a.recordStats(time.Since(start))
	}()

	return fn.Handler(ctx, fn.Params.WithDefaults(params))
}

func (a *Agent) recordStats(elapsed time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.FunctionsExecuted++
	a.stats.totalExecMS += float64(elapsed.Microseconds()) / 1000.0
	a.stats.AverageExecMS = a.stats.totalExecMS / float64(a.stats.FunctionsExecuted)
	a.stats.LastActivity = time.Now()
}

// RecordToolExecution increments the tools-executed counter; called by
// whatever layer routes an agent's tool calls through pkg/tool.
func (a *Agent) RecordToolExecution() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.ToolsExecuted++
	a.stats.LastActivity = time.Now()
}

// RecordPlanCreated increments the plans-created counter.
func (a *Agent) RecordPlanCreated() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.PlansCreated++
}

// GetCapabilities returns the agent's declared capability strings.
func (a *Agent) GetCapabilities() []string { return a.cfg.Capabilities }

// GetFunctionNames returns the names of every registered function.
func (a *Agent) GetFunctionNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.functions))
	for n := range a.functions {
		names = append(names, n)
	}
	return names
}

// GetStatistics returns a snapshot of the agent's execution statistics.
func (a *Agent) GetStatistics() Statistics {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}

// GetFunction looks up a function by name, for callers (e.g. the workflow
// engine) that need to inspect it before dispatch.
func (a *Agent) GetFunction(name string) (*Function, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	fn, ok := a.functions[name]
	return fn, ok
}

// GetInfo renders a summary AgentData suitable for listing endpoints
// (spec.md §4.4 "get_info").
func (a *Agent) GetInfo() *agentdata.AgentData {
	info := agentdata.New()
	info.SetString("id", a.ID)
	info.SetString("name", a.Name)
	info.SetString("type", a.cfg.Type)
	info.SetBool("running", a.IsRunning())

	caps := make([]agentdata.Value, 0, len(a.cfg.Capabilities))
	for _, c := range a.cfg.Capabilities {
		caps = append(caps, agentdata.String(c))
	}
	info.Set("capabilities", agentdata.ListOf(caps))

	names := a.GetFunctionNames()
	fns := make([]agentdata.Value, 0, len(names))
	for _, n := range names {
		fns = append(fns, agentdata.String(n))
	}
	info.Set("functions", agentdata.ListOf(fns))

	stats := a.GetStatistics()
	statsData := agentdata.New()
	statsData.SetInt("functions_executed", stats.FunctionsExecuted)
	statsData.SetInt("tools_executed", stats.ToolsExecuted)
	statsData.SetInt("plans_created", stats.PlansCreated)
	statsData.SetFloat("average_exec_ms", stats.AverageExecMS)
	info.SetData("statistics", statsData)

	return info
}
