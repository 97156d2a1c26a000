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

// Package agentmanager owns every Agent in the runtime under a single
// mutex-guarded id map (C5), exactly per spec.md §4.5: create/start/stop/
// delete/get/find-by-name/list/execute/stop-all, plus the StartMany/
// StopMany batch helpers original_source's AsyncAgentService::
// bulk_agent_operation covers (SPEC_FULL.md §14). Adapted from the
// teacher's pkg/registry id-map pattern, specialized to *agent.Agent.
package agentmanager

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agent"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
)

// Manager owns all Agents, keyed by id, and enforces name uniqueness.
type Manager struct {
	mu     sync.Mutex
	agents map[string]*agent.Agent
	byName map[string]string // name -> id
}

// New builds an empty Manager.
func New() *Manager {
	return &Manager{
		agents: make(map[string]*agent.Agent),
		byName: make(map[string]string),
	}
}

// Create builds a fresh Agent with a generated id and registers it. name
// must be unique among currently-held agents (spec.md §3 "name→id mapping
// is unique within an Agent Manager").
func (m *Manager) Create(name string, cfg agent.Config) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byName[name]; exists {
		return "", fmt.Errorf("agent name %q already in use", name)
	}

	id := uuid.NewString()
	a := agent.New(id, name, cfg)
	m.agents[id] = a
	m.byName[name] = id
	return id, nil
}

// Start starts the agent identified by id, returning false if it does not
// exist.
func (m *Manager) Start(id string) bool {
	a, ok := m.get(id)
	if !ok {
		return false
	}
	a.Start()
	return true
}

// Stop stops the agent identified by id.
func (m *Manager) Stop(id string) bool {
	a, ok := m.get(id)
	if !ok {
		return false
	}
	a.Stop()
	return true
}

// Delete stops then removes the agent identified by id.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.agents[id]
	if !ok {
		return false
	}
	a.Stop()
	delete(m.agents, id)
	delete(m.byName, a.Name)
	return true
}

// Get looks up an agent by id.
func (m *Manager) Get(id string) (*agent.Agent, bool) {
	return m.get(id)
}

func (m *Manager) get(id string) (*agent.Agent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.agents[id]
	return a, ok
}

// FindByName returns the id of the agent named name, or "" if none exists.
func (m *Manager) FindByName(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byName[name]
}

// List renders the AgentData shape spec.md §4.5 names:
// {agents: [...], total_count, running_count}.
func (m *Manager) List() *agentdata.AgentData {
	m.mu.Lock()
	agents := make([]*agent.Agent, 0, len(m.agents))
	for _, a := range m.agents {
		agents = append(agents, a)
	}
	m.mu.Unlock()

	out := agentdata.New()
	items := make([]agentdata.Value, 0, len(agents))
	running := 0
	for _, a := range agents {
		items = append(items, agentdata.DataValue(a.GetInfo()))
		if a.IsRunning() {
			running++
		}
	}
	out.Set("agents", agentdata.ListOf(items))
	out.SetInt("total_count", int64(len(agents)))
	out.SetInt("running_count", int64(running))
	return out
}

// Execute looks up id then delegates to the agent's ExecuteFunction
// (spec.md §4.5 "execute").
func (m *Manager) Execute(ctx context.Context, id, function string, params *agentdata.AgentData) agentdata.FunctionResult {
	a, ok := m.get(id)
	if !ok {
		return agentdata.Fail(fmt.Sprintf("agent %q not found", id))
	}
	return a.ExecuteFunction(ctx, function, params)
}

// StopAll idempotently stops every held agent.
func (m *Manager) StopAll() {
	m.mu.Lock()
	agents := make([]*agent.Agent, 0, len(m.agents))
	for _, a := range m.agents {
		agents = append(agents, a)
	}
	m.mu.Unlock()

	for _, a := range agents {
		a.Stop()
	}
}

// StartMany starts every agent in ids, returning the subset that started
// successfully (SPEC_FULL.md §14 batch convenience).
func (m *Manager) StartMany(ids []string) []string {
	started := make([]string, 0, len(ids))
	for _, id := range ids {
		if m.Start(id) {
			started = append(started, id)
		}
	}
	return started
}

// StopMany stops every agent in ids, returning the subset that stopped
// successfully.
func (m *Manager) StopMany(ids []string) []string {
	stopped := make([]string, 0, len(ids))
	for _, id := range ids {
		if m.Stop(id) {
			stopped = append(stopped, id)
		}
	}
	return stopped
}

// Count returns the number of agents currently held.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.agents)
}
