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

// Package workflow implements the DAG-based Workflow Engine and the
// pattern-based Collaboration Engine (C8). Execution here is dependency-graph
// driven rather than the teacher's linear sequential/parallel/loop
// sub-agent composition, so the step loop and state machine are new,
// grounded directly on spec.md §4.8's numbered algorithm; the fan-out
// mechanics (errgroup-based concurrent step dispatch, status enum style)
// are carried over from the teacher's pkg/agent/workflowagent.
package workflow

import (
	"time"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
)

// ============================================================================
// EXECUTION STATUS TYPES
// ============================================================================

// Status is a WorkflowExecution's lifecycle state.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusTimeout   Status = "TIMEOUT"
)

func (s Status) terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusTimeout:
		return true
	default:
		return false
	}
}

// Pattern enumerates the six composition styles a WorkflowDefinition or
// CollaborationGroup may declare (spec.md §3 "Workflow Definition").
type Pattern string

const (
	PatternSequential  Pattern = "SEQUENTIAL"
	PatternParallel    Pattern = "PARALLEL"
	PatternPipeline    Pattern = "PIPELINE"
	PatternConsensus   Pattern = "CONSENSUS"
	PatternHierarchy   Pattern = "HIERARCHY"
	PatternNegotiation Pattern = "NEGOTIATION"
)

// ============================================================================
// WORKFLOW DEFINITION
// ============================================================================

// WorkflowStep is one node of a WorkflowDefinition's dependency graph
// (spec.md §3 "A WorkflowStep has ...").
type WorkflowStep struct {
	StepID          string               `json:"step_id"`
	AgentID         string               `json:"agent_id,omitempty"`
	AgentName       string               `json:"agent_name,omitempty"`
	FunctionName    string               `json:"function_name"`
	Parameters      *agentdata.AgentData `json:"parameters,omitempty"`
	Dependencies    []string             `json:"dependencies,omitempty"`
	ParallelAllowed bool                 `json:"parallel_allowed"`
	RetryCount      int                  `json:"retry_count"`
	TimeoutMS       int                  `json:"timeout_ms"`
	Optional        bool                 `json:"optional"`
}

// WorkflowDefinition is a single executable unit submitted to the Engine
// (spec.md §3 "Workflow Definition"). Type is informational metadata; the
// Engine's ready-set computation is driven entirely by each step's
// Dependencies, regardless of the declared Type.
type WorkflowDefinition struct {
	ID            string               `json:"id"`
	Name          string               `json:"name,omitempty"`
	Type          Pattern              `json:"type,omitempty"`
	Steps         []WorkflowStep       `json:"steps"`
	GlobalContext *agentdata.AgentData `json:"global_context,omitempty"`
}

// ============================================================================
// EXECUTION RESULT TYPES
// ============================================================================

// WorkflowExecution tracks one in-flight or completed run of a
// WorkflowDefinition, including the RUNNING→{terminal} state machine and
// the RUNNING↔PAUSED cooperative pause (spec.md §4.8 "State machine of a
// WorkflowExecution"). The Engine creates executions already RUNNING; it
// never assigns StatusPending.
type WorkflowExecution struct {
	ID           string                             `json:"id"`
	WorkflowID   string                             `json:"workflow_id"`
	Status       Status                             `json:"status"`
	Completed    map[string]agentdata.FunctionResult `json:"completed"`
	Error        string                             `json:"error,omitempty"`
	StartInstant time.Time                          `json:"start_time"`
	EndInstant   time.Time                          `json:"end_time,omitempty"`
	Success      bool                               `json:"success"`
}

// DurationMS returns the execution's total wall-clock duration in
// milliseconds, zero while still running.
func (e *WorkflowExecution) DurationMS() int64 {
	if e.EndInstant.IsZero() {
		return 0
	}
	return e.EndInstant.Sub(e.StartInstant).Milliseconds()
}

// ============================================================================
// COLLABORATION TYPES
// ============================================================================

// CollaborationGroup is the Collaboration Engine's unit of work: a set of
// agents composed via one of the six patterns (spec.md §4.8 "Collaboration
// Engine").
type CollaborationGroup struct {
	ID                   string
	Name                 string
	Pattern              Pattern
	AgentIDs             []string
	ConsensusThreshold   int
	MaxNegotiationRounds int
	ResultAggregator     func(results map[string]agentdata.FunctionResult) *agentdata.AgentData
}
