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

// Package planning implements the goal-decomposition and task-scheduling
// layer (C6): PlanningSystem turns a goal string into an ExecutionPlan of
// dependent Tasks under one of four strategies, and detects cycles via a
// DFS visit/rec-stack coloring, exactly per spec.md §4.6. There is no
// direct teacher analog — pkg/reasoning/chain_of_thought_strategy.go's
// keyword-routed strategy selection is the closest precedent in the pack
// and is the template this package's decomposition heuristic follows.
package planning

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
)

// Strategy selects how a plan's tasks are ordered/scheduled (spec.md §4.6).
type Strategy string

const (
	StrategySequential      Strategy = "SEQUENTIAL"
	StrategyParallel        Strategy = "PARALLEL"
	StrategyPriorityBased   Strategy = "PRIORITY_BASED"
	StrategyDependencyAware Strategy = "DEPENDENCY_AWARE"
)

// Priority is a plan task's scheduling priority (spec.md §3 "Task (plan)").
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// TaskStatus is a plan task's lifecycle state.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskFailed     TaskStatus = "FAILED"
	TaskCancelled  TaskStatus = "CANCELLED"
)

// Task is one node of an ExecutionPlan (spec.md §3 "Task (plan)").
type Task struct {
	ID               string
	Name             string
	FunctionName     string
	Priority         Priority
	Status           TaskStatus
	Dependencies     map[string]struct{}
	EstimatedSeconds float64
	ActualSeconds    float64
	Result           *agentdata.AgentData
	Error            string
}

// ExecutionPlan owns a set of Tasks produced from one goal decomposition.
type ExecutionPlan struct {
	ID       string
	Goal     string
	Strategy Strategy
	Tasks    map[string]*Task
	Order    []string // declaration/scheduled order
}

// Progress returns completed/total task count, per spec.md §3
// "progress = completed / total".
func (p *ExecutionPlan) Progress() float64 {
	if len(p.Tasks) == 0 {
		return 0
	}
	completed := 0
	for _, t := range p.Tasks {
		if t.Status == TaskCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(p.Tasks))
}

// PlanningSystem decomposes goals into ExecutionPlans and answers
// readiness/scheduling queries over them. Safe for concurrent use: the
// HTTP surface (C9) dispatches every operation through the same instance.
type PlanningSystem struct {
	mu    sync.RWMutex
	plans map[string]*ExecutionPlan
}

// NewPlanningSystem builds an empty PlanningSystem.
func NewPlanningSystem() *PlanningSystem {
	return &PlanningSystem{plans: make(map[string]*ExecutionPlan)}
}

// decompositionTemplate is one canonical task-name chain for a goal
// keyword; applyStrategy makes each step depend on the previous one under
// SEQUENTIAL and DEPENDENCY_AWARE only (spec.md §4.6
// "research → gather → analyze sources → compile").
var decompositionTemplates = []struct {
	keyword string
	steps   []string
}{
	{"research", []string{"gather", "analyze_sources", "compile"}},
	{"analy", []string{"collect_data", "analyze", "summarize"}},
	{"write", []string{"outline", "draft", "revise"}},
}

// DecomposeGoal builds an ExecutionPlan from goal using strategy. The
// keyword-matched template is used if goal contains one of the known
// keywords, else the generic fallback initial -> process -> final.
func (p *PlanningSystem) DecomposeGoal(goal string, ctx *agentdata.AgentData, strategy Strategy) *ExecutionPlan {
	steps := genericSteps()
	lower := strings.ToLower(goal)
	for _, tmpl := range decompositionTemplates {
		if strings.Contains(lower, tmpl.keyword) {
			steps = tmpl.steps
			break
		}
	}

	plan := &ExecutionPlan{
		ID:       uuid.NewString(),
		Goal:     goal,
		Strategy: strategy,
		Tasks:    make(map[string]*Task),
	}

	var ids []string
	for i, name := range steps {
		id := uuid.NewString()
		ids = append(ids, id)
		task := &Task{
			ID:               id,
			Name:             name,
			FunctionName:     name,
			Priority:         PriorityNormal,
			Status:           TaskPending,
			Dependencies:     make(map[string]struct{}),
			EstimatedSeconds: estimatedDuration(i, len(steps)),
		}
		plan.Tasks[id] = task
	}

	applyStrategy(plan, ids, strategy)

	p.mu.Lock()
	p.plans[plan.ID] = plan
	p.mu.Unlock()
	return plan
}

func genericSteps() []string {
	return []string{"initial", "process", "final"}
}

// estimatedDuration spreads 5-15 seconds across the step count, per
// spec.md §4.6 "estimated duration from 5-15 seconds".
func estimatedDuration(index, total int) float64 {
	if total <= 1 {
		return 10
	}
	span := 10.0
	return 5 + span*float64(index)/float64(total-1)
}

func applyStrategy(plan *ExecutionPlan, ids []string, strategy Strategy) {
	switch strategy {
	case StrategySequential:
		for i := 1; i < len(ids); i++ {
			plan.Tasks[ids[i]].Dependencies[ids[i-1]] = struct{}{}
		}
		plan.Order = append([]string{}, ids...)
	case StrategyParallel:
		plan.Order = append([]string{}, ids...)
	case StrategyPriorityBased:
		ordered := append([]string{}, ids...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return plan.Tasks[ordered[i]].Priority > plan.Tasks[ordered[j]].Priority
		})
		plan.Order = ordered
	case StrategyDependencyAware:
		for i := 1; i < len(ids); i++ {
			plan.Tasks[ids[i]].Dependencies[ids[i-1]] = struct{}{}
		}
		order, err := topoSort(plan)
		if err == nil {
			plan.Order = order
		} else {
			plan.Order = append([]string{}, ids...)
		}
	default:
		plan.Order = append([]string{}, ids...)
	}
}

// AddPlan registers an externally-built plan.
func (p *PlanningSystem) AddPlan(plan *ExecutionPlan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plans[plan.ID] = plan
}

// GetPlan looks up a plan by id.
func (p *PlanningSystem) GetPlan(planID string) (*ExecutionPlan, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	plan, ok := p.plans[planID]
	return plan, ok
}

// GetReadyTasks returns the tasks in plan whose dependencies are all
// COMPLETED (spec.md §4.6).
func (p *PlanningSystem) GetReadyTasks(planID string) ([]*Task, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	plan, ok := p.plans[planID]
	if !ok {
		return nil, fmt.Errorf("plan %q not found", planID)
	}
	var ready []*Task
	for _, t := range plan.Tasks {
		if t.Status != TaskPending {
			continue
		}
		if allDepsCompleted(plan, t) {
			ready = append(ready, t)
		}
	}
	return ready, nil
}

func allDepsCompleted(plan *ExecutionPlan, t *Task) bool {
	for dep := range t.Dependencies {
		d, ok := plan.Tasks[dep]
		if !ok || d.Status != TaskCompleted {
			return false
		}
	}
	return true
}

// UpdateTaskStatus transitions taskID's status, recording errMsg when
// transitioning to FAILED.
func (p *PlanningSystem) UpdateTaskStatus(planID, taskID string, status TaskStatus, errMsg string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	plan, ok := p.plans[planID]
	if !ok {
		return fmt.Errorf("plan %q not found", planID)
	}
	t, ok := plan.Tasks[taskID]
	if !ok {
		return fmt.Errorf("task %q not found in plan %q", taskID, planID)
	}
	t.Status = status
	if status == TaskFailed {
		t.Error = errMsg
	}
	return nil
}

// SetTaskResult records the result of a completed task.
func (p *PlanningSystem) SetTaskResult(planID, taskID string, result *agentdata.AgentData, actualSeconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	plan, ok := p.plans[planID]
	if !ok {
		return fmt.Errorf("plan %q not found", planID)
	}
	t, ok := plan.Tasks[taskID]
	if !ok {
		return fmt.Errorf("task %q not found in plan %q", taskID, planID)
	}
	t.Result = result
	t.ActualSeconds = actualSeconds
	t.Status = TaskCompleted
	return nil
}

// color is the DFS visit state used by DetectCircularDependencies and
// topoSort.
type color int

const (
	white color = iota
	gray
	black
)

// DetectCircularDependencies returns the task ids participating in a cycle
// in plan's dependency graph, found via DFS with visit/rec-stack coloring
// (spec.md §4.6). Returns an empty slice if the graph is acyclic.
func (p *PlanningSystem) DetectCircularDependencies(planID string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	plan, ok := p.plans[planID]
	if !ok {
		return nil, fmt.Errorf("plan %q not found", planID)
	}

	colors := make(map[string]color, len(plan.Tasks))
	var cycle []string
	var stack []string

	var visit func(id string) bool
	visit = func(id string) bool {
		colors[id] = gray
		stack = append(stack, id)
		for dep := range plan.Tasks[id].Dependencies {
			switch colors[dep] {
			case gray:
				// Found the back edge; the cycle is the rec-stack suffix
				// from dep's first occurrence onward.
				for i, s := range stack {
					if s == dep {
						cycle = append([]string{}, stack[i:]...)
						break
					}
				}
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		colors[id] = black
		return false
	}

	for id := range plan.Tasks {
		if colors[id] == white {
			if visit(id) {
				return cycle, nil
			}
		}
	}
	return nil, nil
}

// topoSort returns a dependency-respecting order of plan's tasks, or an
// error if a cycle is present.
func topoSort(plan *ExecutionPlan) ([]string, error) {
	colors := make(map[string]color, len(plan.Tasks))
	var order []string

	var visit func(id string) error
	visit = func(id string) error {
		colors[id] = gray
		for dep := range plan.Tasks[id].Dependencies {
			switch colors[dep] {
			case gray:
				return fmt.Errorf("circular dependency detected")
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		colors[id] = black
		order = append(order, id)
		return nil
	}

	ids := make([]string, 0, len(plan.Tasks))
	for id := range plan.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if colors[id] == white {
			if err := visit(id); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// EstimatePlanDuration sums the estimated durations of all of plan's tasks
// that have not yet completed.
func (p *PlanningSystem) EstimatePlanDuration(planID string) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	plan, ok := p.plans[planID]
	if !ok {
		return 0, fmt.Errorf("plan %q not found", planID)
	}
	var total float64
	for _, t := range plan.Tasks {
		if t.Status != TaskCompleted {
			total += t.EstimatedSeconds
		}
	}
	return total, nil
}

// Summary renders a short human-readable progress line for plan.
func (p *PlanningSystem) Summary(planID string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	plan, ok := p.plans[planID]
	if !ok {
		return "", fmt.Errorf("plan %q not found", planID)
	}
	completed := 0
	failed := 0
	for _, t := range plan.Tasks {
		switch t.Status {
		case TaskCompleted:
			completed++
		case TaskFailed:
			failed++
		}
	}
	return fmt.Sprintf("plan %q: %d/%d tasks completed, %d failed (%.0f%% progress)",
		plan.Goal, completed, len(plan.Tasks), failed, plan.Progress()*100), nil
}
