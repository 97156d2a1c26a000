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

package async

import (
	"sync"
	"time"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
)

// Status is a Task/OperationResult's lifecycle state (spec.md §3 "Task
// (async)").
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Callable is the closure a Task runs on a worker.
type Callable func() agentdata.FunctionResult

// Task is a unit of work submitted to the queue (spec.md §3 "Task
// (async)").
type Task struct {
	OperationID string
	OpType      string
	Priority    int
	Callable    Callable

	mu           sync.Mutex
	status       Status
	submitTime   time.Time
	startTime    time.Time
	endTime      time.Time
	done         chan struct{}
	result       agentdata.FunctionResult
}

func newTask(opID, opType string, priority int, fn Callable) *Task {
	return &Task{
		OperationID: opID,
		OpType:      opType,
		Priority:    priority,
		Callable:    fn,
		status:      StatusPending,
		submitTime:  time.Now(),
		done:        make(chan struct{}),
	}
}

func (t *Task) getStatus() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// tryCancel atomically transitions the task from PENDING to CANCELLED,
// returning whether the transition happened (spec.md §4.7 "Cancellation":
// only honored while PENDING).
func (t *Task) tryCancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusPending {
		return false
	}
	t.status = StatusCancelled
	t.endTime = time.Now()
	t.result = agentdata.Fail("operation cancelled")
	close(t.done)
	return true
}

func (t *Task) markRunning() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusRunning
	t.startTime = time.Now()
}

func (t *Task) finish(status Status, result agentdata.FunctionResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusCancelled {
		return
	}
	t.status = status
	t.endTime = time.Now()
	t.result = result
	close(t.done)
}

// Wait blocks until the task reaches a terminal state and returns its
// result.
func (t *Task) Wait() agentdata.FunctionResult {
	<-t.done
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Future is the caller-facing handle returned by Submit.
type Future struct {
	task *Task
}

// Wait blocks until the underlying task completes (or was cancelled) and
// returns its FunctionResult.
func (f *Future) Wait() agentdata.FunctionResult { return f.task.Wait() }

// OperationID returns the id assigned to the submitted operation.
func (f *Future) OperationID() string { return f.task.OperationID }

// OperationResult is the registry-visible snapshot of a task's outcome
// (spec.md §4.7 "Register a shared Operation Result").
type OperationResult struct {
	OperationID string               `json:"operation_id"`
	OpType      string               `json:"op_type"`
	Status      Status               `json:"status"`
	SubmitTime  time.Time            `json:"submit_time"`
	StartTime   time.Time            `json:"start_time,omitempty"`
	EndTime     time.Time            `json:"end_time,omitempty"`
	Result      *agentdata.AgentData `json:"result,omitempty"`
	Error       string               `json:"error,omitempty"`
}
