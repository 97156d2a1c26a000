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

package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentmanager"
)

// functionSubstitutions is the fallback table execute_step consults when an
// agent has no function registered under the requested name (spec.md §4.8
// "execute_step" step 3).
var functionSubstitutions = map[string]struct {
	function   string
	paramKey   string
	paramValue string
}{
	"web_search":      {function: "text_processing", paramKey: "operation", paramValue: "web_search_simulation"},
	"code_generation": {function: "text_processing", paramKey: "operation", paramValue: "code_generation"},
}

// Engine executes WorkflowDefinitions over a shared agentmanager.Manager
// (spec.md §4.8 "Workflow Engine").
type Engine struct {
	manager *agentmanager.Manager

	mu         sync.Mutex
	executions map[string]*WorkflowExecution
	pauseCh    map[string]chan struct{}
}

// NewEngine builds an Engine dispatching steps against manager.
func NewEngine(manager *agentmanager.Manager) *Engine {
	return &Engine{
		manager:    manager,
		executions: make(map[string]*WorkflowExecution),
		pauseCh:    make(map[string]chan struct{}),
	}
}

// Execute runs def to completion, implementing spec.md §4.8 steps 1-4. It
// returns the finished WorkflowExecution; the same object is retrievable
// afterward via GetExecution.
func (e *Engine) Execute(ctx context.Context, def WorkflowDefinition) *WorkflowExecution {
	exec := e.newExecution(def)
	e.run(ctx, def, exec)
	return exec
}

// Submit starts def running on a background goroutine and returns its
// execution id immediately, for callers (the HTTP surface) that must
// respond before the run completes.
func (e *Engine) Submit(ctx context.Context, def WorkflowDefinition) string {
	exec := e.newExecution(def)
	go e.run(ctx, def, exec)
	return exec.ID
}

func (e *Engine) newExecution(def WorkflowDefinition) *WorkflowExecution {
	exec := &WorkflowExecution{
		ID:           uuid.NewString(),
		WorkflowID:   def.ID,
		Status:       StatusRunning,
		Completed:    make(map[string]agentdata.FunctionResult),
		StartInstant: time.Now(),
	}
	e.register(exec)
	return exec
}

func (e *Engine) run(ctx context.Context, def WorkflowDefinition, exec *WorkflowExecution) {
	mergedCtx := agentdata.New()
	mergedCtx.Merge(def.GlobalContext)

	remaining := make(map[string]WorkflowStep, len(def.Steps))
	order := make([]string, 0, len(def.Steps))
	for _, s := range def.Steps {
		remaining[s.StepID] = s
		order = append(order, s.StepID)
	}

	for len(remaining) > 0 {
		if e.isCancelled(exec.ID) {
			e.finish(exec, StatusCancelled, "Execution cancelled")
			return
		}
		e.waitWhilePaused(ctx, exec.ID)
		if e.isCancelled(exec.ID) {
			e.finish(exec, StatusCancelled, "Execution cancelled")
			return
		}

		ready := e.readySet(remaining, order, exec.Completed)
		if len(ready) == 0 {
			e.finish(exec, StatusFailed, "Circular dependency detected or missing dependencies")
			return
		}

		var parallel, serial []WorkflowStep
		for _, s := range ready {
			if s.ParallelAllowed {
				parallel = append(parallel, s)
			} else {
				serial = append(serial, s)
			}
		}

		for _, s := range serial {
			exec.Completed[s.StepID] = e.executeStep(ctx, s, mergedCtx, exec.Completed)
			delete(remaining, s.StepID)
		}

		if len(parallel) > 0 {
			var resMu sync.Mutex
			results := make(map[string]agentdata.FunctionResult, len(parallel))
			group, groupCtx := errgroup.WithContext(ctx)
			for _, s := range parallel {
				step := s
				group.Go(func() error {
					r := e.executeStep(groupCtx, step, mergedCtx, exec.Completed)
					resMu.Lock()
					results[step.StepID] = r
					resMu.Unlock()
					return nil
				})
			}
			_ = group.Wait()
			for id, r := range results {
				exec.Completed[id] = r
				delete(remaining, id)
			}
		}
	}

	success := true
	timedOut := false
	for _, s := range def.Steps {
		r := exec.Completed[s.StepID]
		if !r.Success && !s.Optional {
			success = false
			if r.ErrorMessage == "timeout" {
				timedOut = true
			}
		}
	}

	status := StatusCompleted
	if !success {
		status = StatusFailed
		if timedOut {
			status = StatusTimeout
		}
	}
	exec.Success = success
	e.finish(exec, status, "")
}

// readySet computes { s : every dependency is completed (and, unless s is
// optional, completed successfully) } (spec.md §4.8 step 3a), in declared
// order.
func (e *Engine) readySet(remaining map[string]WorkflowStep, order []string, completed map[string]agentdata.FunctionResult) []WorkflowStep {
	var ready []WorkflowStep
	for _, id := range order {
		step, ok := remaining[id]
		if !ok {
			continue
		}
		satisfied := true
		for _, dep := range step.Dependencies {
			r, done := completed[dep]
			if !done {
				satisfied = false
				break
			}
			if !r.Success && !step.Optional {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, step)
		}
	}
	return ready
}

// executeStep implements spec.md §4.8's execute_step algorithm.
func (e *Engine) executeStep(ctx context.Context, step WorkflowStep, globalCtx *agentdata.AgentData, completed map[string]agentdata.FunctionResult) agentdata.FunctionResult {
	agentID := step.AgentID
	if agentID == "" && step.AgentName != "" {
		agentID = e.manager.FindByName(step.AgentName)
	}
	ag, ok := e.manager.Get(agentID)
	if !ok {
		return e.annotateFailure(step, fmt.Sprintf("Agent '%s' not found", firstNonEmpty(step.AgentID, step.AgentName)))
	}

	stepCtx := agentdata.New()
	stepCtx.Merge(globalCtx)
	stepCtx.Merge(step.Parameters)
	for _, dep := range step.Dependencies {
		if r, ok := completed[dep]; ok && r.Result != nil {
			stepCtx.SetData(dep+".result", r.Result)
		}
	}

	functionName := step.FunctionName
	if _, ok := ag.GetFunction(functionName); !ok {
		if sub, hasSub := functionSubstitutions[functionName]; hasSub {
			if _, ok := ag.GetFunction(sub.function); ok {
				functionName = sub.function
				stepCtx.SetString(sub.paramKey, sub.paramValue)
			}
		}
		if functionName == step.FunctionName {
			if _, ok := ag.GetFunction("inference"); ok {
				functionName = "inference"
				stepCtx.SetString("prompt", synthesizePrompt(step))
			} else {
				return e.annotateFailure(step, fmt.Sprintf(
					"Function '%s' not available. Available: %v", step.FunctionName, ag.GetFunctionNames()))
			}
		}
	}

	result := e.invokeWithRetry(ctx, ag.ExecuteFunction, functionName, stepCtx, step.RetryCount, step.TimeoutMS)

	if !result.Success {
		result = e.annotateFailureResult(step, functionName, result)
	}
	return result
}

type executeFunc func(ctx context.Context, name string, params *agentdata.AgentData) agentdata.FunctionResult

// invokeWithRetry runs fn up to retryCount+1 times, linearly, with no
// backoff, returning as soon as a call succeeds (spec.md §4.8 "Retries are
// per-step up to step.retry_count ... a linear re-invocation with no
// backoff"). Each attempt is bounded by timeoutMS, when positive (spec.md
// §5 "Cancellation & timeout").
func (e *Engine) invokeWithRetry(ctx context.Context, fn executeFunc, functionName string, params *agentdata.AgentData, retryCount, timeoutMS int) agentdata.FunctionResult {
	attempts := retryCount + 1
	if attempts < 1 {
		attempts = 1
	}
	var result agentdata.FunctionResult
	for i := 0; i < attempts; i++ {
		if timeoutMS > 0 {
			result = e.invokeWithStepTimeout(ctx, fn, functionName, params, timeoutMS)
		} else {
			result = fn(ctx, functionName, params)
		}
		if result.Success {
			return result
		}
	}
	return result
}

// invokeWithStepTimeout runs fn on its own goroutine and compares elapsed
// wall-clock time against timeoutMS (spec.md §5: "the executing worker
// comparing elapsed wall-clock time and returning (false, "timeout") if
// exceeded"). The closure is left running to completion if it overruns;
// its result is simply never read.
func (e *Engine) invokeWithStepTimeout(ctx context.Context, fn executeFunc, functionName string, params *agentdata.AgentData, timeoutMS int) agentdata.FunctionResult {
	done := make(chan agentdata.FunctionResult, 1)
	go func() {
		done <- fn(ctx, functionName, params)
	}()

	timer := time.NewTimer(time.Duration(timeoutMS) * time.Millisecond)
	defer timer.Stop()

	select {
	case result := <-done:
		return result
	case <-timer.C:
		return agentdata.Fail("timeout")
	}
}

func (e *Engine) annotateFailure(step WorkflowStep, message string) agentdata.FunctionResult {
	return e.annotateFailureResult(step, step.FunctionName, agentdata.Fail(message))
}

// annotateFailureResult attaches {error, warning, step_id, function_name} to
// a failed step's result so downstream steps still see a consistent shape
// (spec.md §4.8 "execute_step" step 4).
func (e *Engine) annotateFailureResult(step WorkflowStep, functionName string, result agentdata.FunctionResult) agentdata.FunctionResult {
	data := agentdata.New()
	if result.Result != nil {
		data.Merge(result.Result)
	}
	data.SetString("error", result.ErrorMessage)
	data.SetString("warning", "Function failed but workflow continued")
	data.SetString("step_id", step.StepID)
	data.SetString("function_name", functionName)
	return agentdata.FunctionResult{Success: false, Result: data, ErrorMessage: result.ErrorMessage}
}

func synthesizePrompt(step WorkflowStep) string {
	prompt := fmt.Sprintf("Perform function '%s' for step '%s'", step.FunctionName, step.StepID)
	if step.Parameters == nil {
		return prompt
	}
	for _, k := range step.Parameters.Keys() {
		if v, ok := step.Parameters.GetString(k); ok {
			prompt += fmt.Sprintf(", %s=%s", k, v)
		}
	}
	return prompt
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ============================================================================
// STATE & LIFECYCLE CONTROL
// ============================================================================

func (e *Engine) register(exec *WorkflowExecution) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executions[exec.ID] = exec
	e.pauseCh[exec.ID] = nil
}

func (e *Engine) finish(exec *WorkflowExecution, status Status, errMsg string) {
	e.mu.Lock()
	exec.Status = status
	exec.Error = errMsg
	exec.EndInstant = time.Now()
	delete(e.pauseCh, exec.ID)
	e.mu.Unlock()
}

// GetExecution returns the tracked execution for id, if any.
func (e *Engine) GetExecution(id string) (*WorkflowExecution, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.executions[id]
	return exec, ok
}

// PauseExecution cooperatively pauses a RUNNING execution: the engine
// finishes any in-flight batch, then blocks before scheduling the next one
// (spec.md §4.8 "Pause is cooperative").
func (e *Engine) PauseExecution(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.executions[id]
	if !ok || exec.Status != StatusRunning {
		return false
	}
	exec.Status = StatusPaused
	e.pauseCh[id] = make(chan struct{})
	return true
}

// ResumeExecution transitions a PAUSED execution back to RUNNING.
func (e *Engine) ResumeExecution(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.executions[id]
	if !ok || exec.Status != StatusPaused {
		return false
	}
	exec.Status = StatusRunning
	if ch, ok := e.pauseCh[id]; ok && ch != nil {
		close(ch)
	}
	e.pauseCh[id] = nil
	return true
}

// CancelExecution marks a non-terminal execution CANCELLED; the engine
// observes this before scheduling the next ready-set batch.
func (e *Engine) CancelExecution(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.executions[id]
	if !ok || exec.Status.terminal() {
		return false
	}
	exec.Status = StatusCancelled
	if ch, ok := e.pauseCh[id]; ok && ch != nil {
		close(ch)
	}
	return true
}

func (e *Engine) isCancelled(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	exec, ok := e.executions[id]
	return ok && exec.Status == StatusCancelled
}

func (e *Engine) waitWhilePaused(ctx context.Context, id string) {
	for {
		e.mu.Lock()
		exec, ok := e.executions[id]
		if !ok || exec.Status != StatusPaused {
			e.mu.Unlock()
			return
		}
		ch := e.pauseCh[id]
		e.mu.Unlock()
		if ch == nil {
			return
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}
