package workflow

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentmanager"
)

func TestEngineExecutesDependentStepsInOrder(t *testing.T) {
	mgr := agentmanager.New()
	agentID := newTestAgent(t, mgr, "worker", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"step_a": echoHandler("a"),
		"step_b": echoHandler("b"),
	})

	def := WorkflowDefinition{
		ID: "wf1",
		Steps: []WorkflowStep{
			{StepID: "a", AgentID: agentID, FunctionName: "step_a"},
			{StepID: "b", AgentID: agentID, FunctionName: "step_b", Dependencies: []string{"a"}},
		},
	}

	e := NewEngine(mgr)
	exec := e.Execute(context.Background(), def)

	require.Equal(t, StatusCompleted, exec.Status)
	require.True(t, exec.Success)
	require.True(t, exec.Completed["a"].Success)
	require.True(t, exec.Completed["b"].Success)

	touchedBy, _ := exec.Completed["b"].Result.GetString("touched_by")
	require.Equal(t, "b", touchedBy)
}

func TestEngineRunsIndependentParallelStepsConcurrently(t *testing.T) {
	mgr := agentmanager.New()
	agentID := newTestAgent(t, mgr, "worker", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"x": echoHandler("x"),
		"y": echoHandler("y"),
	})

	def := WorkflowDefinition{
		ID: "wf2",
		Steps: []WorkflowStep{
			{StepID: "x", AgentID: agentID, FunctionName: "x", ParallelAllowed: true},
			{StepID: "y", AgentID: agentID, FunctionName: "y", ParallelAllowed: true},
		},
	}

	e := NewEngine(mgr)
	exec := e.Execute(context.Background(), def)

	require.Equal(t, StatusCompleted, exec.Status)
	require.True(t, exec.Completed["x"].Success)
	require.True(t, exec.Completed["y"].Success)
}

func TestEngineFailsWorkflowOnCircularDependency(t *testing.T) {
	mgr := agentmanager.New()
	agentID := newTestAgent(t, mgr, "worker", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"a": echoHandler("a"),
		"b": echoHandler("b"),
	})

	def := WorkflowDefinition{
		ID: "wf3",
		Steps: []WorkflowStep{
			{StepID: "a", AgentID: agentID, FunctionName: "a", Dependencies: []string{"b"}},
			{StepID: "b", AgentID: agentID, FunctionName: "b", Dependencies: []string{"a"}},
		},
	}

	e := NewEngine(mgr)
	exec := e.Execute(context.Background(), def)

	require.Equal(t, StatusFailed, exec.Status)
	require.Equal(t, "Circular dependency detected or missing dependencies", exec.Error)
}

func TestEngineOptionalStepFailureDoesNotBlockWorkflowSuccess(t *testing.T) {
	mgr := agentmanager.New()
	failing := func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
		return agentdata.Fail("deliberate failure")
	}
	agentID := newTestAgent(t, mgr, "worker", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"risky": failing,
		"next":  echoHandler("next"),
	})

	def := WorkflowDefinition{
		ID: "wf4",
		Steps: []WorkflowStep{
			{StepID: "risky", AgentID: agentID, FunctionName: "risky", Optional: true},
			{StepID: "next", AgentID: agentID, FunctionName: "next", Dependencies: []string{"risky"}, Optional: true},
		},
	}

	e := NewEngine(mgr)
	exec := e.Execute(context.Background(), def)

	require.Equal(t, StatusCompleted, exec.Status)
	require.True(t, exec.Success)
	require.False(t, exec.Completed["risky"].Success)
	require.True(t, exec.Completed["next"].Success)
}

func TestEngineMissingAgentRecordsFailureButWorkflowContinues(t *testing.T) {
	mgr := agentmanager.New()

	def := WorkflowDefinition{
		ID: "wf5",
		Steps: []WorkflowStep{
			{StepID: "ghost", AgentID: "does-not-exist", FunctionName: "anything"},
		},
	}

	e := NewEngine(mgr)
	exec := e.Execute(context.Background(), def)

	require.Equal(t, StatusFailed, exec.Status)
	require.False(t, exec.Completed["ghost"].Success)
	msg, _ := exec.Completed["ghost"].Result.GetString("error")
	require.Contains(t, msg, "not found")
}

func TestEngineSubstitutesWebSearchToTextProcessing(t *testing.T) {
	mgr := agentmanager.New()
	var gotOperation string
	agentID := newTestAgent(t, mgr, "worker", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"text_processing": func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
			gotOperation, _ = params.GetString("operation")
			return agentdata.Ok(nil)
		},
	})

	def := WorkflowDefinition{
		ID: "wf6",
		Steps: []WorkflowStep{
			{StepID: "search", AgentID: agentID, FunctionName: "web_search"},
		},
	}

	e := NewEngine(mgr)
	exec := e.Execute(context.Background(), def)

	require.Equal(t, StatusCompleted, exec.Status)
	require.Equal(t, "web_search_simulation", gotOperation)
}

func TestEngineRetriesStepUntilSuccessWithinRetryCount(t *testing.T) {
	mgr := agentmanager.New()
	var attempts int64
	agentID := newTestAgent(t, mgr, "worker", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"flaky": func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
			n := atomic.AddInt64(&attempts, 1)
			if n < 3 {
				return agentdata.Fail(fmt.Sprintf("attempt %d failed", n))
			}
			return agentdata.Ok(nil)
		},
	})

	def := WorkflowDefinition{
		ID: "wf7",
		Steps: []WorkflowStep{
			{StepID: "flaky", AgentID: agentID, FunctionName: "flaky", RetryCount: 2},
		},
	}

	e := NewEngine(mgr)
	exec := e.Execute(context.Background(), def)

	require.True(t, exec.Completed["flaky"].Success)
	require.Equal(t, int64(3), atomic.LoadInt64(&attempts))
}

func TestEngineStepTimeoutProducesTimeoutFailureAndExecutionStatus(t *testing.T) {
	mgr := agentmanager.New()
	agentID := newTestAgent(t, mgr, "worker", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"slow": func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
			time.Sleep(100 * time.Millisecond)
			return agentdata.Ok(nil)
		},
	})

	def := WorkflowDefinition{
		ID: "wf8",
		Steps: []WorkflowStep{
			{StepID: "slow", AgentID: agentID, FunctionName: "slow", TimeoutMS: 10},
		},
	}

	e := NewEngine(mgr)
	exec := e.Execute(context.Background(), def)

	require.Equal(t, StatusTimeout, exec.Status)
	require.False(t, exec.Success)
	require.False(t, exec.Completed["slow"].Success)
	require.Equal(t, "timeout", exec.Completed["slow"].ErrorMessage)
}

func TestEngineStepWithinTimeoutSucceeds(t *testing.T) {
	mgr := agentmanager.New()
	agentID := newTestAgent(t, mgr, "worker", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"fast": echoHandler("fast"),
	})

	def := WorkflowDefinition{
		ID: "wf9",
		Steps: []WorkflowStep{
			{StepID: "fast", AgentID: agentID, FunctionName: "fast", TimeoutMS: 5000},
		},
	}

	e := NewEngine(mgr)
	exec := e.Execute(context.Background(), def)

	require.Equal(t, StatusCompleted, exec.Status)
	require.True(t, exec.Completed["fast"].Success)
}

func TestSubmitReturnsExecutionIDBeforeCompletion(t *testing.T) {
	mgr := agentmanager.New()
	agentID := newTestAgent(t, mgr, "worker", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"step": echoHandler("done"),
	})

	def := WorkflowDefinition{
		ID: "wf-async",
		Steps: []WorkflowStep{
			{StepID: "step", AgentID: agentID, FunctionName: "step"},
		},
	}

	e := NewEngine(mgr)
	id := e.Submit(context.Background(), def)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		exec, ok := e.GetExecution(id)
		return ok && exec.Status == StatusCompleted
	}, time.Second, 5*time.Millisecond)
}

func TestPauseResumeAndCancelTransitionExecutionState(t *testing.T) {
	e := NewEngine(agentmanager.New())
	exec := &WorkflowExecution{ID: "exec1", Status: StatusRunning, Completed: map[string]agentdata.FunctionResult{}}
	e.register(exec)

	require.True(t, e.PauseExecution("exec1"))
	require.Equal(t, StatusPaused, exec.Status)

	require.True(t, e.ResumeExecution("exec1"))
	require.Equal(t, StatusRunning, exec.Status)

	require.True(t, e.CancelExecution("exec1"))
	require.Equal(t, StatusCancelled, exec.Status)

	require.False(t, e.CancelExecution("exec1"))
}
