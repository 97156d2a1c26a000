package planning

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecomposeGoalUsesKeywordTemplate(t *testing.T) {
	p := NewPlanningSystem()
	plan := p.DecomposeGoal("research the competitive landscape", nil, StrategySequential)
	require.Len(t, plan.Tasks, 3)

	names := make(map[string]bool)
	for _, t := range plan.Tasks {
		names[t.Name] = true
	}
	require.True(t, names["gather"])
	require.True(t, names["analyze_sources"])
	require.True(t, names["compile"])
}

func TestDecomposeGoalFallsBackToGenericTemplate(t *testing.T) {
	p := NewPlanningSystem()
	plan := p.DecomposeGoal("do something unrelated", nil, StrategySequential)
	require.Len(t, plan.Tasks, 3)

	names := make(map[string]bool)
	for _, t := range plan.Tasks {
		names[t.Name] = true
	}
	require.True(t, names["initial"])
	require.True(t, names["process"])
	require.True(t, names["final"])
}

func TestSequentialStrategyChainsDependencies(t *testing.T) {
	p := NewPlanningSystem()
	plan := p.DecomposeGoal("research topic", nil, StrategySequential)

	ready, err := p.GetReadyTasks(plan.ID)
	require.NoError(t, err)
	require.Len(t, ready, 1)
}

func TestParallelStrategyHasNoDependencies(t *testing.T) {
	p := NewPlanningSystem()
	plan := p.DecomposeGoal("research topic", nil, StrategyParallel)

	ready, err := p.GetReadyTasks(plan.ID)
	require.NoError(t, err)
	require.Len(t, ready, len(plan.Tasks))
}

func TestGetReadyTasksRespectsCompletedDependencies(t *testing.T) {
	p := NewPlanningSystem()
	plan := p.DecomposeGoal("research topic", nil, StrategySequential)

	first := plan.Order[0]
	require.NoError(t, p.UpdateTaskStatus(plan.ID, first, TaskCompleted, ""))

	ready, err := p.GetReadyTasks(plan.ID)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	require.Equal(t, plan.Order[1], ready[0].ID)
}

func TestDetectCircularDependenciesFindsCycle(t *testing.T) {
	p := NewPlanningSystem()
	plan := &ExecutionPlan{ID: "cyclic", Tasks: map[string]*Task{
		"a": {ID: "a", Dependencies: map[string]struct{}{"b": {}}},
		"b": {ID: "b", Dependencies: map[string]struct{}{"a": {}}},
	}}
	p.AddPlan(plan)

	cycle, err := p.DetectCircularDependencies("cyclic")
	require.NoError(t, err)
	require.NotEmpty(t, cycle)
}

func TestDetectCircularDependenciesReturnsEmptyForAcyclicGraph(t *testing.T) {
	p := NewPlanningSystem()
	plan := p.DecomposeGoal("research topic", nil, StrategySequential)

	cycle, err := p.DetectCircularDependencies(plan.ID)
	require.NoError(t, err)
	require.Empty(t, cycle)
}

func TestEstimatePlanDurationSumsIncompleteTasks(t *testing.T) {
	p := NewPlanningSystem()
	plan := p.DecomposeGoal("research topic", nil, StrategySequential)

	total, err := p.EstimatePlanDuration(plan.ID)
	require.NoError(t, err)
	require.Greater(t, total, 0.0)
}

func TestSummaryReportsProgress(t *testing.T) {
	p := NewPlanningSystem()
	plan := p.DecomposeGoal("research topic", nil, StrategySequential)

	summary, err := p.Summary(plan.ID)
	require.NoError(t, err)
	require.Contains(t, summary, "0/3")
}
