package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentmanager"
)

func TestCollaborationSequentialChainsPreviousResultAsInput(t *testing.T) {
	mgr := agentmanager.New()
	first := newTestAgent(t, mgr, "first", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"process": func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
			out := agentdata.New()
			out.SetString("stage", "first")
			return agentdata.Ok(out)
		},
	})
	second := newTestAgent(t, mgr, "second", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"process": func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
			prevStage, _ := params.GetString("stage")
			out := agentdata.New()
			out.SetString("stage", "second")
			out.SetString("received_from_previous", prevStage)
			return agentdata.Ok(out)
		},
	})

	engine := NewCollaborationEngine(mgr)
	result := engine.Run(context.Background(), CollaborationGroup{
		Pattern:  PatternSequential,
		AgentIDs: []string{first, second},
	}, agentdata.New())

	require.True(t, result.Success)
	received, _ := result.Result.GetString("received_from_previous")
	require.Equal(t, "first", received)
}

func TestCollaborationParallelAggregatesWithoutExplicitAggregator(t *testing.T) {
	mgr := agentmanager.New()
	a := newTestAgent(t, mgr, "a", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"process": echoHandler("a"),
	})
	b := newTestAgent(t, mgr, "b", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"process": echoHandler("b"),
	})

	engine := NewCollaborationEngine(mgr)
	result := engine.Run(context.Background(), CollaborationGroup{
		Pattern:  PatternParallel,
		AgentIDs: []string{a, b},
	}, agentdata.New())

	require.True(t, result.Success)
	count, _ := result.Result.GetInt("success_count")
	require.Equal(t, int64(2), count)
}

func TestCollaborationParallelUsesProvidedAggregator(t *testing.T) {
	mgr := agentmanager.New()
	a := newTestAgent(t, mgr, "a", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"process": echoHandler("a"),
	})

	engine := NewCollaborationEngine(mgr)
	result := engine.Run(context.Background(), CollaborationGroup{
		Pattern:  PatternParallel,
		AgentIDs: []string{a},
		ResultAggregator: func(results map[string]agentdata.FunctionResult) *agentdata.AgentData {
			out := agentdata.New()
			out.SetInt("aggregated_count", int64(len(results)))
			return out
		},
	}, agentdata.New())

	require.True(t, result.Success)
	count, _ := result.Result.GetInt("aggregated_count")
	require.Equal(t, int64(1), count)
}

func votingAgent(t *testing.T, mgr *agentmanager.Manager, name, vote string) string {
	t.Helper()
	return newTestAgent(t, mgr, name, map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"analyze_and_vote": func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
			out := agentdata.New()
			out.SetString("vote", vote)
			return agentdata.Ok(out)
		},
	})
}

func TestCollaborationConsensusAchievedWhenMajorityAgrees(t *testing.T) {
	mgr := agentmanager.New()
	a := votingAgent(t, mgr, "a", "yes")
	b := votingAgent(t, mgr, "b", "yes")
	c := votingAgent(t, mgr, "c", "no")

	engine := NewCollaborationEngine(mgr)
	result := engine.Run(context.Background(), CollaborationGroup{
		Pattern:            PatternConsensus,
		AgentIDs:           []string{a, b, c},
		ConsensusThreshold: 2,
	}, agentdata.New())

	require.True(t, result.Success)
	achieved, _ := result.Result.GetBool("consensus_achieved")
	require.True(t, achieved)
	votes, _ := result.Result.GetInt("consensus_votes")
	require.Equal(t, int64(2), votes)
}

func TestCollaborationConsensusNotAchievedBelowThreshold(t *testing.T) {
	mgr := agentmanager.New()
	a := votingAgent(t, mgr, "a", "yes")
	b := votingAgent(t, mgr, "b", "no")
	c := votingAgent(t, mgr, "c", "maybe")

	engine := NewCollaborationEngine(mgr)
	result := engine.Run(context.Background(), CollaborationGroup{
		Pattern:            PatternConsensus,
		AgentIDs:           []string{a, b, c},
		ConsensusThreshold: 2,
	}, agentdata.New())

	require.False(t, result.Success)
	achieved, _ := result.Result.GetBool("consensus_achieved")
	require.False(t, achieved)
}

func TestCollaborationHierarchyDispatchesCoordinateToMaster(t *testing.T) {
	mgr := agentmanager.New()
	var gotSubordinates int
	master := newTestAgent(t, mgr, "master", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"coordinate": func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
			subs, _ := params.Get("subordinate_agents")
			list, _ := subs.AsList()
			gotSubordinates = len(list)
			return agentdata.Ok(nil)
		},
	})
	worker1 := newTestAgent(t, mgr, "w1", nil)
	worker2 := newTestAgent(t, mgr, "w2", nil)

	engine := NewCollaborationEngine(mgr)
	result := engine.Run(context.Background(), CollaborationGroup{
		Pattern:  PatternHierarchy,
		AgentIDs: []string{master, worker1, worker2},
	}, agentdata.New())

	require.True(t, result.Success)
	require.Equal(t, 2, gotSubordinates)
}

func TestCollaborationNegotiationAdoptsFirstAcceptingAgent(t *testing.T) {
	mgr := agentmanager.New()
	rejecting := newTestAgent(t, mgr, "rejecting", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"negotiate": func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
			return agentdata.Fail("rejected")
		},
	})
	accepting := newTestAgent(t, mgr, "accepting", map[string]func(context.Context, *agentdata.AgentData) agentdata.FunctionResult{
		"negotiate": func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
			out := agentdata.New()
			out.SetString("proposal", "final")
			return agentdata.Ok(out)
		},
	})

	engine := NewCollaborationEngine(mgr)
	result := engine.Run(context.Background(), CollaborationGroup{
		Pattern:              PatternNegotiation,
		AgentIDs:             []string{rejecting, accepting},
		MaxNegotiationRounds: 2,
	}, agentdata.New())

	require.True(t, result.Success)
	proposal, _ := result.Result.GetString("proposal")
	require.Equal(t, "final", proposal)
}
