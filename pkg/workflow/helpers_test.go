package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agent"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentmanager"
)

// newTestAgent creates and starts an agent named name inside mgr, with
// handlers registered under the given function names.
func newTestAgent(t *testing.T, mgr *agentmanager.Manager, name string, handlers map[string]func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult) string {
	t.Helper()
	id, err := mgr.Create(name, agent.Config{Type: "test"})
	require.NoError(t, err)
	require.True(t, mgr.Start(id))

	ag, ok := mgr.Get(id)
	require.True(t, ok)
	for fnName, handler := range handlers {
		ag.RegisterFunction(&agent.Function{Name: fnName, Handler: handler})
	}
	return id
}

func echoHandler(key string) func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
	return func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
		out := agentdata.New()
		if params != nil {
			out.Merge(params)
		}
		out.SetString("touched_by", key)
		return agentdata.Ok(out)
	}
}
