package agentmanager

import (
	"context"
	"testing"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agent"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/schema"
	"github.com/stretchr/testify/require"
)

func TestCreateRejectsDuplicateName(t *testing.T) {
	m := New()
	_, err := m.Create("researcher", agent.Config{})
	require.NoError(t, err)

	_, err = m.Create("researcher", agent.Config{})
	require.Error(t, err)
}

func TestStartStopDeleteLifecycle(t *testing.T) {
	m := New()
	id, err := m.Create("researcher", agent.Config{})
	require.NoError(t, err)

	require.True(t, m.Start(id))
	a, ok := m.Get(id)
	require.True(t, ok)
	require.True(t, a.IsRunning())

	require.True(t, m.Stop(id))
	require.False(t, a.IsRunning())

	require.True(t, m.Delete(id))
	_, ok = m.Get(id)
	require.False(t, ok)
}

func TestFindByNameResolvesID(t *testing.T) {
	m := New()
	id, err := m.Create("researcher", agent.Config{})
	require.NoError(t, err)
	require.Equal(t, id, m.FindByName("researcher"))
	require.Equal(t, "", m.FindByName("missing"))
}

func TestListReportsCounts(t *testing.T) {
	m := New()
	id1, _ := m.Create("a", agent.Config{})
	_, _ = m.Create("b", agent.Config{})
	m.Start(id1)

	list := m.List()
	total, _ := list.GetInt("total_count")
	running, _ := list.GetInt("running_count")
	require.Equal(t, int64(2), total)
	require.Equal(t, int64(1), running)
}

func TestExecuteDelegatesToAgent(t *testing.T) {
	m := New()
	id, _ := m.Create("researcher", agent.Config{})
	a, _ := m.Get(id)
	a.RegisterFunction(&agent.Function{
		Name:   "echo",
		Params: schema.Schema{{Name: "text", Type: agentdata.KindString, Required: true}},
		Handler: func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
			return agentdata.Ok(params)
		},
	})
	m.Start(id)

	params := agentdata.New()
	params.SetString("text", "hi")
	result := m.Execute(context.Background(), id, "echo", params)
	require.True(t, result.Success)
}

func TestExecuteUnknownAgentFails(t *testing.T) {
	m := New()
	result := m.Execute(context.Background(), "missing", "echo", agentdata.New())
	require.False(t, result.Success)
}

func TestStopAllIsIdempotent(t *testing.T) {
	m := New()
	id1, _ := m.Create("a", agent.Config{})
	id2, _ := m.Create("b", agent.Config{})
	m.Start(id1)
	m.Start(id2)

	m.StopAll()
	m.StopAll()

	a1, _ := m.Get(id1)
	a2, _ := m.Get(id2)
	require.False(t, a1.IsRunning())
	require.False(t, a2.IsRunning())
}

func TestStartManyAndStopMany(t *testing.T) {
	m := New()
	id1, _ := m.Create("a", agent.Config{})
	id2, _ := m.Create("b", agent.Config{})

	started := m.StartMany([]string{id1, id2, "missing"})
	require.ElementsMatch(t, []string{id1, id2}, started)

	stopped := m.StopMany([]string{id1, "missing"})
	require.Equal(t, []string{id1}, stopped)
}
