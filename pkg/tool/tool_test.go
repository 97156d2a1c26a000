package tool

import (
	"context"
	"testing"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/schema"
	"github.com/stretchr/testify/require"
)

func echoTool(name, category string, tags []string, cost float64) *Tool {
	params := schema.Schema{{Name: "text", Type: agentdata.KindString, Required: true}}
	return New(name, "echoes text back", category, tags, cost, params,
		func(ctx context.Context, params *agentdata.AgentData, toolCtx Context) agentdata.FunctionResult {
			text, _ := params.GetString("text")
			out := agentdata.New()
			out.SetString("echo", text)
			return agentdata.Ok(out)
		})
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo", "text", nil, 0)))
	require.Error(t, r.Register(echoTool("echo", "text", nil, 0)))
}

func TestExecuteValidatesRequiredParams(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo", "text", nil, 0)))

	result := r.Execute(context.Background(), "echo", agentdata.New(), Context{})
	require.False(t, result.Success)
	require.Contains(t, result.ErrorMessage, "Invalid parameters")
}

func TestExecuteReturnsClosureResultOnSuccess(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo", "text", nil, 0)))

	params := agentdata.New()
	params.SetString("text", "hi")
	result := r.Execute(context.Background(), "echo", params, Context{})
	require.True(t, result.Success)
	echoed, _ := result.Result.GetString("echo")
	require.Equal(t, "hi", echoed)
}

func TestExecuteUnknownToolFails(t *testing.T) {
	r := NewRegistry()
	result := r.Execute(context.Background(), "missing", agentdata.New(), Context{})
	require.False(t, result.Success)
}

func TestExecuteRecoversPanicFromClosure(t *testing.T) {
	r := NewRegistry()
	boom := New("boom", "panics", "test", nil, 0, nil,
		func(ctx context.Context, params *agentdata.AgentData, toolCtx Context) agentdata.FunctionResult {
			panic("kaboom")
		})
	require.NoError(t, r.Register(boom))

	result := r.Execute(context.Background(), "boom", agentdata.New(), Context{})
	require.False(t, result.Success)
	require.Contains(t, result.ErrorMessage, "Tool execution error")
}

func TestDiscoverFiltersByCategoryTagAndCost(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("cheap-search", "search", []string{"web"}, 1.0)))
	require.NoError(t, r.Register(echoTool("expensive-search", "search", []string{"web"}, 100.0)))
	require.NoError(t, r.Register(echoTool("code-tool", "code", []string{"gen"}, 1.0)))

	names := r.Discover(Filter{Categories: []string{"search"}, Tags: []string{"web"}, MaxCost: 10})
	require.Equal(t, []string{"cheap-search"}, names)
}

func TestDiscoverNameRegexFallsBackToSubstring(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("c++-search-tool", "search", nil, 0)))

	// "c++" does not compile as a regular expression, so matching falls back
	// to a case-insensitive substring test.
	names := r.Discover(Filter{NameRegex: "c++"})
	require.Equal(t, []string{"c++-search-tool"}, names)
}

func TestUnregisterRemovesFromIndices(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo", "text", []string{"a"}, 0)))
	require.NoError(t, r.Unregister("echo"))
	require.False(t, r.Has("echo"))
	require.Empty(t, r.Discover(Filter{Tags: []string{"a"}}))
}
