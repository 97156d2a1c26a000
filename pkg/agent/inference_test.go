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

package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/stretchr/testify/require"
)

type fakeInferenceClient struct {
	chatModel     string
	completeModel string
	chatErr       error
	completeErr   error
}

func (f *fakeInferenceClient) Chat(ctx context.Context, model, message, systemPrompt string) (string, error) {
	f.chatModel = model
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return "reply to " + message, nil
}

func (f *fakeInferenceClient) Complete(ctx context.Context, model, prompt string, params map[string]any) (*agentdata.AgentData, error) {
	f.completeModel = model
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	out := agentdata.New()
	out.SetString("text", "completion for "+prompt)
	return out, nil
}

func TestRegisterInferenceFunctionsAddsChatAndComplete(t *testing.T) {
	a := New("id-1", "worker", Config{LLM: LLMConfig{Model: "default-model"}})
	client := &fakeInferenceClient{}
	a.RegisterInferenceFunctions(client)
	a.Start()

	names := a.GetFunctionNames()
	require.Contains(t, names, "chat")
	require.Contains(t, names, "complete")

	params := agentdata.New()
	params.SetString("message", "hello")
	result := a.ExecuteFunction(context.Background(), "chat", params)
	require.True(t, result.Success)
	reply, _ := result.Result.GetString("reply")
	require.Equal(t, "reply to hello", reply)
	require.Equal(t, "default-model", client.chatModel)
}

func TestChatRequiresMessageParameter(t *testing.T) {
	a := New("id-1", "worker", Config{})
	a.RegisterInferenceFunctions(&fakeInferenceClient{})
	a.Start()

	result := a.ExecuteFunction(context.Background(), "chat", agentdata.New())
	require.False(t, result.Success)
}

func TestChatPropagatesClientError(t *testing.T) {
	a := New("id-1", "worker", Config{})
	a.RegisterInferenceFunctions(&fakeInferenceClient{chatErr: errors.New("backend down")})
	a.Start()

	params := agentdata.New()
	params.SetString("message", "hi")
	result := a.ExecuteFunction(context.Background(), "chat", params)
	require.False(t, result.Success)
	require.Contains(t, result.ErrorMessage, "backend down")
}

func TestCompleteUsesModelOverrideFromParams(t *testing.T) {
	a := New("id-1", "worker", Config{LLM: LLMConfig{Model: "default-model"}})
	client := &fakeInferenceClient{}
	a.RegisterInferenceFunctions(client)
	a.Start()

	params := agentdata.New()
	params.SetString("prompt", "write a haiku")
	params.SetString("model", "override-model")
	result := a.ExecuteFunction(context.Background(), "complete", params)
	require.True(t, result.Success)
	text, _ := result.Result.GetString("text")
	require.Equal(t, "completion for write a haiku", text)
	require.Equal(t, "override-model", client.completeModel)
}
