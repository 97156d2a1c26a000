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

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/llmclient"
)

// InferenceClient is the subset of llmclient.Client an agent's built-in
// functions dispatch through. Declared locally so this package depends on
// a capability, not the concrete client (spec.md §9's interface-flattening
// redesign).
type InferenceClient interface {
	Chat(ctx context.Context, model, message, systemPrompt string) (string, error)
	Complete(ctx context.Context, model, prompt string, params map[string]any) (*agentdata.AgentData, error)
}

var _ InferenceClient = (*llmclient.Client)(nil)

// RegisterInferenceFunctions attaches the "chat" and "complete" built-in
// functions (spec.md §4.2/§4.4: an agent dispatches LLM calls through its
// own function table rather than exposing the client directly) to a, bound
// to client and a's configured system prompt and model.
func (a *Agent) RegisterInferenceFunctions(client InferenceClient) {
	a.RegisterFunction(&Function{
		Name:        "chat",
		Description: "Send a message to the agent's configured inference backend and return the reply.",
		Handler: func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
			message, ok := params.GetString("message")
			if !ok || message == "" {
				return agentdata.Fail("chat requires a non-empty \"message\" parameter")
			}
			model := a.cfg.LLM.Model
			if override, ok := params.GetString("model"); ok && override != "" {
				model = override
			}
			reply, err := client.Chat(ctx, model, message, a.cfg.SystemPrompt)
			if err != nil {
				return agentdata.Fail("chat: " + err.Error())
			}
			out := agentdata.New()
			out.SetString("reply", reply)
			return agentdata.Ok(out)
		},
	})

	a.RegisterFunction(&Function{
		Name:        "complete",
		Description: "Request a raw text completion from the agent's configured inference backend.",
		Handler: func(ctx context.Context, params *agentdata.AgentData) agentdata.FunctionResult {
			prompt, ok := params.GetString("prompt")
			if !ok || prompt == "" {
				return agentdata.Fail("complete requires a non-empty \"prompt\" parameter")
			}
			model := a.cfg.LLM.Model
			if override, ok := params.GetString("model"); ok && override != "" {
				model = override
			}
			out, err := client.Complete(ctx, model, prompt, nil)
			if err != nil {
				return agentdata.Fail("complete: " + err.Error())
			}
			return agentdata.Ok(out)
		},
	})
}
