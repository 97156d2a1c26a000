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

// Package llmclient implements the narrow outbound client spec.md §4.2
// names (C2): Chat, Complete, ListModels, Embed, Health, SearchDocuments,
// AddDocument, RemoveDocument and InternetSearch against an external
// inference backend, speaking JSON over pkg/httpclient's retrying
// transport. It is adapted from the teacher repo's pkg/llms provider
// clients — same "thin JSON wrapper over one retrying http.Client" shape —
// generalized to the single self-hosted backend contract spec.md §6
// describes instead of the teacher's multi-vendor provider registry.
package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/httpclient"
)

// Config configures a Client.
type Config struct {
	BaseURL     string
	BearerToken string
	MaxRetries  int
	BaseDelay   time.Duration // zero uses httpclient's default (1s)
}

// Client is the narrow outbound client the runtime's agents and tools call
// into for chat, completion, embeddings, document retrieval, and web
// search. It never exposes the underlying HTTP transport to callers.
type Client struct {
	baseURL string
	token   string
	http    *httpclient.Client
}

// New builds a Client against cfg.BaseURL.
func New(cfg Config) *Client {
	hc := httpclient.New(httpclient.Config{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.BaseDelay,
	})
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.BearerToken,
		http:    hc,
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

func (c *Client) headers() map[string]string {
	h := map[string]string{"Content-Type": "application/json"}
	if c.token != "" {
		h["Authorization"] = "Bearer " + c.token
	}
	return h
}

// doJSON performs method/path with an optional JSON request body and
// decodes a JSON response body into out (when out is non-nil). A 404 is
// reported to the caller as an ordinary "not available" error rather than a
// transport failure, per spec.md §4.2's "treat endpoints as optional" rule.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("llmclient: encode request: %w", err)
		}
		payload = b
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  method,
		URL:     c.url(path),
		Headers: c.headers(),
		Body:    payload,
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("endpoint %s not available on inference backend", path)
		}
		return httpclient.Classify(resp, err)
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("llmclient: decode response from %s: %w", path, err)
	}
	return nil
}

// Chat sends a single chat completion request and returns the assistant's
// reply text.
func (c *Client) Chat(ctx context.Context, model, message, systemPrompt string) (string, error) {
	req := chatRequest{Model: model, Messages: buildMessages(message, systemPrompt)}
	var resp chatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat/completions", req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llmclient: empty choices in chat response")
	}
	return resp.Choices[0].Message.Content, nil
}

// Complete requests a raw text completion and returns its text (and
// finish_reason, when the backend sends one) wrapped as AgentData so
// callers receive the same dynamic value shape
// as every other component boundary.
func (c *Client) Complete(ctx context.Context, model, prompt string, params map[string]any) (*agentdata.AgentData, error) {
	req := completeRequest{Model: model, Prompt: prompt, Params: params}
	var resp completeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/completions", req, &resp); err != nil {
		return nil, err
	}
	out := agentdata.New()
	out.SetString("text", resp.Text)
	if resp.FinishReason != "" {
		out.SetString("finish_reason", resp.FinishReason)
	}
	return out, nil
}

// ListModels returns the model identifiers the backend currently serves.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var resp modelsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/models", nil, &resp); err != nil {
		if err := c.doJSON(ctx, http.MethodGet, "/models", nil, &resp); err != nil {
			return nil, err
		}
	}
	return resp.Models, nil
}

// Embed returns the embedding vector for text under model.
func (c *Client) Embed(ctx context.Context, text, model string) ([]float64, error) {
	req := embedRequest{Model: model, Input: text}
	var resp embedResponse
	if err := c.doJSON(ctx, http.MethodPost, "/embeddings", req, &resp); err != nil {
		return nil, err
	}
	return resp.Embedding, nil
}

// Health reports whether the backend answers its health check. A transport
// failure is treated as "unhealthy", never propagated as an error.
func (c *Client) Health(ctx context.Context) bool {
	err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, nil)
	return err == nil
}

// SearchDocuments queries the retrieval endpoint for up to k matches to
// query, constrained by filters.
func (c *Client) SearchDocuments(ctx context.Context, query string, k int, filters map[string]any) ([]agentdata.Value, error) {
	req := retrieveRequest{Query: query, K: k, Filters: filters}
	var resp retrieveResponse
	if err := c.doJSON(ctx, http.MethodPost, "/retrieve", req, &resp); err != nil {
		return nil, err
	}
	out := make([]agentdata.Value, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, agentdata.DataValue(agentdata.FromMap(r)))
	}
	return out, nil
}

// AddDocument submits body to the document store and returns its
// acknowledgement text.
func (c *Client) AddDocument(ctx context.Context, body map[string]any) (string, error) {
	var resp ackResponse
	if err := c.doJSON(ctx, http.MethodPost, "/add_documents", body, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// RemoveDocument deletes the document identified by id.
func (c *Client) RemoveDocument(ctx context.Context, id string) (string, error) {
	req := removeDocumentRequest{IDs: []string{id}}
	var resp ackResponse
	if err := c.doJSON(ctx, http.MethodPost, "/remove_documents", req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// InternetSearch requests up to n web search results for query.
func (c *Client) InternetSearch(ctx context.Context, query string, n int) ([]agentdata.Value, error) {
	req := searchRequest{Query: query, N: n}
	var resp searchResponse
	if err := c.doJSON(ctx, http.MethodPost, "/search", req, &resp); err != nil {
		return nil, err
	}
	out := make([]agentdata.Value, 0, len(resp.Results))
	for _, r := range resp.Results {
		out = append(out, agentdata.DataValue(agentdata.FromMap(r)))
	}
	return out, nil
}

func buildMessages(message, systemPrompt string) []chatMessage {
	msgs := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: systemPrompt})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: message})
	return msgs
}
