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

package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agent"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/apierr"
)

// createAgentRequest is the wire shape of `POST /v1/agents` (spec.md §6).
type createAgentRequest struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
	Config       struct {
		AutoStart          bool   `json:"auto_start"`
		MaxConcurrentTasks int    `json:"max_concurrent_tasks"`
		HeartbeatInterval  string `json:"heartbeat_interval"`
	} `json:"config"`
	LLM struct {
		Model       string  `json:"model"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	} `json:"llm"`
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	list := s.deps.Manager.List()
	running, _ := list.GetInt("running_count")

	body := map[string]any{
		"agents":         mustNative(list, "agents"),
		"total_count":    mustInt(list, "total_count"),
		"system_running": running > 0,
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "malformed_request_body", err.Error())
		return
	}
	if req.Name == "" {
		writeValidationError(w, "missing_field", "name is required")
		return
	}

	heartbeat := 30 * time.Second
	if req.Config.HeartbeatInterval != "" {
		if d, err := time.ParseDuration(req.Config.HeartbeatInterval); err == nil {
			heartbeat = d
		}
	}

	cfg := agent.Config{
		Type:              req.Type,
		Capabilities:      req.Capabilities,
		SystemPrompt:      req.Role,
		MaxConcurrentJobs: req.Config.MaxConcurrentTasks,
		HeartbeatInterval: heartbeat,
		LLM: agent.LLMConfig{
			Model:       req.LLM.Model,
			Temperature: req.LLM.Temperature,
			MaxTokens:   req.LLM.MaxTokens,
		},
	}

	id, err := s.deps.Manager.Create(req.Name, cfg)
	if err != nil {
		writeError(w, apierr.Conflict("duplicate_agent_name", err.Error()))
		return
	}

	if s.deps.Inference != nil {
		if ag, ok := s.deps.Manager.Get(id); ok {
			ag.RegisterInferenceFunctions(s.deps.Inference)
		}
	}

	started := false
	if req.Config.AutoStart {
		started = s.deps.Manager.Start(id)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"agent_id": id,
		"message":  "agent created",
		"started":  started,
	})
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ag, ok := s.deps.Manager.Get(id)
	if !ok {
		writeNotFound(w, "agent_not_found", "agent not found")
		return
	}
	info := ag.GetInfo()
	m, _ := info.ToJSON()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(m)
}

func (s *Server) handleStartAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Manager.Start(id) {
		writeNotFound(w, "agent_not_found", "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "agent started", "agent_id": id})
}

func (s *Server) handleStopAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Manager.Stop(id) {
		writeNotFound(w, "agent_not_found", "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "agent stopped", "agent_id": id})
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Manager.Delete(id) {
		writeNotFound(w, "agent_not_found", "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "agent deleted", "agent_id": id})
}

type executeAgentRequest struct {
	Function   string         `json:"function"`
	Parameters map[string]any `json:"parameters"`
	Model      string         `json:"model"`
}

func (s *Server) handleExecuteAgent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req executeAgentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "malformed_request_body", err.Error())
		return
	}
	if req.Function == "" {
		writeValidationError(w, "missing_field", "function is required")
		return
	}

	params := agentdata.FromMap(req.Parameters)
	result := s.deps.Manager.Execute(r.Context(), id, req.Function, params)

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}

	body := map[string]any{
		"success":  result.Success,
		"message":  result.ErrorMessage,
		"function": req.Function,
		"agent_id": id,
	}
	if result.Success && result.Result != nil {
		body["result"] = result.Result.ToMap()
	}
	writeJSON(w, status, body)
}

func mustNative(d *agentdata.AgentData, key string) any {
	v, _ := d.Get(key)
	return v.Native()
}

func mustInt(d *agentdata.AgentData, key string) int64 {
	n, _ := d.GetInt(key)
	return n
}
