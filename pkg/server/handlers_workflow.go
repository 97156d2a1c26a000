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

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/workflow"
)

// --- legacy single-operation endpoints (spec.md §6 "legacy workflow
// surface" kept alongside the full workflow/executions API) ---

type legacyWorkflowExecuteRequest struct {
	AgentID    string         `json:"agent_id"`
	Function   string         `json:"function"`
	Parameters map[string]any `json:"parameters"`
}

func (s *Server) handleLegacyWorkflowExecute(w http.ResponseWriter, r *http.Request) {
	var req legacyWorkflowExecuteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "malformed_request_body", err.Error())
		return
	}
	if req.AgentID == "" || req.Function == "" {
		writeValidationError(w, "missing_field", "agent_id and function are required")
		return
	}

	params := agentdata.FromMap(req.Parameters)
	ctx := r.Context()
	future := s.deps.Pool.Submit("agent_function", func() agentdata.FunctionResult {
		return s.deps.Manager.Execute(ctx, req.AgentID, req.Function, params)
	}, 5)

	writeJSON(w, http.StatusAccepted, map[string]any{"request_id": future.OperationID()})
}

func (s *Server) handleLegacyWorkflowRequests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"requests": s.deps.Pool.GetAllOperations()})
}

func (s *Server) handleLegacyWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"running": true,
		"queue":   s.deps.Pool.QueueStatisticsSnapshot(),
		"workers": s.deps.Pool.WorkerStatisticsSnapshot(),
	})
}

// --- full workflow-definition CRUD and execution lifecycle ---

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var def workflow.WorkflowDefinition
	if err := decodeJSON(r, &def); err != nil {
		writeValidationError(w, "malformed_request_body", err.Error())
		return
	}
	if len(def.Steps) == 0 {
		writeValidationError(w, "missing_field", "steps must not be empty")
		return
	}
	if def.ID == "" {
		def.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.workflows[def.ID] = def
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"workflow_id": def.ID})
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defs := make([]workflow.WorkflowDefinition, 0, len(s.workflows))
	for _, def := range s.workflows {
		defs = append(defs, def)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"workflows": defs, "total_count": len(defs)})
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.workflows[id]
	if ok {
		delete(s.workflows, id)
	}
	s.mu.Unlock()

	if !ok {
		writeNotFound(w, "workflow_not_found", "workflow not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "workflow deleted", "workflow_id": id})
}

type executeWorkflowRequest struct {
	WorkflowID string         `json:"workflow_id"`
	InputData  map[string]any `json:"input_data"`
}

func (s *Server) handleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	var req executeWorkflowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "malformed_request_body", err.Error())
		return
	}

	s.mu.Lock()
	def, ok := s.workflows[req.WorkflowID]
	s.mu.Unlock()
	if !ok {
		writeNotFound(w, "workflow_not_found", "workflow not found")
		return
	}

	if req.InputData != nil {
		merged := agentdata.New()
		merged.Merge(def.GlobalContext)
		merged.Merge(agentdata.FromMap(req.InputData))
		def.GlobalContext = merged
	}

	execID := s.deps.Engine.Submit(r.Context(), def)
	writeJSON(w, http.StatusAccepted, map[string]any{"execution_id": execID})
}

func (s *Server) handleGetExecution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	exec, ok := s.deps.Engine.GetExecution(id)
	if !ok {
		writeNotFound(w, "execution_not_found", "execution not found")
		return
	}
	writeJSON(w, http.StatusOK, exec)
}

func (s *Server) handlePauseExecution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Engine.PauseExecution(id) {
		writeNotFound(w, "execution_not_pausable", "execution not found or not running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "execution paused", "execution_id": id})
}

func (s *Server) handleResumeExecution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Engine.ResumeExecution(id) {
		writeNotFound(w, "execution_not_resumable", "execution not found or not paused")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "execution resumed", "execution_id": id})
}

func (s *Server) handleCancelExecution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.deps.Engine.CancelExecution(id) {
		writeNotFound(w, "execution_not_cancellable", "execution not found or already terminal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "execution cancelled", "execution_id": id})
}
