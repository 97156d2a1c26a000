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

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/apierr"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/planning"
)

func (s *Server) planningUnavailable(w http.ResponseWriter) bool {
	if s.deps.Planning == nil {
		writeError(w, apierr.Internal("planning_unavailable", "the planning subsystem is not configured"))
		return true
	}
	return false
}

type decomposeGoalRequest struct {
	Goal     string         `json:"goal"`
	Strategy string         `json:"strategy"`
	Context  map[string]any `json:"context"`
}

// handleDecomposeGoal implements decompose_goal (spec.md §4.6).
func (s *Server) handleDecomposeGoal(w http.ResponseWriter, r *http.Request) {
	if s.planningUnavailable(w) {
		return
	}
	var req decomposeGoalRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "malformed_request_body", err.Error())
		return
	}
	if req.Goal == "" {
		writeValidationError(w, "missing_field", "goal is required")
		return
	}
	strategy := planning.StrategySequential
	if req.Strategy != "" {
		strategy = planning.Strategy(req.Strategy)
	}

	plan := s.deps.Planning.DecomposeGoal(req.Goal, agentdata.FromMap(req.Context), strategy)
	writeJSON(w, http.StatusCreated, planToMap(plan))
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	if s.planningUnavailable(w) {
		return
	}
	plan, ok := s.deps.Planning.GetPlan(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "plan_not_found", "plan not found")
		return
	}
	writeJSON(w, http.StatusOK, planToMap(plan))
}

func (s *Server) handleGetReadyTasks(w http.ResponseWriter, r *http.Request) {
	if s.planningUnavailable(w) {
		return
	}
	tasks, err := s.deps.Planning.GetReadyTasks(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "plan_not_found", err.Error())
		return
	}
	out := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToMap(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": out})
}

type updateTaskStatusRequest struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func (s *Server) handleUpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	if s.planningUnavailable(w) {
		return
	}
	var req updateTaskStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "malformed_request_body", err.Error())
		return
	}
	if req.Status == "" {
		writeValidationError(w, "missing_field", "status is required")
		return
	}
	err := s.deps.Planning.UpdateTaskStatus(chi.URLParam(r, "id"), chi.URLParam(r, "taskID"),
		planning.TaskStatus(req.Status), req.Error)
	if err != nil {
		writeNotFound(w, "task_not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "task status updated"})
}

type setTaskResultRequest struct {
	Result        map[string]any `json:"result"`
	ActualSeconds float64        `json:"actual_seconds"`
}

func (s *Server) handleSetTaskResult(w http.ResponseWriter, r *http.Request) {
	if s.planningUnavailable(w) {
		return
	}
	var req setTaskResultRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "malformed_request_body", err.Error())
		return
	}
	err := s.deps.Planning.SetTaskResult(chi.URLParam(r, "id"), chi.URLParam(r, "taskID"),
		agentdata.FromMap(req.Result), req.ActualSeconds)
	if err != nil {
		writeNotFound(w, "task_not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "task result recorded"})
}

func (s *Server) handleDetectCircularDependencies(w http.ResponseWriter, r *http.Request) {
	if s.planningUnavailable(w) {
		return
	}
	cycle, err := s.deps.Planning.DetectCircularDependencies(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "plan_not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cycle": cycle, "has_cycle": len(cycle) > 0})
}

func (s *Server) handleEstimatePlanDuration(w http.ResponseWriter, r *http.Request) {
	if s.planningUnavailable(w) {
		return
	}
	seconds, err := s.deps.Planning.EstimatePlanDuration(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "plan_not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"estimated_seconds": seconds})
}

func (s *Server) handlePlanSummary(w http.ResponseWriter, r *http.Request) {
	if s.planningUnavailable(w) {
		return
	}
	summary, err := s.deps.Planning.Summary(chi.URLParam(r, "id"))
	if err != nil {
		writeNotFound(w, "plan_not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": summary})
}

func planToMap(plan *planning.ExecutionPlan) map[string]any {
	tasks := make(map[string]any, len(plan.Tasks))
	for id, t := range plan.Tasks {
		tasks[id] = taskToMap(t)
	}
	return map[string]any{
		"id":       plan.ID,
		"goal":     plan.Goal,
		"strategy": string(plan.Strategy),
		"tasks":    tasks,
		"order":    plan.Order,
		"progress": plan.Progress(),
	}
}

func taskToMap(t *planning.Task) map[string]any {
	deps := make([]string, 0, len(t.Dependencies))
	for d := range t.Dependencies {
		deps = append(deps, d)
	}
	m := map[string]any{
		"id":                t.ID,
		"name":              t.Name,
		"function_name":     t.FunctionName,
		"priority":          int(t.Priority),
		"status":            string(t.Status),
		"dependencies":      deps,
		"estimated_seconds": t.EstimatedSeconds,
		"actual_seconds":    t.ActualSeconds,
	}
	if t.Error != "" {
		m["error"] = t.Error
	}
	if t.Result != nil {
		m["result"] = t.Result.ToMap()
	}
	return m
}
