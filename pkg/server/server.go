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

// Package server implements the HTTP surface (C9): every route spec.md §6
// names, a permissive CORS middleware, and the uniform
// `{"error":{"type","message","code"}}` error body. It is adapted to
// go-chi/chi/v5, the teacher's own router (pkg/transport/
// http_metrics_middleware.go), wired here as the primary mux rather than
// the thin RouteContext-only use the teacher makes of it.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agent"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentmanager"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/async"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/logger"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/observability"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/planning"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/tool"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/workflow"
)

// Deps are the components the HTTP surface dispatches against.
type Deps struct {
	Manager   *agentmanager.Manager
	Pool      *async.Pool
	Engine    *workflow.Engine
	Collab    *workflow.CollaborationEngine
	Metrics   *observability.Metrics
	Log       *logger.Logger
	Reloader  func(configFile string) error
	Planning  *planning.PlanningSystem
	Reasoning *planning.ReasoningSystem
	Tools     *tool.Registry
	// Inference, when set, is attached to every newly created agent as its
	// "chat"/"complete" built-in functions (spec.md §4.2).
	Inference agent.InferenceClient
}

// Server owns the workflow-definition store on top of Deps and builds the
// chi.Mux every route is registered on.
type Server struct {
	deps Deps

	startTime time.Time

	mu        sync.Mutex
	workflows map[string]workflow.WorkflowDefinition
}

// New builds a Server over deps.
func New(deps Deps) *Server {
	return &Server{
		deps:      deps,
		startTime: time.Now(),
		workflows: make(map[string]workflow.WorkflowDefinition),
	}
}

// Router builds the chi.Mux every spec.md §6 route is registered on.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)
	r.Use(s.accessLogMiddleware)

	r.Route("/v1/agents", func(r chi.Router) {
		r.Get("/", s.handleListAgents)
		r.Post("/", s.handleCreateAgent)
		r.Get("/{id}", s.handleGetAgent)
		r.Put("/{id}/start", s.handleStartAgent)
		r.Put("/{id}/stop", s.handleStopAgent)
		r.Delete("/{id}", s.handleDeleteAgent)
		r.Post("/{id}/execute", s.handleExecuteAgent)
	})

	r.Get("/v1/system/status", s.handleSystemStatus)
	r.Post("/v1/system/reload", s.handleSystemReload)

	r.Post("/workflow/execute", s.handleLegacyWorkflowExecute)
	r.Get("/workflow/requests", s.handleLegacyWorkflowRequests)
	r.Get("/workflow/status", s.handleLegacyWorkflowStatus)

	r.Route("/workflows", func(r chi.Router) {
		r.Post("/", s.handleCreateWorkflow)
		r.Get("/", s.handleListWorkflows)
		r.Delete("/{id}", s.handleDeleteWorkflow)
		r.Post("/execute", s.handleExecuteWorkflow)
		r.Get("/executions/{id}", s.handleGetExecution)
		r.Put("/executions/{id}/pause", s.handlePauseExecution)
		r.Put("/executions/{id}/resume", s.handleResumeExecution)
		r.Put("/executions/{id}/cancel", s.handleCancelExecution)
	})

	r.Route("/v1/plans", func(r chi.Router) {
		r.Post("/", s.handleDecomposeGoal)
		r.Get("/{id}", s.handleGetPlan)
		r.Get("/{id}/ready", s.handleGetReadyTasks)
		r.Put("/{id}/tasks/{taskID}/status", s.handleUpdateTaskStatus)
		r.Put("/{id}/tasks/{taskID}/result", s.handleSetTaskResult)
		r.Get("/{id}/cycles", s.handleDetectCircularDependencies)
		r.Get("/{id}/duration", s.handleEstimatePlanDuration)
		r.Get("/{id}/summary", s.handlePlanSummary)
	})

	r.Post("/v1/reasoning/suggest-approach", s.handleSuggestApproach)

	r.Route("/v1/tools", func(r chi.Router) {
		r.Get("/", s.handleDiscoverTools)
		r.Get("/schemas", s.handleToolSchemas)
		r.Post("/{name}/execute", s.handleExecuteTool)
	})

	r.Get("/metrics", s.handleMetricsJSON)
	r.Get("/metrics/prometheus", s.handleMetricsPrometheus)

	return r
}
