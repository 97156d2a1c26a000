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
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/apierr"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/tool"
)

func (s *Server) toolsUnavailable(w http.ResponseWriter) bool {
	if s.deps.Tools == nil {
		writeError(w, apierr.Internal("tool_registry_unavailable", "the tool registry is not configured"))
		return true
	}
	return false
}

func filterFromQuery(r *http.Request) tool.Filter {
	q := r.URL.Query()
	f := tool.Filter{NameRegex: q.Get("name")}
	if cats := q.Get("categories"); cats != "" {
		f.Categories = strings.Split(cats, ",")
	}
	if tags := q.Get("tags"); tags != "" {
		f.Tags = strings.Split(tags, ",")
	}
	if cost := q.Get("max_cost"); cost != "" {
		if v, err := strconv.ParseFloat(cost, 64); err == nil {
			f.MaxCost = v
		}
	}
	return f
}

// handleDiscoverTools implements the C3 discover operation (spec.md §4.3).
func (s *Server) handleDiscoverTools(w http.ResponseWriter, r *http.Request) {
	if s.toolsUnavailable(w) {
		return
	}
	names := s.deps.Tools.Discover(filterFromQuery(r))
	writeJSON(w, http.StatusOK, map[string]any{"tools": names, "count": len(names)})
}

// handleToolSchemas implements get_schemas.
func (s *Server) handleToolSchemas(w http.ResponseWriter, r *http.Request) {
	if s.toolsUnavailable(w) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schemas": s.deps.Tools.GetSchemas(filterFromQuery(r))})
}

type executeToolRequest struct {
	Parameters map[string]any `json:"parameters"`
	AgentID    string         `json:"agent_id"`
}

// handleExecuteTool dispatches a registered tool by name (spec.md §4.3's
// uniform tool-execution boundary).
func (s *Server) handleExecuteTool(w http.ResponseWriter, r *http.Request) {
	if s.toolsUnavailable(w) {
		return
	}
	name := chi.URLParam(r, "name")
	var req executeToolRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "malformed_request_body", err.Error())
		return
	}
	if !s.deps.Tools.Has(name) {
		writeNotFound(w, "tool_not_found", "tool not found")
		return
	}

	result := s.deps.Tools.Execute(r.Context(), name, agentdata.FromMap(req.Parameters), tool.Context{
		AgentID: req.AgentID,
	})
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	body := map[string]any{"success": result.Success, "message": result.ErrorMessage, "tool": name}
	if result.Success && result.Result != nil {
		body["result"] = result.Result.ToMap()
	}
	writeJSON(w, status, body)
}
