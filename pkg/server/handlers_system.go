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

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/apierr"
)

func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	list := s.deps.Manager.List()
	running, _ := list.GetInt("running_count")
	total, _ := list.GetInt("total_count")

	status := "idle"
	if running > 0 {
		status = "running"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"system_running": running > 0,
		"status":         status,
		"total_agents":   total,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

type systemReloadRequest struct {
	ConfigFile string `json:"config_file"`
}

func (s *Server) handleSystemReload(w http.ResponseWriter, r *http.Request) {
	var req systemReloadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "malformed_request_body", err.Error())
		return
	}
	if req.ConfigFile == "" {
		writeValidationError(w, "missing_field", "config_file is required")
		return
	}
	if s.deps.Reloader == nil {
		writeError(w, apierr.Internal("reload_unavailable", "no reloader configured"))
		return
	}
	if err := s.deps.Reloader(req.ConfigFile); err != nil {
		writeError(w, apierr.Internal("reload_failed", err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "configuration reloaded",
		"config_file": req.ConfigFile,
	})
}
