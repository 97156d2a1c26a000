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

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/apierr"
)

func (s *Server) reasoningUnavailable(w http.ResponseWriter) bool {
	if s.deps.Reasoning == nil {
		writeError(w, apierr.Internal("reasoning_unavailable", "the reasoning subsystem is not configured"))
		return true
	}
	return false
}

type reasonAboutRequest struct {
	Goal    string   `json:"goal"`
	Options []string `json:"options"`
}

// handleSuggestApproach is the advisory counterpart to decompose_goal: a
// non-normative strategy hint a caller may use before calling decompose_goal
// (spec.md §4.6's ReasoningSystem is explicitly non-normative).
func (s *Server) handleSuggestApproach(w http.ResponseWriter, r *http.Request) {
	if s.reasoningUnavailable(w) {
		return
	}
	var req reasonAboutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeValidationError(w, "malformed_request_body", err.Error())
		return
	}
	if req.Goal == "" {
		writeValidationError(w, "missing_field", "goal is required")
		return
	}
	body := map[string]any{
		"approach":             s.deps.Reasoning.SuggestApproach(req.Goal),
		"assessment":           s.deps.Reasoning.ReasonAbout(req.Goal),
		"clarifying_questions": s.deps.Reasoning.GenerateClarifyingQuestions(req.Goal),
	}
	if len(req.Options) > 0 {
		body["recommended_option"] = s.deps.Reasoning.MakeDecision(req.Options)
	}
	writeJSON(w, http.StatusOK, body)
}
