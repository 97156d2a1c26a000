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

package planning

import (
	"fmt"
	"strings"
	"sync"
)

// ReasoningSystem is a thin knowledge bag plus keyword-driven advisory
// surfaces (spec.md §4.6): the templates below are a placeholder for an
// LLM-backed implementation and are explicitly non-normative.
type ReasoningSystem struct {
	mu        sync.RWMutex
	knowledge map[string]string
}

// NewReasoningSystem builds an empty ReasoningSystem.
func NewReasoningSystem() *ReasoningSystem {
	return &ReasoningSystem{knowledge: make(map[string]string)}
}

// AddKnowledge records a fact under key.
func (r *ReasoningSystem) AddKnowledge(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.knowledge[key] = value
}

// GetKnowledge looks up a fact by key.
func (r *ReasoningSystem) GetKnowledge(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.knowledge[key]
	return v, ok
}

// HasKnowledge reports whether key is recorded.
func (r *ReasoningSystem) HasKnowledge(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.knowledge[key]
	return ok
}

// ReasonAbout returns a short templated assessment of topic, drawing on
// any recorded knowledge under the same key.
func (r *ReasoningSystem) ReasonAbout(topic string) string {
	if known, ok := r.GetKnowledge(topic); ok {
		return fmt.Sprintf("based on recorded knowledge of %q: %s", topic, known)
	}
	return fmt.Sprintf("no prior knowledge of %q; recommend gathering more context before acting", topic)
}

// SuggestApproach recommends a strategy keyword for goal.
func (r *ReasoningSystem) SuggestApproach(goal string) string {
	lower := strings.ToLower(goal)
	switch {
	case strings.Contains(lower, "urgent") || strings.Contains(lower, "critical"):
		return "PRIORITY_BASED: treat this goal's tasks with priority ordering"
	case strings.Contains(lower, "independent") || strings.Contains(lower, "parallel"):
		return "PARALLEL: tasks appear independent, fan them out"
	case strings.Contains(lower, "depend") || strings.Contains(lower, "sequence"):
		return "DEPENDENCY_AWARE: validate declared dependencies before scheduling"
	default:
		return "SEQUENTIAL: default to a linear chain absent stronger signal"
	}
}

// MakeDecision picks among options using a simple keyword-weighted
// heuristic: the option with the most knowledge-bag hits wins, ties broken
// by declaration order.
func (r *ReasoningSystem) MakeDecision(options []string) string {
	if len(options) == 0 {
		return ""
	}
	best := options[0]
	bestScore := -1
	for _, opt := range options {
		score := 0
		lower := strings.ToLower(opt)
		r.mu.RLock()
		for k := range r.knowledge {
			if strings.Contains(lower, strings.ToLower(k)) {
				score++
			}
		}
		r.mu.RUnlock()
		if score > bestScore {
			best = opt
			bestScore = score
		}
	}
	return best
}

// ReflectOnPerformance renders a short assessment from a completed plan's
// counters.
func (r *ReasoningSystem) ReflectOnPerformance(completed, failed, total int) string {
	if total == 0 {
		return "no tasks executed; nothing to reflect on"
	}
	rate := float64(completed) / float64(total) * 100
	if failed == 0 {
		return fmt.Sprintf("all %d tasks completed successfully (%.0f%%)", total, rate)
	}
	return fmt.Sprintf("%d/%d tasks completed (%.0f%%), %d failed; consider revising the failing steps", completed, total, rate, failed)
}

// GenerateClarifyingQuestions returns a small set of generic clarifying
// questions for an under-specified goal.
func (r *ReasoningSystem) GenerateClarifyingQuestions(goal string) []string {
	return []string{
		fmt.Sprintf("What is the expected output format for %q?", goal),
		"What constraints (time, cost, tools) apply?",
		"Is there existing context or prior work to build on?",
	}
}

// ShouldAskForHelp reports whether failureCount within attemptCount
// warrants escalation (more than half the attempts failed).
func (r *ReasoningSystem) ShouldAskForHelp(failureCount, attemptCount int) bool {
	if attemptCount == 0 {
		return false
	}
	return float64(failureCount)/float64(attemptCount) > 0.5
}
