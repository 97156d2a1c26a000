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

package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentdata"
	"github.com/KolosalAI/kolosal-agent-sub000/pkg/agentmanager"
)

// CollaborationEngine runs the six higher-level composition patterns over a
// CollaborationGroup (spec.md §4.8 "Collaboration Engine").
type CollaborationEngine struct {
	manager *agentmanager.Manager
}

// NewCollaborationEngine builds a CollaborationEngine dispatching against
// manager.
func NewCollaborationEngine(manager *agentmanager.Manager) *CollaborationEngine {
	return &CollaborationEngine{manager: manager}
}

// Run dispatches group according to its declared Pattern, with input
// carried as the initial AgentData every pattern starts from.
func (c *CollaborationEngine) Run(ctx context.Context, group CollaborationGroup, input *agentdata.AgentData) agentdata.FunctionResult {
	switch group.Pattern {
	case PatternSequential, PatternPipeline:
		return c.runSequential(ctx, group, input)
	case PatternParallel:
		return c.runParallel(ctx, group, input)
	case PatternConsensus:
		return c.runConsensus(ctx, group, input)
	case PatternHierarchy:
		return c.runHierarchy(ctx, group, input)
	case PatternNegotiation:
		return c.runNegotiation(ctx, group, input)
	default:
		return agentdata.Fail(fmt.Sprintf("unknown collaboration pattern '%s'", group.Pattern))
	}
}

func (c *CollaborationEngine) execute(ctx context.Context, agentID, function string, params *agentdata.AgentData) agentdata.FunctionResult {
	return c.manager.Execute(ctx, agentID, function, params)
}

// runSequential chains agents, each receiving the previous agent's result
// as input (spec.md: "SEQUENTIAL" / "PIPELINE").
func (c *CollaborationEngine) runSequential(ctx context.Context, group CollaborationGroup, input *agentdata.AgentData) agentdata.FunctionResult {
	current := input
	var last agentdata.FunctionResult
	for _, agentID := range group.AgentIDs {
		last = c.execute(ctx, agentID, "process", current)
		if !last.Success {
			return last
		}
		current = last.Result
	}
	return last
}

// runParallel fans out to every agent and aggregates (spec.md: "PARALLEL").
func (c *CollaborationEngine) runParallel(ctx context.Context, group CollaborationGroup, input *agentdata.AgentData) agentdata.FunctionResult {
	results := make(map[string]agentdata.FunctionResult, len(group.AgentIDs))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	for _, id := range group.AgentIDs {
		agentID := id
		eg.Go(func() error {
			r := c.execute(egCtx, agentID, "process", input)
			mu.Lock()
			results[agentID] = r
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	if group.ResultAggregator != nil {
		return agentdata.Ok(group.ResultAggregator(results))
	}

	out := agentdata.New()
	successCount := 0
	i := 0
	for _, id := range group.AgentIDs {
		r, ok := results[id]
		if ok && r.Success {
			successCount++
			out.SetData(fmt.Sprintf("result_%d", i), r.Result)
		}
		i++
	}
	out.SetInt("success_count", int64(successCount))
	return agentdata.Ok(out)
}

// runConsensus runs every agent on "analyze_and_vote" and groups their
// results by a hash of their JSON representation (spec.md: "CONSENSUS").
func (c *CollaborationEngine) runConsensus(ctx context.Context, group CollaborationGroup, input *agentdata.AgentData) agentdata.FunctionResult {
	type vote struct {
		agentID string
		result  agentdata.FunctionResult
		hash    string
	}

	votes := make([]vote, 0, len(group.AgentIDs))
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	for _, id := range group.AgentIDs {
		agentID := id
		eg.Go(func() error {
			r := c.execute(egCtx, agentID, "analyze_and_vote", input)
			h := hashResult(r)
			mu.Lock()
			votes = append(votes, vote{agentID: agentID, result: r, hash: h})
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	buckets := make(map[string][]string)
	successful := 0
	for _, v := range votes {
		if v.result.Success {
			successful++
		}
		buckets[v.hash] = append(buckets[v.hash], v.agentID)
	}

	var winningHash string
	maxVotes := 0
	for hash, voters := range buckets {
		if len(voters) > maxVotes {
			maxVotes = len(voters)
			winningHash = hash
		}
	}
	achieved := maxVotes >= group.ConsensusThreshold

	out := agentdata.New()
	out.SetBool("consensus_achieved", achieved)
	out.SetInt("consensus_votes", int64(maxVotes))
	out.SetInt("required_threshold", int64(group.ConsensusThreshold))
	voters := make([]agentdata.Value, 0, len(buckets[winningHash]))
	for _, v := range buckets[winningHash] {
		voters = append(voters, agentdata.String(v))
	}
	out.Set("winning_voters", agentdata.ListOf(voters))
	participating := make([]agentdata.Value, 0, len(group.AgentIDs))
	for _, id := range group.AgentIDs {
		participating = append(participating, agentdata.String(id))
	}
	out.Set("participating_agents", agentdata.ListOf(participating))
	out.SetInt("successful_agents", int64(successful))
	out.SetInt("total_vote_groups", int64(len(buckets)))
	out.SetString("collaboration_pattern", "consensus")

	return agentdata.FunctionResult{Success: achieved, Result: out}
}

func hashResult(r agentdata.FunctionResult) string {
	var payload []byte
	if r.Result != nil {
		if b, err := r.Result.ToJSON(); err == nil {
			payload = b
		}
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// runHierarchy treats the first agent as master, running "coordinate"
// (spec.md: "HIERARCHY").
func (c *CollaborationEngine) runHierarchy(ctx context.Context, group CollaborationGroup, input *agentdata.AgentData) agentdata.FunctionResult {
	if len(group.AgentIDs) == 0 {
		return agentdata.Fail("collaboration group has no agents")
	}
	master := group.AgentIDs[0]
	params := agentdata.New()
	if input != nil {
		params = input.Clone()
	}
	subs := make([]agentdata.Value, 0, len(group.AgentIDs)-1)
	for _, id := range group.AgentIDs[1:] {
		subs = append(subs, agentdata.String(id))
	}
	params.Set("subordinate_agents", agentdata.ListOf(subs))
	return c.execute(ctx, master, "coordinate", params)
}

// runNegotiation runs up to MaxNegotiationRounds rounds; each round every
// agent runs "negotiate" on the current proposal and the first success
// becomes the next proposal (spec.md: "NEGOTIATION").
func (c *CollaborationEngine) runNegotiation(ctx context.Context, group CollaborationGroup, input *agentdata.AgentData) agentdata.FunctionResult {
	rounds := group.MaxNegotiationRounds
	if rounds <= 0 {
		rounds = 1
	}
	proposal := input
	var last agentdata.FunctionResult
	for round := 0; round < rounds; round++ {
		accepted := false
		for _, agentID := range group.AgentIDs {
			r := c.execute(ctx, agentID, "negotiate", proposal)
			if r.Success {
				proposal = r.Result
				last = r
				accepted = true
				break
			}
			last = r
		}
		if !accepted {
			return last
		}
	}
	return last
}
