// Copyright 2026 Launchonomy
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package collaboration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/pkg/agent"
	"github.com/launchonomy/launchonomy/pkg/llm"
	"github.com/launchonomy/launchonomy/pkg/mission"
)

// Agent names that never act as reviewers.
const (
	OrchestratorName           = "Orchestrator"
	RetrospectiveAnalyzerName  = "RetrospectiveAnalyzer"
	synthesizedReviewerName    = "System"
	synthesizedReviewTextEmpty = "Auto-approved: no eligible reviewers available."
)

// Review is one reviewer's verdict.
type Review struct {
	Reviewer   string  `json:"reviewer"`
	Approved   bool    `json:"approved"`
	Feedback   string  `json:"feedback"`
	Confidence float64 `json:"estimated_confidence_if_approved"`
}

// ReviewManager runs batch peer reviews and consensus polls over the live
// agent population.
type ReviewManager struct {
	agents *agent.Manager
	comm   *agent.Communicator
	logger *zap.Logger
}

// NewReviewManager builds a review manager over the live agent map.
func NewReviewManager(agents *agent.Manager, comm *agent.Communicator, logger *zap.Logger) *ReviewManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewManager{agents: agents, comm: comm, logger: logger}
}

// eligibleReviewers filters the candidate list down to agents allowed to
// review the subject.
func eligibleReviewers(subject string, available []string) []string {
	var out []string
	for _, name := range available {
		if name == subject || name == OrchestratorName || name == RetrospectiveAnalyzerName {
			continue
		}
		out = append(out, name)
	}
	return out
}

// BatchPeerReview asks every eligible agent to review the subject's content
// and returns the reviews with the summed usage. With no eligible reviewers
// the content is auto-approved by a synthesized System review at zero cost.
func (r *ReviewManager) BatchPeerReview(ctx context.Context, subject, content string, available []string, reviewLog *[]mission.Interaction, jsonLog *[]mission.ParseAttempt, final bool) ([]Review, llm.Usage, error) {
	reviewers := eligibleReviewers(subject, available)
	if len(reviewers) == 0 {
		return []Review{{
			Reviewer:   synthesizedReviewerName,
			Approved:   true,
			Feedback:   synthesizedReviewTextEmpty,
			Confidence: 1,
		}}, llm.Usage{}, nil
	}

	stage := "proposal"
	if final {
		stage = "final output"
	}
	prompt := fmt.Sprintf(`Review this %s produced by %s:

%s

Return a JSON object with keys "approved" (boolean), "feedback" (string), and "estimated_confidence_if_approved" (number between 0 and 1).`,
		stage, subject, content)

	var reviews []Review
	var total llm.Usage
	for _, name := range reviewers {
		reviewer := r.agents.Get(name)
		if reviewer == nil {
			continue
		}

		parsed, usage, err := r.comm.GetJSON(ctx, reviewer, prompt,
			"Return only the review JSON object.", jsonLog)
		total.Add(usage)

		review := Review{Reviewer: name}
		var response string
		if err != nil {
			// A reviewer that cannot produce a verdict counts as a
			// non-approval with its error as feedback.
			review.Feedback = err.Error()
			response = err.Error()
			r.logger.Warn("peer review failed",
				zap.String("reviewer", name),
				zap.String("subject", subject),
				zap.Error(err))
		} else if obj, ok := parsed.(map[string]any); ok {
			review.Approved, _ = obj["approved"].(bool)
			review.Feedback, _ = obj["feedback"].(string)
			if c, ok := obj["estimated_confidence_if_approved"].(float64); ok {
				review.Confidence = c
			}
			response = fmt.Sprintf("approved=%t feedback=%s", review.Approved, review.Feedback)
		}
		reviews = append(reviews, review)

		if reviewLog != nil {
			*reviewLog = append(*reviewLog, mission.Interaction{
				Timestamp:    time.Now().UTC(),
				Agent:        name,
				Prompt:       prompt,
				Response:     response,
				CostUSD:      usage.CostUSD,
				InputTokens:  usage.PromptTokens,
				OutputTokens: usage.CompletionTokens,
			})
		}
	}
	return reviews, total, nil
}

// Approved applies the majority predicate over a review set.
func Approved(reviews []Review) bool {
	votes := make([]Vote, 0, len(reviews))
	for _, review := range reviews {
		votes = append(votes, Vote{
			Voter:   review.Reviewer,
			Approve: review.Approved,
			Weight:  review.Confidence,
		})
	}
	return Majority(votes)
}

// ProposalConsensus polls the named voters on a proposal and applies the
// predicate. Voters that fail to answer count as rejections. An empty or
// fully unregistered panel accepts via a synthesized System vote.
func (r *ReviewManager) ProposalConsensus(ctx context.Context, description string, voters []string, predicate Predicate, jsonLog *[]mission.ParseAttempt) (bool, []Vote, llm.Usage, error) {
	prompt := fmt.Sprintf(`A proposal needs your vote:

%s

Return a JSON object with keys "approve" (boolean) and "reason" (string).`, description)

	var votes []Vote
	var total llm.Usage
	for _, name := range voters {
		voter := r.agents.Get(name)
		if voter == nil {
			continue
		}
		parsed, usage, err := r.comm.GetJSON(ctx, voter, prompt,
			"Return only the vote JSON object.", jsonLog)
		total.Add(usage)

		vote := Vote{Voter: name}
		if err == nil {
			if obj, ok := parsed.(map[string]any); ok {
				vote.Approve, _ = obj["approve"].(bool)
				vote.Reason, _ = obj["reason"].(string)
			}
		} else {
			vote.Reason = "no parseable vote: " + err.Error()
		}
		votes = append(votes, vote)
	}

	// No live voters works like an empty review panel: a synthesized
	// System approval accepts the proposal at zero cost.
	if len(votes) == 0 {
		votes = append(votes, Vote{
			Voter:   synthesizedReviewerName,
			Approve: true,
			Reason:  synthesizedReviewTextEmpty,
		})
	}

	if predicate == nil {
		predicate = Majority
	}
	accepted := predicate(votes)
	r.logger.Info("proposal consensus",
		zap.Bool("accepted", accepted),
		zap.Int("votes", len(votes)),
		zap.String("proposal", firstLine(description)))
	return accepted, votes, total, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
