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

package orchestrator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/pkg/agent"
	"github.com/launchonomy/launchonomy/pkg/mission"
)

// MaxReviewers bounds the Phase 3 review panel.
const MaxReviewers = 2

// StatusDeclinedByCFO marks a growth step the CFO guardrail blocked before
// execution.
const StatusDeclinedByCFO = "declined_by_cfo"

// MaxCompletionParticipants bounds the completion-consensus panel.
const MaxCompletionParticipants = 3

// runReview is Phase 3: up to two strategic reviewers assess the cycle and
// may contribute context updates for the next one. Reviewer failures are
// tolerated.
func (o *Orchestrator) runReview(ctx context.Context, log *mission.MissionLog, cycle *mission.CycleLog) {
	participants := o.strategicParticipants(MaxReviewers)
	record := &mission.ReviewRecord{
		Participants: participants,
		Assessments:  make(map[string]mission.ReviewResponse),
	}

	prompt := o.reviewPrompt(log, cycle)
	for _, name := range participants {
		ag := o.agents.Get(name)
		parsed, spent, err := o.comm.GetJSON(ctx, ag, prompt,
			"Respond with a JSON object containing assessment, adjustments, and next_focus.",
			&cycle.JSONParseAttempts)
		record.Usage.Add(spent)

		if err == nil {
			if m, ok := parsed.(map[string]any); ok {
				resp := mission.ReviewResponse{Source: "structured"}
				resp.Assessment, _ = m["assessment"].(string)
				resp.Adjustments = stringSlice(m["adjustments"])
				resp.NextFocus, _ = m["next_focus"].(string)
				if resp.Assessment != "" {
					record.Assessments[name] = resp
					continue
				}
			}
		}

		raw, askSpent, askErr := o.comm.Ask(ctx, ag, prompt, agent.AskOptions{})
		record.Usage.Add(askSpent)
		if askErr != nil {
			o.logger.Warn("reviewer unresponsive", zap.String("agent", name), zap.Error(askErr))
			continue
		}
		record.Assessments[name] = mission.ReviewResponse{
			Assessment: strings.TrimSpace(raw),
			Source:     "recovered_from_natural_language",
		}
	}

	// Merge adjustments and next-focus hints into context updates.
	updates := make(map[string]any)
	var adjustments []string
	for _, name := range participants {
		resp, ok := record.Assessments[name]
		if !ok {
			continue
		}
		adjustments = append(adjustments, resp.Adjustments...)
		if resp.NextFocus != "" {
			updates["next_focus"] = normalizeFocus(resp.NextFocus)
		}
	}
	if len(adjustments) > 0 {
		updates["adjustments"] = adjustments
	}
	if len(updates) > 0 {
		record.ContextUpdates = updates
	}

	cycle.Review = record
	o.logger.Info("review complete",
		zap.String("cycle_id", cycle.CycleID),
		zap.Int("assessments", len(record.Assessments)))
}

// reviewPrompt summarizes the cycle outcome for the reviewers.
func (o *Orchestrator) reviewPrompt(log *mission.MissionLog, cycle *mission.CycleLog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review cycle %s (focus %s) of mission %q.\n\n", cycle.CycleID, cycle.Focus, log.MissionName)
	b.WriteString("Step outcomes:\n")
	for name, step := range cycle.Steps {
		fmt.Fprintf(&b, "- %s: %s", name, step.Status)
		if step.ErrorMessage != "" {
			fmt.Fprintf(&b, " (%s)", step.ErrorMessage)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nCycle revenue: $%.2f. Mission revenue to date: $%.2f.\n",
		cycle.RevenueUSD, log.TotalRevenueUSD+cycle.RevenueUSD)
	b.WriteString("\nAssess the cycle and recommend adjustments. " +
		"Respond with JSON: {\"assessment\": \"...\", \"adjustments\": [], \"next_focus\": \"...\"}")
	return b.String()
}

// runCFOGuardrail asks the CFO to approve the cycle's growth budget before
// the growth step runs. It is only consulted for cycles that produced
// revenue. When the CFO's answer cannot be parsed, a heuristic scans the
// raw text for affirmative tokens and caps the budget at the configured
// ceiling or fraction of this cycle's revenue, whichever is lower. Without
// a live CFO the budget is declined outright.
func (o *Orchestrator) runCFOGuardrail(ctx context.Context, log *mission.MissionLog, cycle *mission.CycleLog) {
	requested := cycle.KPIs["growth_budget_usd"]
	revenue := cycle.RevenueUSD
	ceiling := math.Min(o.config.BudgetCeilingUSD, revenue*o.config.BudgetRevenueFrac)

	if !o.agents.Has("CFO") {
		decision := &mission.CFODecision{
			Source: "heuristic",
			Reason: "no CFO agent available, budget declined",
		}
		cycle.CFODecision = decision
		cycle.KPIs["approved_budget_usd"] = 0
		o.logger.Warn("cfo guardrail declined budget, no CFO agent",
			zap.String("cycle_id", cycle.CycleID),
			zap.Float64("requested_usd", requested))
		return
	}

	cfo := o.agents.Get("CFO")
	prompt := fmt.Sprintf(
		"The FinanceAgent recommends a growth budget of $%.2f for the next cycle. "+
			"This cycle earned $%.2f in revenue; mission spend to date is $%.4f. "+
			"Approve or reject the budget. "+
			"Respond with JSON: {\"approved\": true, \"budget\": 0, \"reason\": \"...\"}",
		requested, revenue, log.TotalCostUSD)

	decision := &mission.CFODecision{Source: "structured"}
	parsed, spent, err := o.comm.GetJSON(ctx, cfo, prompt,
		"Respond with a JSON object containing approved, budget, and reason.",
		&cycle.JSONParseAttempts)
	recordInteraction(cycle, "CFO", prompt, "", spent)

	if err == nil {
		if m, ok := parsed.(map[string]any); ok {
			if approved, ok := m["approved"].(bool); ok {
				decision.Approved = approved
				decision.Budget, _ = m["budget"].(float64)
				decision.Reason, _ = m["reason"].(string)
			} else {
				err = fmt.Errorf("cfo answer missing approved flag")
			}
		} else {
			err = fmt.Errorf("cfo answer is not an object")
		}
	}

	if err != nil {
		raw, askSpent, askErr := o.comm.Ask(ctx, cfo, prompt, agent.AskOptions{})
		recordInteraction(cycle, "CFO", prompt, raw, askSpent)
		decision.Source = "recovered_from_natural_language"
		decision.Approved = askErr == nil && o.containsAffirmative(raw)
		decision.Budget = ceiling
		decision.Reason = "heuristic recovery from unstructured answer"
	}

	// Approved budgets still obey the guardrail ceiling.
	if decision.Approved && decision.Budget > ceiling {
		decision.Budget = ceiling
		decision.Reason = strings.TrimSpace(decision.Reason + " (capped by guardrail)")
	}
	if !decision.Approved {
		decision.Budget = 0
	}
	cycle.CFODecision = decision
	cycle.KPIs["approved_budget_usd"] = decision.Budget

	o.memory.LogDecision(ctx, "CFO",
		fmt.Sprintf("growth budget $%.2f approved=%t", decision.Budget, decision.Approved),
		decision.Reason)
	o.logger.Info("cfo guardrail applied",
		zap.String("cycle_id", cycle.CycleID),
		zap.Bool("approved", decision.Approved),
		zap.Float64("budget_usd", decision.Budget))
}

// containsAffirmative reports whether raw text carries an approval token.
func (o *Orchestrator) containsAffirmative(text string) bool {
	lower := strings.ToLower(text)
	for _, token := range o.config.AffirmativeTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// runCompletionConsensus asks the strategic subset whether the mission is
// complete. It only convenes once revenue and successful-cycle
// preconditions hold; completion requires a unanimous panel.
func (o *Orchestrator) runCompletionConsensus(ctx context.Context, log *mission.MissionLog, cycle *mission.CycleLog) {
	revenue := log.TotalRevenueUSD + cycle.RevenueUSD
	successful := log.CompletedCycles
	if cycleSucceeded(cycle) {
		successful++
	}
	if revenue < CompletionRevenueThresholdUSD || successful < CompletionSuccessfulCycles {
		return
	}

	participants := o.strategicParticipants(MaxCompletionParticipants)
	if len(participants) == 0 {
		return
	}

	record := &mission.CompletionRecord{
		Participants: participants,
		Votes:        make(map[string]bool),
		Reasonings:   make(map[string]string),
	}
	prompt := fmt.Sprintf(
		"Mission %q has earned $%.2f across %d successful cycles. "+
			"Is the mission complete? "+
			"Respond with JSON: {\"mission_complete\": true, \"reasoning\": \"...\"}",
		log.MissionName, revenue, successful)

	for _, name := range participants {
		ag := o.agents.Get(name)
		parsed, spent, err := o.comm.GetJSON(ctx, ag, prompt,
			"Respond with a JSON object containing mission_complete and reasoning.",
			&cycle.JSONParseAttempts)
		recordInteraction(cycle, name, prompt, "", spent)

		vote := false
		if err == nil {
			if m, ok := parsed.(map[string]any); ok {
				vote, _ = m["mission_complete"].(bool)
				if reasoning, ok := m["reasoning"].(string); ok {
					record.Reasonings[name] = reasoning
				}
			}
		} else {
			record.Reasonings[name] = "unresponsive, counted as not complete"
		}
		record.Votes[name] = vote
	}

	record.Complete = true
	for _, vote := range record.Votes {
		if !vote {
			record.Complete = false
			break
		}
	}
	cycle.CompletionConsensus = record

	o.logger.Info("completion consensus held",
		zap.String("cycle_id", cycle.CycleID),
		zap.Bool("complete", record.Complete),
		zap.Int("participants", len(participants)))
}

// cycleSucceeded reports whether every executed step left the cycle
// healthy.
func cycleSucceeded(cycle *mission.CycleLog) bool {
	if len(cycle.Steps) == 0 {
		return false
	}
	for _, step := range cycle.Steps {
		if !stepAcceptable(step.Status) {
			return false
		}
	}
	return true
}
