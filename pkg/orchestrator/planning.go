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
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/pkg/agent"
	"github.com/launchonomy/launchonomy/pkg/llm"
	"github.com/launchonomy/launchonomy/pkg/mission"
)

// DefaultStrategicFocus is used when no participant produced a usable
// planning answer.
const DefaultStrategicFocus = "general_strategy"

// MaxPlanningParticipants bounds the Phase 1 planning panel.
const MaxPlanningParticipants = 3

// focusKeywords salvage a strategic focus from free-form planning answers
// that failed JSON extraction. First match wins.
var focusKeywords = []struct {
	keyword string
	focus   string
}{
	{"customer", "customer_acquisition"},
	{"product", "product_development"},
	{"marketing", "marketing_optimization"},
	{"growth", "growth_acceleration"},
}

// focusActions maps an elected strategic focus to the cycle's next actions.
var focusActions = map[string][]string{
	"customer_acquisition": {
		"identify highest-intent customer segments",
		"launch targeted acquisition experiments",
		"measure cost per acquired customer",
	},
	"product_development": {
		"ship the smallest sellable product increment",
		"collect direct user feedback",
		"prioritize fixes that unblock purchases",
	},
	"marketing_optimization": {
		"audit active campaign performance",
		"reallocate spend to converting channels",
		"refresh messaging on weak creatives",
	},
	"growth_acceleration": {
		"double down on the best-performing channel",
		"expand proven offers to adjacent segments",
		"verify unit economics stay positive",
	},
	DefaultStrategicFocus: {
		"assess current market position",
		"execute the workflow pipeline end to end",
		"record learnings for the next cycle",
	},
}

// runPlanning is Phase 1. It consults the strategic C-Suite subset, elects
// a focus by plurality, and stamps the cycle with focus and next actions.
// Participant failures never abort the phase.
func (o *Orchestrator) runPlanning(ctx context.Context, log *mission.MissionLog, cycle *mission.CycleLog) {
	participants := o.strategicParticipants(MaxPlanningParticipants)
	record := &mission.PlanningRecord{
		Participants: participants,
		Responses:    make(map[string]mission.PlanResponse),
	}

	prompt := o.planningPrompt(log, cycle)
	for _, name := range participants {
		resp := o.askForPlan(ctx, name, prompt, cycle, record)
		record.Responses[name] = resp
	}

	record.StrategicFocus = electFocus(participants, record.Responses)
	actions, ok := focusActions[record.StrategicFocus]
	if !ok {
		actions = focusActions[DefaultStrategicFocus]
	}
	record.NextActions = actions

	cycle.Planning = record
	cycle.Focus = record.StrategicFocus

	o.memory.LogDecision(ctx, "C-Suite", "strategic focus: "+record.StrategicFocus,
		fmt.Sprintf("elected by %d participants in cycle %s", len(participants), cycle.CycleID))

	o.logger.Info("planning complete",
		zap.String("cycle_id", cycle.CycleID),
		zap.String("strategic_focus", record.StrategicFocus),
		zap.Strings("participants", participants))
}

// askForPlan queries one participant. Structured answers are preferred;
// unparseable ones are salvaged by keyword matching against the raw text.
func (o *Orchestrator) askForPlan(ctx context.Context, name, prompt string, cycle *mission.CycleLog, record *mission.PlanningRecord) mission.PlanResponse {
	ag := o.agents.Get(name)
	parsed, spent, err := o.comm.GetJSON(ctx, ag, prompt,
		"Respond with a JSON object containing focus, budget_recommendation, risks, and opportunities.",
		&cycle.JSONParseAttempts)
	record.Usage.Add(spent)

	if err == nil {
		if m, ok := parsed.(map[string]any); ok {
			if focus, _ := m["focus"].(string); focus != "" {
				resp := mission.PlanResponse{
					Focus:  normalizeFocus(focus),
					Source: "structured",
				}
				if budget, ok := m["budget_recommendation"].(float64); ok {
					resp.BudgetRecommendation = budget
				}
				resp.Risks = stringSlice(m["risks"])
				resp.Opportunities = stringSlice(m["opportunities"])
				return resp
			}
		}
	}

	// Salvage: one plain-text attempt, then keyword matching.
	raw, askSpent, askErr := o.comm.Ask(ctx, ag, prompt, agent.AskOptions{})
	record.Usage.Add(askSpent)
	if askErr != nil {
		o.logger.Warn("planning participant unresponsive",
			zap.String("agent", name), zap.Error(askErr))
		return mission.PlanResponse{Focus: DefaultStrategicFocus, Source: "recovered_from_natural_language"}
	}
	return mission.PlanResponse{
		Focus:  salvageFocus(raw),
		Source: "recovered_from_natural_language",
	}
}

// planningPrompt summarizes the mission state for the C-Suite.
func (o *Orchestrator) planningPrompt(log *mission.MissionLog, cycle *mission.CycleLog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Strategic planning for cycle %d of mission %q.\n\n", cycle.SequenceNumber, log.MissionName)
	fmt.Fprintf(&b, "Mission: %s\n", log.OverallMission)
	fmt.Fprintf(&b, "Revenue to date: $%.2f. Spend to date: $%.4f. Completed cycles: %d. Failed cycles: %d.\n",
		log.TotalRevenueUSD, log.TotalCostUSD, log.CompletedCycles, log.FailedCycles)

	if len(cycle.CarriedSummaries) > 0 {
		b.WriteString("\nRecent cycles:\n")
		for _, s := range cycle.CarriedSummaries {
			fmt.Fprintf(&b, "- %s: focus %s, status %s, revenue KPI %.2f\n",
				s.CycleID, s.Focus, s.Status, s.KPIs["revenue_usd"])
		}
	}
	if len(cycle.CarriedKeyLearnings) > 0 {
		b.WriteString("\nKey learnings:\n")
		for _, l := range cycle.CarriedKeyLearnings {
			b.WriteString("- " + l + "\n")
		}
	}

	b.WriteString("\nRecommend the single strategic focus for this cycle. " +
		"Respond with JSON: {\"focus\": \"...\", \"budget_recommendation\": 0, \"risks\": [], \"opportunities\": []}")
	return b.String()
}

// electFocus picks the plurality focus across responses. Ties break in
// participant order so the CEO's pick wins an even split.
func electFocus(participants []string, responses map[string]mission.PlanResponse) string {
	if len(responses) == 0 {
		return DefaultStrategicFocus
	}
	counts := make(map[string]int)
	for _, resp := range responses {
		counts[resp.Focus]++
	}
	best, bestCount := DefaultStrategicFocus, 0
	for _, name := range participants {
		resp, ok := responses[name]
		if !ok {
			continue
		}
		if counts[resp.Focus] > bestCount {
			best, bestCount = resp.Focus, counts[resp.Focus]
		}
	}
	return best
}

// normalizeFocus maps a structured answer onto the known focus vocabulary,
// keeping unknown but plausible snake_case values as-is.
func normalizeFocus(focus string) string {
	focus = strings.TrimSpace(strings.ToLower(focus))
	if focus == "" {
		return DefaultStrategicFocus
	}
	if _, ok := focusActions[focus]; ok {
		return focus
	}
	if salvaged := salvageFocus(focus); salvaged != DefaultStrategicFocus {
		return salvaged
	}
	return strings.ReplaceAll(focus, " ", "_")
}

// salvageFocus recovers a focus from free-form text by keyword. The first
// keyword present wins.
func salvageFocus(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range focusKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.focus
		}
	}
	return DefaultStrategicFocus
}

// stringSlice coerces a decoded JSON array into []string, dropping
// non-string members.
func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// recordInteraction appends an orchestrator-level exchange to the cycle.
func recordInteraction(cycle *mission.CycleLog, agentName, prompt, response string, usage llm.Usage) {
	cycle.OrchestratorInteractions = append(cycle.OrchestratorInteractions, mission.Interaction{
		Timestamp:    time.Now().UTC(),
		Agent:        agentName,
		Prompt:       prompt,
		Response:     response,
		CostUSD:      usage.CostUSD,
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
	})
}
