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

// Package cost provides stateless cost accounting helpers. Costs roll up
// strictly: call -> step -> cycle -> mission; the mission total is always
// reproducible from the cycle list alone.
package cost

import (
	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/pkg/llm"
	"github.com/launchonomy/launchonomy/pkg/llm/openai"
	"github.com/launchonomy/launchonomy/pkg/mission"
)

// TokenCost returns the USD cost of a call's token usage against the
// model price table. Unknown models fall back to the default cheap
// model with a warning.
func TokenCost(inputTokens, outputTokens int, model string) float64 {
	if !openai.KnownModel(model) {
		zap.L().Warn("unknown model in price table, using fallback pricing",
			zap.String("model", model),
			zap.String("fallback", openai.FallbackModel))
		model = openai.FallbackModel
	}
	return openai.CalculateCost(model, inputTokens, outputTokens)
}

// usageCost resolves a usage record to USD. Records priced at call time
// carry CostUSD; otherwise the cost is derived from tokens against the
// fallback model.
func usageCost(u llm.Usage) float64 {
	if u.CostUSD > 0 {
		return u.CostUSD
	}
	if u.PromptTokens == 0 && u.CompletionTokens == 0 {
		return 0
	}
	return openai.CalculateCost(openai.FallbackModel, u.PromptTokens, u.CompletionTokens)
}

// StepCost returns the cost of one workflow step.
func StepCost(step *mission.StepRecord) float64 {
	if step == nil {
		return 0
	}
	return usageCost(step.Usage)
}

// PlanningCost returns the cost of a cycle's C-Suite planning phase.
func PlanningCost(planning *mission.PlanningRecord) float64 {
	if planning == nil {
		return 0
	}
	return usageCost(planning.Usage)
}

// ReviewCost returns the cost of a cycle's C-Suite review phase.
func ReviewCost(review *mission.ReviewRecord) float64 {
	if review == nil {
		return 0
	}
	return usageCost(review.Usage)
}

// OtherCost sums the direct interaction costs recorded on a cycle that
// are not part of planning, workflow steps, or review (CFO guardrail,
// completion consensus, specialist exchanges).
func OtherCost(cycle *mission.CycleLog) float64 {
	var total float64
	for _, i := range cycle.OrchestratorInteractions {
		total += i.CostUSD
	}
	for _, i := range cycle.SpecialistInteractions {
		total += i.CostUSD
	}
	for _, i := range cycle.ReviewInteractions {
		total += i.CostUSD
	}
	return total
}

// CycleCost sums planning + workflow steps + review + direct costs.
func CycleCost(cycle *mission.CycleLog) float64 {
	if cycle == nil {
		return 0
	}
	total := PlanningCost(cycle.Planning) + ReviewCost(cycle.Review) + OtherCost(cycle)
	for _, step := range cycle.Steps {
		total += StepCost(step)
	}
	return total
}

// MissionCost sums cycle costs across an execution log.
func MissionCost(cycles []*mission.CycleLog) float64 {
	var total float64
	for _, c := range cycles {
		total += CycleCost(c)
	}
	return total
}

// Breakdown categories.
const (
	BreakdownPlanning = "planning"
	BreakdownWorkflow = "workflow"
	BreakdownReview   = "review"
	BreakdownOther    = "other"
)

// Breakdown splits a cycle's cost into planning, workflow, review, and
// other contributions.
func Breakdown(cycle *mission.CycleLog) map[string]float64 {
	out := map[string]float64{
		BreakdownPlanning: 0,
		BreakdownWorkflow: 0,
		BreakdownReview:   0,
		BreakdownOther:    0,
	}
	if cycle == nil {
		return out
	}
	out[BreakdownPlanning] = PlanningCost(cycle.Planning)
	out[BreakdownReview] = ReviewCost(cycle.Review)
	out[BreakdownOther] = OtherCost(cycle)
	for _, step := range cycle.Steps {
		out[BreakdownWorkflow] += StepCost(step)
	}
	return out
}
