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
package cost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/launchonomy/launchonomy/pkg/llm"
	"github.com/launchonomy/launchonomy/pkg/mission"
)

func testCycle() *mission.CycleLog {
	c := mission.NewCycle("mission_1", "test focus", time.Now())
	c.Planning = &mission.PlanningRecord{
		Usage: llm.Usage{PromptTokens: 100, CompletionTokens: 50, CostUSD: 0.02},
	}
	c.Steps["ScanAgent"] = &mission.StepRecord{
		Agent: "ScanAgent",
		Usage: llm.Usage{PromptTokens: 200, CompletionTokens: 100, CostUSD: 0.05},
	}
	c.Steps["DeployAgent"] = &mission.StepRecord{
		Agent: "DeployAgent",
		Usage: llm.Usage{PromptTokens: 150, CompletionTokens: 80, CostUSD: 0.03},
	}
	c.Review = &mission.ReviewRecord{
		Usage: llm.Usage{PromptTokens: 50, CompletionTokens: 25, CostUSD: 0.01},
	}
	c.OrchestratorInteractions = append(c.OrchestratorInteractions, mission.Interaction{
		Agent: "CFO", CostUSD: 0.005,
	})
	return c
}

func TestCycleCost(t *testing.T) {
	c := testCycle()
	total := CycleCost(c)
	assert.InDelta(t, 0.115, total, 1e-9)
}

func TestCycleCost_GreaterOrEqualStepSum(t *testing.T) {
	c := testCycle()
	var stepSum float64
	for _, s := range c.Steps {
		stepSum += StepCost(s)
	}
	assert.GreaterOrEqual(t, CycleCost(c), stepSum)
}

func TestMissionCost_ReproducibleFromCycles(t *testing.T) {
	cycles := []*mission.CycleLog{testCycle(), testCycle(), testCycle()}
	assert.InDelta(t, 3*CycleCost(testCycle()), MissionCost(cycles), 1e-9)
}

func TestBreakdown(t *testing.T) {
	c := testCycle()
	b := Breakdown(c)
	assert.InDelta(t, 0.02, b[BreakdownPlanning], 1e-9)
	assert.InDelta(t, 0.08, b[BreakdownWorkflow], 1e-9)
	assert.InDelta(t, 0.01, b[BreakdownReview], 1e-9)
	assert.InDelta(t, 0.005, b[BreakdownOther], 1e-9)

	var sum float64
	for _, v := range b {
		sum += v
	}
	assert.InDelta(t, CycleCost(c), sum, 1e-9)
}

func TestBreakdown_NilCycle(t *testing.T) {
	b := Breakdown(nil)
	assert.Zero(t, b[BreakdownPlanning])
	assert.Zero(t, b[BreakdownWorkflow])
}

func TestTokenCost_FallbackPricing(t *testing.T) {
	known := TokenCost(1_000_000, 1_000_000, "gpt-4o-mini")
	unknown := TokenCost(1_000_000, 1_000_000, "made-up-model")
	assert.InDelta(t, known, unknown, 1e-9)
}

func TestUsageCost_DerivedFromTokens(t *testing.T) {
	// A record without an attached cost is priced from tokens.
	step := &mission.StepRecord{Usage: llm.Usage{PromptTokens: 1_000_000, CompletionTokens: 0}}
	assert.InDelta(t, 0.15, StepCost(step), 1e-9)
}

func TestEstimateTokens(t *testing.T) {
	assert.Zero(t, EstimateTokens("", "gpt-4o-mini"))
	n := EstimateTokens("hello world, this is a token estimation test", "gpt-4o-mini")
	assert.Greater(t, n, 0)
}

func TestInfraEstimator(t *testing.T) {
	e := NewInfraEstimator()

	ests := e.Estimate([]string{"hosting", "domain", "nonexistent"})
	assert.Len(t, ests, 2)

	total := e.MonthlyTotal([]string{"hosting", "domain"})
	assert.InDelta(t, 6.00, total, 1e-9)

	assert.Contains(t, e.Services(), "payment_processing")
}
