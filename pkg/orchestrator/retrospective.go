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
	"github.com/launchonomy/launchonomy/pkg/collaboration"
	"github.com/launchonomy/launchonomy/pkg/mission"
)

// writeRetrospective composes the end-of-mission analysis document and
// saves it under docs/generated in the workspace. When a RetrospectiveAnalyzer
// agent is live it contributes a narrative; otherwise the document is
// assembled from the mission record alone.
func (o *Orchestrator) writeRetrospective(ctx context.Context, log *mission.MissionLog, final string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Retrospective Analysis: %s\n", log.MissionName)
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Mission: %s\n", log.OverallMission)
	fmt.Fprintf(&b, "Final status: %s\n", final)
	fmt.Fprintf(&b, "Cycles: %d (%d completed, %d failed)\n", len(log.CycleIDs), log.CompletedCycles, log.FailedCycles)
	fmt.Fprintf(&b, "Total revenue: $%.2f\n", log.TotalRevenueUSD)
	fmt.Fprintf(&b, "Total spend: $%.4f\n", log.TotalCostUSD)
	fmt.Fprintf(&b, "Tokens: %d in, %d out\n", log.TotalInputTokens, log.TotalOutputTokens)

	if len(log.CycleSummaries) > 0 {
		b.WriteString("\nCycle history:\n")
		for _, s := range log.CycleSummaries {
			fmt.Fprintf(&b, "- %s: focus %s, status %s, cost $%.4f, revenue KPI %.2f\n",
				s.CycleID, s.Focus, s.Status, s.CostUSD, s.KPIs["revenue_usd"])
		}
	}
	if len(log.KeyLearnings) > 0 {
		b.WriteString("\nKey learnings:\n")
		for _, l := range log.KeyLearnings {
			b.WriteString("- " + l + "\n")
		}
	}
	if len(log.PersistentAgents) > 0 {
		b.WriteString("\nAgents used: " + strings.Join(log.PersistentAgents, ", ") + "\n")
	}

	if narrative := o.retrospectiveNarrative(ctx, &b, log, final); narrative != "" {
		b.WriteString("\nAnalysis:\n" + narrative + "\n")
	}

	fileName := fmt.Sprintf("%s_retrospective_analysis.txt", time.Now().UTC().Format("20060102_150405"))
	path, err := o.workspaces.SaveRetrospective(log.MissionID, fileName, b.String())
	if err != nil {
		o.logger.Warn("failed to save retrospective", zap.Error(err))
		return
	}
	o.logger.Info("retrospective saved", zap.String("path", path))
}

// retrospectiveNarrative asks the analyzer agent for a free-form analysis.
// Failures just drop the narrative section.
func (o *Orchestrator) retrospectiveNarrative(ctx context.Context, summary *strings.Builder, log *mission.MissionLog, final string) string {
	if !o.agents.Has(collaboration.RetrospectiveAnalyzerName) {
		return ""
	}
	analyzer := o.agents.Get(collaboration.RetrospectiveAnalyzerName)
	prompt := fmt.Sprintf(
		"Write a short retrospective analysis of this mission. What worked, what did not, and what the next mission should change.\n\n%s",
		summary.String())
	narrative, _, err := o.comm.Ask(ctx, analyzer, prompt, agent.AskOptions{})
	if err != nil {
		o.logger.Debug("retrospective analyzer unavailable", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(narrative)
}
