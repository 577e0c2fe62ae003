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
	"time"

	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/pkg/agent"
	"github.com/launchonomy/launchonomy/pkg/agent/builtin"
	"github.com/launchonomy/launchonomy/pkg/mission"
	"github.com/launchonomy/launchonomy/pkg/provision"
)

// runPipeline is Phase 2: the fixed six-step workflow. Each step is
// isolated; a failing step is recorded and the pipeline continues so later
// steps still contribute data. Missing required tools trigger
// auto-provisioning before the step runs.
func (o *Orchestrator) runPipeline(ctx context.Context, log *mission.MissionLog, cycle *mission.CycleLog) {
	missionContext := o.missions.GetMissionContextForAgents(log)
	cycleContext := map[string]any{
		"cycle_id":        cycle.CycleID,
		"sequence_number": cycle.SequenceNumber,
		"focus":           cycle.Focus,
	}
	var guidance map[string]any
	if cycle.Planning != nil {
		guidance = map[string]any{
			"strategic_focus": cycle.Planning.StrategicFocus,
			"next_actions":    cycle.Planning.NextActions,
		}
	}

	// carry holds data handed from step to step.
	carry := make(map[string]any)

	for _, name := range builtin.Pipeline {
		wf := o.resolveStepAgent(ctx, name, cycle)
		if wf == nil {
			recordUnresolvedStep(cycle, name)
			continue
		}
		// The CFO gates growth spend, but only over cycles that earned
		// revenue; a zero-revenue cycle has no budget to apportion.
		if name == builtin.GrowthAgentName && cycle.RevenueUSD > 0 {
			o.runCFOGuardrail(ctx, log, cycle)
			if d := cycle.CFODecision; d != nil {
				if !d.Approved {
					now := time.Now().UTC()
					cycle.Steps[name] = &mission.StepRecord{
						Agent:        name,
						Status:       StatusDeclinedByCFO,
						ErrorMessage: d.Reason,
						Timestamp:    now,
					}
					cycle.ExecutionAttempts = append(cycle.ExecutionAttempts, mission.ExecutionAttempt{
						Timestamp: now,
						Step:      name,
						Agent:     name,
						Status:    StatusDeclinedByCFO,
					})
					o.memory.LogDecision(ctx, "CFO", "growth step declined", d.Reason)
					continue
				}
				carry["approved_budget_usd"] = d.Budget
			}
		}

		o.ensureTools(ctx, wf, cycle)

		in := agent.Input{
			TaskDescription: stepTask(name, cycle.Focus),
			MissionContext:  missionContext,
			CycleContext:    cycleContext,
			CSuiteGuidance:  guidance,
			Extra:           stepExtra(name, carry, cycle),
		}

		out, err := wf.Execute(ctx, in)
		if err != nil || out == nil {
			out = &agent.Output{
				Status:       agent.StatusFailure,
				ErrorMessage: fmt.Sprintf("step execution error: %v", err),
			}
		}

		// Self-reported spend (infra, ad buys) rides on top of the LLM
		// token cost.
		stepUsage := out.Usage
		stepUsage.CostUSD = out.Cost

		now := time.Now().UTC()
		cycle.Steps[name] = &mission.StepRecord{
			Agent:        name,
			Status:       out.Status,
			Data:         out.Data,
			Confidence:   out.Confidence,
			ToolsUsed:    out.ToolsUsed,
			NextSteps:    out.NextSteps,
			ErrorMessage: out.ErrorMessage,
			Usage:        stepUsage,
			Timestamp:    now,
		}
		cycle.ExecutionAttempts = append(cycle.ExecutionAttempts, mission.ExecutionAttempt{
			Timestamp: now,
			Step:      name,
			Agent:     name,
			Status:    out.Status,
			Error:     out.ErrorMessage,
		})
		cycle.ToolsUsed = appendUnique(cycle.ToolsUsed, out.ToolsUsed...)
		cycle.AgentsUsed = appendUnique(cycle.AgentsUsed, name)

		o.absorbStep(ctx, name, out, carry, cycle)

		o.logger.Info("workflow step finished",
			zap.String("cycle_id", cycle.CycleID),
			zap.String("step", name),
			zap.String("status", out.Status),
			zap.Float64("cost_usd", out.Cost))
	}
}

// stepTask phrases each step's task in terms of the cycle focus.
func stepTask(name, focus string) string {
	switch name {
	case builtin.ScanAgentName:
		return fmt.Sprintf("Scan the market for opportunities aligned with the %s focus and rank them.", focus)
	case builtin.DeployAgentName:
		return "Deploy the selected opportunity as a minimal sellable product or service."
	case builtin.CampaignAgentName:
		return "Launch a marketing campaign for the deployed product."
	case builtin.AnalyticsAgentName:
		return "Measure the results of this cycle's deployment and campaign, including revenue."
	case builtin.FinanceAgentName:
		return "Review the cycle's financials and recommend a growth budget within guardrails."
	case builtin.GrowthAgentName:
		return "Execute growth actions within the approved budget."
	}
	return fmt.Sprintf("Execute the %s step for the %s focus.", name, focus)
}

// stepExtra wires the step-specific inputs each agent depends on.
func stepExtra(name string, carry map[string]any, cycle *mission.CycleLog) map[string]any {
	extra := make(map[string]any)
	switch name {
	case builtin.DeployAgentName:
		if v, ok := carry["top_opportunity"]; ok {
			extra["top_opportunity"] = v
		}
	case builtin.CampaignAgentName:
		if v, ok := carry["product"]; ok {
			extra["product"] = v
		}
	case builtin.AnalyticsAgentName:
		extra["cycle_results"] = stepStatuses(cycle)
	case builtin.FinanceAgentName:
		extra["revenue_usd"] = cycle.RevenueUSD
	case builtin.GrowthAgentName:
		extra["revenue_usd"] = cycle.RevenueUSD
		if v, ok := carry["approved_budget_usd"]; ok {
			extra["approved_budget_usd"] = v
		}
	}
	return extra
}

// absorbStep extracts the data later steps and the mission record depend
// on, and logs the outcome to mission memory.
func (o *Orchestrator) absorbStep(ctx context.Context, name string, out *agent.Output, carry map[string]any, cycle *mission.CycleLog) {
	if out.Status == agent.StatusSuccess && out.Data != nil {
		switch name {
		case builtin.ScanAgentName:
			if v, ok := out.Data["top_opportunity"]; ok {
				carry["top_opportunity"] = v
			} else if opps, ok := out.Data["opportunities"].([]any); ok && len(opps) > 0 {
				carry["top_opportunity"] = opps[0]
			}
		case builtin.DeployAgentName:
			if v, ok := out.Data["product"]; ok {
				carry["product"] = v
			} else {
				carry["product"] = out.Data
			}
		case builtin.AnalyticsAgentName:
			if revenue, ok := numberKey(out.Data, "revenue", "revenue_usd"); ok {
				cycle.RevenueUSD = revenue
				cycle.KPIs["revenue_usd"] = revenue
			}
			if conversions, ok := numberKey(out.Data, "conversions"); ok {
				cycle.KPIs["conversions"] = conversions
			}
		case builtin.FinanceAgentName:
			if budget, ok := numberKey(out.Data, "recommended_growth_budget_usd"); ok {
				carry["approved_budget_usd"] = budget
				cycle.KPIs["growth_budget_usd"] = budget
			}
		}
	}

	if out.Status == agent.StatusSuccess {
		o.memory.LogWorkflowEvent(ctx, name, name, "step completed",
			map[string]string{"cycle_id": cycle.CycleID, "focus": cycle.Focus})
	} else {
		o.memory.LogErrorOrFailure(ctx, name, name, out.ErrorMessage)
	}
}

// resolveStepAgent resolves a pipeline step's agent through the registry,
// requesting auto-provision when it is missing. Returns nil when the agent
// still cannot be resolved afterwards.
func (o *Orchestrator) resolveStepAgent(ctx context.Context, name string, cycle *mission.CycleLog) agent.Workflow {
	if o.registry != nil && !o.registry.HasAgent(name) {
		if o.provision != nil {
			req := provision.Request{
				Type:        "agent",
				Name:        name,
				Reason:      "not_found",
				RequestedBy: "orchestrator",
			}
			result, err := o.provision.Provision(ctx, req, o.strategicParticipants(3), cycle)
			if err != nil {
				o.logger.Warn("agent provisioning failed",
					zap.String("agent", name), zap.Error(err))
			} else {
				o.logger.Info("agent provisioning requested",
					zap.String("agent", name),
					zap.Bool("accepted", result.Accepted))
			}
		}
		if !o.registry.HasAgent(name) {
			return nil
		}
	}
	return builtin.New(name, o.comm, o.logger)
}

// recordUnresolvedStep marks a pipeline step failed because its agent could
// not be resolved or provisioned.
func recordUnresolvedStep(cycle *mission.CycleLog, name string) {
	now := time.Now().UTC()
	msg := "agent not registered and auto-provision declined"
	cycle.Steps[name] = &mission.StepRecord{
		Agent:        name,
		Status:       agent.StatusFailure,
		ErrorMessage: msg,
		Timestamp:    now,
	}
	cycle.ExecutionAttempts = append(cycle.ExecutionAttempts, mission.ExecutionAttempt{
		Timestamp: now,
		Step:      name,
		Agent:     name,
		Status:    agent.StatusFailure,
		Error:     msg,
	})
}

// ensureTools auto-provisions any required tool missing from the registry.
// Provisioning failures degrade the step, never the cycle.
func (o *Orchestrator) ensureTools(ctx context.Context, wf agent.Workflow, cycle *mission.CycleLog) {
	if o.provision == nil || o.registry == nil {
		return
	}
	voters := o.strategicParticipants(3)
	for _, tool := range wf.RequiredTools() {
		if o.registry.GetToolSpec(tool) != nil {
			continue
		}
		req := provision.Request{
			Type:        "tool",
			Name:        tool,
			Reason:      "not_found",
			RequestedBy: wf.Name(),
		}
		result, err := o.provision.Provision(ctx, req, voters, cycle)
		if err != nil {
			o.logger.Warn("tool provisioning failed",
				zap.String("tool", tool),
				zap.String("requested_by", wf.Name()),
				zap.Error(err))
			continue
		}
		o.logger.Info("tool provisioned",
			zap.String("tool", tool),
			zap.Bool("accepted", result.Accepted),
			zap.String("source", result.Source))
	}
}

// stepStatuses summarizes the pipeline so far for the analytics step.
func stepStatuses(cycle *mission.CycleLog) map[string]any {
	out := make(map[string]any, len(cycle.Steps))
	for name, step := range cycle.Steps {
		out[name] = step.Status
	}
	return out
}

// numberKey returns the first numeric value found under the given keys.
func numberKey(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		}
	}
	return 0, false
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		exists := false
		for _, have := range list {
			if have == item {
				exists = true
				break
			}
		}
		if !exists {
			list = append(list, item)
		}
	}
	return list
}
