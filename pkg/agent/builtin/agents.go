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
package builtin

import (
	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/pkg/agent"
	"github.com/launchonomy/launchonomy/pkg/cost"
	"github.com/launchonomy/launchonomy/pkg/registry"
)

// Workflow agent names.
const (
	ScanAgentName      = "ScanAgent"
	DeployAgentName    = "DeployAgent"
	CampaignAgentName  = "CampaignAgent"
	AnalyticsAgentName = "AnalyticsAgent"
	FinanceAgentName   = "FinanceAgent"
	GrowthAgentName    = "GrowthAgent"
)

// Pipeline lists the six workflow agents in execution order.
var Pipeline = []string{ScanAgentName, DeployAgentName, CampaignAgentName, AnalyticsAgentName, FinanceAgentName, GrowthAgentName}

// GrowthSpendCeiling is the fraction of realized revenue the finance
// guardrail allows for growth and marketing spend.
const GrowthSpendCeiling = 0.20

// Load paths used as registry endpoints for the builtin agents.
const (
	scanLoadPath      = "launchonomy.workflow.scan.ScanAgent"
	deployLoadPath    = "launchonomy.workflow.deploy.DeployAgent"
	campaignLoadPath  = "launchonomy.workflow.campaign.CampaignAgent"
	analyticsLoadPath = "launchonomy.workflow.analytics.AnalyticsAgent"
	financeLoadPath   = "launchonomy.workflow.finance.FinanceAgent"
	growthLoadPath    = "launchonomy.workflow.growth.GrowthAgent"
)

// NewScanAgent finds and ranks business opportunities.
func NewScanAgent(comm *agent.Communicator, logger *zap.Logger) agent.Workflow {
	return newWorkflowAgent("ScanAgent",
		"You scan markets for viable micro-business opportunities that can be launched quickly with near-zero budget.",
		`Identify up to 3 concrete opportunities. In "data" include an "opportunities" array (each with "name", "description", "estimated_effort", "estimated_monthly_revenue") and a "top_opportunity" object naming the best one.`,
		[]string{"market_research", "web_search"},
		comm, logger)
}

// NewDeployAgent turns the top opportunity into a deployed offering.
func NewDeployAgent(comm *agent.Communicator, logger *zap.Logger) agent.Workflow {
	w := newWorkflowAgent("DeployAgent",
		"You deploy minimal viable offerings: landing pages, signup forms, payment links. You prefer free hosting tiers.",
		`Deploy the offering described in "top_opportunity" from the step input. In "data" include "product" (object with "name", "description", "url"), "deployment_notes", and "services" (array of infrastructure service names used, e.g. "hosting", "domain"). If a required tool is unavailable, set status to "requires_tools" and name it in "error_message".`,
		[]string{"hosting", "domain", "payment_processing"},
		comm, logger)
	w.postProcess = annotateInfraCosts
	return w
}

// annotateInfraCosts attaches real-world monthly cost estimates for the
// services the deployment reported. These are reporting figures only and
// never enter scheduler cost accounting.
func annotateInfraCosts(_ agent.Input, out *agent.Output) {
	services := stringsFrom(out.Data, "services")
	if len(services) == 0 {
		services = []string{"hosting", "domain"}
	}
	estimator := cost.NewInfraEstimator()
	out.Data["infra_estimates"] = estimator.Estimate(services)
	out.Data["infra_monthly_usd"] = estimator.MonthlyTotal(services)
}

// NewCampaignAgent runs acquisition campaigns for the deployed product.
func NewCampaignAgent(comm *agent.Communicator, logger *zap.Logger) agent.Workflow {
	return newWorkflowAgent("CampaignAgent",
		"You design and launch customer acquisition campaigns with strict tracking on every channel.",
		`Create a campaign for the "product" in the step input. In "data" include "campaign" (object with "channel", "message", "target_audience", "budget_usd") and "tracking" notes.`,
		[]string{"email", "ads", "analytics"},
		comm, logger)
}

// NewAnalyticsAgent measures the cycle so far; its "revenue" figure feeds
// mission totals.
func NewAnalyticsAgent(comm *agent.Communicator, logger *zap.Logger) agent.Workflow {
	return newWorkflowAgent("AnalyticsAgent",
		"You measure everything. You report conservative, defensible numbers and never invent traction.",
		`Analyze the cycle steps given in the step input. In "data" include "revenue" (number, realized USD revenue attributable to this cycle, 0 if none), "visitors", "conversions", and a "kpis" object.`,
		[]string{"analytics", "tracking", "dashboard"},
		comm, logger)
}

// NewFinanceAgent reviews spend against the revenue-fraction ceiling. The
// guardrail is enforced in code, not just in the prompt.
func NewFinanceAgent(comm *agent.Communicator, logger *zap.Logger) agent.Workflow {
	w := newWorkflowAgent("FinanceAgent",
		"You are the bookkeeper of the mission. You track costs and enforce that growth spending never exceeds 20 percent of realized revenue.",
		`Review the cycle's costs and revenue from the step input. In "data" include "total_costs_usd", "revenue_usd", "profit_usd", and "recommended_growth_budget_usd".`,
		[]string{"spreadsheet", "payment_processing"},
		comm, logger)
	w.postProcess = enforceGrowthCeiling
	return w
}

// enforceGrowthCeiling clamps the recommended growth budget to the
// revenue-fraction ceiling regardless of what the model suggested.
func enforceGrowthCeiling(in agent.Input, out *agent.Output) {
	revenue, ok := numberFrom(out.Data, "revenue_usd")
	if !ok {
		revenue, _ = numberFrom(in.Extra, "revenue")
	}
	ceiling := revenue * GrowthSpendCeiling
	out.Data["growth_budget_ceiling_usd"] = ceiling

	recommended, ok := numberFrom(out.Data, "recommended_growth_budget_usd")
	if !ok {
		return
	}
	if recommended > ceiling {
		out.Data["recommended_growth_budget_usd"] = ceiling
		out.Data["guardrail_applied"] = true
	}
}

// NewGrowthAgent spends the CFO-approved budget on growth experiments.
func NewGrowthAgent(comm *agent.Communicator, logger *zap.Logger) agent.Workflow {
	return newWorkflowAgent("GrowthAgent",
		"You run growth experiments within an explicitly approved budget. You never exceed it.",
		`Run growth actions within "approved_budget" from the step input. In "data" include "experiments" (array of objects with "name", "channel", "spend_usd") and "expected_impact". The sum of "spend_usd" must not exceed the approved budget.`,
		[]string{"ads", "seo", "campaign"},
		comm, logger)
}

// constructors maps load paths to builders, used for both factory
// registration and pre-registration.
var constructors = map[string]func(*agent.Communicator, *zap.Logger) agent.Workflow{
	scanLoadPath:      NewScanAgent,
	deployLoadPath:    NewDeployAgent,
	campaignLoadPath:  NewCampaignAgent,
	analyticsLoadPath: NewAnalyticsAgent,
	financeLoadPath:   NewFinanceAgent,
	growthLoadPath:    NewGrowthAgent,
}

// loadPathFor maps agent names to load paths.
var loadPathFor = map[string]string{
	"ScanAgent":      scanLoadPath,
	"DeployAgent":    deployLoadPath,
	"CampaignAgent":  campaignLoadPath,
	"AnalyticsAgent": analyticsLoadPath,
	"FinanceAgent":   financeLoadPath,
	"GrowthAgent":    growthLoadPath,
}

// New constructs a builtin workflow agent by pipeline name, or nil.
func New(name string, comm *agent.Communicator, logger *zap.Logger) agent.Workflow {
	path, ok := loadPathFor[name]
	if !ok {
		return nil
	}
	return constructors[path](comm, logger)
}

// PreRegister writes certified registry entries for all six builtin agents.
// Existing entries are left alone.
func PreRegister(reg *registry.Registry) error {
	for name, path := range loadPathFor {
		if reg.HasAgent(name) {
			continue
		}
		err := reg.AddAgent(&registry.AgentRecord{
			Name:          name,
			Endpoint:      path,
			Certification: registry.CertCertified,
			Spec: map[string]any{
				"description": name + " builtin workflow agent",
				"builtin":     true,
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
