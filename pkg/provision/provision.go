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

// Package provision implements the auto-provision pipeline: triviality
// classification, LLM tool-spec generation with a stub fallback, consensus
// submission, and registry installation.
package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/pkg/agent"
	"github.com/launchonomy/launchonomy/pkg/collaboration"
	"github.com/launchonomy/launchonomy/pkg/mission"
	"github.com/launchonomy/launchonomy/pkg/registry"
	"github.com/launchonomy/launchonomy/pkg/workspace"
)

// DefaultStubPort is the local webhook port used for fallback stubs.
const DefaultStubPort = 5678

// trivialityLexicon lists business-utility tokens. A tool request whose
// name contains one of these is trivial enough to provision without
// escalation.
var trivialityLexicon = []string{
	"spreadsheet", "sheet", "calendar", "email", "mail", "crm",
	"analytics", "payment", "invoice", "billing", "webhook", "hosting",
	"domain", "market", "research", "campaign", "ads", "advertising",
	"seo", "tracking", "metrics", "dashboard", "form", "survey",
	"newsletter", "social", "scheduling", "notification",
}

// Request is a missing-capability report from a workflow agent.
type Request struct {
	Type        string `json:"type"` // "tool" or "agent"
	Name        string `json:"name"`
	Reason      string `json:"reason"` // "not_found" from registry lookups
	RequestedBy string `json:"requested_by,omitempty"`
}

// Result describes the outcome of one provisioning run.
type Result struct {
	Accepted bool                 `json:"accepted"`
	Trivial  bool                 `json:"trivial"`
	Source   string               `json:"source"` // ai-generated-real or fallback-stub
	Endpoint string               `json:"endpoint,omitempty"`
	Votes    []collaboration.Vote `json:"votes,omitempty"`
	CostUSD  float64              `json:"cost_usd"`
}

// IsTrivial reports whether a request can be provisioned without
// escalation: tool requests for not-found business utilities. Agent
// requests are conservative by default.
func IsTrivial(req Request) bool {
	if req.Type != "tool" || req.Reason != "not_found" {
		return false
	}
	name := strings.ToLower(req.Name)
	for _, token := range trivialityLexicon {
		if strings.Contains(name, token) {
			return true
		}
	}
	return false
}

// Provisioner runs the pipeline against the registry and consensus layer.
type Provisioner struct {
	registry   *registry.Registry
	agents     *agent.Manager
	comm       *agent.Communicator
	reviews    *collaboration.ReviewManager
	workspaces *workspace.Manager
	logger     *zap.Logger
	stubPort   int
	specialist *agent.Agent
}

// NewProvisioner wires the pipeline. comm may be nil when no LLM backend is
// available; spec generation then always falls back to stubs.
func NewProvisioner(reg *registry.Registry, agents *agent.Manager, comm *agent.Communicator, reviews *collaboration.ReviewManager, logger *zap.Logger) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provisioner{
		registry: reg,
		agents:   agents,
		comm:     comm,
		reviews:  reviews,
		logger:   logger,
		stubPort: DefaultStubPort,
	}
}

// SetStubPort overrides the local webhook port used in fallback stubs.
func (p *Provisioner) SetStubPort(port int) { p.stubPort = port }

// SetWorkspaces enables per-mission persistence of installed capabilities.
func (p *Provisioner) SetWorkspaces(workspaces *workspace.Manager) { p.workspaces = workspaces }

// toolSpecSchema is the contract a generated specification must satisfy
// before it is submitted to consensus. Invalid specs fall back to a stub.
const toolSpecSchema = `{
  "type": "object",
  "required": ["description", "kind", "endpoint", "method", "auth"],
  "properties": {
    "description": {"type": "string", "minLength": 1},
    "kind": {"type": "string"},
    "endpoint": {"type": "string", "minLength": 1},
    "method": {"type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE"]},
    "auth": {"type": "string", "enum": ["none", "api_key", "bearer", "oauth2"]},
    "request_schema": {"type": "object"},
    "response_schema": {"type": "object"},
    "usage_examples": {"type": "array", "items": {"type": "string"}},
    "estimated_cost_usd_month": {"type": "number", "minimum": 0},
    "setup_time_minutes": {"type": "number", "minimum": 0}
  }
}`

var compiledToolSpecSchema = gojsonschema.NewStringLoader(toolSpecSchema)

// validateToolSpec checks a generated spec against the tool contract.
func validateToolSpec(spec map[string]any) error {
	result, err := gojsonschema.Validate(compiledToolSpecSchema, gojsonschema.NewGoLoader(spec))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return fmt.Errorf("spec violates tool contract: %s", strings.Join(details, "; "))
	}
	return nil
}

const specialistPrompt = `You are a tool creation specialist. You design precise, minimal tool
specifications for business automation. You know common SaaS APIs and
webhook conventions and you never invent endpoints that require secret
infrastructure knowledge.`

// GenerateToolSpec produces a tool specification for a named capability,
// preferring LLM generation and falling back to a manual-setup stub.
func (p *Provisioner) GenerateToolSpec(ctx context.Context, name string, jsonLog *[]mission.ParseAttempt) (map[string]any, string, float64, error) {
	if p.comm == nil {
		spec, endpoint := p.fallbackStub(name)
		return spec, endpoint, 0, nil
	}

	if p.specialist == nil {
		p.specialist = agent.New("ToolCreationSpecialist", "ToolCreationSpecialist", specialistPrompt)
	}

	prompt := fmt.Sprintf(`Design a tool specification for a capability named %q.
Return a JSON object with keys:
  "description" (string),
  "kind" ("webhook"),
  "endpoint" (string URL),
  "method" (HTTP method),
  "auth" ("none", "api_key", "bearer" or "oauth2"),
  "request_schema" (JSON schema object),
  "response_schema" (JSON schema object),
  "usage_examples" (array of strings),
  "estimated_cost_usd_month" (number),
  "setup_time_minutes" (number).`, name)

	parsed, usage, err := p.comm.GetJSON(ctx, p.specialist, prompt,
		"Return only the tool specification JSON object.", jsonLog)
	if err == nil {
		spec, ok := parsed.(map[string]any)
		if !ok {
			err = fmt.Errorf("generated spec is not an object")
		} else if err = validateToolSpec(spec); err == nil {
			endpoint, _ := spec["endpoint"].(string)
			spec["source"] = registry.SourceAIGenerated
			return spec, endpoint, usage.CostUSD, nil
		}
	}

	p.logger.Warn("tool spec generation failed, using fallback stub",
		zap.String("tool", name),
		zap.Error(err))
	spec, endpoint := p.fallbackStub(name)
	return spec, endpoint, usage.CostUSD, nil
}

// fallbackStub emits a placeholder webhook spec that a human can later wire
// up manually.
func (p *Provisioner) fallbackStub(name string) (map[string]any, string) {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	endpoint := fmt.Sprintf("http://localhost:%d/webhook-test/%s-placeholder", p.stubPort, slug)
	return map[string]any{
		"description":           fmt.Sprintf("Placeholder stub for %s. Requires manual setup before real use.", name),
		"kind":                  registry.ToolKindWebhook,
		"method":                "POST",
		"auth":                  registry.AuthNone,
		"requires_manual_setup": true,
		"source":                registry.SourceFallbackStub,
	}, endpoint
}

// Provision runs the full pipeline for a request: classify, generate,
// submit to consensus, install. Non-trivial requests are declined before
// any LLM spend. A declined or failed provision never blocks the caller;
// the workflow agent reports a structured error instead.
func (p *Provisioner) Provision(ctx context.Context, req Request, voters []string, cycle *mission.CycleLog) (*Result, error) {
	result := &Result{Trivial: IsTrivial(req)}
	if !result.Trivial {
		p.logger.Info("provision request declined as non-trivial",
			zap.String("type", req.Type),
			zap.String("name", req.Name))
		p.recordEvent(cycle, req, "declined_non_trivial")
		return result, nil
	}

	var jsonLog *[]mission.ParseAttempt
	if cycle != nil {
		jsonLog = &cycle.JSONParseAttempts
	}

	spec, endpoint, genCost, err := p.GenerateToolSpec(ctx, req.Name, jsonLog)
	result.CostUSD += genCost
	if err != nil {
		return result, err
	}
	result.Source, _ = spec["source"].(string)
	result.Endpoint = endpoint

	proposal := registry.Proposal{
		Type:     "add_tool",
		Name:     req.Name,
		Spec:     spec,
		Endpoint: endpoint,
	}
	if req.Type == "agent" {
		proposal.Type = "add_agent"
	}

	description := fmt.Sprintf("%s %q requested by %s.\nSpec source: %s\nEndpoint: %s",
		proposal.Type, req.Name, req.RequestedBy, result.Source, endpoint)
	accepted, votes, voteUsage, err := p.reviews.ProposalConsensus(ctx, description, voters, collaboration.Majority, jsonLog)
	result.CostUSD += voteUsage.CostUSD
	result.Votes = votes
	if err != nil {
		return result, err
	}
	if !accepted {
		p.recordEvent(cycle, req, "rejected_by_consensus")
		return result, nil
	}

	if err := p.registry.ApplyProposal(proposal); err != nil {
		return result, fmt.Errorf("failed to install %s %s: %w", req.Type, req.Name, err)
	}
	result.Accepted = true

	// Installed capabilities also land in the mission workspace so they
	// survive the process.
	if p.workspaces != nil && cycle != nil {
		persist := p.workspaces.AddTool
		if req.Type == "agent" {
			persist = p.workspaces.AddAgent
		}
		if err := persist(cycle.MissionID, req.Name, spec, ""); err != nil {
			p.logger.Warn("failed to persist provisioned capability",
				zap.String("type", req.Type),
				zap.String("name", req.Name),
				zap.Error(err))
		}
	}

	// Accepted agents also become live instances.
	if req.Type == "agent" && p.agents != nil && !p.agents.Has(req.Name) {
		persona, _ := spec["description"].(string)
		if persona == "" {
			persona = "A provisioned specialist agent."
		}
		p.agents.CreateAgent(req.Name, persona, "")
	}

	p.recordEvent(cycle, req, "installed")
	p.logger.Info("capability provisioned",
		zap.String("type", req.Type),
		zap.String("name", req.Name),
		zap.String("source", result.Source))
	return result, nil
}

func (p *Provisioner) recordEvent(cycle *mission.CycleLog, req Request, outcome string) {
	if cycle == nil {
		return
	}
	cycle.AgentManagement = append(cycle.AgentManagement, mission.ManagementEvent{
		Timestamp: time.Now().UTC(),
		Action:    "auto_provision_" + req.Type,
		Agent:     req.RequestedBy,
		Outcome:   outcome,
		Detail:    req.Name,
	})
}
