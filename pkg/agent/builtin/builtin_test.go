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
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/launchonomy/launchonomy/pkg/agent"
	"github.com/launchonomy/launchonomy/pkg/cost"
	"github.com/launchonomy/launchonomy/pkg/llm"
	"github.com/launchonomy/launchonomy/pkg/registry"
)

type scriptedProvider struct {
	responses []string
	calls     [][]llm.Message
}

func (p *scriptedProvider) Chat(_ context.Context, messages []llm.Message) (*llm.Response, error) {
	p.calls = append(p.calls, messages)
	content := "{}"
	if len(p.responses) > 0 {
		content = p.responses[0]
		p.responses = p.responses[1:]
	}
	return &llm.Response{
		Content: content,
		Model:   "scripted",
		Usage:   llm.Usage{PromptTokens: 10, CompletionTokens: 5, CostUSD: 0.001},
	}, nil
}

func (p *scriptedProvider) Name() string  { return "scripted" }
func (p *scriptedProvider) Model() string { return "scripted" }

func newComm(t *testing.T, responses ...string) (*agent.Communicator, *scriptedProvider) {
	t.Helper()
	provider := &scriptedProvider{responses: responses}
	return agent.NewCommunicator(provider, zaptest.NewLogger(t)), provider
}

func TestScanAgent_Execute(t *testing.T) {
	comm, provider := newComm(t, `{
	  "status": "success",
	  "data": {
	    "opportunities": [{"name": "plant care newsletter"}],
	    "top_opportunity": {"name": "plant care newsletter"}
	  },
	  "confidence": 0.8,
	  "tools_used": ["market_research"]
	}`)
	w := NewScanAgent(comm, zaptest.NewLogger(t))

	out, err := w.Execute(context.Background(), agent.Input{
		TaskDescription: "find opportunities",
		MissionContext:  map[string]any{"objective": "make money online"},
	})
	require.NoError(t, err)
	assert.Equal(t, agent.StatusSuccess, out.Status)
	assert.Equal(t, 0.8, out.Confidence)
	assert.Equal(t, []string{"market_research"}, out.ToolsUsed)
	assert.InDelta(t, 0.001, out.Cost, 1e-9, "LLM cost is attributed to the step")
	assert.Equal(t, 10, out.Usage.PromptTokens)
	assert.Equal(t, 5, out.Usage.CompletionTokens)

	top, ok := out.Data["top_opportunity"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "plant care newsletter", top["name"])

	// Context sections make it into the prompt.
	prompt := provider.calls[0][len(provider.calls[0])-1].Content
	assert.Contains(t, prompt, "make money online")
}

func TestWorkflowAgent_ContractViolationIsStepFailure(t *testing.T) {
	// "status" is mandatory and enum-checked.
	comm, _ := newComm(t, `{"status": "excellent", "data": {}}`, `{"status": "excellent", "data": {}}`, `{"status": "excellent", "data": {}}`)
	w := NewDeployAgent(comm, zaptest.NewLogger(t))

	out, err := w.Execute(context.Background(), agent.Input{TaskDescription: "deploy"})
	require.NoError(t, err)
	assert.Equal(t, agent.StatusFailure, out.Status)
	assert.Contains(t, out.ErrorMessage, "workflow contract")
}

func TestWorkflowAgent_UnparseableReplyIsStepFailure(t *testing.T) {
	comm, _ := newComm(t, "no json", "still none", "nothing")
	w := NewCampaignAgent(comm, zaptest.NewLogger(t))

	out, err := w.Execute(context.Background(), agent.Input{TaskDescription: "campaign"})
	require.NoError(t, err, "communication failures surface as structured step failures")
	assert.Equal(t, agent.StatusFailure, out.Status)
	assert.NotEmpty(t, out.ErrorMessage)
	assert.Greater(t, out.Cost, 0.0, "spent cost is still reported")
}

func TestFinanceAgent_GuardrailClampsBudget(t *testing.T) {
	comm, _ := newComm(t, `{
	  "status": "success",
	  "data": {
	    "revenue_usd": 100,
	    "total_costs_usd": 5,
	    "profit_usd": 95,
	    "recommended_growth_budget_usd": 50
	  },
	  "confidence": 0.9
	}`)
	w := NewFinanceAgent(comm, zaptest.NewLogger(t))

	out, err := w.Execute(context.Background(), agent.Input{TaskDescription: "review finances"})
	require.NoError(t, err)
	assert.Equal(t, agent.StatusSuccess, out.Status)
	assert.Equal(t, 20.0, out.Data["recommended_growth_budget_usd"], "clamped to 20 percent of revenue")
	assert.Equal(t, true, out.Data["guardrail_applied"])
	assert.Equal(t, 20.0, out.Data["growth_budget_ceiling_usd"])
}

func TestFinanceAgent_GuardrailLeavesCompliantBudget(t *testing.T) {
	comm, _ := newComm(t, `{
	  "status": "success",
	  "data": {"revenue_usd": 1000, "recommended_growth_budget_usd": 100},
	  "confidence": 0.9
	}`)
	w := NewFinanceAgent(comm, zaptest.NewLogger(t))

	out, err := w.Execute(context.Background(), agent.Input{TaskDescription: "review finances"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, out.Data["recommended_growth_budget_usd"])
	_, applied := out.Data["guardrail_applied"]
	assert.False(t, applied)
}

func TestDeployAgent_AnnotatesInfraCosts(t *testing.T) {
	comm, _ := newComm(t, `{
	  "status": "success",
	  "data": {
	    "product": {"name": "plant care newsletter", "url": "https://example.com"},
	    "services": ["hosting", "domain", "email"]
	  },
	  "confidence": 0.7
	}`)
	w := NewDeployAgent(comm, zaptest.NewLogger(t))

	out, err := w.Execute(context.Background(), agent.Input{TaskDescription: "deploy the offering"})
	require.NoError(t, err)
	assert.Equal(t, agent.StatusSuccess, out.Status)
	assert.InDelta(t, 16.0, out.Data["infra_monthly_usd"], 1e-9)
	estimates, ok := out.Data["infra_estimates"].([]cost.ServiceEstimate)
	require.True(t, ok)
	assert.Len(t, estimates, 3)
}

func TestDeployAgent_DefaultsInfraServices(t *testing.T) {
	comm, _ := newComm(t, `{
	  "status": "success",
	  "data": {"product": {"name": "newsletter"}},
	  "confidence": 0.6
	}`)
	w := NewDeployAgent(comm, zaptest.NewLogger(t))

	out, err := w.Execute(context.Background(), agent.Input{TaskDescription: "deploy the offering"})
	require.NoError(t, err)
	assert.InDelta(t, 6.0, out.Data["infra_monthly_usd"], 1e-9, "hosting plus domain defaults")
}

func TestNew_KnownAndUnknownNames(t *testing.T) {
	comm, _ := newComm(t)
	for _, name := range Pipeline {
		w := New(name, comm, zaptest.NewLogger(t))
		require.NotNil(t, w, name)
		assert.Equal(t, name, w.Name())
		assert.NotEmpty(t, w.RequiredTools())
	}
	assert.Nil(t, New("TimeTravelAgent", comm, zaptest.NewLogger(t)))
}

func TestPreRegister(t *testing.T) {
	reg, err := registry.Load(filepath.Join(t.TempDir(), "registry.json"), zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, PreRegister(reg))
	assert.Len(t, reg.ListAgentNames(), len(Pipeline))
	record := reg.GetAgentSpec("FinanceAgent")
	require.NotNil(t, record)
	assert.Equal(t, registry.CertCertified, record.Certification)

	// Existing entries are not overwritten.
	record.Spec["description"] = "customized"
	require.NoError(t, PreRegister(reg))
	assert.Equal(t, "customized", reg.GetAgentSpec("FinanceAgent").Spec["description"])
}
