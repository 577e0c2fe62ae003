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
package agent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/launchonomy/launchonomy/pkg/llm"
	"github.com/launchonomy/launchonomy/pkg/mission"
	"github.com/launchonomy/launchonomy/pkg/registry"
)

func newTestManager(t *testing.T, provider llm.Provider) (*Manager, *registry.Registry) {
	t.Helper()
	reg, err := registry.Load(filepath.Join(t.TempDir(), "registry.json"), zaptest.NewLogger(t))
	require.NoError(t, err)
	comm := NewCommunicator(provider, zaptest.NewLogger(t))
	return NewManager(provider, comm, reg, zaptest.NewLogger(t)), reg
}

func TestManager_CreateAgent(t *testing.T) {
	m, _ := newTestManager(t, &scriptedProvider{})

	a := m.CreateAgent("MarketAnalyst", "You analyze markets.", "Focus on SaaS.")
	assert.Equal(t, "MarketAnalyst", a.Name)
	assert.Contains(t, a.SystemPrompt, "You are MarketAnalyst. You analyze markets.")
	assert.Contains(t, a.SystemPrompt, "Focus on SaaS.")
	assert.True(t, m.Has("MarketAnalyst"))

	// Collisions append _N.
	b := m.CreateAgent("MarketAnalyst", "p", "")
	assert.Equal(t, "MarketAnalyst_2", b.Name)
	c := m.CreateAgent("MarketAnalyst", "p", "")
	assert.Equal(t, "MarketAnalyst_3", c.Name)
}

func TestManager_BootstrapCSuite(t *testing.T) {
	m, reg := newTestManager(t, &scriptedProvider{})

	m.BootstrapCSuite("Objective: sell houseplants online.")
	for _, role := range CSuiteRoles {
		require.True(t, m.Has(role), role)
		assert.Contains(t, m.Get(role).SystemPrompt, "Objective: sell houseplants online.")
	}
	require.Len(t, m.Names(), len(CSuiteRoles))

	// Registered names all carry the -Agent suffix; bare roles resolve to
	// the same instances.
	for _, name := range m.Names() {
		assert.True(t, strings.HasSuffix(name, "-Agent"), name)
	}
	assert.Same(t, m.Get("CEO"), m.Get("CEO-Agent"))

	// Idempotent: a second bootstrap neither duplicates nor resets.
	m.Get("CEO").Remember(llm.RoleUser, "remembered")
	m.BootstrapCSuite("Objective: sell houseplants online.")
	assert.Len(t, m.Names(), len(CSuiteRoles))
	assert.Len(t, m.Get("CEO").History(), 1)

	// C-Suite agents never hit the registry.
	assert.Empty(t, reg.ListAgentNames())
}

func TestManager_LoadRegistered(t *testing.T) {
	provider := &scriptedProvider{}
	m, reg := newTestManager(t, provider)

	require.NoError(t, reg.AddAgent(&registry.AgentRecord{
		Name:     "ScanAgent",
		Endpoint: "launchonomy.workflow.scan.ScanAgent",
	}))
	require.NoError(t, reg.AddAgent(&registry.AgentRecord{
		Name:     "MysteryAgent",
		Endpoint: "unknown.module.Mystery",
	}))

	m.RegisterFactory("launchonomy.workflow.scan.ScanAgent",
		func(_ llm.Provider, _ *registry.Registry, _ *zap.Logger) (*Agent, error) {
			return New("ScanAgent", "ScanAgent", "scan things"), nil
		})

	require.NoError(t, m.LoadRegistered())
	assert.True(t, m.Has("ScanAgent"))
	assert.False(t, m.Has("MysteryAgent"), "entries without a factory are skipped")

	// Re-loading leaves live agents alone.
	require.NoError(t, m.LoadRegistered())
	assert.Len(t, m.Names(), 1)
}

func TestManager_CreateSpecializedAgent(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"name": "Pricing Strategist", "persona": "You set prices.", "expertise": "pricing, economics"}`,
	}}
	m, _ := newTestManager(t, provider)
	orchestrator := New("Orchestrator", "Orchestrator", "")
	cycle := mission.NewCycle("mission_1", "focus", time.Now())

	a, usage, err := m.CreateSpecializedAgent(context.Background(), orchestrator, "set launch pricing", cycle)
	require.NoError(t, err)
	assert.Equal(t, "Pricing_Strategist", a.Name, "designed names are sanitized to identifiers")
	assert.Contains(t, a.SystemPrompt, "pricing, economics")
	assert.Greater(t, usage.CostUSD, 0.0)
	assert.Greater(t, usage.TotalTokens(), 0)

	require.Len(t, cycle.AgentManagement, 1)
	assert.Equal(t, "success", cycle.AgentManagement[0].Outcome)
	assert.NotEmpty(t, cycle.JSONParseAttempts)
}

func TestManager_CreateSpecializedAgent_Fallback(t *testing.T) {
	// Three non-JSON answers exhaust the parse retries.
	provider := &scriptedProvider{responses: []string{"nope", "nope", "nope"}}
	m, _ := newTestManager(t, provider)
	orchestrator := New("Orchestrator", "Orchestrator", "")
	cycle := mission.NewCycle("mission_1", "focus", time.Now())

	a, _, err := m.CreateSpecializedAgent(context.Background(), orchestrator, "do something odd", cycle)
	require.NoError(t, err)
	assert.Equal(t, FallbackSpecialistName, a.Name)
	require.Len(t, cycle.AgentManagement, 1)
	assert.Equal(t, "fallback", cycle.AgentManagement[0].Outcome)
}

func TestSanitizeIdentifier(t *testing.T) {
	assert.Equal(t, "Growth_Hacker", sanitizeIdentifier("Growth Hacker"))
	assert.Equal(t, "AB_Test_Lead", sanitizeIdentifier("A/B-Test Lead!"))
	assert.Equal(t, FallbackSpecialistName, sanitizeIdentifier("!!!"))
}
