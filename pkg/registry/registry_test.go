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
package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Load(filepath.Join(t.TempDir(), "registry.json"), zaptest.NewLogger(t))
	require.NoError(t, err)
	return r
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	r := newTestRegistry(t)
	assert.Empty(t, r.ListAgentNames())
	assert.Empty(t, r.ListToolNames())
}

func TestRegistry_AddAndGetAgent(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.AddAgent(&AgentRecord{
		Name:     "ScanAgent",
		Endpoint: "internal",
		Spec:     map[string]any{"description": "scans for opportunities"},
	}))

	record := r.GetAgentSpec("ScanAgent")
	require.NotNil(t, record)
	assert.Equal(t, CertPending, record.Certification)
	assert.True(t, r.HasAgent("ScanAgent"))
	assert.Nil(t, r.GetAgentSpec("Nope"))
}

func TestRegistry_RejectsReservedCSuiteNames(t *testing.T) {
	r := newTestRegistry(t)

	err := r.AddAgent(&AgentRecord{Name: "CEO-Agent", Endpoint: "internal"})
	assert.ErrorIs(t, err, ErrReservedName)

	err = r.AddAgent(&AgentRecord{
		Name: "CFO-Agent",
		Spec: map[string]any{"module": "agents.cfo"},
	})
	assert.ErrorIs(t, err, ErrReservedName, "module without class is still reserved")

	// A -Agent name with a full module/class load path is acceptable.
	err = r.AddAgent(&AgentRecord{
		Name:     "Custom-Agent",
		Endpoint: "agents.custom.CustomAgent",
		Spec:     map[string]any{"module": "agents.custom", "class": "CustomAgent"},
	})
	assert.NoError(t, err)
}

func TestRegistry_PersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	r, err := Load(path, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, r.AddAgent(&AgentRecord{Name: "DeployAgent", Endpoint: "internal"}))
	require.NoError(t, r.AddTool(&ToolRecord{
		Name:     "web_search",
		Kind:     ToolKindAPI,
		Endpoint: "https://api.example.com/search",
		Method:   "GET",
		Auth:     AuthAPIKey,
		Source:   SourcePreRegistered,
	}))

	reloaded, err := Load(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"DeployAgent"}, reloaded.ListAgentNames())
	assert.Equal(t, []string{"web_search"}, reloaded.ListToolNames())
	tool := reloaded.GetToolSpec("web_search")
	require.NotNil(t, tool)
	assert.Equal(t, AuthAPIKey, tool.Auth)
	assert.Equal(t, CertPending, tool.Status)
}

func TestRegistry_ApplyProposal(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.ApplyProposal(Proposal{
		Type:     "add_tool",
		Name:     "email_sender",
		Endpoint: "http://localhost:5678/webhook-test/email_sender-placeholder",
		Spec: map[string]any{
			"source": SourceFallbackStub,
			"method": "POST",
		},
	}))
	tool := r.GetToolSpec("email_sender")
	require.NotNil(t, tool)
	assert.Equal(t, SourceFallbackStub, tool.Source)
	assert.Equal(t, ToolKindWebhook, tool.Kind)

	require.NoError(t, r.ApplyProposal(Proposal{
		Type:     "add_agent",
		Name:     "OutreachSpecialist",
		Endpoint: "internal",
		Spec:     map[string]any{"description": "handles outreach"},
	}))
	assert.True(t, r.HasAgent("OutreachSpecialist"))

	// Upsert replaces the existing entry.
	require.NoError(t, r.ApplyProposal(Proposal{
		Type:     "add_agent",
		Name:     "OutreachSpecialist",
		Endpoint: "internal",
		Spec:     map[string]any{"description": "v2"},
	}))
	assert.Equal(t, "v2", r.GetAgentSpec("OutreachSpecialist").Spec["description"])

	assert.Error(t, r.ApplyProposal(Proposal{Type: "add_widget", Name: "x"}))
}

func TestRegistry_SaveIsAtomic(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.AddAgent(&AgentRecord{Name: "A", Endpoint: "internal"}))

	// No temp files are left behind.
	entries, err := os.ReadDir(filepath.Dir(r.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "registry.json", entries[0].Name())
}

func TestRegistry_WatchReloadsOnExternalWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	r, err := Load(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, r.Save())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, err := r.Watch(ctx)
	require.NoError(t, err)

	// Simulate another process writing the file.
	external := `{"agents":{"GrowthAgent":{"name":"GrowthAgent","endpoint":"internal","certification":"certified"}},"tools":{}}`
	require.NoError(t, os.WriteFile(path, []byte(external), 0o644))

	select {
	case <-updates:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for registry reload")
	}
	assert.True(t, r.HasAgent("GrowthAgent"))
}
