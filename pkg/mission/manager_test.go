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
package mission

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/launchonomy/launchonomy/pkg/llm"
	"github.com/launchonomy/launchonomy/pkg/workspace"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	ws := workspace.NewManager(t.TempDir(), zaptest.NewLogger(t))
	return NewManager(ws, zaptest.NewLogger(t))
}

func finishedCycle(m *Manager, log *MissionLog, status CycleStatus, costUSD, revenue float64) *CycleLog {
	cycle, _ := m.NewLinkedCycle(log, "test focus")
	cycle.Status = status
	cycle.TotalCostUSD = costUSD
	cycle.RevenueUSD = revenue
	cycle.DurationMinutes = 2
	cycle.AgentsUsed = []string{"ScanAgent", "DeployAgent"}
	cycle.Steps["ScanAgent"] = &StepRecord{
		Agent: "ScanAgent",
		Usage: llm.Usage{PromptTokens: 100, CompletionTokens: 40},
	}
	return cycle
}

func TestManager_CreateOrLoad_New(t *testing.T) {
	m := newTestManager(t)

	log, err := m.CreateOrLoad("plants", "sell houseplants online", true)
	require.NoError(t, err)
	assert.Regexp(t, `^mission_\d{8}_\d{6}_[0-9a-f]{8}$`, log.MissionID)
	assert.Equal(t, StatusActive, log.Status)
	assert.NotEmpty(t, log.WorkspacePath)

	// The mission log is already on disk.
	loaded, err := m.Load(log.MissionID)
	require.NoError(t, err)
	assert.Equal(t, "sell houseplants online", loaded.OverallMission)
}

func TestManager_CreateOrLoad_WorkspaceFailureDegrades(t *testing.T) {
	// A file where the base directory should be makes every workspace
	// write fail. The mission still starts, just without a workspace.
	base := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(base, []byte("x"), 0o644))
	ws := workspace.NewManager(base, zaptest.NewLogger(t))
	m := NewManager(ws, zaptest.NewLogger(t))

	log, err := m.CreateOrLoad("plants", "sell houseplants online", true)
	require.NoError(t, err)
	assert.Empty(t, log.WorkspacePath)
	assert.Equal(t, StatusActive, log.Status)
}

func TestManager_CreateOrLoad_Resume(t *testing.T) {
	m := newTestManager(t)

	first, err := m.CreateOrLoad("plants", "sell houseplants online", true)
	require.NoError(t, err)

	resumed, err := m.CreateOrLoad("plants", "sell houseplants online", true)
	require.NoError(t, err)
	assert.Equal(t, first.MissionID, resumed.MissionID)

	// Different mission text means a different mission.
	other, err := m.CreateOrLoad("plants", "sell cacti online", true)
	require.NoError(t, err)
	assert.NotEqual(t, first.MissionID, other.MissionID)

	// resume=false always creates a fresh mission.
	fresh, err := m.CreateOrLoad("plants", "sell houseplants online", false)
	require.NoError(t, err)
	assert.NotEqual(t, first.MissionID, fresh.MissionID)
}

func TestManager_CreateOrLoad_CompletedNotResumed(t *testing.T) {
	m := newTestManager(t)

	first, err := m.CreateOrLoad("plants", "sell houseplants online", true)
	require.NoError(t, err)
	require.NoError(t, m.SetStatus(first, StatusCompleted, FinalSuccessConsensus))

	second, err := m.CreateOrLoad("plants", "sell houseplants online", true)
	require.NoError(t, err)
	assert.NotEqual(t, first.MissionID, second.MissionID)
}

func TestManager_UpdateFromCycle_Invariant(t *testing.T) {
	m := newTestManager(t)
	log, err := m.CreateOrLoad("plants", "mission", true)
	require.NoError(t, err)

	c1 := finishedCycle(m, log, CycleSuccess, 0.10, 50)
	require.NoError(t, m.UpdateFromCycle(log, c1))
	c2 := finishedCycle(m, log, CycleFailed, 0.05, 0)
	require.NoError(t, m.UpdateFromCycle(log, c2))
	c3 := finishedCycle(m, log, CycleSuccess, 0.20, 25)
	require.NoError(t, m.UpdateFromCycle(log, c3))

	// completed + failed always equals the cycle id count.
	assert.Equal(t, len(log.CycleIDs), log.CompletedCycles+log.FailedCycles)
	assert.Equal(t, 2, log.CompletedCycles)
	assert.Equal(t, 1, log.FailedCycles)
	assert.InDelta(t, 0.35, log.TotalCostUSD, 1e-9)
	assert.InDelta(t, 75, log.TotalRevenueUSD, 1e-9)
	assert.Equal(t, 300, log.TotalInputTokens)
	assert.Equal(t, 120, log.TotalOutputTokens)
	assert.Len(t, log.CycleSummaries, 3)
	assert.Len(t, log.KeyLearnings, 2, "only successful cycles yield learnings")
	assert.Equal(t, []string{"ScanAgent", "DeployAgent"}, log.PersistentAgents)
	assert.Equal(t, c3.CycleID, log.CurrentCycleID)

	// Updates are persisted immediately.
	reloaded, err := m.Load(log.MissionID)
	require.NoError(t, err)
	assert.Equal(t, 3, len(reloaded.CycleIDs))
}

func TestManager_UpdateFromCycle_CountsInteractionTokens(t *testing.T) {
	m := newTestManager(t)
	log, err := m.CreateOrLoad("plants", "mission", true)
	require.NoError(t, err)

	cycle := finishedCycle(m, log, CycleSuccess, 0.01, 0)
	cycle.OrchestratorInteractions = []Interaction{
		{Agent: "CFO", InputTokens: 30, OutputTokens: 12},
	}
	cycle.ReviewInteractions = []Interaction{
		{Agent: "CEO", InputTokens: 20, OutputTokens: 8},
	}
	require.NoError(t, m.UpdateFromCycle(log, cycle))

	assert.Equal(t, 150, log.TotalInputTokens, "step and interaction tokens both roll up")
	assert.Equal(t, 60, log.TotalOutputTokens)
}

func TestManager_NewLinkedCycle(t *testing.T) {
	m := newTestManager(t)
	log, err := m.CreateOrLoad("plants", "mission", true)
	require.NoError(t, err)

	c1 := finishedCycle(m, log, CycleSuccess, 0.1, 0)
	assert.Equal(t, 1, c1.SequenceNumber)
	assert.Empty(t, c1.PreviousCycleID)
	require.NoError(t, m.SaveCycleLog(log, c1))
	require.NoError(t, m.UpdateFromCycle(log, c1))

	c2, err := m.NewLinkedCycle(log, "next focus")
	require.NoError(t, err)
	assert.Equal(t, 2, c2.SequenceNumber)
	assert.Equal(t, c1.CycleID, c2.PreviousCycleID)

	// The stored previous cycle was back-patched with next_cycle_id.
	var stored CycleLog
	require.NoError(t, m.workspaces.LoadCycleLog(log.MissionID, c1.CycleID, &stored))
	assert.Equal(t, c2.CycleID, stored.NextCycleID)

	// Carried context rides along.
	assert.Len(t, c2.CarriedSummaries, 1)
	assert.Len(t, c2.CarriedKeyLearnings, 1)
}

func TestManager_CarriedContextBounded(t *testing.T) {
	m := newTestManager(t)
	log, err := m.CreateOrLoad("plants", "mission", true)
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		c := finishedCycle(m, log, CycleSuccess, 0.01, 0)
		require.NoError(t, m.SaveCycleLog(log, c))
		require.NoError(t, m.UpdateFromCycle(log, c))
	}

	c, err := m.NewLinkedCycle(log, "focus")
	require.NoError(t, err)
	assert.Len(t, c.CarriedSummaries, CarriedSummaryLimit)
	assert.Len(t, c.CarriedKeyLearnings, CarriedLearningLimit)
}

func TestManager_ListResumable(t *testing.T) {
	m := newTestManager(t)

	a, err := m.CreateOrLoad("a", "mission a", false)
	require.NoError(t, err)
	b, err := m.CreateOrLoad("b", "mission b", false)
	require.NoError(t, err)
	c, err := m.CreateOrLoad("c", "mission c", false)
	require.NoError(t, err)

	require.NoError(t, m.SetStatus(a, StatusCompleted, FinalSuccessConsensus))
	require.NoError(t, m.SetStatus(b, StatusEndedUnexpectedly, ""))

	resumable := m.ListResumable()
	require.Len(t, resumable, 2)
	ids := []string{resumable[0].MissionID, resumable[1].MissionID}
	assert.Contains(t, ids, b.MissionID)
	assert.Contains(t, ids, c.MissionID)
}

func TestManager_GetMissionContextForAgents(t *testing.T) {
	m := newTestManager(t)
	log, err := m.CreateOrLoad("plants", "sell houseplants online", true)
	require.NoError(t, err)

	c := finishedCycle(m, log, CycleSuccess, 0.1, 10)
	require.NoError(t, m.UpdateFromCycle(log, c))

	ctx := m.GetMissionContextForAgents(log)
	assert.Equal(t, log.MissionID, ctx["mission_id"])
	assert.Equal(t, "sell houseplants online", ctx["overall_mission"])
	assert.Equal(t, 1, ctx["completed_cycles"])
	assert.Equal(t, log.WorkspacePath, ctx["workspace_path"])
	assert.NotEmpty(t, ctx["key_learnings"])
}

func TestIDFormats(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 30, 45, 0, time.UTC)
	missionID := NewMissionID(now)
	assert.Regexp(t, `^mission_20260826_123045_[0-9a-f]{8}$`, missionID)

	cycleID := NewCycleID(now, 7)
	assert.Equal(t, "cycle_20260826_123045_0007", cycleID)

	cycle := NewCycle("mission_x", "focus", now)
	assert.Equal(t, CycleStarted, cycle.Status)
	assert.NotNil(t, cycle.Steps)
}
