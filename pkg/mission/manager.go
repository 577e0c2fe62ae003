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
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/pkg/workspace"
)

// Limits on the context carried from prior cycles into a new one.
const (
	CarriedSummaryLimit  = 3
	CarriedLearningLimit = 5
)

// Manager exclusively owns mutation and persistence of MissionLog and
// CycleLog records.
type Manager struct {
	workspaces *workspace.Manager
	logger     *zap.Logger
}

// NewManager builds a mission manager over the workspace layer.
func NewManager(workspaces *workspace.Manager, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{workspaces: workspaces, logger: logger}
}

// CreateOrLoad resumes an existing mission matching name and mission text
// (when resume is set and one is resumable), or creates a fresh mission
// with a new workspace.
func (m *Manager) CreateOrLoad(name, missionText string, resume bool) (*MissionLog, error) {
	if resume {
		if log := m.findResumable(name, missionText); log != nil {
			m.logger.Info("resuming mission",
				zap.String("mission_id", log.MissionID),
				zap.String("status", string(log.Status)))
			return log, nil
		}
	}

	now := time.Now().UTC()
	log := &MissionLog{
		MissionID:        NewMissionID(now),
		MissionName:      name,
		OverallMission:   missionText,
		Status:           StatusActive,
		StartedAt:        now,
		UpdatedAt:        now,
		PersistentAgents: []string{},
		CycleIDs:         []string{},
		CycleSummaries:   []CycleSummary{},
		KeyLearnings:     []string{},
	}

	// A failed workspace stays a persistence problem, not a mission
	// problem: the mission runs on without one.
	config, err := m.workspaces.Create(log.MissionID, name)
	if err != nil {
		m.logger.Error("workspace creation failed, mission continues without a workspace",
			zap.String("mission_id", log.MissionID),
			zap.Error(err))
	} else {
		log.WorkspacePath = config.Path
	}

	if err := m.Save(log); err != nil {
		m.logger.Error("failed to persist mission log, in-memory state retained",
			zap.String("mission_id", log.MissionID),
			zap.Error(err))
	}
	m.logger.Info("mission created",
		zap.String("mission_id", log.MissionID),
		zap.String("workspace", log.WorkspacePath))
	return log, nil
}

// findResumable scans existing workspaces for a mission with the same name
// and objective whose status allows resume.
func (m *Manager) findResumable(name, missionText string) *MissionLog {
	configs, err := m.workspaces.List("")
	if err != nil {
		return nil
	}
	for _, config := range configs {
		var log MissionLog
		if err := m.workspaces.LoadMissionLog(config.MissionID, &log); err != nil {
			continue
		}
		if log.MissionName != name || log.OverallMission != missionText {
			continue
		}
		if log.Status.Resumable() {
			return &log
		}
	}
	return nil
}

// ListResumable returns mission logs whose status allows resume, most
// recently updated first.
func (m *Manager) ListResumable() []*MissionLog {
	configs, err := m.workspaces.List("")
	if err != nil {
		return nil
	}
	var logs []*MissionLog
	for _, config := range configs {
		var log MissionLog
		if err := m.workspaces.LoadMissionLog(config.MissionID, &log); err != nil {
			continue
		}
		if log.Status.Resumable() {
			logs = append(logs, &log)
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].UpdatedAt.After(logs[j].UpdatedAt)
	})
	return logs
}

// Load reads a mission log by id.
func (m *Manager) Load(missionID string) (*MissionLog, error) {
	var log MissionLog
	if err := m.workspaces.LoadMissionLog(missionID, &log); err != nil {
		return nil, err
	}
	return &log, nil
}

// Save persists the mission log to workspace state.
func (m *Manager) Save(log *MissionLog) error {
	log.UpdatedAt = time.Now().UTC()
	return m.workspaces.SaveMissionLog(log.MissionID, log)
}

// SetStatus updates and persists the mission status.
func (m *Manager) SetStatus(log *MissionLog, status Status, finalStatus string) error {
	log.Status = status
	if finalStatus != "" {
		log.FinalStatus = finalStatus
	}
	return m.Save(log)
}

// NewLinkedCycle creates the next cycle for a mission and links it to its
// predecessor: sequence number, previous id, and back-patching the stored
// previous cycle with the new id. The last summaries and key learnings ride
// along as cycle-local context.
func (m *Manager) NewLinkedCycle(log *MissionLog, focus string) (*CycleLog, error) {
	now := time.Now()
	cycle := NewCycle(log.MissionID, focus, now)
	cycle.SequenceNumber = len(log.CycleIDs) + 1
	cycle.CycleID = NewCycleID(now, cycle.SequenceNumber)

	if n := len(log.CycleIDs); n > 0 {
		previousID := log.CycleIDs[n-1]
		cycle.PreviousCycleID = previousID

		var previous CycleLog
		if err := m.workspaces.LoadCycleLog(log.MissionID, previousID, &previous); err == nil {
			previous.NextCycleID = cycle.CycleID
			if _, err := m.workspaces.SaveCycleLog(log.MissionID, previousID, &previous); err != nil {
				m.logger.Warn("failed to back-patch previous cycle",
					zap.String("cycle_id", previousID),
					zap.Error(err))
			}
		}
	}

	if n := len(log.CycleSummaries); n > 0 {
		start := n - CarriedSummaryLimit
		if start < 0 {
			start = 0
		}
		cycle.CarriedSummaries = append([]CycleSummary(nil), log.CycleSummaries[start:]...)
	}
	if n := len(log.KeyLearnings); n > 0 {
		start := n - CarriedLearningLimit
		if start < 0 {
			start = 0
		}
		cycle.CarriedKeyLearnings = append([]string(nil), log.KeyLearnings[start:]...)
	}

	log.CurrentCycleID = cycle.CycleID
	return cycle, nil
}

// UpdateFromCycle folds a finished cycle into the mission log: id list,
// cost and token roll-ups, success/failure counters, a compact summary, a
// key learning on success, and the persistent-agents list. The caller sets
// cycle.TotalCostUSD (the scheduler computes it from the cost roll-ups)
// before handing the cycle over. The updated log is persisted before
// returning.
func (m *Manager) UpdateFromCycle(log *MissionLog, cycle *CycleLog) error {
	log.CycleIDs = append(log.CycleIDs, cycle.CycleID)
	log.TotalDecisionCycles++
	log.TotalCostUSD += cycle.TotalCostUSD
	log.TotalElapsedMinutes += cycle.DurationMinutes
	log.TotalRevenueUSD += cycle.RevenueUSD
	log.CurrentCycleID = cycle.CycleID

	input, output := cycleTokens(cycle)
	log.TotalInputTokens += input
	log.TotalOutputTokens += output

	if cycle.Status == CycleSuccess {
		log.CompletedCycles++
	} else {
		log.FailedCycles++
	}

	log.CycleSummaries = append(log.CycleSummaries, CycleSummary{
		CycleID:         cycle.CycleID,
		Focus:           cycle.Focus,
		Status:          cycle.Status,
		CostUSD:         cycle.TotalCostUSD,
		DurationMinutes: cycle.DurationMinutes,
		AgentsUsed:      cycle.AgentsUsed,
		KPIs:            cycle.KPIs,
		Timestamp:       cycle.Timestamp,
	})

	if cycle.Status == CycleSuccess {
		log.KeyLearnings = append(log.KeyLearnings, extractKeyLearning(cycle))
	}

	for _, name := range cycle.AgentsUsed {
		if !contains(log.PersistentAgents, name) {
			log.PersistentAgents = append(log.PersistentAgents, name)
		}
	}

	return m.Save(log)
}

// cycleTokens sums prompt and completion tokens across every recorded
// interaction of a cycle.
func cycleTokens(cycle *CycleLog) (input, output int) {
	if cycle.Planning != nil {
		input += cycle.Planning.Usage.PromptTokens
		output += cycle.Planning.Usage.CompletionTokens
	}
	for _, step := range cycle.Steps {
		input += step.Usage.PromptTokens
		output += step.Usage.CompletionTokens
	}
	if cycle.Review != nil {
		input += cycle.Review.Usage.PromptTokens
		output += cycle.Review.Usage.CompletionTokens
	}
	for _, list := range [][]Interaction{
		cycle.OrchestratorInteractions,
		cycle.SpecialistInteractions,
		cycle.ReviewInteractions,
	} {
		for _, i := range list {
			input += i.InputTokens
			output += i.OutputTokens
		}
	}
	return input, output
}

// extractKeyLearning condenses a successful cycle into one line.
func extractKeyLearning(cycle *CycleLog) string {
	revenue := ""
	if cycle.RevenueUSD > 0 {
		revenue = fmt.Sprintf(" producing $%.2f revenue", cycle.RevenueUSD)
	}
	return fmt.Sprintf("Cycle %d: focus %q succeeded%s at a cost of $%.4f.",
		cycle.SequenceNumber, cycle.Focus, revenue, cycle.TotalCostUSD)
}

// SaveCycleLog persists the full cycle record under logs/cycles/ and as a
// workspace asset.
func (m *Manager) SaveCycleLog(log *MissionLog, cycle *CycleLog) error {
	if _, err := m.workspaces.SaveCycleLog(log.MissionID, cycle.CycleID, cycle); err != nil {
		return err
	}
	if _, err := m.workspaces.SaveAsset(log.MissionID, cycle.CycleID+".json", cycle, "data"); err != nil {
		m.logger.Warn("failed to save cycle asset",
			zap.String("cycle_id", cycle.CycleID),
			zap.Error(err))
	}
	return nil
}

// GetMissionContextForAgents summarizes the mission state handed to agents
// in prompts.
func (m *Manager) GetMissionContextForAgents(log *MissionLog) map[string]any {
	recent := log.CycleSummaries
	if len(recent) > CarriedSummaryLimit {
		recent = recent[len(recent)-CarriedSummaryLimit:]
	}
	learnings := log.KeyLearnings
	if len(learnings) > CarriedLearningLimit {
		learnings = learnings[len(learnings)-CarriedLearningLimit:]
	}
	return map[string]any{
		"mission_id":        log.MissionID,
		"overall_mission":   log.OverallMission,
		"status":            log.Status,
		"completed_cycles":  log.CompletedCycles,
		"failed_cycles":     log.FailedCycles,
		"total_cost_usd":    log.TotalCostUSD,
		"total_revenue_usd": log.TotalRevenueUSD,
		"key_learnings":     learnings,
		"recent_summaries":  recent,
		"persistent_agents": log.PersistentAgents,
		"workspace_path":    log.WorkspacePath,
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
