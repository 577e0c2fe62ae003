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

// Package mission defines the mission and cycle data model and the
// Manager that exclusively owns their mutation and persistence.
package mission

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/launchonomy/launchonomy/pkg/llm"
)

// Status is a mission lifecycle status.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusArchived  Status = "archived"

	// Transitional statuses written by the scheduler; all are resumable.
	StatusStarted           Status = "started"
	StatusEndedUnexpectedly Status = "ended_unexpectedly"
	StatusCriticalError     Status = "critical_error"
	StatusStoppedByUser     Status = "stopped_by_user"
)

// Resumable reports whether a mission with this status can be resumed.
func (s Status) Resumable() bool {
	switch s {
	case StatusActive, StatusPaused, StatusStarted, StatusEndedUnexpectedly, StatusCriticalError, StatusStoppedByUser:
		return true
	}
	return false
}

// Final statuses the scheduler terminates with.
const (
	FinalSuccessConsensus     = "success_csuite_consensus"
	FinalTooManyFailures      = "too_many_failures"
	FinalMaxIterationsReached = "max_iterations_reached"
	FinalCriticalError        = "critical_error"
	FinalStoppedByUser        = "stopped_by_user"
)

// CycleStatus is a cycle lifecycle status.
type CycleStatus string

const (
	CycleStarted CycleStatus = "started"
	CycleSuccess CycleStatus = "success"
	CycleFailed  CycleStatus = "failed"
)

// MissionLog is the persistent record of a mission. It is the source of
// truth for resume and lives at state/mission_log.json in the workspace.
type MissionLog struct {
	MissionID      string `json:"mission_id"`
	MissionName    string `json:"mission_name"`
	OverallMission string `json:"overall_mission"`
	Status         Status `json:"status"`
	// FinalStatus is the scheduler's termination reason, empty while running.
	FinalStatus string `json:"final_status,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TotalCostUSD        float64 `json:"total_cost_usd"`
	TotalElapsedMinutes float64 `json:"total_elapsed_minutes"`
	CompletedCycles     int     `json:"completed_cycles"`
	FailedCycles        int     `json:"failed_cycles"`
	TotalDecisionCycles int     `json:"total_decision_cycles"`
	TotalInputTokens    int     `json:"total_input_tokens"`
	TotalOutputTokens   int     `json:"total_output_tokens"`
	TotalRevenueUSD     float64 `json:"total_revenue_usd"`

	CycleIDs       []string `json:"cycle_ids"`
	CurrentCycleID string   `json:"current_cycle_id,omitempty"`

	PersistentAgents []string       `json:"persistent_agents"`
	CycleSummaries   []CycleSummary `json:"cycle_summaries"`
	KeyLearnings     []string       `json:"key_learnings"`

	WorkspacePath string   `json:"workspace_path,omitempty"`
	Tags          []string `json:"tags,omitempty"`
}

// CycleSummary is the compact per-cycle record carried on the mission log.
type CycleSummary struct {
	CycleID         string             `json:"cycle_id"`
	Focus           string             `json:"focus"`
	Status          CycleStatus        `json:"status"`
	CostUSD         float64            `json:"cost_usd"`
	DurationMinutes float64            `json:"duration_minutes"`
	AgentsUsed      []string           `json:"agents_used,omitempty"`
	KPIs            map[string]float64 `json:"kpis,omitempty"`
	Timestamp       time.Time          `json:"timestamp"`
}

// CycleLog is the full record of one decision cycle.
type CycleLog struct {
	CycleID         string      `json:"cycle_id"`
	MissionID       string      `json:"mission_id"`
	SequenceNumber  int         `json:"cycle_sequence_number"`
	PreviousCycleID string      `json:"previous_cycle_id,omitempty"`
	NextCycleID     string      `json:"next_cycle_id,omitempty"`
	Timestamp       time.Time   `json:"timestamp"`
	Focus           string      `json:"focus"`
	Status          CycleStatus `json:"status"`
	ErrorMessage    string      `json:"error_message,omitempty"`

	DurationMinutes float64 `json:"duration_minutes"`
	TotalCostUSD    float64 `json:"total_cycle_cost"`
	RevenueUSD      float64 `json:"revenue_usd"`

	// Structured sub-logs.
	AgentManagement          []ManagementEvent  `json:"agent_management,omitempty"`
	OrchestratorInteractions []Interaction      `json:"orchestrator_interactions,omitempty"`
	SpecialistInteractions   []Interaction      `json:"specialist_interactions,omitempty"`
	ReviewInteractions       []Interaction      `json:"review_interactions,omitempty"`
	ExecutionAttempts        []ExecutionAttempt `json:"execution_attempts,omitempty"`
	JSONParseAttempts        []ParseAttempt     `json:"json_parse_attempts,omitempty"`

	Planning            *PlanningRecord        `json:"planning,omitempty"`
	Steps               map[string]*StepRecord `json:"steps"`
	Review              *ReviewRecord          `json:"review,omitempty"`
	CFODecision         *CFODecision           `json:"cfo_decision,omitempty"`
	CompletionConsensus *CompletionRecord      `json:"completion_consensus,omitempty"`

	KPIs       map[string]float64 `json:"kpis,omitempty"`
	AgentsUsed []string           `json:"agents_used,omitempty"`
	ToolsUsed  []string           `json:"tools_used,omitempty"`

	// Context carried forward from prior cycles (set when linking).
	CarriedSummaries    []CycleSummary `json:"carried_summaries,omitempty"`
	CarriedKeyLearnings []string       `json:"carried_key_learnings,omitempty"`
}

// ManagementEvent records an agent-management action during a cycle
// (specialization attempts, provisioning, bootstrap).
type ManagementEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Agent     string    `json:"agent,omitempty"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
}

// Interaction records one prompt/response exchange with an agent.
type Interaction struct {
	Timestamp    time.Time `json:"timestamp"`
	Agent        string    `json:"agent"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response"`
	CostUSD      float64   `json:"cost_usd"`
	InputTokens  int       `json:"input_tokens,omitempty"`
	OutputTokens int       `json:"output_tokens,omitempty"`
}

// ExecutionAttempt records one workflow-step execution attempt.
type ExecutionAttempt struct {
	Timestamp time.Time `json:"timestamp"`
	Step      string    `json:"step"`
	Agent     string    `json:"agent"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// ParseAttempt records one attempt of the JSON extraction pipeline.
type ParseAttempt struct {
	Timestamp   time.Time `json:"timestamp"`
	Agent       string    `json:"agent"`
	Prompt      string    `json:"prompt"`
	RawResponse string    `json:"raw_response"`
	Extracted   string    `json:"extracted,omitempty"`
	ParseError  string    `json:"parse_error,omitempty"`
	CostUSD     float64   `json:"cost_usd"`
}

// PlanResponse is one C-Suite participant's strategic planning answer.
type PlanResponse struct {
	Focus                string   `json:"focus"`
	BudgetRecommendation float64  `json:"budget_recommendation,omitempty"`
	Risks                []string `json:"risks,omitempty"`
	Opportunities        []string `json:"opportunities,omitempty"`
	// Source is "structured" for parsed JSON or
	// "recovered_from_natural_language" for keyword-salvaged answers.
	Source string `json:"source"`
}

// PlanningRecord is the Phase 1 output.
type PlanningRecord struct {
	Participants   []string                `json:"participants"`
	Responses      map[string]PlanResponse `json:"responses"`
	StrategicFocus string                  `json:"strategic_focus"`
	NextActions    []string                `json:"next_actions"`
	Usage          llm.Usage               `json:"usage"`
}

// StepRecord is one workflow step's outcome inside a cycle.
type StepRecord struct {
	Agent        string         `json:"agent"`
	Status       string         `json:"status"`
	Data         map[string]any `json:"data,omitempty"`
	Confidence   float64        `json:"confidence,omitempty"`
	ToolsUsed    []string       `json:"tools_used,omitempty"`
	NextSteps    []string       `json:"next_steps,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Usage        llm.Usage      `json:"usage"`
	Timestamp    time.Time      `json:"timestamp"`
}

// ReviewResponse is one C-Suite participant's Phase 3 review.
type ReviewResponse struct {
	Assessment  string   `json:"assessment"`
	Adjustments []string `json:"adjustments,omitempty"`
	NextFocus   string   `json:"next_focus,omitempty"`
	Source      string   `json:"source"`
}

// ReviewRecord is the Phase 3 output.
type ReviewRecord struct {
	Participants   []string                  `json:"participants"`
	Assessments    map[string]ReviewResponse `json:"assessments"`
	ContextUpdates map[string]any            `json:"context_updates,omitempty"`
	Usage          llm.Usage                 `json:"usage"`
}

// CFODecision is the growth-approval guardrail outcome.
type CFODecision struct {
	Approved bool    `json:"approved"`
	Budget   float64 `json:"budget"`
	Reason   string  `json:"reason"`
	// Source is "structured" or "recovered_from_natural_language".
	Source string `json:"source"`
}

// CompletionRecord is the completion-consensus outcome.
type CompletionRecord struct {
	Participants []string          `json:"participants"`
	Votes        map[string]bool   `json:"votes"`
	Reasonings   map[string]string `json:"reasonings,omitempty"`
	Complete     bool              `json:"complete"`
}

// NewMissionID builds a monotonically sortable mission id. The short
// uuid suffix disambiguates missions created within the same second.
func NewMissionID(now time.Time) string {
	return fmt.Sprintf("mission_%s_%s",
		now.UTC().Format("20060102_150405"),
		strings.Split(uuid.New().String(), "-")[0])
}

// NewCycleID builds a cycle id that sorts in creation order. The
// sequence number disambiguates cycles created within the same second.
func NewCycleID(now time.Time, sequence int) string {
	return fmt.Sprintf("cycle_%s_%04d", now.UTC().Format("20060102_150405"), sequence)
}

// NewCycle creates a cycle record in the started state. Linking into the
// mission (sequence number, previous cycle) is the Manager's job.
func NewCycle(missionID, focus string, now time.Time) *CycleLog {
	return &CycleLog{
		MissionID: missionID,
		Timestamp: now,
		Focus:     focus,
		Status:    CycleStarted,
		Steps:     make(map[string]*StepRecord),
		KPIs:      make(map[string]float64),
	}
}
