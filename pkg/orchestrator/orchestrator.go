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

// Package orchestrator drives one mission through iteration cycles: C-Suite
// planning, the fixed workflow pipeline, C-Suite review, the CFO growth
// guardrail, and the completion consensus.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/pkg/agent"
	"github.com/launchonomy/launchonomy/pkg/agent/builtin"
	"github.com/launchonomy/launchonomy/pkg/collaboration"
	"github.com/launchonomy/launchonomy/pkg/cost"
	"github.com/launchonomy/launchonomy/pkg/memory"
	"github.com/launchonomy/launchonomy/pkg/mission"
	"github.com/launchonomy/launchonomy/pkg/provision"
	"github.com/launchonomy/launchonomy/pkg/registry"
	"github.com/launchonomy/launchonomy/pkg/workspace"
)

// Defaults for the run configuration.
const (
	DefaultMaxIterations     = 10
	DefaultInterCycleDelay   = time.Second
	DefaultBudgetCeilingUSD  = 100
	DefaultBudgetRevenueFrac = 0.15

	// Completion-consensus preconditions.
	CompletionRevenueThresholdUSD = 1000
	CompletionSuccessfulCycles    = 3

	// Failed cycles tolerated within a single run before termination.
	MaxFailedCycles = 3
)

// strategicSubset lists the C-Suite roles consulted for planning, review
// and completion, in preference order.
var strategicSubset = []string{"CEO", "CRO", "CTO", "CFO"}

// defaultAffirmativeTokens drive the CFO heuristic when no structured
// decision could be parsed.
var defaultAffirmativeTokens = []string{"yes", "approve", "approved", "go ahead", "proceed", "agreed"}

// Config tunes a scheduler run.
type Config struct {
	MaxIterations     int
	InterCycleDelay   time.Duration
	AffirmativeTokens []string
	BudgetCeilingUSD  float64
	BudgetRevenueFrac float64
}

// Orchestrator is the single-threaded cooperative driver for one mission.
type Orchestrator struct {
	config     Config
	missions   *mission.Manager
	agents     *agent.Manager
	comm       *agent.Communicator
	reviews    *collaboration.ReviewManager
	provision  *provision.Provisioner
	workspaces *workspace.Manager
	registry   *registry.Registry
	memory     *memory.Helper
	logger     *zap.Logger

	// revenueAtLastPlan decides when Phase 1 re-runs.
	revenueAtLastPlan float64
	planned           bool
}

// New wires a scheduler. memoryHelper may be nil; memory is advisory.
func New(config Config, missions *mission.Manager, agents *agent.Manager, comm *agent.Communicator,
	reviews *collaboration.ReviewManager, prov *provision.Provisioner, workspaces *workspace.Manager,
	reg *registry.Registry, memoryHelper *memory.Helper, logger *zap.Logger) *Orchestrator {

	// Zero is a legal cap meaning "run no cycles"; only a negative value
	// falls back to the default.
	if config.MaxIterations < 0 {
		config.MaxIterations = DefaultMaxIterations
	}
	if config.InterCycleDelay < 0 {
		config.InterCycleDelay = DefaultInterCycleDelay
	}
	if len(config.AffirmativeTokens) == 0 {
		config.AffirmativeTokens = defaultAffirmativeTokens
	}
	if config.BudgetCeilingUSD <= 0 {
		config.BudgetCeilingUSD = DefaultBudgetCeilingUSD
	}
	if config.BudgetRevenueFrac <= 0 {
		config.BudgetRevenueFrac = DefaultBudgetRevenueFrac
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		config:     config,
		missions:   missions,
		agents:     agents,
		comm:       comm,
		reviews:    reviews,
		provision:  prov,
		workspaces: workspaces,
		registry:   reg,
		memory:     memoryHelper,
		logger:     logger,
	}
}

// Run drives the mission until a termination rule fires and returns the
// final status. The mission log is kept persistent throughout; a crash at
// any point leaves a resumable state behind.
func (o *Orchestrator) Run(ctx context.Context, log *mission.MissionLog) (string, error) {
	missionContext := fmt.Sprintf("Mission %s: %s", log.MissionID, log.OverallMission)
	o.agents.BootstrapCSuite(missionContext)
	if o.registry != nil {
		if err := builtin.PreRegister(o.registry); err != nil {
			return mission.FinalCriticalError, err
		}
	}
	if err := o.agents.LoadRegistered(); err != nil {
		return mission.FinalCriticalError, err
	}

	if err := o.missions.SetStatus(log, mission.StatusStarted, ""); err != nil {
		o.logger.Error("failed to persist mission status",
			zap.String("mission_id", log.MissionID),
			zap.Error(err))
	}

	final := mission.FinalMaxIterationsReached
	var runErr error

	// Resumed missions carry historical failures; only failures from this
	// run count toward termination.
	failedAtStart := log.FailedCycles

	for iteration := 1; iteration <= o.config.MaxIterations; iteration++ {
		select {
		case <-ctx.Done():
			final, runErr = mission.FinalStoppedByUser, ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		cycleStart := time.Now()
		cycle, err := o.missions.NewLinkedCycle(log, "")
		if err != nil {
			final, runErr = mission.FinalCriticalError, err
			break
		}

		o.logger.Info("cycle started",
			zap.String("mission_id", log.MissionID),
			zap.String("cycle_id", cycle.CycleID),
			zap.Int("iteration", iteration))

		cycleErr := o.runCycle(ctx, log, cycle)
		if cycleErr != nil {
			cycle.Status = mission.CycleFailed
			cycle.ErrorMessage = cycleErr.Error()
			o.logger.Error("cycle failed with critical error",
				zap.String("cycle_id", cycle.CycleID),
				zap.Error(cycleErr))
		}

		cycle.DurationMinutes = time.Since(cycleStart).Minutes()
		cycle.TotalCostUSD = cost.CycleCost(cycle)

		// Persistence failures never kill the run; the in-memory log
		// stays authoritative and the scheduler carries on.
		if err := o.missions.SaveCycleLog(log, cycle); err != nil {
			o.logger.Error("failed to persist cycle log",
				zap.String("cycle_id", cycle.CycleID),
				zap.Error(err))
		}
		if err := o.missions.UpdateFromCycle(log, cycle); err != nil {
			o.logger.Error("failed to persist mission log",
				zap.String("mission_id", log.MissionID),
				zap.Error(err))
		}
		o.checkpointState(log, iteration)

		// Termination rules, in order.
		if cycle.CompletionConsensus != nil && cycle.CompletionConsensus.Complete {
			final = mission.FinalSuccessConsensus
			break
		}
		if log.FailedCycles-failedAtStart > MaxFailedCycles {
			final = mission.FinalTooManyFailures
			break
		}
		if cycleErr != nil {
			final = mission.FinalCriticalError
			break
		}

		if iteration < o.config.MaxIterations && o.config.InterCycleDelay > 0 {
			select {
			case <-ctx.Done():
				final, runErr = mission.FinalStoppedByUser, ctx.Err()
			case <-time.After(o.config.InterCycleDelay):
			}
			if runErr != nil {
				break
			}
		}
	}

	o.finish(ctx, log, final)
	return final, runErr
}

// runCycle runs the three phases plus guardrails for one cycle. A returned
// error is a critical failure; step-level failures are absorbed into the
// cycle record instead.
func (o *Orchestrator) runCycle(ctx context.Context, log *mission.MissionLog, cycle *mission.CycleLog) error {
	// Phase 1 runs on the first cycle and again whenever revenue moved.
	if !o.planned || log.TotalRevenueUSD != o.revenueAtLastPlan {
		o.runPlanning(ctx, log, cycle)
		o.planned = true
		o.revenueAtLastPlan = log.TotalRevenueUSD
	} else if len(log.CycleSummaries) > 0 {
		// Keep steering by the most recent focus.
		cycle.Focus = log.CycleSummaries[len(log.CycleSummaries)-1].Focus
	}

	o.runPipeline(ctx, log, cycle)
	o.runReview(ctx, log, cycle)
	o.runCompletionConsensus(ctx, log, cycle)

	if cycle.Status == mission.CycleStarted {
		cycle.Status = mission.CycleSuccess
		for _, step := range cycle.Steps {
			if !stepAcceptable(step.Status) {
				cycle.Status = mission.CycleFailed
				break
			}
		}
	}
	return nil
}

// stepAcceptable reports whether a step status leaves the cycle healthy.
// A CFO-declined growth step is a guardrail outcome, not a failure.
func stepAcceptable(status string) bool {
	return status == agent.StatusSuccess || status == StatusDeclinedByCFO
}

// finish writes the terminal status, the retrospective document, and logs
// the outcome.
func (o *Orchestrator) finish(ctx context.Context, log *mission.MissionLog, final string) {
	status := mission.StatusFailed
	switch final {
	case mission.FinalSuccessConsensus:
		status = mission.StatusCompleted
	case mission.FinalMaxIterationsReached:
		status = mission.StatusPaused
	case mission.FinalStoppedByUser:
		status = mission.StatusStoppedByUser
	case mission.FinalCriticalError:
		status = mission.StatusCriticalError
	}
	if err := o.missions.SetStatus(log, status, final); err != nil {
		o.logger.Error("failed to persist final mission status", zap.Error(err))
	}

	o.writeRetrospective(ctx, log, final)

	o.memory.LogInsight(ctx, fmt.Sprintf("Mission %s finished: %s after %d cycles, $%.4f spent, $%.2f revenue.",
		log.MissionID, final, len(log.CycleIDs), log.TotalCostUSD, log.TotalRevenueUSD), nil)

	o.logger.Info("mission finished",
		zap.String("mission_id", log.MissionID),
		zap.String("final_status", final),
		zap.Int("cycles", len(log.CycleIDs)),
		zap.Float64("total_cost_usd", log.TotalCostUSD),
		zap.Float64("total_revenue_usd", log.TotalRevenueUSD))
}

// checkpointState snapshots the rolled-up mission counters into the
// workspace after each cycle so a crashed run leaves an inspectable
// checkpoint behind.
func (o *Orchestrator) checkpointState(log *mission.MissionLog, iteration int) {
	if o.workspaces == nil {
		return
	}
	state := map[string]any{
		"status":            log.Status,
		"iteration":         iteration,
		"completed_cycles":  log.CompletedCycles,
		"failed_cycles":     log.FailedCycles,
		"total_cost_usd":    log.TotalCostUSD,
		"total_revenue_usd": log.TotalRevenueUSD,
		"current_cycle_id":  log.CurrentCycleID,
	}
	if err := o.workspaces.SaveMissionState(log.MissionID, state, "cycle_end"); err != nil {
		o.logger.Warn("failed to checkpoint mission state",
			zap.String("mission_id", log.MissionID),
			zap.Error(err))
	}
}

// strategicParticipants returns up to limit live agents from the strategic
// subset.
func (o *Orchestrator) strategicParticipants(limit int) []string {
	var out []string
	for _, role := range strategicSubset {
		if len(out) == limit {
			break
		}
		if o.agents.Has(role) {
			out = append(out, role)
		}
	}
	return out
}
