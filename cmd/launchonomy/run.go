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
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/internal/log"
	"github.com/launchonomy/launchonomy/pkg/agent"
	"github.com/launchonomy/launchonomy/pkg/agent/builtin"
	"github.com/launchonomy/launchonomy/pkg/collaboration"
	"github.com/launchonomy/launchonomy/pkg/llm"
	"github.com/launchonomy/launchonomy/pkg/llm/openai"
	"github.com/launchonomy/launchonomy/pkg/memory"
	"github.com/launchonomy/launchonomy/pkg/mission"
	"github.com/launchonomy/launchonomy/pkg/orchestrator"
	"github.com/launchonomy/launchonomy/pkg/provision"
	"github.com/launchonomy/launchonomy/pkg/registry"
	"github.com/launchonomy/launchonomy/pkg/workspace"
)

// runMission wires the engine, resolves new-vs-resume, and drives the
// mission to a terminal status.
func runMission(parent context.Context, config *Config, missionText string) error {
	logger := log.Logger()

	ws := workspace.NewManager(config.BaseDir, logger)
	missions := mission.NewManager(ws, logger)

	missionLog, err := resolveMission(missions, missionText)
	if err != nil {
		return err
	}

	if err := ws.AcquireLock(missionLog.MissionID); err != nil {
		if errors.Is(err, workspace.ErrMissionBusy) {
			return fmt.Errorf("mission %s is already being run by another process", missionLog.MissionID)
		}
		return err
	}
	defer func() {
		if err := ws.ReleaseLock(missionLog.MissionID); err != nil {
			logger.Warn("failed to release mission lock", zap.Error(err))
		}
	}()

	reg, err := registry.Load(filepath.Join(config.BaseDir, "registry.json"), logger)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := builtin.PreRegister(reg); err != nil {
		return fmt.Errorf("failed to pre-register workflow agents: %w", err)
	}

	provider := llm.NewClient(openai.NewClient(openai.Config{
		APIKey: os.Getenv("OPENAI_API_KEY"),
		Model:  config.Model,
	}), llm.DefaultRetryConfig(), nil, logger)

	comm := agent.NewCommunicator(provider, logger)
	agents := agent.NewManager(provider, comm, reg, logger)
	reviews := collaboration.NewReviewManager(agents, comm, logger)
	prov := provision.NewProvisioner(reg, agents, comm, reviews, logger)
	prov.SetStubPort(config.Provision.StubPort)
	prov.SetWorkspaces(ws)

	var memoryHelper *memory.Helper
	if config.Memory.Enabled {
		wsPath, pathErr := ws.Path(missionLog.MissionID)
		if pathErr == nil {
			store, storeErr := memory.NewStore(memory.Config{
				MissionID:     missionLog.MissionID,
				WorkspacePath: wsPath,
				BaseDir:       config.BaseDir,
			}, logger)
			if storeErr != nil {
				logger.Warn("vector memory unavailable, continuing without it", zap.Error(storeErr))
			} else {
				memoryHelper = memory.NewHelper(store)
			}
		}
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// External registry edits become visible between cycles.
	if reloaded, watchErr := reg.Watch(ctx); watchErr == nil {
		go func() {
			for range reloaded {
				logger.Info("registry reloaded from disk")
			}
		}()
	} else {
		logger.Warn("registry watch unavailable", zap.Error(watchErr))
	}

	orch := orchestrator.New(orchestrator.Config{
		MaxIterations:     config.MaxIterations,
		InterCycleDelay:   orchestrator.DefaultInterCycleDelay,
		AffirmativeTokens: config.CFO.AffirmativeTokens,
		BudgetCeilingUSD:  config.CFO.BudgetCeilingUSD,
		BudgetRevenueFrac: config.CFO.BudgetRevenueFrac,
	}, missions, agents, comm, reviews, prov, ws, reg, memoryHelper, logger)

	fmt.Printf("Mission %s: %s\n", missionLog.MissionID, missionLog.OverallMission)
	final, runErr := orch.Run(ctx, missionLog)

	if final == mission.FinalSuccessConsensus && config.Workspace.ArchiveOnCompletion {
		if archivePath, archiveErr := ws.Archive(missionLog.MissionID, ""); archiveErr != nil {
			logger.Warn("failed to archive completed mission workspace", zap.Error(archiveErr))
		} else {
			fmt.Printf("Workspace archived to %s\n", archivePath)
		}
	}

	fmt.Printf("\nMission finished: %s\n", final)
	fmt.Printf("  Cycles:  %d (%d completed, %d failed)\n",
		len(missionLog.CycleIDs), missionLog.CompletedCycles, missionLog.FailedCycles)
	fmt.Printf("  Revenue: $%.2f\n", missionLog.TotalRevenueUSD)
	fmt.Printf("  Spend:   $%.4f\n", missionLog.TotalCostUSD)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// resolveMission offers the resume menu unless --new is set, then falls
// back to creating a mission from the description.
func resolveMission(missions *mission.Manager, missionText string) (*mission.MissionLog, error) {
	if !newMission {
		selected, err := selectMission(missions.ListResumable(), os.Stdin, os.Stdout)
		if err != nil {
			return nil, err
		}
		if selected != nil {
			return selected, nil
		}
	}

	if missionText == "" {
		var err error
		missionText, err = promptMissionText(os.Stdin, os.Stdout)
		if err != nil {
			return nil, err
		}
	}
	return missions.CreateOrLoad(missionNameFrom(missionText), missionText, !newMission)
}
