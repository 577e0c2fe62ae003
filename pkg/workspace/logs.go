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
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const missionLogFile = "mission_log.json"

// SaveMissionLog writes state/mission_log.json, the source of truth for
// resume.
func (m *Manager) SaveMissionLog(missionID string, log any) error {
	lock := m.missionLock(missionID)
	lock.Lock()
	defer lock.Unlock()

	root, err := m.Path(missionID)
	if err != nil {
		return err
	}
	return writeJSON(filepath.Join(root, "state", missionLogFile), log)
}

// LoadMissionLog reads state/mission_log.json into out.
func (m *Manager) LoadMissionLog(missionID string, out any) error {
	root, err := m.Path(missionID)
	if err != nil {
		return err
	}
	return readJSONInto(filepath.Join(root, "state", missionLogFile), out)
}

// SaveCycleLog writes logs/cycles/<cycle_id>.json and returns the
// workspace-relative path.
func (m *Manager) SaveCycleLog(missionID, cycleID string, cycle any) (string, error) {
	lock := m.missionLock(missionID)
	lock.Lock()
	defer lock.Unlock()

	root, err := m.Path(missionID)
	if err != nil {
		return "", err
	}
	rel := filepath.ToSlash(filepath.Join("logs", "cycles", cycleID+".json"))
	if err := writeJSON(filepath.Join(root, "logs", "cycles", cycleID+".json"), cycle); err != nil {
		return "", err
	}
	return rel, nil
}

// LoadCycleLog reads logs/cycles/<cycle_id>.json into out.
func (m *Manager) LoadCycleLog(missionID, cycleID string, out any) error {
	root, err := m.Path(missionID)
	if err != nil {
		return err
	}
	return readJSONInto(filepath.Join(root, "logs", "cycles", cycleID+".json"), out)
}

// SaveRetrospective writes a generated retrospective document under
// docs/generated and returns the workspace-relative path.
func (m *Manager) SaveRetrospective(missionID, fileName, content string) (string, error) {
	lock := m.missionLock(missionID)
	lock.Lock()
	defer lock.Unlock()

	root, err := m.Path(missionID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(root, "docs", "generated", fileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write retrospective: %w", err)
	}
	return filepath.ToSlash(filepath.Join("docs", "generated", fileName)), nil
}

func readJSONInto(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
