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
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const assetTimestampLayout = "20060102_150405"

// AddAgent writes an agent's spec (and optional generated code) under
// agents/<name>/ and records it in the manifest.
func (m *Manager) AddAgent(missionID, name string, spec any, code string) error {
	return m.addComponent(missionID, "agents", name, spec, code)
}

// AddTool writes a tool's spec (and optional generated code) under
// tools/<name>/ and records it in the manifest.
func (m *Manager) AddTool(missionID, name string, spec any, code string) error {
	return m.addComponent(missionID, "tools", name, spec, code)
}

func (m *Manager) addComponent(missionID, kind, name string, spec any, code string) error {
	lock := m.missionLock(missionID)
	lock.Lock()
	defer lock.Unlock()

	root, err := m.Path(missionID)
	if err != nil {
		return err
	}
	dir := filepath.Join(root, kind, Slugify(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	specPath := filepath.Join(dir, "spec.json")
	if err := writeJSON(specPath, spec); err != nil {
		return err
	}
	files := []string{specPath}
	if code != "" {
		codePath := filepath.Join(dir, Slugify(name)+".py")
		if err := os.WriteFile(codePath, []byte(code), 0o644); err != nil {
			return fmt.Errorf("failed to write %s code: %w", kind, err)
		}
		files = append(files, codePath)
	}

	manifest, err := m.readManifest(root)
	if err != nil {
		return err
	}
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
		rel, _ := filepath.Rel(root, path)
		manifest.add(AssetEntry{
			Name:      filepath.Base(path),
			Path:      filepath.ToSlash(rel),
			Category:  kind,
			SizeBytes: info.Size(),
			CreatedAt: time.Now().UTC(),
		})
	}
	if err := m.writeManifest(root, manifest); err != nil {
		return err
	}

	m.logger.Debug("component added to workspace",
		zap.String("mission_id", missionID),
		zap.String("kind", kind),
		zap.String("name", name))
	return nil
}

// SaveAsset writes data into the category subdirectory with a
// timestamp-prefixed file name and returns the workspace-relative path.
// Strings are written as text, byte slices as binary, anything else as
// indented JSON.
func (m *Manager) SaveAsset(missionID, name string, data any, category string) (string, error) {
	lock := m.missionLock(missionID)
	lock.Lock()
	defer lock.Unlock()

	root, err := m.Path(missionID)
	if err != nil {
		return "", err
	}
	subdir, ok := assetCategories[category]
	if !ok {
		return "", fmt.Errorf("unknown asset category %q", category)
	}

	fileName := time.Now().UTC().Format(assetTimestampLayout) + "_" + name
	path := filepath.Join(root, filepath.FromSlash(subdir), fileName)

	var payload []byte
	switch v := data.(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		payload, err = json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal asset %s: %w", name, err)
		}
		if !strings.HasSuffix(path, ".json") {
			path += ".json"
			fileName += ".json"
		}
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("failed to write asset %s: %w", name, err)
	}

	rel := filepath.ToSlash(filepath.Join(subdir, fileName))
	manifest, err := m.readManifest(root)
	if err != nil {
		return "", err
	}
	manifest.add(AssetEntry{
		Name:      fileName,
		Path:      rel,
		Category:  category,
		SizeBytes: int64(len(payload)),
		CreatedAt: time.Now().UTC(),
	})
	if err := m.writeManifest(root, manifest); err != nil {
		return "", err
	}
	return rel, nil
}

// SaveMissionState writes state/current_state.json, and when checkpoint is
// non-empty also a timestamp-prefixed copy under state/checkpoints/.
func (m *Manager) SaveMissionState(missionID string, state any, checkpoint string) error {
	lock := m.missionLock(missionID)
	lock.Lock()
	defer lock.Unlock()

	root, err := m.Path(missionID)
	if err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(root, "state", "current_state.json"), state); err != nil {
		return err
	}
	if checkpoint != "" {
		name := time.Now().UTC().Format(assetTimestampLayout) + "_" + checkpoint + ".json"
		if err := writeJSON(filepath.Join(root, "state", "checkpoints", name), state); err != nil {
			return err
		}
	}
	return nil
}

// LoadMissionState reads state/current_state.json, or when checkpoint is
// non-empty the most recent checkpoint file matching *_<checkpoint>.json.
// The timestamp prefix makes lexicographic order chronological.
func (m *Manager) LoadMissionState(missionID string, checkpoint string, out any) error {
	root, err := m.Path(missionID)
	if err != nil {
		return err
	}

	path := filepath.Join(root, "state", "current_state.json")
	if checkpoint != "" {
		matches, err := filepath.Glob(filepath.Join(root, "state", "checkpoints", "*_"+checkpoint+".json"))
		if err != nil || len(matches) == 0 {
			return fmt.Errorf("no checkpoint %q for mission %s", checkpoint, missionID)
		}
		sort.Strings(matches)
		path = matches[len(matches)-1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read mission state: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse mission state: %w", err)
	}
	return nil
}
