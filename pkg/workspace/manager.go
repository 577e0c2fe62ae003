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
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseDir is the workspace root used when none is configured.
const DefaultBaseDir = ".launchonomy"

// Manager creates and mutates mission workspaces under a single base
// directory. All filesystem writes under a mission root flow through it.
type Manager struct {
	baseDir string
	logger  *zap.Logger

	mu    sync.Mutex
	paths map[string]string      // mission id -> workspace root
	locks map[string]*sync.Mutex // per-mission write lock
}

// NewManager returns a Manager rooted at baseDir (DefaultBaseDir when empty).
func NewManager(baseDir string, logger *zap.Logger) *Manager {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		baseDir: baseDir,
		logger:  logger,
		paths:   map[string]string{},
		locks:   map[string]*sync.Mutex{},
	}
}

// BaseDir returns the root under which all workspaces live.
func (m *Manager) BaseDir() string { return m.baseDir }

func (m *Manager) missionLock(missionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[missionID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[missionID] = lock
	}
	return lock
}

// Create builds the full workspace subtree for a mission and returns its
// config. The directory is named <mission_id>_<slugified name>.
func (m *Manager) Create(missionID, missionName string) (*Config, error) {
	lock := m.missionLock(missionID)
	lock.Lock()
	defer lock.Unlock()

	dirName := missionID
	if slug := Slugify(missionName); slug != "" {
		dirName = missionID + "_" + slug
	}
	root := filepath.Join(m.baseDir, dirName)

	for _, sub := range subdirs {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(sub)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create workspace directory %s: %w", sub, err)
		}
	}

	now := time.Now().UTC()
	config := &Config{
		MissionID:   missionID,
		MissionName: missionName,
		Path:        root,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.writeConfig(root, config); err != nil {
		return nil, err
	}
	if err := m.writeManifest(root, newManifest()); err != nil {
		return nil, err
	}

	readme := fmt.Sprintf("# Workspace for %s\n\nMission: %s\nCreated: %s\n\nManaged directory. Do not edit files by hand while a mission is running.\n",
		missionID, missionName, now.Format(time.RFC3339))
	if err := os.WriteFile(filepath.Join(root, "README.md"), []byte(readme), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write README: %w", err)
	}
	gitignore := "*.lock\nstate/progress/\n__pycache__/\n.env\n"
	if err := os.WriteFile(filepath.Join(root, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write .gitignore: %w", err)
	}

	m.mu.Lock()
	m.paths[missionID] = root
	m.mu.Unlock()

	m.logger.Info("workspace created",
		zap.String("mission_id", missionID),
		zap.String("path", root))
	return config, nil
}

// Path resolves a mission's workspace root, scanning the base directory when
// the mission was created by a previous process.
func (m *Manager) Path(missionID string) (string, error) {
	m.mu.Lock()
	if path, ok := m.paths[missionID]; ok {
		m.mu.Unlock()
		return path, nil
	}
	m.mu.Unlock()

	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to read workspace base directory: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if entry.Name() == missionID || strings.HasPrefix(entry.Name(), missionID+"_") {
			path := filepath.Join(m.baseDir, entry.Name())
			m.mu.Lock()
			m.paths[missionID] = path
			m.mu.Unlock()
			return path, nil
		}
	}
	return "", fmt.Errorf("no workspace found for mission %s", missionID)
}

// GetConfig loads a mission's workspace_config.json.
func (m *Manager) GetConfig(missionID string) (*Config, error) {
	root, err := m.Path(missionID)
	if err != nil {
		return nil, err
	}
	return readConfig(root)
}

// SetStatus updates the workspace status (active, archived).
func (m *Manager) SetStatus(missionID, status string) error {
	lock := m.missionLock(missionID)
	lock.Lock()
	defer lock.Unlock()

	root, err := m.Path(missionID)
	if err != nil {
		return err
	}
	config, err := readConfig(root)
	if err != nil {
		return err
	}
	config.Status = status
	return m.writeConfig(root, config)
}

// List returns configs for every workspace under the base directory,
// optionally filtered by status, sorted by creation time descending.
func (m *Manager) List(statusFilter string) ([]*Config, error) {
	entries, err := os.ReadDir(m.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read workspace base directory: %w", err)
	}

	var configs []*Config
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		config, err := readConfig(filepath.Join(m.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		if statusFilter != "" && config.Status != statusFilter {
			continue
		}
		configs = append(configs, config)
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].CreatedAt.After(configs[j].CreatedAt)
	})
	return configs, nil
}

func readConfig(root string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(root, configFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace config: %w", err)
	}
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse workspace config: %w", err)
	}
	return &config, nil
}

func (m *Manager) writeConfig(root string, config *Config) error {
	config.UpdatedAt = time.Now().UTC()
	return writeJSON(filepath.Join(root, configFileName), config)
}

func (m *Manager) readManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, manifestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return newManifest(), nil
		}
		return nil, fmt.Errorf("failed to read asset manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse asset manifest: %w", err)
	}
	if manifest.Categories == nil {
		manifest.Categories = map[string][]AssetEntry{}
	}
	return &manifest, nil
}

// writeManifest persists the manifest after recomputing its totals so the
// on-disk counts always match the category contents.
func (m *Manager) writeManifest(root string, manifest *Manifest) error {
	manifest.recompute()
	return writeJSON(filepath.Join(root, manifestFileName), manifest)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
