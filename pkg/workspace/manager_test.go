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
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(t.TempDir(), zaptest.NewLogger(t))
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases and underscores", "Coffee Store Launch", "coffee_store_launch"},
		{"strips invalid runes", "AI/ML #1 (beta)!", "aiml_1_beta"},
		{"dots and dashes become underscores", "v1.2-beta", "v1_2_beta"},
		{"truncates to fifty", strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
			assert.LessOrEqual(t, len(Slugify(tt.in)), 50)
		})
	}
}

func TestManager_Create(t *testing.T) {
	m := newTestManager(t)
	config, err := m.Create("mission_20260826_120000_abcd", "Coffee Store")
	require.NoError(t, err)

	assert.Equal(t, StatusActive, config.Status)
	assert.Equal(t, filepath.Join(m.BaseDir(), "mission_20260826_120000_abcd_coffee_store"), config.Path)

	for _, sub := range []string{
		"agents", "tools",
		"assets/code", "assets/data", "assets/configs", "assets/media",
		"logs/agents", "logs/cycles",
		"state/checkpoints", "state/progress",
		"docs/generated", "docs/templates",
	} {
		info, err := os.Stat(filepath.Join(config.Path, filepath.FromSlash(sub)))
		require.NoError(t, err, sub)
		assert.True(t, info.IsDir(), sub)
	}
	for _, file := range []string{"README.md", ".gitignore", configFileName, manifestFileName} {
		_, err := os.Stat(filepath.Join(config.Path, file))
		assert.NoError(t, err, file)
	}
}

func TestManager_PathRediscoversExistingWorkspace(t *testing.T) {
	base := t.TempDir()
	first := NewManager(base, zaptest.NewLogger(t))
	_, err := first.Create("mission_1", "My Mission")
	require.NoError(t, err)

	// A fresh manager instance must find the directory by scanning.
	second := NewManager(base, zaptest.NewLogger(t))
	path, err := second.Path("mission_1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "mission_1_my_mission"), path)

	_, err = second.Path("mission_unknown")
	assert.Error(t, err)
}

func TestManager_SaveAsset(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("mission_1", "test")
	require.NoError(t, err)

	tests := []struct {
		name     string
		data     any
		category string
		wantJSON bool
	}{
		{"report.txt", "plain text body", "data", false},
		{"logo.png", []byte{0x89, 0x50, 0x4e, 0x47}, "media", false},
		{"metrics", map[string]float64{"revenue": 99.5}, "data", true},
	}
	for _, tt := range tests {
		rel, err := m.SaveAsset("mission_1", tt.name, tt.data, tt.category)
		require.NoError(t, err, tt.name)
		assert.Regexp(t, `^assets/`+tt.category+`/\d{8}_\d{6}_`, rel)
		if tt.wantJSON {
			assert.Regexp(t, `\.json$`, rel)
		}
		root, _ := m.Path("mission_1")
		_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		assert.NoError(t, err)
	}

	_, err = m.SaveAsset("mission_1", "x", "y", "bogus_category")
	assert.Error(t, err)
}

func TestManager_ManifestTotalsMatchCategories(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("mission_1", "test")
	require.NoError(t, err)

	_, err = m.SaveAsset("mission_1", "a.txt", "a", "data")
	require.NoError(t, err)
	_, err = m.SaveAsset("mission_1", "b.txt", "b", "code")
	require.NoError(t, err)
	require.NoError(t, m.AddAgent("mission_1", "ScanAgent", map[string]string{"description": "scans"}, "print('scan')"))

	root, _ := m.Path("mission_1")
	manifest, err := m.readManifest(root)
	require.NoError(t, err)

	sum := 0
	for _, entries := range manifest.Categories {
		sum += len(entries)
		for _, entry := range entries {
			_, err := os.Stat(filepath.Join(root, filepath.FromSlash(entry.Path)))
			assert.NoError(t, err, entry.Path)
			assert.Greater(t, entry.SizeBytes, int64(0))
		}
	}
	assert.Equal(t, sum, manifest.TotalAssets)
	// spec.json plus the code file for the agent, plus two assets.
	assert.Equal(t, 4, manifest.TotalAssets)
}

func TestManager_MissionState(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("mission_1", "test")
	require.NoError(t, err)

	state1 := map[string]any{"iteration": float64(1)}
	require.NoError(t, m.SaveMissionState("mission_1", state1, ""))

	var out map[string]any
	require.NoError(t, m.LoadMissionState("mission_1", "", &out))
	assert.Equal(t, state1, out)

	// Checkpoints load newest-first by timestamp prefix.
	require.NoError(t, m.SaveMissionState("mission_1", map[string]any{"iteration": float64(2)}, "cycle_end"))
	root, _ := m.Path("mission_1")
	stale := filepath.Join(root, "state", "checkpoints", "20200101_000000_cycle_end.json")
	require.NoError(t, os.WriteFile(stale, []byte(`{"iteration": 0}`), 0o644))

	out = nil
	require.NoError(t, m.LoadMissionState("mission_1", "cycle_end", &out))
	assert.Equal(t, float64(2), out["iteration"])

	assert.Error(t, m.LoadMissionState("mission_1", "no_such_checkpoint", &out))
}

func TestManager_List(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("mission_a", "first")
	require.NoError(t, err)
	_, err = m.Create("mission_b", "second")
	require.NoError(t, err)
	require.NoError(t, m.SetStatus("mission_a", StatusArchived))

	all, err := m.List("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := m.List(StatusActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "mission_b", active[0].MissionID)
}

func TestManager_Archive(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("mission_1", "test")
	require.NoError(t, err)
	_, err = m.SaveAsset("mission_1", "note.txt", "archived content", "data")
	require.NoError(t, err)

	path, err := m.Archive("mission_1", "")
	require.NoError(t, err)

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	names := make(map[string]bool, len(r.File))
	for _, f := range r.File {
		names[f.Name] = true
	}
	assert.True(t, names["mission_1_test/"+configFileName])
	assert.True(t, names["mission_1_test/README.md"])

	config, err := m.GetConfig("mission_1")
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, config.Status)
}

func TestManager_BusyLock(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("mission_1", "test")
	require.NoError(t, err)

	require.NoError(t, m.AcquireLock("mission_1"))
	assert.ErrorIs(t, m.AcquireLock("mission_1"), ErrMissionBusy)
	require.NoError(t, m.ReleaseLock("mission_1"))
	assert.NoError(t, m.AcquireLock("mission_1"))
	require.NoError(t, m.ReleaseLock("mission_1"))

	// Releasing again is a no-op.
	assert.NoError(t, m.ReleaseLock("mission_1"))
}
