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

// Package workspace owns all filesystem writes under a mission's root
// directory: the fixed subtree, the asset manifest, state checkpoints, and
// archival.
package workspace

import (
	"strings"
	"time"
)

// Workspace status values.
const (
	StatusActive   = "active"
	StatusArchived = "archived"
)

// Subdirectories created for every mission workspace.
var subdirs = []string{
	"agents",
	"tools",
	"assets/code",
	"assets/data",
	"assets/configs",
	"assets/media",
	"logs/agents",
	"logs/cycles",
	"state/checkpoints",
	"state/progress",
	"docs/generated",
	"docs/templates",
	"memory",
}

// Asset categories accepted by SaveAsset.
var assetCategories = map[string]string{
	"code":    "assets/code",
	"data":    "assets/data",
	"configs": "assets/configs",
	"media":   "assets/media",
}

const (
	configFileName   = "workspace_config.json"
	manifestFileName = "asset_manifest.json"
	maxSlugLen       = 50
)

// Config is the persisted workspace_config.json.
type Config struct {
	MissionID   string    `json:"mission_id"`
	MissionName string    `json:"mission_name"`
	Path        string    `json:"path"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AssetEntry is one manifest record.
type AssetEntry struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Category  string    `json:"category"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Manifest indexes a workspace's assets by category.
type Manifest struct {
	TotalAssets int                     `json:"total_assets"`
	Categories  map[string][]AssetEntry `json:"categories"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func newManifest() *Manifest {
	return &Manifest{Categories: map[string][]AssetEntry{}}
}

func (m *Manifest) add(entry AssetEntry) {
	m.Categories[entry.Category] = append(m.Categories[entry.Category], entry)
	m.recompute()
}

// recompute keeps total_assets equal to the sum of category counts.
func (m *Manifest) recompute() {
	total := 0
	for _, entries := range m.Categories {
		total += len(entries)
	}
	m.TotalAssets = total
	m.UpdatedAt = time.Now().UTC()
}

// Slugify lowercases a mission name and reduces it to [a-z0-9_], truncated
// to 50 characters.
func Slugify(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '.':
			b.WriteByte('_')
		}
	}
	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	return slug
}
