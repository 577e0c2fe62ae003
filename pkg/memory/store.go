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

// Package memory provides the per-mission vector memory store. Memory is
// advisory: every operation is best-effort, and engine failures are logged
// and surfaced as empty results rather than errors.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"
)

// DefaultEmbeddingModel is used when no embedder is supplied.
const DefaultEmbeddingModel = chromem.EmbeddingModelOpenAI3Small

// Item is a single memory entry returned from a query.
type Item struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance"`
}

// Stats describes the current state of a mission's collection.
type Stats struct {
	Count     int    `json:"count"`
	Directory string `json:"directory"`
	Name      string `json:"name"`
}

// Config configures a Store.
type Config struct {
	// MissionID scopes the collection; required.
	MissionID string

	// WorkspacePath, when set, places the index under
	// <workspace>/memory/chromadb.
	WorkspacePath string

	// BaseDir is the user-level fallback root used when no workspace path
	// is available. Defaults to ~/.launchonomy.
	BaseDir string

	// Embedder produces embeddings for stored and queried text. When nil,
	// the OpenAI embedding endpoint is used with OPENAI_API_KEY.
	Embedder chromem.EmbeddingFunc
}

// Store is a persistent vector collection scoped to one mission.
type Store struct {
	collection *chromem.Collection
	db         *chromem.DB
	embedder   chromem.EmbeddingFunc
	name       string
	dir        string
	missionID  string
	logger     *zap.Logger
}

// NewStore opens (or creates) the mission's persistent collection.
func NewStore(config Config, logger *zap.Logger) (*Store, error) {
	if config.MissionID == "" {
		return nil, fmt.Errorf("mission id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := collectionDir(config)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory database: %w", err)
	}

	embedder := config.Embedder
	if embedder == nil {
		embedder = chromem.NewEmbeddingFuncOpenAI(os.Getenv("OPENAI_API_KEY"), DefaultEmbeddingModel)
	}

	name := "mission_" + config.MissionID
	collection, err := db.GetOrCreateCollection(name, map[string]string{"mission_id": config.MissionID}, embedder)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory collection: %w", err)
	}

	return &Store{
		collection: collection,
		db:         db,
		embedder:   embedder,
		name:       name,
		dir:        dir,
		missionID:  config.MissionID,
		logger:     logger,
	}, nil
}

func collectionDir(config Config) string {
	if config.WorkspacePath != "" {
		return filepath.Join(config.WorkspacePath, "memory", "chromadb")
	}
	base := config.BaseDir
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		base = filepath.Join(home, ".launchonomy")
	}
	return filepath.Join(base, "memory", config.MissionID)
}

// Upsert stores content with its metadata and returns the item id. The id is
// taken from metadata["id"] when supplied, otherwise generated. Returns ""
// when the engine rejects the write.
func (s *Store) Upsert(ctx context.Context, content string, mimeType string, metadata map[string]string) string {
	id := metadata["id"]
	if id == "" {
		id = uuid.NewString()
	}

	meta := make(map[string]string, len(metadata)+3)
	for k, v := range metadata {
		meta[k] = v
	}
	meta["mission_id"] = s.missionID
	if mimeType != "" {
		meta["mime_type"] = mimeType
	}
	meta["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	err := s.collection.AddDocument(ctx, chromem.Document{
		ID:       id,
		Metadata: meta,
		Content:  content,
	})
	if err != nil {
		s.logger.Warn("memory upsert failed",
			zap.String("mission_id", s.missionID),
			zap.Error(err))
		return ""
	}
	return id
}

// Query returns up to k items ranked by ascending distance from the query
// text, optionally filtered by metadata equality. Failures and empty
// collections both yield an empty slice.
func (s *Store) Query(ctx context.Context, text string, k int, filter map[string]string) []Item {
	count := s.collection.Count()
	if count == 0 || k <= 0 {
		return nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.Query(ctx, text, k, filter, nil)
	if err != nil {
		s.logger.Warn("memory query failed",
			zap.String("mission_id", s.missionID),
			zap.Error(err))
		return nil
	}

	items := make([]Item, 0, len(results))
	for _, r := range results {
		items = append(items, Item{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: r.Metadata,
			Distance: 1 - float64(r.Similarity),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Distance < items[j].Distance })
	return items
}

// Delete removes the item with the given id.
func (s *Store) Delete(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	if err := s.collection.Delete(ctx, nil, nil, id); err != nil {
		s.logger.Warn("memory delete failed",
			zap.String("mission_id", s.missionID),
			zap.String("id", id),
			zap.Error(err))
		return false
	}
	return true
}

// Stats reports the collection's document count and location.
func (s *Store) Stats() Stats {
	return Stats{
		Count:     s.collection.Count(),
		Directory: s.dir,
		Name:      s.name,
	}
}

// Clear drops and recreates the mission's collection.
func (s *Store) Clear(ctx context.Context) bool {
	if err := s.db.DeleteCollection(s.name); err != nil {
		s.logger.Warn("memory clear failed",
			zap.String("mission_id", s.missionID),
			zap.Error(err))
		return false
	}
	collection, err := s.db.GetOrCreateCollection(s.name, map[string]string{"mission_id": s.missionID}, s.embedder)
	if err != nil {
		s.logger.Warn("memory collection recreate failed",
			zap.String("mission_id", s.missionID),
			zap.Error(err))
		return false
	}
	s.collection = collection
	return true
}
