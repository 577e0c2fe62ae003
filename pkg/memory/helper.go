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
package memory

import (
	"context"
	"encoding/json"
	"fmt"
)

// Memory item categories.
const (
	CategoryWorkflowEvent = "workflow_event"
	CategoryLearning      = "learning"
	CategoryDecision      = "decision_making"
	CategoryPerformance   = "performance"
	CategoryFailure       = "failure_learning"
	CategorySuccess       = "success_pattern"
)

// Helper writes structured mission events into the vector store. All methods
// return the stored item id, or "" when the write could not be completed.
type Helper struct {
	store *Store
}

// NewHelper wraps a store with the typed logging surface.
func NewHelper(store *Store) *Helper {
	return &Helper{store: store}
}

func (h *Helper) log(ctx context.Context, category, content string, extra map[string]string) string {
	if h == nil || h.store == nil || content == "" {
		return ""
	}
	meta := make(map[string]string, len(extra)+1)
	for k, v := range extra {
		meta[k] = v
	}
	meta["category"] = category
	return h.store.Upsert(ctx, content, "text/plain", meta)
}

// LogWorkflowEvent records a pipeline step outcome.
func (h *Helper) LogWorkflowEvent(ctx context.Context, step, agent, event string, extra map[string]string) string {
	meta := map[string]string{"step": step, "agent": agent}
	for k, v := range extra {
		meta[k] = v
	}
	return h.log(ctx, CategoryWorkflowEvent, event, meta)
}

// LogInsight records a learning extracted from a cycle.
func (h *Helper) LogInsight(ctx context.Context, insight string, extra map[string]string) string {
	return h.log(ctx, CategoryLearning, insight, extra)
}

// LogDecision records a strategic decision and its rationale.
func (h *Helper) LogDecision(ctx context.Context, agent, decision, rationale string) string {
	content := decision
	if rationale != "" {
		content = fmt.Sprintf("%s (rationale: %s)", decision, rationale)
	}
	return h.log(ctx, CategoryDecision, content, map[string]string{"agent": agent})
}

// LogPerformanceMetrics records a step's KPI values as a JSON document.
func (h *Helper) LogPerformanceMetrics(ctx context.Context, step string, metrics map[string]float64) string {
	if len(metrics) == 0 {
		return ""
	}
	data, err := json.Marshal(metrics)
	if err != nil {
		return ""
	}
	return h.log(ctx, CategoryPerformance, string(data), map[string]string{"step": step})
}

// LogErrorOrFailure records a step or agent failure for later avoidance.
func (h *Helper) LogErrorOrFailure(ctx context.Context, step, agent, errText string) string {
	meta := map[string]string{"step": step, "agent": agent}
	return h.log(ctx, CategoryFailure, errText, meta)
}

// LogSuccessPattern records an approach that worked and should be repeated.
func (h *Helper) LogSuccessPattern(ctx context.Context, pattern string, extra map[string]string) string {
	return h.log(ctx, CategorySuccess, pattern, extra)
}
