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

// Package agent holds the live agent model: the agent value with its
// bounded conversation history, the communicator that runs the structured
// prompt/JSON pipeline, and the manager that owns the in-memory population.
package agent

import (
	"time"

	"github.com/launchonomy/launchonomy/pkg/llm"
)

// MaxHistoryMessages bounds each agent's conversation window. Appends past
// the bound trim oldest-first.
const MaxHistoryMessages = 20

// Agent is one live agent instance. C-Suite agents exist only here, never
// in the registry.
type Agent struct {
	Name         string
	Role         string
	SystemPrompt string

	history []llm.Message
}

// New constructs an agent with the given composed system prompt.
func New(name, role, systemPrompt string) *Agent {
	return &Agent{Name: name, Role: role, SystemPrompt: systemPrompt}
}

// Remember appends one message to the agent's history window.
func (a *Agent) Remember(role, content string) {
	a.history = append(a.history, llm.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	if len(a.history) > MaxHistoryMessages {
		a.history = a.history[len(a.history)-MaxHistoryMessages:]
	}
}

// History returns the agent's trailing conversation window.
func (a *Agent) History() []llm.Message {
	return a.history
}

// ClearHistory drops the conversation window.
func (a *Agent) ClearHistory() {
	a.history = nil
}
