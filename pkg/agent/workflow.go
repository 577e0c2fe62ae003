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
package agent

import (
	"context"

	"github.com/launchonomy/launchonomy/pkg/llm"
)

// Workflow step statuses.
const (
	StatusSuccess       = "success"
	StatusFailure       = "failure"
	StatusRequiresHuman = "requires_human"
	StatusRequiresTools = "requires_tools"
)

// Input is the uniform payload handed to every workflow agent.
type Input struct {
	TaskDescription string         `json:"task_description"`
	MissionContext  map[string]any `json:"mission_context"`
	CycleContext    map[string]any `json:"cycle_context"`
	CSuiteGuidance  map[string]any `json:"csuite_guidance,omitempty"`

	// Extra carries step-specific keys, e.g. the top opportunity handed
	// from ScanAgent to DeployAgent.
	Extra map[string]any `json:"-"`
}

// Output is the uniform workflow agent result.
type Output struct {
	Status               string         `json:"status"`
	Data                 map[string]any `json:"data"`
	Cost                 float64        `json:"cost"`
	Confidence           float64        `json:"confidence"`
	ToolsUsed            []string       `json:"tools_used,omitempty"`
	NextSteps            []string       `json:"next_steps,omitempty"`
	ErrorMessage         string         `json:"error_message,omitempty"`
	HumanTaskDescription string         `json:"human_task_description,omitempty"`

	// Usage carries the LLM token/cost accounting for the step; it is
	// recorded on the step record, not serialized with the output.
	Usage llm.Usage `json:"-"`
}

// Workflow is the contract every pipeline agent satisfies. Implementations
// may consult the registry (triggering auto-provision for missing tools) and
// write assets into the mission workspace, but mutate nothing else.
type Workflow interface {
	Name() string
	RequiredTools() []string
	Execute(ctx context.Context, in Input) (*Output, error)
}
