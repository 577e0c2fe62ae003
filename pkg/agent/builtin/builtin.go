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

// Package builtin implements the six workflow agents of the fixed pipeline
// (Scan, Deploy, Campaign, Analytics, Finance, Growth) as LLM-backed
// implementations of the uniform workflow contract.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/pkg/agent"
)

// outputSchema is the workflow-agent output contract. Replies that fail
// validation are reported as step failures, not crashes.
const outputSchema = `{
  "type": "object",
  "required": ["status", "data"],
  "properties": {
    "status": {"type": "string", "enum": ["success", "failure", "requires_human", "requires_tools"]},
    "data": {"type": "object"},
    "cost": {"type": "number", "minimum": 0},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "tools_used": {"type": "array", "items": {"type": "string"}},
    "next_steps": {"type": "array", "items": {"type": "string"}},
    "error_message": {"type": "string"},
    "human_task_description": {"type": "string"}
  }
}`

var compiledOutputSchema = gojsonschema.NewStringLoader(outputSchema)

// workflowAgent is the shared LLM-backed implementation. Each of the six
// pipeline agents is a workflowAgent with its own persona and prompt shape.
type workflowAgent struct {
	name          string
	persona       string
	requiredTools []string
	instructions  string

	comm   *agent.Communicator
	self   *agent.Agent
	logger *zap.Logger

	// postProcess can adjust the validated output, e.g. the finance
	// guardrail clamp. Optional.
	postProcess func(in agent.Input, out *agent.Output)
}

func newWorkflowAgent(name, persona, instructions string, tools []string, comm *agent.Communicator, logger *zap.Logger) *workflowAgent {
	if logger == nil {
		logger = zap.NewNop()
	}
	system := fmt.Sprintf("You are %s, a workflow agent in an autonomous business mission. %s\n\n%s\n\nAlways answer with a single JSON object matching this schema:\n%s",
		name, persona, instructions, outputSchema)
	return &workflowAgent{
		name:          name,
		persona:       persona,
		requiredTools: tools,
		instructions:  instructions,
		comm:          comm,
		self:          agent.New(name, name, system),
		logger:        logger,
	}
}

func (w *workflowAgent) Name() string { return w.name }

func (w *workflowAgent) RequiredTools() []string { return w.requiredTools }

// Execute runs one pipeline step: prompt, JSON extraction, contract
// validation, mapping. LLM and parse failures come back as status=failure
// outputs with the cost spent so far.
func (w *workflowAgent) Execute(ctx context.Context, in agent.Input) (*agent.Output, error) {
	prompt := w.buildPrompt(in)

	parsed, usage, err := w.comm.GetJSON(ctx, w.self, prompt,
		"Return only the JSON result object for this step.", nil)
	if err != nil {
		return &agent.Output{
			Status:       agent.StatusFailure,
			Data:         map[string]any{},
			Cost:         usage.CostUSD,
			Usage:        usage,
			ErrorMessage: err.Error(),
		}, nil
	}

	out, err := mapOutput(parsed)
	if err != nil {
		w.logger.Warn("workflow output failed contract validation",
			zap.String("agent", w.name),
			zap.Error(err))
		return &agent.Output{
			Status:       agent.StatusFailure,
			Data:         map[string]any{},
			Cost:         usage.CostUSD,
			Usage:        usage,
			ErrorMessage: err.Error(),
		}, nil
	}

	out.Cost += usage.CostUSD
	out.Usage = usage
	if w.postProcess != nil {
		w.postProcess(in, out)
	}
	return out, nil
}

func (w *workflowAgent) buildPrompt(in agent.Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", in.TaskDescription)
	writeSection(&b, "Mission context", in.MissionContext)
	writeSection(&b, "Cycle context", in.CycleContext)
	writeSection(&b, "C-Suite guidance", in.CSuiteGuidance)
	writeSection(&b, "Step input", in.Extra)
	b.WriteString("\nExecute this step and report the result as the JSON object described in your instructions.")
	return b.String()
}

func writeSection(b *strings.Builder, title string, m map[string]any) {
	if len(m) == 0 {
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		return
	}
	fmt.Fprintf(b, "\n%s:\n%s\n", title, data)
}

// mapOutput validates a parsed reply against the contract schema and maps
// it into an Output.
func mapOutput(parsed any) (*agent.Output, error) {
	result, err := gojsonschema.Validate(compiledOutputSchema, gojsonschema.NewGoLoader(parsed))
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("output violates workflow contract: %s", strings.Join(details, "; "))
	}

	data, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode output: %w", err)
	}
	var out agent.Output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode output: %w", err)
	}
	if out.Data == nil {
		out.Data = map[string]any{}
	}
	return &out, nil
}

func stringsFrom(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func numberFrom(m map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			switch n := v.(type) {
			case float64:
				return n, true
			case int:
				return float64(n), true
			case json.Number:
				if f, err := n.Float64(); err == nil {
					return f, true
				}
			}
		}
	}
	return 0, false
}
