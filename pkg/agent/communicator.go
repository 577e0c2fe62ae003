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
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/launchonomy/launchonomy/pkg/cost"
	"github.com/launchonomy/launchonomy/pkg/llm"
	"github.com/launchonomy/launchonomy/pkg/mission"
)

// MaxJSONRetries bounds re-prompts after a failed JSON extraction.
const MaxJSONRetries = 2

// ErrAgentCommunication is the failure mode for empty responses, repeated
// JSON parse failures, and upstream errors past retries.
var ErrAgentCommunication = errors.New("agent communication failed")

const jsonInstruction = "\n\nRespond with a single JSON value only. No prose, no markdown, no explanation outside the JSON."

// AskOptions tune a single ask exchange.
type AskOptions struct {
	// SystemPrompt overrides the agent's own system prompt when set.
	SystemPrompt string
	// ExpectJSON appends the strict-JSON instruction unless the prompt
	// already asks for JSON.
	ExpectJSON bool
	// IncludeHistory prepends the agent's conversation window.
	IncludeHistory bool
}

// Communicator runs the structured prompt/response protocol against the
// chat backend.
type Communicator struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewCommunicator wraps a chat provider.
func NewCommunicator(provider llm.Provider, logger *zap.Logger) *Communicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Communicator{provider: provider, logger: logger}
}

// Ask sends one prompt to an agent and returns the response content and the
// call's token usage and cost. The exchange is appended to the agent's
// history.
func (c *Communicator) Ask(ctx context.Context, a *Agent, prompt string, opts AskOptions) (string, llm.Usage, error) {
	system := opts.SystemPrompt
	if system == "" {
		system = a.SystemPrompt
	}

	userPrompt := prompt
	if opts.ExpectJSON && !strings.Contains(strings.ToLower(prompt), "json") {
		userPrompt += jsonInstruction
	}

	var messages []llm.Message
	if system != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	}
	if opts.IncludeHistory {
		messages = append(messages, a.History()...)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userPrompt})

	// Estimation runs tiktoken, so only pay for it when debug is on.
	if ce := c.logger.Check(zap.DebugLevel, "sending prompt"); ce != nil {
		ce.Write(
			zap.String("agent", a.Name),
			zap.Int("estimated_prompt_tokens", cost.EstimateTokens(userPrompt, c.provider.Model())))
	}

	resp, err := c.provider.Chat(ctx, messages)
	if err != nil {
		return "", llm.Usage{}, fmt.Errorf("%w: agent %s: %v", ErrAgentCommunication, a.Name, err)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return "", resp.Usage, fmt.Errorf("%w: agent %s returned an empty response", ErrAgentCommunication, a.Name)
	}

	a.Remember(llm.RoleUser, userPrompt)
	a.Remember(llm.RoleAssistant, resp.Content)
	return resp.Content, resp.Usage, nil
}

// GetJSON asks for a JSON value and parses it, re-prompting up to
// MaxJSONRetries times with the previous parse error attached. Every attempt
// is appended to retryLog; the returned usage sums all attempts.
func (c *Communicator) GetJSON(ctx context.Context, a *Agent, prompt, errMsg string, retryLog *[]mission.ParseAttempt) (any, llm.Usage, error) {
	var total llm.Usage
	currentPrompt := prompt

	for attempt := 0; attempt <= MaxJSONRetries; attempt++ {
		content, usage, err := c.Ask(ctx, a, currentPrompt, AskOptions{ExpectJSON: true})
		total.Add(usage)

		record := mission.ParseAttempt{
			Timestamp:   time.Now().UTC(),
			Agent:       a.Name,
			Prompt:      currentPrompt,
			RawResponse: content,
			CostUSD:     usage.CostUSD,
		}

		if err != nil {
			record.ParseError = err.Error()
			appendAttempt(retryLog, record)
			return nil, total, err
		}

		extracted, extractErr := ExtractJSON(content)
		record.Extracted = extracted
		if extractErr == nil {
			var parsed any
			if parseErr := json.Unmarshal([]byte(extracted), &parsed); parseErr == nil {
				appendAttempt(retryLog, record)
				return parsed, total, nil
			} else {
				extractErr = parseErr
			}
		}

		record.ParseError = extractErr.Error()
		appendAttempt(retryLog, record)
		c.logger.Debug("JSON parse failed, re-prompting",
			zap.String("agent", a.Name),
			zap.Int("attempt", attempt+1),
			zap.Error(extractErr))

		currentPrompt = fmt.Sprintf("%s\n\nYour previous reply could not be parsed as JSON (%s). %s",
			prompt, extractErr.Error(), errMsg)
	}

	return nil, total, fmt.Errorf("%w: agent %s produced no parseable JSON after %d attempts",
		ErrAgentCommunication, a.Name, MaxJSONRetries+1)
}

func appendAttempt(log *[]mission.ParseAttempt, attempt mission.ParseAttempt) {
	if log != nil {
		*log = append(*log, attempt)
	}
}

// ExtractJSON pulls a JSON value out of an LLM reply. It tries a fenced
// ```json block first, then the first balanced {...} or [...] substring.
func ExtractJSON(content string) (string, error) {
	if fence := extractFenced(content); fence != "" {
		return fence, nil
	}
	if balanced := extractBalanced(content); balanced != "" {
		return balanced, nil
	}
	return "", errors.New("no JSON value found in response")
}

func extractFenced(content string) string {
	for _, marker := range []string{"```json", "```"} {
		start := strings.Index(content, marker)
		if start < 0 {
			continue
		}
		rest := content[start+len(marker):]
		end := strings.Index(rest, "```")
		if end < 0 {
			continue
		}
		candidate := strings.TrimSpace(rest[:end])
		if strings.HasPrefix(candidate, "{") || strings.HasPrefix(candidate, "[") {
			return candidate
		}
	}
	return ""
}

func extractBalanced(content string) string {
	start := -1
	var open, closing rune
	for i, r := range content {
		if r == '{' || r == '[' {
			start = i
			open = r
			if r == '{' {
				closing = '}'
			} else {
				closing = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		ch := rune(content[i])
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == closing:
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
