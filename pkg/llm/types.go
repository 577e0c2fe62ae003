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

// Package llm defines the chat-completion provider abstraction and the
// retrying client the orchestration engine talks to. Providers are
// pluggable; the engine ships with an OpenAI implementation.
package llm

import (
	"context"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	// Role is the message sender (system, user, assistant)
	Role string

	// Content is the message text
	Content string

	// Timestamp when the message was created
	Timestamp time.Time
}

// Usage tracks token usage and cost for a single LLM call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	CostUSD          float64
}

// TotalTokens returns prompt + completion tokens.
func (u Usage) TotalTokens() int {
	return u.PromptTokens + u.CompletionTokens
}

// Add accumulates another usage record into this one.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.CostUSD += other.CostUSD
}

// Response represents a response from the LLM.
type Response struct {
	// Content is the text response
	Content string

	// Model is the model that produced the response
	Model string

	// Usage tracks token usage for this call
	Usage Usage
}

// Provider defines the interface for chat-completion backends.
type Provider interface {
	// Chat sends an ordered conversation to the LLM and returns the response.
	Chat(ctx context.Context, messages []Message) (*Response, error)

	// Name returns the provider name
	Name() string

	// Model returns the model identifier
	Model() string
}

// CallRecord captures one LLM call for diagnostics and cost accounting.
type CallRecord struct {
	ID        string
	Model     string
	Attempts  int
	Usage     Usage
	Duration  time.Duration
	Timestamp time.Time
	Err       string
}

// UsageSink receives a record for every completed call. Implementations
// must be cheap; the client invokes them synchronously.
type UsageSink interface {
	RecordCall(rec CallRecord)
}

// UsageSinkFunc adapts a function to the UsageSink interface.
type UsageSinkFunc func(rec CallRecord)

// RecordCall implements UsageSink.
func (f UsageSinkFunc) RecordCall(rec CallRecord) { f(rec) }
