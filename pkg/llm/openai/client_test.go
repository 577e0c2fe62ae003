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
package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/launchonomy/launchonomy/pkg/llm"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   *Client
	}{
		{
			name: "with defaults",
			config: Config{
				APIKey: "test-key",
			},
			want: &Client{
				apiKey:      "test-key",
				model:       "gpt-4o-mini",
				endpoint:    "https://api.openai.com/v1/chat/completions",
				maxTokens:   4096,
				temperature: 1.0,
			},
		},
		{
			name: "with custom config",
			config: Config{
				APIKey:      "custom-key",
				Model:       "gpt-4o",
				Endpoint:    "https://custom.api.com/v1/chat",
				MaxTokens:   2000,
				Temperature: 0.5,
				Timeout:     30 * time.Second,
			},
			want: &Client{
				apiKey:      "custom-key",
				model:       "gpt-4o",
				endpoint:    "https://custom.api.com/v1/chat",
				maxTokens:   2000,
				temperature: 0.5,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewClient(tt.config)
			assert.Equal(t, tt.want.apiKey, got.apiKey)
			assert.Equal(t, tt.want.model, got.model)
			assert.Equal(t, tt.want.endpoint, got.endpoint)
			assert.Equal(t, tt.want.maxTokens, got.maxTokens)
			assert.Equal(t, tt.want.temperature, got.temperature)
			assert.NotNil(t, got.httpClient)
		})
	}
}

func TestClient_Name(t *testing.T) {
	client := NewClient(Config{APIKey: "test"})
	assert.Equal(t, "openai", client.Name())
}

func TestClient_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		resp := ChatCompletionResponse{
			ID:    "chatcmpl-123",
			Model: "gpt-4o-mini",
			Choices: []Choice{
				{
					Message:      ResponseMessage{Role: "assistant", Content: "hello back"},
					FinishReason: "stop",
				},
			},
			Usage: APIUsage{PromptTokens: 12, CompletionTokens: 4, TotalTokens: 16},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", Endpoint: server.URL})

	resp, err := client.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a test."},
		{Role: llm.RoleUser, Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello back", resp.Content)
	assert.Equal(t, 12, resp.Usage.PromptTokens)
	assert.Equal(t, 4, resp.Usage.CompletionTokens)
	assert.InDelta(t, CalculateCost("gpt-4o-mini", 12, 4), resp.Usage.CostUSD, 1e-12)
}

func TestClient_Chat_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		resp := ChatCompletionResponse{
			Error: &APIErr{Message: "rate limit exceeded", Type: "rate_limit_error"},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", Endpoint: server.URL})

	_, err := client.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleUser, Content: "hello"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")
	assert.Equal(t, llm.CategoryRateLimit, llm.Categorize(err))
}

func TestCalculateCost(t *testing.T) {
	tests := []struct {
		model  string
		input  int
		output int
		want   float64
	}{
		{"gpt-4o-mini", 1_000_000, 1_000_000, 0.75},
		{"gpt-4o", 1_000_000, 0, 2.50},
		{"gpt-4", 0, 1_000_000, 60.00},
		{"unknown-model", 1_000_000, 1_000_000, 0.75}, // falls back to gpt-4o-mini
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateCost(tt.model, tt.input, tt.output), 1e-9)
		})
	}
}

func TestKnownModel(t *testing.T) {
	assert.True(t, KnownModel("gpt-4o-mini"))
	assert.False(t, KnownModel("llama-3-70b"))
}
