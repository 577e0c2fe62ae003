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
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Default retry policy values.
const (
	DefaultCallTimeout  = 60 * time.Second
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMultiplier   = 2.0
)

// RetryConfig controls the retrying client's backoff behavior.
type RetryConfig struct {
	CallTimeout  time.Duration // Per-call timeout. Default: 60s
	MaxRetries   int           // Retries after the first attempt. Default: 3
	InitialDelay time.Duration // First backoff delay. Default: 1s
	MaxDelay     time.Duration // Backoff cap. Default: 30s
	Multiplier   float64       // Backoff multiplier. Default: 2.0
}

// DefaultRetryConfig returns the default retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		CallTimeout:  DefaultCallTimeout,
		MaxRetries:   DefaultMaxRetries,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
	}
}

// Client wraps a Provider with per-call timeouts, bounded retries with
// exponential backoff, and usage accounting. Validation errors are
// surfaced immediately, never retried.
type Client struct {
	provider Provider
	config   RetryConfig
	sink     UsageSink
	logger   *zap.Logger
}

// NewClient creates a retrying client around a provider. Zero-value
// config fields are filled with defaults. The sink may be nil.
func NewClient(provider Provider, config RetryConfig, sink UsageSink, logger *zap.Logger) *Client {
	if config.CallTimeout == 0 {
		config.CallTimeout = DefaultCallTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.InitialDelay == 0 {
		config.InitialDelay = DefaultInitialDelay
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = DefaultMaxDelay
	}
	if config.Multiplier == 0 {
		config.Multiplier = DefaultMultiplier
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		provider: provider,
		config:   config,
		sink:     sink,
		logger:   logger,
	}
}

// Name returns the wrapped provider's name.
func (c *Client) Name() string { return c.provider.Name() }

// Model returns the wrapped provider's model identifier.
func (c *Client) Model() string { return c.provider.Model() }

// Chat sends a conversation to the provider, retrying transient failures
// with exponential backoff. Every completed call (success or exhausted
// failure) is reported to the usage sink.
func (c *Client) Chat(ctx context.Context, messages []Message) (*Response, error) {
	start := time.Now()
	rec := CallRecord{
		ID:        uuid.New().String(),
		Model:     c.provider.Model(),
		Timestamp: start,
	}

	var lastErr error
	delay := c.config.InitialDelay

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		rec.Attempts = attempt + 1

		callCtx, cancel := context.WithTimeout(ctx, c.config.CallTimeout)
		response, err := c.provider.Chat(callCtx, messages)
		cancel()

		if err == nil {
			if attempt > 0 {
				c.logger.Info("llm retry succeeded",
					zap.Int("attempt", attempt+1))
			}
			rec.Usage = response.Usage
			rec.Duration = time.Since(start)
			c.record(rec)
			return response, nil
		}

		lastErr = err
		category := Categorize(err)

		// Validation errors are deterministic; retrying wastes budget.
		if category == CategoryValidation {
			rec.Duration = time.Since(start)
			rec.Err = err.Error()
			c.record(rec)
			return nil, NewError(CategoryValidation, "llm call rejected", err)
		}

		if ctx.Err() != nil {
			rec.Duration = time.Since(start)
			rec.Err = ctx.Err().Error()
			c.record(rec)
			return nil, fmt.Errorf("llm call failed (attempt %d/%d): %w (context cancelled)",
				attempt+1, c.config.MaxRetries+1, err)
		}

		if attempt >= c.config.MaxRetries {
			break
		}

		c.logger.Warn("llm call failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.config.MaxRetries),
			zap.String("category", string(category)),
			zap.Duration("delay", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			rec.Duration = time.Since(start)
			rec.Err = ctx.Err().Error()
			c.record(rec)
			return nil, fmt.Errorf("llm call failed (attempt %d/%d): %w (context cancelled during retry)",
				attempt+1, c.config.MaxRetries+1, ctx.Err())
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * c.config.Multiplier)
		if delay > c.config.MaxDelay {
			delay = c.config.MaxDelay
		}
	}

	c.logger.Error("llm retries exhausted",
		zap.Int("max_retries", c.config.MaxRetries),
		zap.Error(lastErr))

	rec.Duration = time.Since(start)
	rec.Err = lastErr.Error()
	c.record(rec)

	return nil, NewError(Categorize(lastErr),
		fmt.Sprintf("llm call failed after %d attempts", c.config.MaxRetries+1), lastErr)
}

func (c *Client) record(rec CallRecord) {
	if c.sink != nil {
		c.sink.RecordCall(rec)
	}
}

// Ensure Client satisfies Provider so callers can layer it transparently.
var _ Provider = (*Client)(nil)
