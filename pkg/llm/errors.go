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
	"errors"
	"fmt"
	"net"
	"strings"
)

// Category classifies provider errors for the caller's diagnostics and
// for the retry policy: validation errors are never retried.
type Category string

const (
	CategoryRateLimit  Category = "rate_limit"
	CategoryTimeout    Category = "timeout"
	CategoryValidation Category = "validation"
	CategorySystem     Category = "system"
)

// Error is a categorized provider error.
type Error struct {
	Category Category
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the error category permits a retry.
func (e *Error) Retryable() bool {
	return e.Category != CategoryValidation
}

// NewError creates a categorized error.
func NewError(category Category, message string, err error) *Error {
	return &Error{Category: category, Message: message, Err: err}
}

// Categorize maps an arbitrary provider error to a Category. Already
// categorized errors keep their category.
func Categorize(err error) Category {
	if err == nil {
		return CategorySystem
	}

	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Category
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return CategoryTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "status 429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "rate_limit"),
		strings.Contains(msg, "too many requests"):
		return CategoryRateLimit
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "deadline exceeded"):
		return CategoryTimeout
	case strings.Contains(msg, "status 400"),
		strings.Contains(msg, "status 401"),
		strings.Contains(msg, "status 403"),
		strings.Contains(msg, "status 404"),
		strings.Contains(msg, "invalid_request"),
		strings.Contains(msg, "context_length_exceeded"):
		return CategoryValidation
	default:
		return CategorySystem
	}
}
