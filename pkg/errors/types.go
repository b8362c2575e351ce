// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors defines the error taxonomy used across the connector.
//
// The types map directly onto how a feed cycle reacts to a failure:
// configuration errors are fatal for the cycle and indicate a code/config
// mismatch, auth errors are recovered once by a session refresh, transient
// errors degrade or hard-stop depending on call style, and transform errors
// are skipped per record.
package errors

import (
	"fmt"
)

// ConfigurationError represents a code/config mismatch such as an unknown API
// surface or operation. It is not transient: retrying will not help.
type ConfigurationError struct {
	// Surface is the API surface name, if the error relates to one.
	Surface string

	// Operation is the operation name, if the error relates to one.
	Operation string

	// Message is the human-readable error description.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	switch {
	case e.Surface != "" && e.Operation != "":
		return fmt.Sprintf("configuration error: %s.%s: %s", e.Surface, e.Operation, e.Message)
	case e.Surface != "":
		return fmt.Sprintf("configuration error: %s: %s", e.Surface, e.Message)
	default:
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
}

// AuthError represents an authentication or rate-limit failure from the
// provider (HTTP 401/429). The gateway refreshes the session and retries the
// failing call exactly once; if that retry fails too, the AuthError is
// surfaced to the caller.
type AuthError struct {
	// StatusCode is the HTTP status that triggered the error (401 or 429).
	StatusCode int

	// Message is the provider's reason string, when present.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth error [HTTP %d]: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("auth error [HTTP %d]", e.StatusCode)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *AuthError) Unwrap() error {
	return e.Cause
}

// RateLimited reports whether the error was a 429 rate limit rather than a
// token expiry.
func (e *AuthError) RateLimited() bool {
	return e.StatusCode == 429
}

// TransientError represents a provider failure that is expected to resolve on
// a later cycle: timeouts, 5xx responses, malformed payloads. GET-style calls
// degrade to an empty result on a TransientError; POST-style calls surface it
// so the feed ends without committing.
type TransientError struct {
	// Surface and Operation identify the failing call.
	Surface   string
	Operation string

	// StatusCode is the HTTP status, if the provider responded.
	StatusCode int

	// Message is the human-readable error description.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	msg := "transient provider error"
	if e.Surface != "" {
		msg = fmt.Sprintf("%s on %s.%s", msg, e.Surface, e.Operation)
	}
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TransientError) Unwrap() error {
	return e.Cause
}

// TransformError represents a single record that could not be normalized or
// emitted, for example an unparseable timestamp. It is logged and skipped;
// the rest of the batch continues.
type TransformError struct {
	// Feed is the feed that produced the record.
	Feed string

	// Message describes what failed.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *TransformError) Error() string {
	if e.Feed != "" {
		return fmt.Sprintf("record transform failed in %s: %s", e.Feed, e.Message)
	}
	return fmt.Sprintf("record transform failed: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TransformError) Unwrap() error {
	return e.Cause
}

// IngestionError is the catch-all wrapper at the feed-cycle boundary. Any
// otherwise-unhandled failure during a cycle is wrapped with the feed name so
// the next scheduled run retries from the last good checkpoint.
type IngestionError struct {
	// Feed is the feed whose cycle failed.
	Feed string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingestion failed for feed %s: %v", e.Feed, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *IngestionError) Unwrap() error {
	return e.Cause
}
