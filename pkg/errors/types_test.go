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

package errors

import (
	"fmt"
	"testing"
)

func TestConfigurationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigurationError
		want string
	}{
		{
			name: "surface and operation",
			err:  &ConfigurationError{Surface: "routing", Operation: "getQueues", Message: "unknown operation"},
			want: "configuration error: routing.getQueues: unknown operation",
		},
		{
			name: "surface only",
			err:  &ConfigurationError{Surface: "bogus", Message: "unknown surface"},
			want: "configuration error: bogus: unknown surface",
		},
		{
			name: "message only",
			err:  &ConfigurationError{Message: "missing account"},
			want: "configuration error: missing account",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthError_RateLimited(t *testing.T) {
	rateLimited := &AuthError{StatusCode: 429, Message: "Rate limit exceeded the maximum"}
	if !rateLimited.RateLimited() {
		t.Error("expected 429 to report rate limited")
	}

	expired := &AuthError{StatusCode: 401, Message: "token expired"}
	if expired.RateLimited() {
		t.Error("expected 401 not to report rate limited")
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	cause := New("connection reset")
	err := &TransientError{Surface: "telephony", Operation: "getTrunks", Cause: cause}

	if !Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}

	var transientErr *TransientError
	wrapped := fmt.Errorf("fetch: %w", err)
	if !As(wrapped, &transientErr) {
		t.Fatal("expected errors.As to find TransientError through wrapping")
	}
	if transientErr.Surface != "telephony" {
		t.Errorf("Surface = %q, want telephony", transientErr.Surface)
	}
}

func TestIngestionError_WrapsFeedContext(t *testing.T) {
	cause := &TransientError{StatusCode: 503, Message: "service unavailable"}
	err := &IngestionError{Feed: "edges_metrics", Cause: cause}

	if !IsTransient(err) {
		t.Error("expected transient cause to be visible through IngestionError")
	}
	want := "ingestion failed for feed edges_metrics: transient provider error [HTTP 503]: service unavailable"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestClassifierHelpers(t *testing.T) {
	if IsAuth(New("plain")) {
		t.Error("plain error should not classify as auth")
	}
	if !IsAuth(fmt.Errorf("call failed: %w", &AuthError{StatusCode: 401})) {
		t.Error("wrapped AuthError should classify as auth")
	}
	if !IsConfiguration(&ConfigurationError{Message: "x"}) {
		t.Error("ConfigurationError should classify as configuration")
	}
}
