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

package httpclient

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testRetryConfig() Config {
	return Config{
		Timeout:       5 * time.Second,
		RetryAttempts: 3,
		RetryBackoff:  1 * time.Millisecond,
		MaxBackoff:    10 * time.Millisecond,
		UserAgent:     "test/1.0",
	}
}

func TestRetryTransport_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(testRetryConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestRetryTransport_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := New(testRetryConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1 (4xx must not retry)", got)
	}
}

func TestRetryTransport_DoesNotRetryPOSTByDefault(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(testRetryConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := client.Post(server.URL, "application/json", nil)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	defer resp.Body.Close()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1 (POST must not retry by default)", got)
	}
}

func TestParseRetryAfter_Seconds(t *testing.T) {
	rt := newRetryTransport(nil, testRetryConfig())

	resp := &http.Response{Header: http.Header{"Retry-After": []string{"2"}}}
	if got := rt.parseRetryAfter(resp); got != 2*time.Second {
		t.Errorf("parseRetryAfter = %v, want 2s", got)
	}

	resp = &http.Response{Header: http.Header{}}
	if got := rt.parseRetryAfter(resp); got != 0 {
		t.Errorf("parseRetryAfter (missing) = %v, want 0", got)
	}
}

func TestCalculateBackoff_CappedAtMax(t *testing.T) {
	cfg := testRetryConfig()
	rt := newRetryTransport(nil, cfg)

	for attempt := 1; attempt <= 10; attempt++ {
		d := rt.calculateBackoff(attempt)
		// Jitter adds at most 20% on top of the capped value.
		if d > cfg.MaxBackoff+cfg.MaxBackoff/5 {
			t.Errorf("backoff(%d) = %v exceeds cap", attempt, d)
		}
	}
}
