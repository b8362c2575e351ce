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

package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

// SplunkConfig configures the HEC sink.
type SplunkConfig struct {
	// BaseURL is the collector base, e.g. "https://splunk.example.com:8088".
	BaseURL string

	// Token is the HEC token.
	Token string

	// RequestsPerSecond caps the send rate; 0 selects the default of 10.
	RequestsPerSecond float64

	// Burst is the limiter burst; 0 selects the default of 10.
	Burst int
}

// SplunkSink writes events to a Splunk HTTP Event Collector endpoint.
type SplunkSink struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewSplunkSink creates a HEC sink over the given HTTP client.
func NewSplunkSink(cfg SplunkConfig, client *http.Client) (*SplunkSink, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required for Splunk sink")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("HEC token is required for Splunk sink")
	}
	if client == nil {
		client = http.DefaultClient
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	return &SplunkSink{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// Write sends one event to /services/collector/event, blocking on the rate
// limiter first.
func (s *SplunkSink) Write(ctx context.Context, event Event) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	payload := map[string]any{
		"event": json.RawMessage(event.Payload),
	}
	if event.Index != "" {
		payload["index"] = event.Index
	}
	if event.Sourcetype != "" {
		payload["sourcetype"] = event.Sourcetype
	}
	if event.Time != nil {
		// HEC takes epoch seconds with fraction.
		payload["time"] = float64(event.Time.UnixMilli()) / 1000
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal HEC payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/services/collector/event", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build HEC request: %w", err)
	}
	req.Header.Set("Authorization", "Splunk "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &apperrors.TransientError{
			Surface:   "sink",
			Operation: "hec_event",
			Message:   "request failed",
			Cause:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apperrors.TransientError{
			Surface:    "sink",
			Operation:  "hec_event",
			StatusCode: resp.StatusCode,
			Message:    string(detail),
		}
	}

	// HEC answers 200 with {"text":"Success","code":0}; a non-zero code
	// with HTTP 200 still means the event was rejected.
	var ack struct {
		Text string `json:"text"`
		Code int    `json:"code"`
	}
	ackBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if len(ackBody) > 0 && json.Unmarshal(ackBody, &ack) == nil && ack.Code != 0 {
		return &apperrors.TransientError{
			Surface:   "sink",
			Operation: "hec_event",
			Message:   fmt.Sprintf("collector rejected event: %s (code %d)", ack.Text, ack.Code),
		}
	}
	return nil
}
