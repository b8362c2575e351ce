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

// Package statuspage fetches the public Genesys Cloud status page. The API
// is unauthenticated statuspage.io JSON.
package statuspage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

// DefaultBaseURL is the public Genesys Cloud status page.
const DefaultBaseURL = "https://status.mypurecloud.com/api"

const maxResponseBody = 16 << 20

// Component is one status page component.
type Component struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	Description string `json:"description"`
	GroupID     string `json:"group_id"`
	UpdatedAt   string `json:"updated_at"`
	Position    int    `json:"position"`
}

// Incident is one status page incident.
type Incident struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Status          string            `json:"status"`
	Impact          string            `json:"impact"`
	Shortlink       string            `json:"shortlink"`
	CreatedAt       string            `json:"created_at"`
	UpdatedAt       string            `json:"updated_at"`
	ResolvedAt      string            `json:"resolved_at"`
	IncidentUpdates []json.RawMessage `json:"incident_updates"`
	Components      []json.RawMessage `json:"components"`
}

// Client fetches components and incidents.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client. An empty baseURL selects the public status page.
func New(baseURL string, client *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{baseURL: baseURL, client: client}
}

// Components returns the current component list.
func (c *Client) Components(ctx context.Context) ([]Component, error) {
	var payload struct {
		Components []Component `json:"components"`
	}
	if err := c.get(ctx, "/v2/components.json", &payload); err != nil {
		return nil, err
	}
	return payload.Components, nil
}

// Incidents returns recent incidents.
func (c *Client) Incidents(ctx context.Context) ([]Incident, error) {
	var payload struct {
		Incidents []Incident `json:"incidents"`
	}
	if err := c.get(ctx, "/v2/incidents.json", &payload); err != nil {
		return nil, err
	}
	return payload.Incidents, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &apperrors.TransientError{
			Surface:   "statuspage",
			Operation: path,
			Message:   "build request",
			Cause:     err,
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &apperrors.TransientError{
			Surface:   "statuspage",
			Operation: path,
			Message:   "request failed",
			Cause:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &apperrors.TransientError{
			Surface:    "statuspage",
			Operation:  path,
			StatusCode: resp.StatusCode,
			Message:    "unexpected status",
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &apperrors.TransientError{
			Surface:   "statuspage",
			Operation: path,
			Message:   "read response body",
			Cause:     err,
		}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &apperrors.TransientError{
			Surface:   "statuspage",
			Operation: path,
			Message:   fmt.Sprintf("decode response (%d bytes)", len(body)),
			Cause:     err,
		}
	}
	return nil
}

// StatusIndicator derives the up/down/warning flags the component events
// carry alongside the raw status string.
func StatusIndicator(status string) map[string]bool {
	return map[string]bool{
		"up":      status == "operational",
		"down":    status == "major_outage",
		"warning": status == "partial_outage" || status == "degraded_performance",
	}
}
