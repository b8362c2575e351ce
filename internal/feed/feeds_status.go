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

package feed

import (
	"context"
	"time"

	"github.com/tombee/genesysfeed/internal/statuspage"
)

// collectStatusComponents reports the health of each platform component
// as published on the public status page.
func collectStatusComponents(ctx context.Context, env *Env, _ Window) ([]Record, error) {
	components, err := env.Status.Components(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(components))
	for _, c := range components {
		record := Record{Payload: map[string]any{
			"id":               c.ID,
			"name":             c.Name,
			"status":           c.Status,
			"description":      c.Description,
			"group_id":         c.GroupID,
			"updated_at":       c.UpdatedAt,
			"position":         c.Position,
			"status_indicator": statuspage.StatusIndicator(c.Status),
		}}
		if t, ok := parseStatusTime(c.UpdatedAt); ok {
			record.Time = &t
		}
		records = append(records, record)
	}
	return records, nil
}

// collectStatusIncidents reports open and historical status page incidents.
func collectStatusIncidents(ctx context.Context, env *Env, _ Window) ([]Record, error) {
	incidents, err := env.Status.Incidents(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(incidents))
	for _, in := range incidents {
		record := Record{Payload: map[string]any{
			"id":               in.ID,
			"name":             in.Name,
			"status":           in.Status,
			"impact":           in.Impact,
			"shortlink":        in.Shortlink,
			"created_at":       in.CreatedAt,
			"updated_at":       in.UpdatedAt,
			"resolved_at":      in.ResolvedAt,
			"incident_updates": in.IncidentUpdates,
			"components":       in.Components,
		}}
		if t, ok := parseStatusTime(in.UpdatedAt); ok {
			record.Time = &t
		}
		records = append(records, record)
	}
	return records, nil
}

func parseStatusTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
