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
	"encoding/json"

	"github.com/tombee/genesysfeed/internal/genesys"
	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

// userPresenceMetrics are the daily presence aggregates collected per user.
var userPresenceMetrics = []string{
	"tAgentRoutingStatus",
	"tOrganizationPresence",
	"tSystemPresence",
}

// directoryUsers fetches the user directory.
func directoryUsers(ctx context.Context, env *Env) ([]genesys.User, error) {
	items, err := env.Gateway.Get(ctx, genesys.SurfaceUsers, "users")
	if err != nil {
		return nil, err
	}
	return decodeAll[genesys.User](items)
}

// collectQueueLookup refreshes the queues lookup table. Lookup-only: no
// events, no checkpoint.
func collectQueueLookup(ctx context.Context, env *Env, _ Window) ([]Record, error) {
	queues, err := routingQueues(ctx, env)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(queues))
	for _, queue := range queues {
		rows = append(rows, genesys.QueueRow(queue))
	}
	return nil, saveLookupRows(ctx, env, "queues", rows)
}

// collectUserLookup refreshes the users lookup table.
func collectUserLookup(ctx context.Context, env *Env, _ Window) ([]Record, error) {
	users, err := directoryUsers(ctx, env)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(users))
	for _, user := range users {
		rows = append(rows, genesys.UserRow(user))
	}
	return nil, saveLookupRows(ctx, env, "users", rows)
}

// collectUserAggregates queries daily presence aggregates for every
// directory user, batching IDs to the provider's filter cap, and stitches
// the user's directory entry onto each record.
func collectUserAggregates(ctx context.Context, env *Env, window Window) ([]Record, error) {
	users, err := directoryUsers(ctx, env)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	usersByID := make(map[string]genesys.User, len(users))
	userIDs := make([]string, 0, len(users))
	for _, user := range users {
		usersByID[user.ID] = user
		userIDs = append(userIDs, user.ID)
	}

	interval := genesys.Interval(window.Start, window.End)

	var records []Record
	for _, batch := range genesys.SplitIDs(userIDs, genesys.BatchSizeUsers) {
		raw, err := env.Gateway.Post(ctx, genesys.SurfaceUsers, "aggregates_query",
			genesys.AggregateQuery{
				Interval:    interval,
				Granularity: "P1D",
				GroupBy:     []string{"userId"},
				Metrics:     userPresenceMetrics,
				Filter:      genesys.OrMatches("userId", batch),
			})
		if err != nil {
			return nil, err
		}

		var response genesys.AggregateResponse
		if err := json.Unmarshal(raw, &response); err != nil {
			return nil, &apperrors.TransformError{
				Feed:    "user_aggregates",
				Message: "decode aggregate response",
				Cause:   err,
			}
		}

		for _, row := range genesys.FlattenAggregates(response.Results) {
			if userID, ok := row["userId"].(string); ok {
				if user, found := usersByID[userID]; found {
					row["user"] = map[string]any{
						"id":    user.ID,
						"name":  user.Name,
						"email": user.Email,
					}
				}
			}
			t := row.EventTime(window.Start)
			records = append(records, Record{Payload: row, Time: &t})
		}
	}
	return records, nil
}

// collectUserRoutingStatus reads each user's live routing status. Only
// status changes since the window start are emitted, which the runner's
// time filter enforces.
func collectUserRoutingStatus(ctx context.Context, env *Env, _ Window) ([]Record, error) {
	users, err := directoryUsers(ctx, env)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, user := range users {
		raw, err := env.Gateway.GetOne(ctx, genesys.SurfaceUsers, "routing_status",
			genesys.WithPathParam("userId", user.ID))
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}

		var status genesys.RoutingStatus
		if err := json.Unmarshal(raw, &status); err != nil {
			env.Logger.Warn("skipping routing status",
				"user_id", user.ID,
				"error", err)
			continue
		}
		if status.StartTime == "" {
			continue
		}
		startTime, err := genesys.ParseEventTime(status.StartTime)
		if err != nil {
			env.Logger.Warn("skipping routing status",
				"user_id", user.ID,
				"error", err)
			continue
		}

		t := startTime
		records = append(records, Record{
			Payload: map[string]any{
				"user_id":    user.ID,
				"status":     status.Status,
				"start_time": float64(startTime.UnixMilli()) / 1000,
			},
			Time: &t,
		})
	}
	return records, nil
}
