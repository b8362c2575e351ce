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
	"fmt"
	"time"

	"github.com/tombee/genesysfeed/internal/genesys"
	"github.com/tombee/genesysfeed/internal/lookup"
	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

// queueObservationMetrics are the live queue gauges collected each cycle.
var queueObservationMetrics = []string{
	"oActiveUsers",
	"oAlerting",
	"oInteracting",
	"oMemberUsers",
	"oOffQueueUsers",
	"oOnQueueUsers",
	"oUserPresences",
	"oUserRoutingStatuses",
	"oWaiting",
}

// flowMetrics are the flow aggregate metrics collected each cycle.
var flowMetrics = []string{
	"nFlow",
	"nFlowMilestone",
	"nFlowOutcome",
	"nFlowOutcomeFailed",
	"oFlowMilestone",
	"tFlow",
	"tFlowDisconnect",
	"tFlowExit",
	"tFlowOutcome",
}

// decodeAll unmarshals every raw item into T, failing on the first bad
// item.
func decodeAll[T any](items []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		var value T
		if err := json.Unmarshal(item, &value); err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

// routingQueues fetches the queue directory.
func routingQueues(ctx context.Context, env *Env) ([]genesys.Queue, error) {
	items, err := env.Gateway.Get(ctx, genesys.SurfaceRouting, "queues")
	if err != nil {
		return nil, err
	}
	return decodeAll[genesys.Queue](items)
}

// collectQueueObservations queries live queue observations for every
// routing queue, in provider-sized ID batches.
func collectQueueObservations(ctx context.Context, env *Env, window Window) ([]Record, error) {
	queues, err := routingQueues(ctx, env)
	if err != nil {
		return nil, err
	}
	if len(queues) == 0 {
		return nil, nil
	}

	queueIDs := make([]string, 0, len(queues))
	for _, q := range queues {
		queueIDs = append(queueIDs, q.ID)
	}

	interval := genesys.Interval(window.Start, window.End)
	observedAt := window.End

	var records []Record
	for _, batch := range genesys.SplitIDs(queueIDs, genesys.BatchSizeQueues) {
		raw, err := env.Gateway.Post(ctx, genesys.SurfaceAnalytics, "queue_observations_query",
			genesys.ObservationsQuery{
				Filter:  genesys.OrMatches("queueId", batch),
				Metrics: queueObservationMetrics,
			})
		if err != nil {
			return nil, err
		}

		var response struct {
			Results []struct {
				Group map[string]string         `json:"group"`
				Data  []genesys.AggregateMetric `json:"data"`
			} `json:"results"`
		}
		if err := json.Unmarshal(raw, &response); err != nil {
			return nil, &apperrors.TransformError{
				Feed:    "queue_observations",
				Message: "decode observations response",
				Cause:   err,
			}
		}

		for _, result := range response.Results {
			for _, metric := range result.Data {
				payload := map[string]any{
					"metric":   metric.Metric,
					"interval": interval,
				}
				if metric.Qualifier != "" {
					payload["qualifier"] = metric.Qualifier
				}
				for dimension, value := range result.Group {
					payload[dimension] = value
				}
				for stat, value := range metric.Stats {
					payload[stat] = value
				}
				t := observedAt
				records = append(records, Record{Payload: payload, Time: &t})
			}
		}
	}
	return records, nil
}

// collectChatObservations queries conversation aggregates for chat media
// over the cycle window.
func collectChatObservations(ctx context.Context, env *Env, window Window) ([]Record, error) {
	mediaTypes := env.Input.MediaTypesList()
	if len(mediaTypes) == 0 {
		mediaTypes = []string{"chat"}
	}

	query := genesys.AggregateQuery{
		Interval:   genesys.Interval(window.Start, window.End),
		MediaTypes: mediaTypes,
		Metrics:    []string{"nOffered"},
		GroupBy:    []string{"queueId"},
	}
	if directions := env.Input.DirectionList(); len(directions) > 0 {
		query.Filter = genesys.OrMatches("direction", directions)
	}

	raw, err := env.Gateway.Post(ctx, genesys.SurfaceAnalytics, "conversation_aggregates_query", query)
	if err != nil {
		return nil, err
	}

	var response genesys.AggregateResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, &apperrors.TransformError{
			Feed:    "chat_observations",
			Message: "decode aggregate response",
			Cause:   err,
		}
	}

	return recordsFromFlat(genesys.FlattenAggregates(response.Results), window.End), nil
}

// collectFlowsMetrics queries flow aggregates grouped by queue and also
// refreshes the gc_conversations_metrics lookup.
func collectFlowsMetrics(ctx context.Context, env *Env, window Window) ([]Record, error) {
	raw, err := env.Gateway.Post(ctx, genesys.SurfaceFlows, "flow_aggregates_query",
		genesys.AggregateQuery{
			Interval: genesys.Interval(window.Start, window.End),
			Metrics:  flowMetrics,
			GroupBy:  []string{"queueId"},
		})
	if err != nil {
		return nil, err
	}

	var response genesys.AggregateResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, &apperrors.TransformError{
			Feed:    "flows_metrics",
			Message: "decode aggregate response",
			Cause:   err,
		}
	}

	flat := genesys.FlattenAggregates(response.Results)
	if len(flat) > 0 {
		if err := saveFlowLookup(ctx, env, flat); err != nil {
			return nil, err
		}
	}
	return recordsFromFlat(flat, window.End), nil
}

// saveFlowLookup mirrors flow metric rows into the conversations metrics
// lookup, keyed so repeated cycles replace rather than accumulate.
func saveFlowLookup(ctx context.Context, env *Env, flat []genesys.FlatRecord) error {
	rows := make([]map[string]any, 0, len(flat))
	for _, record := range flat {
		row := make(map[string]any, len(record)+1)
		for k, v := range record {
			row[k] = v
		}
		queueID, _ := record["queueId"].(string)
		metric, _ := record["metric"].(string)
		interval, _ := record["interval"].(string)
		row["_key"] = fmt.Sprintf("%s|%s|%s", queueID, metric, interval)
		rows = append(rows, row)
	}
	return saveLookupRows(ctx, env, "gc_conversations_metrics", rows)
}

// collectActionsMetrics queries action execution aggregates, keeping the
// stats block nested the way downstream dashboards consume it.
func collectActionsMetrics(ctx context.Context, env *Env, window Window) ([]Record, error) {
	raw, err := env.Gateway.Post(ctx, genesys.SurfaceAnalytics, "action_aggregates_query",
		genesys.AggregateQuery{
			Interval: genesys.Interval(window.Start, window.End),
			Metrics:  []string{"tTotalExecution"},
			GroupBy:  []string{"actionId"},
		})
	if err != nil {
		return nil, err
	}

	var response genesys.AggregateResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, &apperrors.TransformError{
			Feed:    "actions_metrics",
			Message: "decode aggregate response",
			Cause:   err,
		}
	}

	return recordsFromFlat(genesys.FlattenAggregatesNested(response.Results), window.Start), nil
}

// collectConversationsDetails drains the body-paged conversation details
// query and adds the computed conversation duration.
func collectConversationsDetails(ctx context.Context, env *Env, window Window) ([]Record, error) {
	items, err := env.Gateway.PostPaged(ctx, genesys.SurfaceAnalytics, "conversation_details_query",
		map[string]any{
			"interval": genesys.Interval(window.Start, window.End),
		})
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		var conversation map[string]any
		if err := json.Unmarshal(item, &conversation); err != nil {
			return nil, &apperrors.TransformError{
				Feed:    "conversations_details",
				Message: "decode conversation",
				Cause:   err,
			}
		}

		start, startOK := parseTimeField(conversation, "conversationStart")
		end, endOK := parseTimeField(conversation, "conversationEnd")
		if startOK && endOK {
			conversation["conversationDuration"] = end.Sub(start).Milliseconds()
		} else {
			conversation["conversationDuration"] = nil
		}

		record := Record{Payload: conversation}
		if startOK {
			t := start
			record.Time = &t
		}
		records = append(records, record)
	}
	return records, nil
}

// recordsFromFlat turns flattened aggregate rows into records, timing each
// by its interval start with the given fallback.
func recordsFromFlat(flat []genesys.FlatRecord, fallback time.Time) []Record {
	records := make([]Record, 0, len(flat))
	for _, row := range flat {
		t := row.EventTime(fallback)
		records = append(records, Record{Payload: row, Time: &t})
	}
	return records
}

func parseTimeField(payload map[string]any, field string) (time.Time, bool) {
	value, ok := payload[field].(string)
	if !ok || value == "" {
		return time.Time{}, false
	}
	t, err := genesys.ParseEventTime(value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// saveLookupRows ensures the collection exists and batch-saves rows.
func saveLookupRows(ctx context.Context, env *Env, collection string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}
	records := make([]lookup.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, lookup.Record(row))
	}
	if err := env.Lookups.EnsureCollection(ctx, collection); err != nil {
		return err
	}
	return env.Lookups.BatchSave(ctx, collection, records)
}
