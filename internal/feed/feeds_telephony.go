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
	"strings"

	"github.com/tombee/genesysfeed/internal/genesys"
	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

// collectEdgesMetrics fetches metrics for every edge in the directory,
// batching edge IDs, and stitches the owning edge onto each metric.
func collectEdgesMetrics(ctx context.Context, env *Env, _ Window) ([]Record, error) {
	items, err := env.Gateway.Get(ctx, genesys.SurfaceTelephony, "edges")
	if err != nil {
		return nil, err
	}
	edges, err := decodeAll[genesys.Edge](items)
	if err != nil {
		return nil, &apperrors.TransformError{
			Feed:    "edges_metrics",
			Message: "decode edge directory",
			Cause:   err,
		}
	}
	if len(edges) == 0 {
		return nil, nil
	}

	edgesByID := make(map[string]genesys.Edge, len(edges))
	edgeIDs := make([]string, 0, len(edges))
	for _, edge := range edges {
		edgesByID[edge.ID] = edge
		edgeIDs = append(edgeIDs, edge.ID)
	}

	var records []Record
	for _, batch := range genesys.SplitIDs(edgeIDs, genesys.BatchSizeEdges) {
		metrics, err := env.Gateway.Get(ctx, genesys.SurfaceTelephony, "edge_metrics",
			genesys.WithQuery("edgeIds", strings.Join(batch, ",")))
		if err != nil {
			return nil, err
		}

		for _, raw := range metrics {
			record, err := metricRecord(env, "edges_metrics", raw, func(payload map[string]any) {
				if ref, ok := payload["edge"].(map[string]any); ok {
					if id, ok := ref["id"].(string); ok {
						if edge, found := edgesByID[id]; found {
							payload["edge"] = map[string]any{
								"id":    edge.ID,
								"name":  edge.Name,
								"state": edge.State,
							}
						}
					}
				}
			})
			if err != nil {
				continue
			}
			records = append(records, record)
		}
	}
	return records, nil
}

// collectEdgesTrunksMetrics refreshes the gc_trunks and gc_edges lookups
// from the trunk directory, then fetches metrics for all trunks.
func collectEdgesTrunksMetrics(ctx context.Context, env *Env, _ Window) ([]Record, error) {
	items, err := env.Gateway.Get(ctx, genesys.SurfaceTelephony, "trunks")
	if err != nil {
		return nil, err
	}
	trunks, err := decodeAll[genesys.Trunk](items)
	if err != nil {
		return nil, &apperrors.TransformError{
			Feed:    "edges_trunks_metrics",
			Message: "decode trunk directory",
			Cause:   err,
		}
	}
	if len(trunks) == 0 {
		return nil, nil
	}

	trunkRows := make([]map[string]any, 0, len(trunks))
	edgeRows := make([]map[string]any, 0, len(trunks))
	trunkIDs := make([]string, 0, len(trunks))
	for _, trunk := range trunks {
		trunkRows = append(trunkRows, genesys.TrunkRow(trunk))
		if trunk.Edge.ID != "" {
			edgeRows = append(edgeRows, genesys.EdgeRowFromTrunk(trunk))
		}
		trunkIDs = append(trunkIDs, trunk.ID)
	}
	if err := saveLookupRows(ctx, env, "gc_trunks", trunkRows); err != nil {
		return nil, err
	}
	if err := saveLookupRows(ctx, env, "gc_edges", edgeRows); err != nil {
		return nil, err
	}

	var records []Record
	for _, batch := range genesys.SplitIDs(trunkIDs, genesys.BatchSizeEdges) {
		metrics, err := env.Gateway.Get(ctx, genesys.SurfaceTelephony, "trunk_metrics",
			genesys.WithQuery("trunkIds", strings.Join(batch, ",")))
		if err != nil {
			return nil, err
		}
		for _, raw := range metrics {
			record, err := metricRecord(env, "edges_trunks_metrics", raw, nil)
			if err != nil {
				continue
			}
			records = append(records, record)
		}
	}
	return records, nil
}

// collectEdgesPhones expands each phone's status blocks into records. The
// status timestamps proved unreliable in the field, so this feed runs with
// an advisory checkpoint: records are timed but never dropped.
func collectEdgesPhones(ctx context.Context, env *Env, _ Window) ([]Record, error) {
	items, err := env.Gateway.Get(ctx, genesys.SurfaceTelephony, "phones",
		genesys.WithQuery("expand", "site,status"))
	if err != nil {
		return nil, err
	}
	phones, err := decodeAll[genesys.Phone](items)
	if err != nil {
		return nil, &apperrors.TransformError{
			Feed:    "edges_phones",
			Message: "decode phone directory",
			Cause:   err,
		}
	}

	var records []Record
	for _, phone := range phones {
		for _, row := range genesys.ExpandPhoneStatuses(phone) {
			record := Record{Payload: row}
			if creation, ok := row["event_creation_time"].(string); ok && creation != "" {
				if t, err := genesys.ParseEventTime(creation); err == nil {
					record.Time = &t
				} else {
					env.Logger.Warn("unparseable status time",
						"phone_id", phone.ID,
						"value", creation)
				}
			}
			records = append(records, record)
		}
	}
	return records, nil
}

// metricRecord decodes one raw metric, applies an optional enrichment, and
// times it by its eventTime field.
func metricRecord(env *Env, feedKey string, raw json.RawMessage, enrich func(map[string]any)) (Record, error) {
	payload, err := genesys.EnrichMetric(raw, nil)
	if err != nil {
		env.Logger.Warn("skipping metric",
			"error", &apperrors.TransformError{Feed: feedKey, Message: "decode metric", Cause: err})
		return Record{}, err
	}
	if enrich != nil {
		enrich(payload)
	}

	record := Record{Payload: payload}
	if eventTime, ok := payload["eventTime"].(string); ok && eventTime != "" {
		if t, err := genesys.ParseEventTime(eventTime); err == nil {
			record.Time = &t
		}
	}
	return record, nil
}
