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

package genesys

import (
	"encoding/json"
	"time"
)

// FlatRecord is one normalized event payload, ready to be serialized and
// handed to the sink.
type FlatRecord map[string]any

// EventTime extracts the record's event timestamp from its interval field,
// falling back to the given default when the field is absent or malformed.
func (r FlatRecord) EventTime(fallback time.Time) time.Time {
	interval, ok := r["interval"].(string)
	if !ok {
		return fallback
	}
	t, err := ParseIntervalStart(interval)
	if err != nil {
		return fallback
	}
	return t
}

// FlattenAggregates unrolls an aggregate response into one record per
// (group, interval, metric). Group dimensions and stats fields land at the
// top level, so a queue metric reads {queueId, metric, count, interval}.
func FlattenAggregates(results []AggregateResult) []FlatRecord {
	var records []FlatRecord
	for _, result := range results {
		for _, point := range result.Data {
			for _, metric := range point.Metrics {
				record := FlatRecord{
					"metric":   metric.Metric,
					"interval": point.Interval,
				}
				if metric.Qualifier != "" {
					record["qualifier"] = metric.Qualifier
				}
				for dimension, value := range result.Group {
					record[dimension] = value
				}
				for stat, value := range metric.Stats {
					record[stat] = value
				}
				records = append(records, record)
			}
		}
	}
	return records
}

// FlattenAggregatesNested unrolls an aggregate response keeping the stats
// block nested, the shape used by action metrics.
func FlattenAggregatesNested(results []AggregateResult) []FlatRecord {
	var records []FlatRecord
	for _, result := range results {
		for _, point := range result.Data {
			for _, metric := range point.Metrics {
				record := FlatRecord{
					"metric":   metric.Metric,
					"stats":    metric.Stats,
					"interval": point.Interval,
				}
				if metric.Qualifier != "" {
					record["qualifier"] = metric.Qualifier
				}
				for dimension, value := range result.Group {
					record[dimension] = value
				}
				records = append(records, record)
			}
		}
	}
	return records
}

// ExpandPhoneStatuses produces one record per status block of a phone,
// primary and secondary, each carrying the shared phone fields. Phones
// without any status block yield nothing.
func ExpandPhoneStatuses(phone Phone) []FlatRecord {
	var records []FlatRecord
	expand := func(status *PhoneStatus, kind string) {
		if status == nil {
			return
		}
		record := FlatRecord{
			"phone_id":    phone.ID,
			"phone_name":  phone.Name,
			"state":       phone.State,
			"site_id":     phone.Site.ID,
			"site_name":   phone.Site.Name,
			"status_kind": kind,

			"operational_status":  status.OperationalStatus,
			"edges_status":        status.EdgesStatus,
			"event_creation_time": status.EventCreationTime,
		}
		if len(status.LineStatuses) > 0 {
			record["line_statuses"] = json.RawMessage(status.LineStatuses)
		}
		records = append(records, record)
	}
	expand(phone.Status, "status")
	expand(phone.SecondaryStatus, "secondary_status")
	return records
}

// TrunkRow projects a trunk into its lookup table row. The _key mirrors
// the trunk id so repeated saves replace rather than duplicate.
func TrunkRow(trunk Trunk) FlatRecord {
	row := FlatRecord{
		"_key":          trunk.ID,
		"id":            trunk.ID,
		"name":          trunk.Name,
		"state":         trunk.State,
		"trunkType":     trunk.TrunkType,
		"inService":     trunk.InService,
		"enabled":       trunk.Enabled,
		"dateCreated":   trunk.DateCreated,
		"dateModified":  trunk.DateModified,
		"trunkbaseId":   trunk.TrunkBase.ID,
		"trunkbaseName": trunk.TrunkBase.Name,
		"edgeGroupId":   trunk.EdgeGroup.ID,
		"edgeGroupName": trunk.EdgeGroup.Name,
	}
	if trunk.ConnectedStatus != nil {
		row["connectedStatus"] = trunk.ConnectedStatus.Connected
	}
	return row
}

// EdgeRowFromTrunk projects a trunk's owning edge into the edges lookup
// table row.
func EdgeRowFromTrunk(trunk Trunk) FlatRecord {
	return FlatRecord{
		"_key": trunk.Edge.ID,
		"id":   trunk.Edge.ID,
		"name": trunk.Edge.Name,
	}
}

// QueueRow projects a routing queue into its lookup table row.
func QueueRow(queue Queue) FlatRecord {
	return FlatRecord{
		"_key": queue.ID,
		"id":   queue.ID,
		"name": queue.Name,
	}
}

// UserRow projects a user into its lookup table row.
func UserRow(user User) FlatRecord {
	return FlatRecord{
		"_key":     user.ID,
		"id":       user.ID,
		"name":     user.Name,
		"email":    user.Email,
		"username": user.Username,
		"state":    user.State,
	}
}

// EnrichMetric decodes a raw metric object and attaches extra fields, used
// to stitch directory context onto edge and trunk metrics. Returns the
// merged record or an error when the metric is not a JSON object.
func EnrichMetric(raw json.RawMessage, extra map[string]any) (FlatRecord, error) {
	var record FlatRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	for k, v := range extra {
		record[k] = v
	}
	return record, nil
}
