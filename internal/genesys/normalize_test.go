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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenAggregatesOneRecordPerMetric(t *testing.T) {
	results := []AggregateResult{
		{
			Group: map[string]string{"queueId": "q1"},
			Data: []AggregateDataPoint{
				{
					Interval: "2026-03-01T08:30:00.000Z/2026-03-01T09:00:00.000Z",
					Metrics: []AggregateMetric{
						{Metric: "nOffered", Stats: map[string]float64{"count": 5}},
						{Metric: "tAnswered", Stats: map[string]float64{"sum": 1200, "count": 3}},
					},
				},
			},
		},
	}

	records := FlattenAggregates(results)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "q1", first["queueId"])
	assert.Equal(t, "nOffered", first["metric"])
	assert.Equal(t, float64(5), first["count"])
	assert.Equal(t, "2026-03-01T08:30:00.000Z/2026-03-01T09:00:00.000Z", first["interval"])

	second := records[1]
	assert.Equal(t, "tAnswered", second["metric"])
	assert.Equal(t, float64(1200), second["sum"])
}

func TestFlattenAggregatesQualifier(t *testing.T) {
	results := []AggregateResult{
		{
			Group: map[string]string{"userId": "u1"},
			Data: []AggregateDataPoint{
				{
					Interval: "2026-03-01T00:00:00.000Z/2026-03-02T00:00:00.000Z",
					Metrics: []AggregateMetric{
						{Metric: "tSystemPresence", Qualifier: "AVAILABLE", Stats: map[string]float64{"sum": 3600000}},
					},
				},
			},
		},
	}

	records := FlattenAggregates(results)
	require.Len(t, records, 1)
	assert.Equal(t, "AVAILABLE", records[0]["qualifier"])
	assert.Equal(t, "u1", records[0]["userId"])
}

func TestFlattenAggregatesNestedKeepsStats(t *testing.T) {
	results := []AggregateResult{
		{
			Group: map[string]string{"actionId": "a1"},
			Data: []AggregateDataPoint{
				{
					Interval: "2026-03-01T08:30:00.000Z/2026-03-01T08:35:00.000Z",
					Metrics: []AggregateMetric{
						{Metric: "tTotalExecution", Stats: map[string]float64{"count": 7, "sum": 91}},
					},
				},
			},
		},
	}

	records := FlattenAggregatesNested(results)
	require.Len(t, records, 1)
	stats, ok := records[0]["stats"].(map[string]float64)
	require.True(t, ok)
	assert.Equal(t, float64(7), stats["count"])
	assert.Equal(t, "a1", records[0]["actionId"])
}

func TestFlatRecordEventTime(t *testing.T) {
	fallback := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	record := FlatRecord{"interval": "2026-03-01T08:30:00.000Z/2026-03-01T09:00:00.000Z"}
	assert.Equal(t, time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC), record.EventTime(fallback))

	assert.Equal(t, fallback, FlatRecord{}.EventTime(fallback))
	assert.Equal(t, fallback, FlatRecord{"interval": "garbage"}.EventTime(fallback))
}

func TestExpandPhoneStatusesBothBlocks(t *testing.T) {
	phone := Phone{
		ID:    "p1",
		Name:  "desk-phone",
		State: "active",
		Site:  Ref{ID: "s1", Name: "hq"},
		Status: &PhoneStatus{
			OperationalStatus: "OPERATIONAL",
			EdgesStatus:       "IN_SERVICE",
			EventCreationTime: "2025-10-09T02:04:58.285926652Z",
		},
		SecondaryStatus: &PhoneStatus{
			OperationalStatus: "DEGRADED",
			EventCreationTime: "2025-10-09T02:05:58.100Z",
		},
	}

	records := ExpandPhoneStatuses(phone)
	require.Len(t, records, 2)

	assert.Equal(t, "status", records[0]["status_kind"])
	assert.Equal(t, "secondary_status", records[1]["status_kind"])
	for _, record := range records {
		assert.Equal(t, "p1", record["phone_id"])
		assert.Equal(t, "hq", record["site_name"])
	}
	assert.Equal(t, "OPERATIONAL", records[0]["operational_status"])
	assert.Equal(t, "DEGRADED", records[1]["operational_status"])
}

func TestExpandPhoneStatusesNoStatus(t *testing.T) {
	assert.Empty(t, ExpandPhoneStatuses(Phone{ID: "p1"}))
}

func TestTrunkRowProjection(t *testing.T) {
	trunk := Trunk{
		ID:        "t1",
		Name:      "sip-trunk",
		State:     "active",
		TrunkType: "EXTERNAL",
		InService: true,
		Enabled:   true,
		TrunkBase: Ref{ID: "tb1", Name: "base"},
		EdgeGroup: Ref{ID: "eg1", Name: "group"},
		Edge:      Ref{ID: "e1", Name: "edge-1"},
		ConnectedStatus: &struct {
			Connected bool `json:"connected"`
		}{Connected: true},
	}

	row := TrunkRow(trunk)
	assert.Equal(t, "t1", row["_key"])
	assert.Equal(t, "tb1", row["trunkbaseId"])
	assert.Equal(t, "group", row["edgeGroupName"])
	assert.Equal(t, true, row["connectedStatus"])

	edgeRow := EdgeRowFromTrunk(trunk)
	assert.Equal(t, "e1", edgeRow["_key"])
	assert.Equal(t, "edge-1", edgeRow["name"])
}

func TestLookupRowKeys(t *testing.T) {
	queueRow := QueueRow(Queue{ID: "q1", Name: "sales"})
	assert.Equal(t, "q1", queueRow["_key"])

	userRow := UserRow(User{ID: "u1", Name: "Sam", Email: "sam@example.com"})
	assert.Equal(t, "u1", userRow["_key"])
	assert.Equal(t, "sam@example.com", userRow["email"])
}

func TestEnrichMetric(t *testing.T) {
	raw := json.RawMessage(`{"eventTime":"2026-03-01T08:30:00.000Z","processors":[]}`)

	record, err := EnrichMetric(raw, map[string]any{"edge": map[string]any{"id": "e1"}})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01T08:30:00.000Z", record["eventTime"])
	assert.Contains(t, record, "edge")

	_, err = EnrichMetric(json.RawMessage(`[1,2]`), nil)
	assert.Error(t, err)
}
