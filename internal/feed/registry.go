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

import apperrors "github.com/tombee/genesysfeed/pkg/errors"

// Definitions returns every feed the connector knows how to collect,
// in a stable order.
func Definitions() []Definition {
	return []Definition{
		{
			Key:        "queue_observations",
			Sourcetype: "genesyscloud:analytics:queues:observations",
			Checkpoint: EpochZero,
			Collect:    collectQueueObservations,
		},
		{
			Key:     "queue_lookup",
			Collect: collectQueueLookup,
		},
		{
			Key:     "user_lookup",
			Collect: collectUserLookup,
		},
		{
			Key:        "user_aggregates",
			Sourcetype: "genesyscloud:users:users:aggregates",
			Checkpoint: YearsAgo(4),
			Collect:    collectUserAggregates,
		},
		{
			Key:          "user_routing_status",
			Sourcetype:   "genesyscloud:users:users:routingstatus",
			Checkpoint:   EpochZero,
			TimeFiltered: true,
			Collect:      collectUserRoutingStatus,
		},
		{
			Key:          "edges_metrics",
			Sourcetype:   "genesyscloud:telephonyprovidersedge:edges:metrics",
			Checkpoint:   EpochZero,
			TimeFiltered: true,
			Collect:      collectEdgesMetrics,
		},
		{
			Key:          "edges_trunks_metrics",
			Sourcetype:   "genesyscloud:telephonyprovidersedge:trunks:metrics",
			Checkpoint:   EpochZero,
			TimeFiltered: true,
			Collect:      collectEdgesTrunksMetrics,
		},
		{
			Key:                "edges_phones",
			Sourcetype:         "genesyscloud:telephonyprovidersedge:edges:phones",
			Checkpoint:         MinutesAgo(5),
			TimeFiltered:       true,
			AdvisoryCheckpoint: true,
			Collect:            collectEdgesPhones,
		},
		{
			Key:        "conversations_details",
			Sourcetype: "genesyscloud:analytics:conversations:details",
			Checkpoint: StartDateOr(DaysAgo(7)),
			Collect:    collectConversationsDetails,
		},
		{
			Key:        "flows_metrics",
			Sourcetype: "genesyscloud:analytics:flows:metric",
			Checkpoint: EpochZero,
			Collect:    collectFlowsMetrics,
		},
		{
			Key:          "chat_observations",
			Sourcetype:   "genesyscloud:analytics:chat:metrics",
			Checkpoint:   EpochZero,
			TimeFiltered: true,
			Collect:      collectChatObservations,
		},
		{
			Key:        "actions_metrics",
			Sourcetype: "genesyscloud:analytics:actions:metrics",
			Checkpoint: IntervalAgo,
			Collect:    collectActionsMetrics,
		},
		{
			Key:        "audit_query",
			Sourcetype: "genesyscloud:audit:query",
			Checkpoint: StartOfUTCDay,
			Collect:    collectAuditQuery,
		},
		{
			Key:        "license_usage",
			Sourcetype: "genesyscloud:billing:billableusage",
			Checkpoint: EpochZero,
			Collect:    collectLicenseUsage,
		},
		{
			Key:          "status_page_components",
			Sourcetype:   "genesyscloud:status:components",
			Checkpoint:   EpochZero,
			TimeFiltered: true,
			Collect:      collectStatusComponents,
		},
		{
			Key:          "status_page_incidents",
			Sourcetype:   "genesyscloud:status:incidents",
			Checkpoint:   EpochZero,
			TimeFiltered: true,
			Collect:      collectStatusIncidents,
		},
	}
}

// ByKey returns the definition for a feed key.
func ByKey(key string) (Definition, error) {
	for _, def := range Definitions() {
		if def.Key == key {
			return def, nil
		}
	}
	return Definition{}, &apperrors.ConfigurationError{
		Surface:   "feed",
		Operation: key,
		Message:   "unknown feed",
	}
}

// Keys returns all feed keys in registration order.
func Keys() []string {
	defs := Definitions()
	keys := make([]string, len(defs))
	for i, def := range defs {
		keys[i] = def.Key
	}
	return keys
}
