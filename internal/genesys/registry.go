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
	"net/http"

	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

// PagingStyle describes how an operation's results are paginated.
type PagingStyle int

const (
	// PagingNone: the response is consumed as-is (single object or plain
	// JSON array).
	PagingNone PagingStyle = iota

	// PagingEntityListing: responses carry `entities[]` plus `nextUri`;
	// the gateway loops pageNumber until nextUri is absent.
	PagingEntityListing

	// PagingBody: the request body carries `paging: {pageSize, pageNumber}`
	// and the response reports `totalHits`; the gateway loops until all
	// hits are collected.
	PagingBody
)

// ResultShape describes the top-level shape of an operation's response.
type ResultShape int

const (
	// ShapeEntities: `{entities: [...], nextUri: ...}`.
	ShapeEntities ResultShape = iota

	// ShapeArray: a bare JSON array.
	ShapeArray

	// ShapeObject: a single JSON object.
	ShapeObject
)

// Operation describes one registered provider call. The registry replaces
// the reflective instance/function dispatch of SDK-based clients: a feed
// names a (surface, operation) pair and anything unregistered is a
// configuration error, not a runtime surprise.
type Operation struct {
	Surface  string
	Name     string
	Method   string
	Path     string
	Paging   PagingStyle
	Shape    ResultShape
	PageSize int

	// ItemsKey is the response field holding the item array for body-paged
	// operations, e.g. "conversations".
	ItemsKey string
}

// Surfaces.
const (
	SurfaceRouting   = "routing"
	SurfaceUsers     = "users"
	SurfaceAnalytics = "analytics"
	SurfaceTelephony = "telephony"
	SurfaceFlows     = "flows"
	SurfaceAudits    = "audits"
	SurfaceBilling   = "billing"
)

const defaultPageSize = 500

var operations = []Operation{
	{
		Surface:  SurfaceRouting,
		Name:     "queues",
		Method:   http.MethodGet,
		Path:     "/api/v2/routing/queues",
		Paging:   PagingEntityListing,
		Shape:    ShapeEntities,
		PageSize: defaultPageSize,
	},
	{
		Surface:  SurfaceUsers,
		Name:     "users",
		Method:   http.MethodGet,
		Path:     "/api/v2/users",
		Paging:   PagingEntityListing,
		Shape:    ShapeEntities,
		PageSize: defaultPageSize,
	},
	{
		Surface: SurfaceUsers,
		Name:    "routing_status",
		Method:  http.MethodGet,
		Path:    "/api/v2/users/{userId}/routingstatus",
		Paging:  PagingNone,
		Shape:   ShapeObject,
	},
	{
		Surface: SurfaceUsers,
		Name:    "aggregates_query",
		Method:  http.MethodPost,
		Path:    "/api/v2/analytics/users/aggregates/query",
		Paging:  PagingNone,
		Shape:   ShapeObject,
	},
	{
		Surface: SurfaceAnalytics,
		Name:    "queue_observations_query",
		Method:  http.MethodPost,
		Path:    "/api/v2/analytics/queues/observations/query",
		Paging:  PagingNone,
		Shape:   ShapeObject,
	},
	{
		Surface: SurfaceAnalytics,
		Name:    "conversation_aggregates_query",
		Method:  http.MethodPost,
		Path:    "/api/v2/analytics/conversations/aggregates/query",
		Paging:  PagingNone,
		Shape:   ShapeObject,
	},
	{
		Surface:  SurfaceAnalytics,
		Name:     "conversation_details_query",
		Method:   http.MethodPost,
		Path:     "/api/v2/analytics/conversations/details/query",
		Paging:   PagingBody,
		Shape:    ShapeObject,
		PageSize: 100,
		ItemsKey: "conversations",
	},
	{
		Surface: SurfaceAnalytics,
		Name:    "action_aggregates_query",
		Method:  http.MethodPost,
		Path:    "/api/v2/analytics/actions/aggregates/query",
		Paging:  PagingNone,
		Shape:   ShapeObject,
	},
	{
		Surface: SurfaceFlows,
		Name:    "flow_aggregates_query",
		Method:  http.MethodPost,
		Path:    "/api/v2/analytics/flows/aggregates/query",
		Paging:  PagingNone,
		Shape:   ShapeObject,
	},
	{
		Surface:  SurfaceTelephony,
		Name:     "edges",
		Method:   http.MethodGet,
		Path:     "/api/v2/telephony/providers/edges",
		Paging:   PagingEntityListing,
		Shape:    ShapeEntities,
		PageSize: defaultPageSize,
	},
	{
		Surface: SurfaceTelephony,
		Name:    "edge_metrics",
		Method:  http.MethodGet,
		Path:    "/api/v2/telephony/providers/edges/metrics",
		Paging:  PagingNone,
		Shape:   ShapeArray,
	},
	{
		Surface:  SurfaceTelephony,
		Name:     "trunks",
		Method:   http.MethodGet,
		Path:     "/api/v2/telephony/providers/edges/trunks",
		Paging:   PagingEntityListing,
		Shape:    ShapeEntities,
		PageSize: defaultPageSize,
	},
	{
		Surface: SurfaceTelephony,
		Name:    "trunk_metrics",
		Method:  http.MethodGet,
		Path:    "/api/v2/telephony/providers/edges/trunks/metrics",
		Paging:  PagingNone,
		Shape:   ShapeArray,
	},
	{
		Surface:  SurfaceTelephony,
		Name:     "phones",
		Method:   http.MethodGet,
		Path:     "/api/v2/telephony/providers/edges/phones",
		Paging:   PagingEntityListing,
		Shape:    ShapeEntities,
		PageSize: defaultPageSize,
	},
	{
		Surface: SurfaceAudits,
		Name:    "query",
		Method:  http.MethodPost,
		Path:    "/api/v2/audits/query",
		Paging:  PagingNone,
		Shape:   ShapeObject,
	},
	{
		Surface: SurfaceAudits,
		Name:    "query_transaction",
		Method:  http.MethodGet,
		Path:    "/api/v2/audits/query/{transactionId}",
		Paging:  PagingNone,
		Shape:   ShapeObject,
	},
	{
		Surface:  SurfaceAudits,
		Name:     "query_results",
		Method:   http.MethodGet,
		Path:     "/api/v2/audits/query/{transactionId}/results",
		Paging:   PagingEntityListing,
		Shape:    ShapeEntities,
		PageSize: defaultPageSize,
	},
	{
		Surface: SurfaceBilling,
		Name:    "billable_usage",
		Method:  http.MethodGet,
		Path:    "/api/v2/billing/reports/billableusage",
		Paging:  PagingNone,
		Shape:   ShapeObject,
	},
}

var registry = func() map[string]Operation {
	m := make(map[string]Operation, len(operations))
	for _, op := range operations {
		m[op.Surface+"."+op.Name] = op
	}
	return m
}()

// LookupOperation resolves a (surface, operation) pair against the registry.
// Unknown pairs are rejected with a ConfigurationError so a mistyped feed
// definition fails loudly rather than probing the provider.
func LookupOperation(surface, name string) (Operation, error) {
	op, ok := registry[surface+"."+name]
	if !ok {
		return Operation{}, &apperrors.ConfigurationError{
			Surface:   surface,
			Operation: name,
			Message:   "operation is not registered",
		}
	}
	return op, nil
}
