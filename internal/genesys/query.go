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
	"fmt"
	"time"
)

// IntervalLayout formats interval boundaries the way the analytics API
// expects them, UTC with millisecond precision.
const IntervalLayout = "2006-01-02T15:04:05.000Z"

// Provider-documented maximum ID counts per filter.
const (
	BatchSizeUsers  = 100
	BatchSizeEdges  = 100
	BatchSizeQueues = 200
)

// Interval renders a start/end pair as an analytics interval string. Both
// boundaries are normalized to UTC.
func Interval(start, end time.Time) string {
	return start.UTC().Format(IntervalLayout) + "/" + end.UTC().Format(IntervalLayout)
}

// ParseIntervalStart extracts and parses the start boundary of an interval
// string. RFC 3339 parsing tolerates any number of fraction digits, so
// nanosecond timestamps returned by some endpoints parse as well as the
// millisecond ones the queries send.
func ParseIntervalStart(interval string) (time.Time, error) {
	start := interval
	for i := 0; i < len(interval); i++ {
		if interval[i] == '/' {
			start = interval[:i]
			break
		}
	}
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return time.Time{}, fmt.Errorf("genesys: parse interval start %q: %w", start, err)
	}
	return t, nil
}

// ParseEventTime parses a provider timestamp, tolerating variable fraction
// digits.
func ParseEventTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("genesys: parse event time %q: %w", s, err)
	}
	return t, nil
}

// Predicate is one dimension match in an analytics filter.
type Predicate struct {
	Dimension string `json:"dimension"`
	Operator  string `json:"operator"`
	Value     string `json:"value"`
}

// Filter is an analytics filter tree: either a flat or-of-predicates or an
// and-of-or-clauses combination.
type Filter struct {
	Type       string      `json:"type"`
	Clauses    []*Filter   `json:"clauses,omitempty"`
	Predicates []Predicate `json:"predicates,omitempty"`
}

// OrMatches builds an or-filter matching any of the values on one dimension.
func OrMatches(dimension string, values []string) *Filter {
	predicates := make([]Predicate, 0, len(values))
	for _, v := range values {
		predicates = append(predicates, Predicate{
			Dimension: dimension,
			Operator:  "matches",
			Value:     v,
		})
	}
	return &Filter{Type: "or", Predicates: predicates}
}

// And combines or-clauses into an and-filter. Nil clauses are skipped; a
// single surviving clause is returned unwrapped.
func And(clauses ...*Filter) *Filter {
	kept := make([]*Filter, 0, len(clauses))
	for _, c := range clauses {
		if c != nil {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &Filter{Type: "and", Clauses: kept}
}

// SplitIDs partitions ids into batches of at most size elements, preserving
// order.
func SplitIDs(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

// AggregateQuery is the request body shared by analytics aggregate
// endpoints.
type AggregateQuery struct {
	Interval    string   `json:"interval"`
	Granularity string   `json:"granularity,omitempty"`
	GroupBy     []string `json:"groupBy,omitempty"`
	Metrics     []string `json:"metrics,omitempty"`
	MediaTypes  []string `json:"mediaTypes,omitempty"`
	Filter      *Filter  `json:"filter,omitempty"`
}

// ObservationsQuery is the request body of observation endpoints, which
// take a filter but no interval.
type ObservationsQuery struct {
	Filter  *Filter  `json:"filter,omitempty"`
	Metrics []string `json:"metrics,omitempty"`
}

// DetailsQuery is the request body of the conversation details endpoint.
// Paging is filled in by the gateway's body-paging loop.
type DetailsQuery struct {
	Interval string      `json:"interval"`
	Paging   *BodyPaging `json:"paging,omitempty"`
}

// BodyPaging is the paging block of body-paged queries.
type BodyPaging struct {
	PageSize   int `json:"pageSize"`
	PageNumber int `json:"pageNumber"`
}

// AuditQuery is the request body of the audit query endpoint.
type AuditQuery struct {
	Interval string `json:"interval"`
}
