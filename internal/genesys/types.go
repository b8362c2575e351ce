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

import "encoding/json"

// entityListing is the shared envelope of paged directory endpoints.
type entityListing struct {
	Entities   []json.RawMessage `json:"entities"`
	NextURI    string            `json:"nextUri"`
	PageNumber int               `json:"pageNumber"`
	PageCount  int               `json:"pageCount"`
}

// Ref is a minimal {id, name} reference embedded in provider payloads.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Queue is a routing queue directory entry.
type Queue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is a user directory entry.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	State    string `json:"state"`
	Division Ref    `json:"division"`
}

// RoutingStatus is the live routing state of one user.
type RoutingStatus struct {
	UserID    string `json:"userId"`
	Status    string `json:"status"`
	StartTime string `json:"startTime"`
}

// Edge is a telephony edge directory entry.
type Edge struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Trunk is a telephony trunk with its owning base, group, and edge.
type Trunk struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	State        string `json:"state"`
	TrunkType    string `json:"trunkType"`
	InService    bool   `json:"inService"`
	Enabled      bool   `json:"enabled"`
	DateCreated  string `json:"dateCreated"`
	DateModified string `json:"dateModified"`
	TrunkBase    Ref    `json:"trunkBase"`
	EdgeGroup    Ref    `json:"edgeGroup"`
	Edge         Ref    `json:"edge"`

	ConnectedStatus *struct {
		Connected bool `json:"connected"`
	} `json:"connectedStatus"`
}

// PhoneStatus is one status block of a phone (primary or secondary).
type PhoneStatus struct {
	ID                string          `json:"id"`
	OperationalStatus string          `json:"operationalStatus"`
	EdgesStatus       string          `json:"edgesStatus"`
	EventCreationTime string          `json:"eventCreationTime"`
	Provision         json.RawMessage `json:"provision,omitempty"`
	LineStatuses      json.RawMessage `json:"lineStatuses,omitempty"`
}

// Phone is a telephony phone fetched with expand=site,status.
type Phone struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	State           string       `json:"state"`
	Site            Ref          `json:"site"`
	Status          *PhoneStatus `json:"status"`
	SecondaryStatus *PhoneStatus `json:"secondaryStatus"`
}

// AggregateResponse is the envelope of analytics aggregate queries.
type AggregateResponse struct {
	Results []AggregateResult `json:"results"`
}

// AggregateResult groups data points under one dimension combination.
type AggregateResult struct {
	Group map[string]string    `json:"group"`
	Data  []AggregateDataPoint `json:"data"`
}

// AggregateDataPoint holds metrics observed over one interval.
type AggregateDataPoint struct {
	Interval string            `json:"interval"`
	Metrics  []AggregateMetric `json:"metrics"`
}

// AggregateMetric is one metric with its statistics.
type AggregateMetric struct {
	Metric    string             `json:"metric"`
	Qualifier string             `json:"qualifier,omitempty"`
	Stats     map[string]float64 `json:"stats"`
}

// AuditTransaction is the state of a submitted audit query.
type AuditTransaction struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// BillableUsageReport is the billing billable-usage report envelope.
type BillableUsageReport struct {
	Status string            `json:"status"`
	Usages []json.RawMessage `json:"usages"`
}
