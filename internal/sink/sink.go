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

// Package sink delivers normalized feed events to an indexing backend.
// The production implementation speaks the Splunk HTTP Event Collector
// protocol; tests use the in-memory sink.
package sink

import (
	"context"
	"encoding/json"
	"time"
)

// Event is one record to be indexed.
type Event struct {
	// Payload is the serialized record.
	Payload json.RawMessage

	// Index is the destination index, empty for the backend default.
	Index string

	// Sourcetype classifies the event on the wire.
	Sourcetype string

	// Time is the event timestamp; nil lets the backend assign arrival
	// time.
	Time *time.Time
}

// Sink accepts events for delivery.
type Sink interface {
	Write(ctx context.Context, event Event) error
}
