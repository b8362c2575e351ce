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

package sink

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// WriterSink writes events as JSON lines, one per event, in the collector
// payload shape. Used for dry runs against stdout.
type WriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w)}
}

// Write encodes the event as one JSON line.
func (s *WriterSink) Write(_ context.Context, event Event) error {
	line := map[string]any{
		"event": json.RawMessage(event.Payload),
	}
	if event.Index != "" {
		line["index"] = event.Index
	}
	if event.Sourcetype != "" {
		line["sourcetype"] = event.Sourcetype
	}
	if event.Time != nil {
		line["time"] = float64(event.Time.UnixMilli()) / 1000
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(line)
}
