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
	"sync"
)

// MemorySink collects events in memory for tests. FailAfter, when
// non-negative, makes Write fail once that many events have been accepted.
type MemorySink struct {
	mu        sync.Mutex
	events    []Event
	FailAfter int
	failErr   error
}

// NewMemorySink creates an empty memory sink that never fails.
func NewMemorySink() *MemorySink {
	return &MemorySink{FailAfter: -1}
}

// FailWith arms the sink to return err once FailAfter events were accepted.
func (m *MemorySink) FailWith(after int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailAfter = after
	m.failErr = err
}

// Write records the event.
func (m *MemorySink) Write(_ context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAfter >= 0 && len(m.events) >= m.FailAfter {
		return m.failErr
	}
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything written so far.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
