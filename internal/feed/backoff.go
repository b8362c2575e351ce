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
	"sync"
	"time"

	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

// Backoff tracks consecutive cycle failures per feed input and holds an
// input back with exponential delay after repeated failures. Rate limit
// answers from the provider back off immediately.
type Backoff struct {
	mu     sync.Mutex
	states map[string]*backoffState

	// now is the clock, swappable in tests.
	now func() time.Time
}

type backoffState struct {
	failures int
	until    time.Time
}

// failureThreshold is how many consecutive failures are tolerated before
// backoff engages. Rate limits engage it on the first hit.
const failureThreshold = 3

// NewBackoff creates an empty backoff tracker.
func NewBackoff() *Backoff {
	return &Backoff{
		states: make(map[string]*backoffState),
		now:    time.Now,
	}
}

// Allow reports whether the input may run now.
func (b *Backoff) Allow(inputName string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, exists := b.states[inputName]
	if !exists {
		return true
	}
	return !b.now().Before(state.until)
}

// RecordSuccess clears the failure streak for an input.
func (b *Backoff) RecordSuccess(inputName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.states, inputName)
}

// RecordFailure registers a failed cycle. Repeated failures double the
// hold from 30s up to 10m; a provider rate limit backs off at once.
func (b *Backoff) RecordFailure(inputName string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, exists := b.states[inputName]
	if !exists {
		state = &backoffState{}
		b.states[inputName] = state
	}
	state.failures++

	rateLimited := false
	var authErr *apperrors.AuthError
	if apperrors.As(err, &authErr) {
		rateLimited = authErr.RateLimited()
	}
	if !rateLimited && state.failures < failureThreshold {
		return
	}

	steps := state.failures
	if !rateLimited {
		steps = state.failures - failureThreshold + 1
	}
	delay := time.Duration(30<<uint(steps-1)) * time.Second
	if delay > 10*time.Minute {
		delay = 10 * time.Minute
	}
	state.until = b.now().Add(delay)
}

// Failures returns the current consecutive failure count for an input.
func (b *Backoff) Failures(inputName string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if state, exists := b.states[inputName]; exists {
		return state.failures
	}
	return 0
}
