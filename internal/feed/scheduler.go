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
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// MinPollInterval is the minimum allowed polling interval in seconds.
const MinPollInterval = 10

// Scheduler manages poll timers for registered feed inputs.
// It creates per-input timers with jitter to avoid thundering herd issues.
type Scheduler struct {
	mu      sync.RWMutex
	timers  map[string]*pollTimer
	handler PollHandler
	stopped bool
}

// PollHandler is called when a poll timer fires.
type PollHandler func(ctx context.Context, inputName string) error

// pollTimer tracks the timer and configuration for a single feed input.
type pollTimer struct {
	inputName string
	interval  time.Duration
	timer     *time.Timer
	cancel    context.CancelFunc
	running   bool
	stopped   bool
}

// NewScheduler creates a new feed scheduler.
func NewScheduler(handler PollHandler) *Scheduler {
	return &Scheduler{
		timers:  make(map[string]*pollTimer),
		handler: handler,
	}
}

// Register adds or updates a feed input with the given interval.
// The interval is enforced to be at least MinPollInterval seconds.
// Jitter (±10%) is added to the interval to avoid thundering herd.
func (s *Scheduler) Register(ctx context.Context, inputName string, intervalSeconds int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return fmt.Errorf("scheduler is stopped")
	}

	if intervalSeconds < MinPollInterval {
		intervalSeconds = MinPollInterval
	}

	interval := time.Duration(intervalSeconds) * time.Second

	if existing, exists := s.timers[inputName]; exists {
		if existing.interval == interval {
			return nil
		}
		existing.stopped = true
		existing.cancel()
		existing.timer.Stop()
		delete(s.timers, inputName)
	}

	timerCtx, cancel := context.WithCancel(ctx)
	pt := &pollTimer{
		inputName: inputName,
		interval:  interval,
		timer:     time.NewTimer(addJitter(interval)),
		cancel:    cancel,
	}
	s.timers[inputName] = pt

	go s.runTimer(timerCtx, pt)

	return nil
}

// Unregister removes a feed input from the scheduler.
func (s *Scheduler) Unregister(inputName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pt, exists := s.timers[inputName]; exists {
		pt.stopped = true
		pt.cancel()
		pt.timer.Stop()
		delete(s.timers, inputName)
	}
}

// runTimer handles timer fires and reschedules for a single feed input.
// A cycle still running when the timer fires again is not overlapped; the
// tick is dropped and the next one retried.
func (s *Scheduler) runTimer(ctx context.Context, pt *pollTimer) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-pt.timer.C:
			if pt.stopped {
				return
			}

			s.mu.Lock()
			busy := pt.running
			if !busy {
				pt.running = true
			}
			s.mu.Unlock()

			if !busy && s.handler != nil {
				// The handler logs and counts its own failures.
				_ = s.handler(ctx, pt.inputName)

				s.mu.Lock()
				pt.running = false
				s.mu.Unlock()
			}

			pt.timer.Reset(addJitter(pt.interval))
		}
	}
}

// Stop stops all timers and shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true

	for _, pt := range s.timers {
		pt.stopped = true
		pt.cancel()
		pt.timer.Stop()
	}

	s.timers = make(map[string]*pollTimer)
}

// Interval returns the configured interval for an input in seconds.
// Returns 0 if the input is not registered.
func (s *Scheduler) Interval(inputName string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pt, exists := s.timers[inputName]; exists {
		return int(pt.interval.Seconds())
	}
	return 0
}

// Inputs returns all registered input names.
func (s *Scheduler) Inputs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inputs := make([]string, 0, len(s.timers))
	for name := range s.timers {
		inputs = append(inputs, name)
	}
	return inputs
}

// addJitter adds ±10% jitter to a duration to avoid thundering herd.
func addJitter(d time.Duration) time.Duration {
	jitterRange := float64(d) * 0.1
	jitter := (rand.Float64()*2 - 1) * jitterRange
	return d + time.Duration(jitter)
}
