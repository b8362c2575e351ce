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
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tombee/genesysfeed/internal/checkpoint"
	feedlog "github.com/tombee/genesysfeed/internal/log"
	"github.com/tombee/genesysfeed/internal/sink"
	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

// Stats summarizes one completed cycle.
type Stats struct {
	// Fetched is how many records the collector produced.
	Fetched int

	// Emitted is how many events reached the sink.
	Emitted int

	// Skipped counts records dropped by the time filter or per-record
	// failures.
	Skipped int

	// Committed reports whether the checkpoint advanced.
	Committed bool

	// Window is the cycle's collection window.
	Window Window
}

// Runner executes cycles for one configured feed input.
//
// A cycle walks Idle, LoadingCheckpoint, Fetching, Normalizing, Emitting,
// Committing. A hard fetch error aborts before any emit, so nothing moves.
// Per-record failures are logged and skipped. The checkpoint commits to the
// window end captured at cycle start, and only when at least one event was
// emitted; an empty cycle leaves the checkpoint where it was so a later
// cycle re-covers the same window.
type Runner struct {
	def         Definition
	env         *Env
	checkpoints checkpoint.Store
	events      sink.Sink
	logger      *slog.Logger
	metrics     *Metrics

	// now is the clock, swappable in tests.
	now func() time.Time
}

// NewRunner wires a runner for one feed.
func NewRunner(def Definition, env *Env, checkpoints checkpoint.Store, events sink.Sink, logger *slog.Logger, metrics *Metrics) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		def:         def,
		env:         env,
		checkpoints: checkpoints,
		events:      events,
		logger:      feedlog.ForFeed(logger, def.Key),
		metrics:     metrics,
		now:         time.Now,
	}
}

// checkpointKey scopes the stored checkpoint to the configured input, so
// two inputs of the same feed against different accounts do not share a
// high-water mark.
func (r *Runner) checkpointKey() string {
	if r.env.Input.Name != "" && r.env.Input.Name != r.def.Key {
		return r.def.Key + ":" + r.env.Input.Name
	}
	return r.def.Key
}

// RunCycle executes one full cycle.
func (r *Runner) RunCycle(ctx context.Context) (Stats, error) {
	started := r.now()
	stats, err := r.runCycle(ctx, started)

	if r.metrics != nil {
		r.metrics.ObserveCycle(ctx, r.def.Key, r.now().Sub(started), stats, err)
	}
	if err != nil {
		r.logger.Error("cycle failed", feedlog.Error(err))
		return stats, &apperrors.IngestionError{Feed: r.env.Input.Name, Cause: err}
	}

	r.logger.Info("cycle complete",
		"fetched", stats.Fetched,
		"events", stats.Emitted,
		"skipped", stats.Skipped,
		"committed", stats.Committed,
		"duration", r.now().Sub(started))
	return stats, nil
}

func (r *Runner) runCycle(ctx context.Context, now time.Time) (Stats, error) {
	var stats Stats

	if r.def.LookupOnly() {
		records, err := r.def.Collect(ctx, r.env, Window{End: now})
		stats.Fetched = len(records)
		return stats, err
	}

	start, found, err := r.checkpoints.Get(ctx, r.checkpointKey())
	if err != nil {
		return stats, err
	}
	if !found {
		start = r.def.Checkpoint(now, r.env.Input)
		r.logger.Debug("no checkpoint, using feed default", "start", start)
	}
	window := Window{Start: start, End: now}
	stats.Window = window

	records, err := r.def.Collect(ctx, r.env, window)
	if err != nil {
		return stats, err
	}
	stats.Fetched = len(records)

	for _, record := range records {
		if r.def.TimeFiltered && record.Time != nil && !record.Time.After(window.Start) {
			if !r.def.AdvisoryCheckpoint {
				stats.Skipped++
				continue
			}
			// Advisory mode: the record would be filtered, emit anyway.
		}

		payload, err := json.Marshal(record.Payload)
		if err != nil {
			stats.Skipped++
			r.logger.Warn("skipping record",
				feedlog.Error(&apperrors.TransformError{
					Feed:    r.def.Key,
					Message: "encode payload",
					Cause:   err,
				}))
			continue
		}

		err = r.events.Write(ctx, sink.Event{
			Payload:    payload,
			Index:      r.env.Input.Index,
			Sourcetype: r.def.Sourcetype,
			Time:       record.Time,
		})
		if err != nil {
			stats.Skipped++
			r.logger.Warn("skipping record", feedlog.Error(err))
			continue
		}
		stats.Emitted++
	}

	if stats.Emitted > 0 {
		if err := r.checkpoints.Update(ctx, r.checkpointKey(), window.End); err != nil {
			return stats, err
		}
		stats.Committed = true
		r.logger.Debug("checkpoint committed", "value", checkpoint.Format(window.End))
	}
	return stats, nil
}
