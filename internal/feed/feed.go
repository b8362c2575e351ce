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

// Package feed defines the polling feeds and the cycle engine that runs
// them: load checkpoint, fetch, normalize, emit, commit.
package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/tombee/genesysfeed/internal/config"
	"github.com/tombee/genesysfeed/internal/genesys"
	"github.com/tombee/genesysfeed/internal/lookup"
	"github.com/tombee/genesysfeed/internal/statuspage"
)

// Window is one collection window. Start is the checkpoint (or the feed's
// first-run default); End is captured once at cycle start and becomes the
// committed checkpoint when the cycle emits.
type Window struct {
	Start time.Time
	End   time.Time
}

// Record is one normalized event produced by a collector.
type Record struct {
	// Payload is the event body.
	Payload map[string]any

	// Time is the event timestamp; nil leaves assignment to the sink
	// backend.
	Time *time.Time
}

// Env carries the dependencies collectors run against. Gateway is nil for
// feeds that do not talk to the authenticated API (status page).
type Env struct {
	Gateway *genesys.Gateway
	Status  *statuspage.Client
	Lookups lookup.Store
	Logger  *slog.Logger
	Input   config.FeedInput
}

// CollectFunc fetches and normalizes one cycle's records.
type CollectFunc func(ctx context.Context, env *Env, window Window) ([]Record, error)

// Definition describes one feed.
type Definition struct {
	// Key identifies the feed and its checkpoint.
	Key string

	// Sourcetype classifies emitted events; empty for lookup-only feeds.
	Sourcetype string

	// Checkpoint supplies the first-run window start. Nil marks a
	// lookup-only feed that carries no checkpoint.
	Checkpoint Policy

	// TimeFiltered drops records whose event time is not after the window
	// start.
	TimeFiltered bool

	// AdvisoryCheckpoint evaluates the time filter but emits regardless.
	// Kept for feeds whose event timestamps proved unreliable; the
	// checkpoint still commits, so operators can see progression.
	AdvisoryCheckpoint bool

	// Collect fetches and normalizes the cycle's records.
	Collect CollectFunc
}

// LookupOnly reports whether the feed maintains lookup tables without
// emitting events.
func (d Definition) LookupOnly() bool {
	return d.Checkpoint == nil && d.Sourcetype == ""
}
