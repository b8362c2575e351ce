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

// Package checkpoint persists per-feed high-water marks. Feeds read their
// checkpoint at cycle start and commit the captured window end only after
// at least one event was emitted, giving at-least-once delivery across
// restarts.
package checkpoint

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical stored representation, UTC RFC 3339 with
// millisecond precision.
const Layout = "2006-01-02T15:04:05.000Z"

// Store reads and writes feed checkpoints. Implementations must make
// Update atomic per key.
type Store interface {
	// Get returns the checkpoint for key. The second return reports
	// whether a checkpoint exists.
	Get(ctx context.Context, key string) (time.Time, bool, error)

	// Update sets the checkpoint for key.
	Update(ctx context.Context, key string, t time.Time) error
}

// Format renders a checkpoint in the canonical representation.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

// Parse reads a stored checkpoint value. Values written by earlier
// deployments may be epoch seconds (with an optional fraction); those are
// converted so an upgrade never resets a feed to its default window.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		sec := int64(seconds)
		nsec := int64((seconds - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
