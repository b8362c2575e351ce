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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

func TestSchedulerRegister(t *testing.T) {
	ctx := context.Background()
	scheduler := NewScheduler(nil)
	defer scheduler.Stop()

	require.NoError(t, scheduler.Register(ctx, "queue_observations", 300))
	assert.Equal(t, 300, scheduler.Interval("queue_observations"))
	assert.Equal(t, []string{"queue_observations"}, scheduler.Inputs())
}

func TestSchedulerEnforcesMinimumInterval(t *testing.T) {
	ctx := context.Background()
	scheduler := NewScheduler(nil)
	defer scheduler.Stop()

	require.NoError(t, scheduler.Register(ctx, "queue_observations", 1))
	assert.Equal(t, MinPollInterval, scheduler.Interval("queue_observations"))
}

func TestSchedulerReregisterSameIntervalIsNoop(t *testing.T) {
	ctx := context.Background()
	scheduler := NewScheduler(nil)
	defer scheduler.Stop()

	require.NoError(t, scheduler.Register(ctx, "queue_observations", 300))
	require.NoError(t, scheduler.Register(ctx, "queue_observations", 300))
	assert.Len(t, scheduler.Inputs(), 1)
}

func TestSchedulerUnregister(t *testing.T) {
	ctx := context.Background()
	scheduler := NewScheduler(nil)
	defer scheduler.Stop()

	require.NoError(t, scheduler.Register(ctx, "queue_observations", 300))
	scheduler.Unregister("queue_observations")
	assert.Empty(t, scheduler.Inputs())
	assert.Zero(t, scheduler.Interval("queue_observations"))
}

func TestSchedulerRejectsRegisterAfterStop(t *testing.T) {
	scheduler := NewScheduler(nil)
	scheduler.Stop()

	err := scheduler.Register(context.Background(), "queue_observations", 300)
	assert.Error(t, err)
}

func TestAddJitterStaysWithinBounds(t *testing.T) {
	base := 100 * time.Second
	for i := 0; i < 50; i++ {
		jittered := addJitter(base)
		assert.GreaterOrEqual(t, jittered, 90*time.Second)
		assert.LessOrEqual(t, jittered, 110*time.Second)
	}
}

func TestBackoffEngagesAfterThreshold(t *testing.T) {
	now := testNow
	b := NewBackoff()
	b.now = func() time.Time { return now }

	failure := &apperrors.TransientError{Surface: "analytics", StatusCode: 502}

	b.RecordFailure("demo", failure)
	b.RecordFailure("demo", failure)
	assert.True(t, b.Allow("demo"), "two failures stay under the threshold")

	b.RecordFailure("demo", failure)
	assert.False(t, b.Allow("demo"))
	assert.Equal(t, 3, b.Failures("demo"))

	now = now.Add(31 * time.Second)
	assert.True(t, b.Allow("demo"), "first hold is 30 seconds")
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	now := testNow
	b := NewBackoff()
	b.now = func() time.Time { return now }

	failure := &apperrors.TransientError{Surface: "analytics", StatusCode: 502}
	for i := 0; i < 20; i++ {
		b.RecordFailure("demo", failure)
	}

	assert.False(t, b.Allow("demo"))
	now = now.Add(10*time.Minute + time.Second)
	assert.True(t, b.Allow("demo"), "delay is capped at ten minutes")
}

func TestBackoffRateLimitedEngagesImmediately(t *testing.T) {
	now := testNow
	b := NewBackoff()
	b.now = func() time.Time { return now }

	b.RecordFailure("demo", &apperrors.AuthError{StatusCode: 429, Message: "too many requests"})
	assert.False(t, b.Allow("demo"), "a provider rate limit holds on the first failure")
}

func TestBackoffSuccessClearsStreak(t *testing.T) {
	b := NewBackoff()
	failure := &apperrors.TransientError{Surface: "analytics", StatusCode: 502}

	b.RecordFailure("demo", failure)
	b.RecordFailure("demo", failure)
	b.RecordSuccess("demo")
	assert.Zero(t, b.Failures("demo"))
	assert.True(t, b.Allow("demo"))
}

func TestBackoffUnknownInputAllowed(t *testing.T) {
	b := NewBackoff()
	assert.True(t, b.Allow("never_seen"))
}
