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
	"time"

	"github.com/tombee/genesysfeed/internal/config"
)

// Policy computes a feed's first-run window start when no checkpoint
// exists. Each feed carries the default its data volume and provider
// retention call for.
type Policy func(now time.Time, input config.FeedInput) time.Time

// EpochZero starts from the beginning of time, for feeds whose endpoints
// only return current state.
func EpochZero(_ time.Time, _ config.FeedInput) time.Time {
	return time.Unix(0, 0).UTC()
}

// MinutesAgo starts n minutes before now.
func MinutesAgo(n int) Policy {
	return func(now time.Time, _ config.FeedInput) time.Time {
		return now.Add(-time.Duration(n) * time.Minute)
	}
}

// DaysAgo starts n days before now.
func DaysAgo(n int) Policy {
	return func(now time.Time, _ config.FeedInput) time.Time {
		return now.AddDate(0, 0, -n)
	}
}

// YearsAgo starts n years before now.
func YearsAgo(n int) Policy {
	return func(now time.Time, _ config.FeedInput) time.Time {
		return now.AddDate(-n, 0, 0)
	}
}

// StartOfUTCDay starts at midnight UTC of the current day.
func StartOfUTCDay(now time.Time, _ config.FeedInput) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// IntervalAgo starts one polling interval before now, falling back to
// 5 minutes when the input carries no interval.
func IntervalAgo(now time.Time, input config.FeedInput) time.Time {
	seconds := input.Interval
	if seconds <= 0 {
		seconds = 300
	}
	return now.Add(-time.Duration(seconds) * time.Second)
}

// StartDateOr uses the input's start_date when set, otherwise the fallback
// policy. start_date is validated as YYYY-MM-DD at config load.
func StartDateOr(fallback Policy) Policy {
	return func(now time.Time, input config.FeedInput) time.Time {
		if input.StartDate != "" {
			if t, err := time.Parse("2006-01-02", input.StartDate); err == nil {
				return t.UTC()
			}
		}
		return fallback(now, input)
	}
}
