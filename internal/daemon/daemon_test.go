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

package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/genesysfeed/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("TEST_GC_SECRET", "s3cret")

	dir := t.TempDir()
	cfg, err := config.Parse([]byte(`
accounts:
  main:
    client_id: client-1
    client_secret: ${TEST_GC_SECRET}
    region: us_east_1
feeds:
  - feed: queue_observations
    account: main
    index: genesys
    interval: 300
store:
  checkpoint_path: ` + filepath.Join(dir, "checkpoints.db") + `
  lookup_path: ` + filepath.Join(dir, "lookups.db") + `
`))
	require.NoError(t, err)
	return cfg
}

func TestNewWiresConfiguredFeeds(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.DiscardHandler)

	d, err := New(context.Background(), cfg, logger, Options{DryRun: true})
	require.NoError(t, err)
	defer d.Close()

	_, err = d.RunOnce(context.Background(), "no_such_input")
	assert.ErrorContains(t, err, "unknown feed input")
}

func TestNewRejectsUnknownFeedKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Feeds[0].Feed = "not_a_feed"
	cfg.Feeds[0].Name = "not_a_feed"

	_, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler), Options{DryRun: true})
	require.Error(t, err)
	assert.ErrorContains(t, err, "unknown feed")
}

func TestNewRejectsUnknownRegion(t *testing.T) {
	cfg := testConfig(t)
	acct := cfg.Accounts["main"]
	acct.Region = "mars_central_1"
	cfg.Accounts["main"] = acct

	_, err := New(context.Background(), cfg, slog.New(slog.DiscardHandler), Options{DryRun: true})
	require.Error(t, err)
}
