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

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/genesysfeed/internal/daemon"
)

func newRunCommand(configPath *string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run <input-name>",
		Short: "Run a single cycle for one configured feed input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if _, exists := cfg.FeedByName(args[0]); !exists {
				return fmt.Errorf("no feed input named %q in %s", args[0], *configPath)
			}

			d, err := daemon.New(cmd.Context(), cfg, logger, daemon.Options{
				Version: version,
				DryRun:  dryRun,
			})
			if err != nil {
				return err
			}
			defer d.Close()

			stats, err := d.RunOnce(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "fetched %d, emitted %d, skipped %d, committed %t\n",
				stats.Fetched, stats.Emitted, stats.Skipped, stats.Committed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write events to stdout instead of the sink")

	return cmd
}
