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

// Package cli implements the genesysfeed command tree.
package cli

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tombee/genesysfeed/internal/config"
	"github.com/tombee/genesysfeed/internal/feed"
	feedlog "github.com/tombee/genesysfeed/internal/log"
)

var version = "dev"

// SetVersion sets the version information (called from main).
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// NewRootCommand creates the root Cobra command for genesysfeed.
func NewRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "genesysfeed",
		Short: "Genesys Cloud polling connector",
		Long: `genesysfeed polls the Genesys Cloud REST APIs for contact center
analytics, directory, telephony, audit, and status data and republishes
the results as timestamped events into a Splunk HEC endpoint, keeping a
durable per-feed checkpoint so each cycle picks up where the last one
left off.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "genesysfeed.yaml", "Path to config file")

	cmd.AddCommand(
		newRunCommand(&configPath),
		newServeCommand(&configPath),
		newFeedsCommand(),
		newVersionCommand(),
	)

	return cmd
}

// newLogger builds the process logger from the environment.
func newLogger() *slog.Logger {
	logger := feedlog.New(feedlog.FromEnv())
	slog.SetDefault(logger)
	return logger
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func newFeedsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "feeds",
		Short: "List the available feeds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "FEED\tSOURCETYPE")
			for _, def := range feed.Definitions() {
				sourcetype := def.Sourcetype
				if def.LookupOnly() {
					sourcetype = "(lookup only)"
				}
				fmt.Fprintf(w, "%s\t%s\n", def.Key, sourcetype)
			}
			return w.Flush()
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "genesysfeed %s\n", version)
		},
	}
}
