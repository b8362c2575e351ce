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

// Package config loads and validates the connector configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config represents the complete connector configuration.
type Config struct {
	// Accounts maps account names to credential references.
	Accounts map[string]Account `yaml:"accounts"`

	// Feeds lists the polling inputs to run.
	Feeds []FeedInput `yaml:"feeds"`

	// Sink configures the event sink (Splunk HEC).
	Sink SinkConfig `yaml:"sink"`

	// Store configures durable state paths.
	Store StoreConfig `yaml:"store"`

	// Metrics configures the serve-mode metrics endpoint.
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// Account holds provider credentials for one organization. Secret values must
// use ${ENV_VAR} references; plain secrets in the file are rejected.
type Account struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Region       string `yaml:"region"`
}

// FeedInput is the per-feed configuration supplied by the operator, mirroring
// the input stanza the hosting scheduler would pass.
type FeedInput struct {
	// Feed is the feed key, e.g. "queue_observations".
	Feed string `yaml:"feed"`

	// Name optionally distinguishes multiple inputs of the same feed.
	// Defaults to the feed key; also used as the checkpoint key.
	Name string `yaml:"name,omitempty"`

	// Account names the credential set to use.
	Account string `yaml:"account"`

	// Index is the destination index for emitted events.
	Index string `yaml:"index"`

	// Interval is the polling interval in seconds (serve mode).
	Interval int `yaml:"interval"`

	// MediaTypes is a "|"-joined list, e.g. "chat|voice".
	MediaTypes string `yaml:"media_types,omitempty"`

	// Direction is a "|"-joined list, e.g. "inbound|outbound".
	Direction string `yaml:"direction,omitempty"`

	// StartDate optionally overrides the first-run window start, "YYYY-MM-DD".
	StartDate string `yaml:"start_date,omitempty"`
}

// SinkConfig configures the Splunk HEC event sink.
type SinkConfig struct {
	// URL is the HEC base URL, e.g. "https://splunk.example.com:8088".
	URL string `yaml:"url"`

	// Token is the HEC token. Must use ${ENV_VAR} syntax.
	Token string `yaml:"token"`

	// Timeout is the per-request timeout. Default: 30s.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// StoreConfig configures the SQLite-backed state stores.
type StoreConfig struct {
	// CheckpointPath is the checkpoint database file.
	// Default: ~/.local/share/genesysfeed/checkpoints.db
	CheckpointPath string `yaml:"checkpoint_path,omitempty"`

	// LookupPath is the lookup-table database file.
	// Default: ~/.local/share/genesysfeed/lookups.db
	LookupPath string `yaml:"lookup_path,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint exposed in serve mode.
type MetricsConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:9090". Empty disables it.
	Addr string `yaml:"addr,omitempty"`
}

var envRefPattern = regexp.MustCompile(`\$\{[A-Za-z_][A-Za-z0-9_]*\}`)

// Load reads, expands, and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.expandEnv()
	return &cfg, nil
}

// Validate checks cross-field constraints before environment expansion.
func (c *Config) Validate() error {
	if len(c.Feeds) == 0 {
		return fmt.Errorf("%w: no feeds configured", ErrInvalidConfig)
	}

	for i := range c.Feeds {
		f := &c.Feeds[i]
		if f.Feed == "" {
			return fmt.Errorf("%w: feeds[%d]: feed is required", ErrInvalidConfig, i)
		}
		if f.Name == "" {
			f.Name = f.Feed
		}
		if f.Account == "" {
			return fmt.Errorf("%w: feed %s: account is required", ErrInvalidConfig, f.Name)
		}
		if _, ok := c.Accounts[f.Account]; !ok {
			return fmt.Errorf("%w: feed %s: unknown account %q", ErrInvalidConfig, f.Name, f.Account)
		}
		if f.Index == "" {
			return fmt.Errorf("%w: feed %s: index is required", ErrInvalidConfig, f.Name)
		}
		if f.StartDate != "" {
			if _, err := time.Parse("2006-01-02", f.StartDate); err != nil {
				return fmt.Errorf("%w: feed %s: invalid start_date %q", ErrInvalidConfig, f.Name, f.StartDate)
			}
		}
	}

	for name, acct := range c.Accounts {
		if acct.ClientID == "" || acct.ClientSecret == "" || acct.Region == "" {
			return fmt.Errorf("%w: account %s: client_id, client_secret and region are required", ErrInvalidConfig, name)
		}
		if !envRefPattern.MatchString(acct.ClientSecret) {
			return fmt.Errorf("%w: account %s: client_secret must use ${ENV_VAR} syntax", ErrInvalidConfig, name)
		}
	}

	if c.Sink.URL != "" && c.Sink.Token != "" && !envRefPattern.MatchString(c.Sink.Token) {
		return fmt.Errorf("%w: sink token must use ${ENV_VAR} syntax", ErrInvalidConfig)
	}

	return nil
}

// expandEnv resolves ${ENV_VAR} references in secret-bearing fields.
func (c *Config) expandEnv() {
	for name, acct := range c.Accounts {
		acct.ClientID = os.ExpandEnv(acct.ClientID)
		acct.ClientSecret = os.ExpandEnv(acct.ClientSecret)
		c.Accounts[name] = acct
	}
	c.Sink.Token = os.ExpandEnv(c.Sink.Token)
}

// MediaTypesList splits the "|"-joined media_types value.
func (f *FeedInput) MediaTypesList() []string {
	return splitPipes(f.MediaTypes)
}

// DirectionList splits the "|"-joined direction value.
func (f *FeedInput) DirectionList() []string {
	return splitPipes(f.Direction)
}

func splitPipes(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// FeedByName returns the feed input with the given name.
func (c *Config) FeedByName(name string) (*FeedInput, bool) {
	for i := range c.Feeds {
		if c.Feeds[i].Name == name {
			return &c.Feeds[i], true
		}
	}
	return nil, false
}
