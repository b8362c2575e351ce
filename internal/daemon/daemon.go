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

// Package daemon wires configuration, credentials, stores, and feeds into
// a running connector, either for a single cycle or a long-lived serve
// loop.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/tombee/genesysfeed/internal/checkpoint"
	"github.com/tombee/genesysfeed/internal/config"
	"github.com/tombee/genesysfeed/internal/feed"
	"github.com/tombee/genesysfeed/internal/genesys"
	feedlog "github.com/tombee/genesysfeed/internal/log"
	"github.com/tombee/genesysfeed/internal/lookup"
	"github.com/tombee/genesysfeed/internal/secrets"
	"github.com/tombee/genesysfeed/internal/sink"
	"github.com/tombee/genesysfeed/internal/statuspage"
	"github.com/tombee/genesysfeed/pkg/httpclient"
)

// Options contains daemon options set at build time.
type Options struct {
	Version string

	// DryRun writes events to stdout instead of the configured sink.
	DryRun bool
}

// defaultInterval is used in serve mode when an input carries none.
const defaultInterval = 300

// Daemon owns the wired connector: one gateway per account, shared state
// stores, one runner per configured feed input.
type Daemon struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	checkpoints *checkpoint.SQLiteStore
	lookups     *lookup.SQLiteStore
	events      sink.Sink
	metrics     *feed.Metrics
	provider    *sdkmetric.MeterProvider

	runners map[string]*feed.Runner

	scheduler     *feed.Scheduler
	backoff       *feed.Backoff
	metricsServer *http.Server
}

// New wires a daemon from configuration. Credentials are resolved for
// every referenced account up front so misconfiguration fails fast.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := httpclient.New(httpclient.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("daemon: building http client: %w", err)
	}

	resolver := secrets.NewResolver(
		secrets.NewStaticBackend(accountCredentials(cfg)),
		secrets.NewEnvBackend(),
	)

	gateways := make(map[string]*genesys.Gateway)
	for _, input := range cfg.Feeds {
		if _, done := gateways[input.Account]; done {
			continue
		}
		creds, err := resolver.Resolve(ctx, input.Account)
		if err != nil {
			return nil, fmt.Errorf("daemon: account %s: %w", input.Account, err)
		}
		session, err := genesys.NewSession(creds, client)
		if err != nil {
			return nil, fmt.Errorf("daemon: account %s: %w", input.Account, err)
		}
		gateways[input.Account] = genesys.NewGateway(session, client, logger)
	}

	checkpoints, err := checkpoint.NewSQLiteStore(checkpoint.SQLiteConfig{
		Path: cfg.Store.CheckpointPath,
	})
	if err != nil {
		return nil, fmt.Errorf("daemon: opening checkpoint store: %w", err)
	}
	lookups, err := lookup.NewSQLiteStore(lookup.SQLiteConfig{
		Path: cfg.Store.LookupPath,
	})
	if err != nil {
		checkpoints.Close()
		return nil, fmt.Errorf("daemon: opening lookup store: %w", err)
	}

	events, err := buildSink(cfg, client, opts)
	if err != nil {
		checkpoints.Close()
		lookups.Close()
		return nil, err
	}

	exporter, err := otelprom.New()
	if err != nil {
		checkpoints.Close()
		lookups.Close()
		return nil, fmt.Errorf("daemon: creating metrics exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	metrics, err := feed.NewMetrics(provider)
	if err != nil {
		checkpoints.Close()
		lookups.Close()
		return nil, fmt.Errorf("daemon: creating metrics: %w", err)
	}

	status := statuspage.New("", client)

	d := &Daemon{
		cfg:         cfg,
		opts:        opts,
		logger:      logger,
		checkpoints: checkpoints,
		lookups:     lookups,
		events:      events,
		metrics:     metrics,
		provider:    provider,
		runners:     make(map[string]*feed.Runner, len(cfg.Feeds)),
		backoff:     feed.NewBackoff(),
	}

	for _, input := range cfg.Feeds {
		def, err := feed.ByKey(input.Feed)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("daemon: feed %s: %w", input.Name, err)
		}
		env := &feed.Env{
			Gateway: gateways[input.Account],
			Status:  status,
			Lookups: lookups,
			Logger:  logger,
			Input:   input,
		}
		d.runners[input.Name] = feed.NewRunner(def, env, checkpoints, events, logger, metrics)
	}
	d.scheduler = feed.NewScheduler(d.handlePoll)

	return d, nil
}

// accountCredentials maps the config accounts into resolver credentials.
func accountCredentials(cfg *config.Config) map[string]secrets.Credentials {
	out := make(map[string]secrets.Credentials, len(cfg.Accounts))
	for name, acct := range cfg.Accounts {
		out[name] = secrets.Credentials{
			ClientID:     acct.ClientID,
			ClientSecret: acct.ClientSecret,
			Region:       acct.Region,
		}
	}
	return out
}

func buildSink(cfg *config.Config, client *http.Client, opts Options) (sink.Sink, error) {
	if opts.DryRun || cfg.Sink.URL == "" {
		return sink.NewWriterSink(os.Stdout), nil
	}
	events, err := sink.NewSplunkSink(sink.SplunkConfig{
		BaseURL: cfg.Sink.URL,
		Token:   cfg.Sink.Token,
	}, client)
	if err != nil {
		return nil, fmt.Errorf("daemon: building sink: %w", err)
	}
	return events, nil
}

// RunOnce executes a single cycle for the named input.
func (d *Daemon) RunOnce(ctx context.Context, inputName string) (feed.Stats, error) {
	runner, exists := d.runners[inputName]
	if !exists {
		return feed.Stats{}, fmt.Errorf("daemon: unknown feed input %q", inputName)
	}
	return runner.RunCycle(ctx)
}

// Serve runs all configured inputs on their polling intervals until the
// context is cancelled.
func (d *Daemon) Serve(ctx context.Context) error {
	if addr := d.cfg.Metrics.Addr; addr != "" {
		d.startMetricsServer(addr)
	}

	for _, input := range d.cfg.Feeds {
		interval := input.Interval
		if interval <= 0 {
			interval = defaultInterval
		}
		if err := d.scheduler.Register(ctx, input.Name, interval); err != nil {
			return fmt.Errorf("daemon: registering %s: %w", input.Name, err)
		}
		d.logger.Info("feed registered",
			"feed", input.Feed,
			"input", input.Name,
			"interval", interval)
	}
	d.metrics.SetActiveFeeds(len(d.cfg.Feeds))

	<-ctx.Done()

	d.scheduler.Stop()
	d.metrics.SetActiveFeeds(0)
	if d.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.metricsServer.Shutdown(shutdownCtx)
	}
	return nil
}

// handlePoll runs one cycle for a fired timer, honoring failure backoff.
func (d *Daemon) handlePoll(ctx context.Context, inputName string) error {
	if !d.backoff.Allow(inputName) {
		d.logger.Debug("input backed off, skipping tick", "input", inputName)
		return nil
	}

	_, err := d.RunOnce(ctx, inputName)
	if err != nil {
		d.backoff.RecordFailure(inputName, err)
		return err
	}
	d.backoff.RecordSuccess(inputName)
	return nil
}

func (d *Daemon) startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	d.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := d.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("metrics server failed", feedlog.Error(err))
		}
	}()
	d.logger.Info("metrics endpoint listening", "addr", addr)
}

// Close releases the daemon's stores and metric pipeline.
func (d *Daemon) Close() error {
	var errs []error
	if d.checkpoints != nil {
		errs = append(errs, d.checkpoints.Close())
	}
	if d.lookups != nil {
		errs = append(errs, d.lookups.Close())
	}
	if d.provider != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		errs = append(errs, d.provider.Shutdown(shutdownCtx))
	}
	return errors.Join(errs...)
}
