package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/httpfetch"
	kafkaadapter "github.com/couchcryptid/covid-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
	"github.com/couchcryptid/covid-data-etl/internal/source"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "run <source>... | all",
		Short: "Runs the named sources in order, stopping at the first failure.",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError{fmt.Errorf("no source given; available: %v", source.Names())}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := resolve(args)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return usageError{err}
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			return runSources(cmd.Context(), cfg, entries)
		},
	}
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "output root (overrides OUTPUT_DIR)")
	return cmd
}

// resolve maps arguments to registry entries; "all" selects every source.
func resolve(args []string) ([]source.Entry, error) {
	if len(args) == 1 && args[0] == "all" {
		return source.All(), nil
	}
	entries := make([]source.Entry, 0, len(args))
	for _, name := range args {
		e, ok := source.Get(name)
		if !ok {
			return nil, usageError{fmt.Errorf("unknown source %q; available: %v", name, source.Names())}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func runSources(ctx context.Context, cfg *config.Config, entries []source.Entry) error {
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var publisher domain.CatalogPublisher
	if cfg.CatalogEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		publisher = writer
		logger.Info("catalog announcements enabled", "topic", cfg.CatalogKafkaTopic)
	}

	fetcher := httpfetch.NewClient(cfg.HTTPTimeout, cfg.HTTPUserAgent, metrics, logger)
	runner := pipeline.NewRunner(csvfile.New(cfg.OutputDir), publisher, metrics, logger)
	defer pushMetrics(cfg, metrics, logger)

	for _, e := range entries {
		src := e.New(source.Deps{Fetcher: fetcher, Logger: logger.With("source", e.Name)})
		if err := runner.Run(ctx, src); err != nil {
			return err
		}
	}
	return nil
}

func pushMetrics(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := metrics.Push(ctx, cfg.PushgatewayURL, "covid_etl"); err != nil {
		logger.Error("metrics push failed", "error", err)
	}
}
