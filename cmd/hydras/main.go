// Command hydras runs the buoy monitoring daemon: it trains the random forest
// on the stored (or freshly generated) dataset, classifies a simulated
// reading on every interval, and serves the results over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/hydras3/hydras/internal/adapter/http"
	kafkaadapter "github.com/hydras3/hydras/internal/adapter/kafka"
	"github.com/hydras3/hydras/internal/config"
	"github.com/hydras3/hydras/internal/dataset"
	"github.com/hydras3/hydras/internal/monitor"
	"github.com/hydras3/hydras/internal/observability"
	"github.com/hydras3/hydras/internal/sensor"
	"github.com/hydras3/hydras/pkg/log"
	"github.com/hydras3/hydras/sklearn/ensemble"
)

func main() {
	if err := run(); err != nil {
		slog.Error("hydras exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "optional config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := log.SetupLogger(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	warnings, err := log.NewZerolog(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	log.InstallWarningSink(warnings)

	metrics := observability.NewMetrics()

	store, err := dataset.Open(cfg.Store.Kind, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open dataset store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("dataset store close error", "error", err)
		}
	}()
	logger.Info("dataset store ready", log.StoreKey, cfg.Store.Kind, "path", cfg.Store.Path)

	forest := ensemble.NewRandomForestClassifier(
		ensemble.WithNEstimators(cfg.Forest.Trees),
		ensemble.WithMaxDepth(cfg.Forest.MaxDepth),
		ensemble.WithMinSamplesSplit(cfg.Forest.MinSamplesSplit),
		ensemble.WithSampleRatio(cfg.Forest.SampleRatio),
		ensemble.WithMaxFeatures(cfg.Forest.MaxFeatures),
		ensemble.WithRandomState(cfg.Forest.RandomState),
		ensemble.WithNJobs(cfg.Forest.NJobs),
		ensemble.WithLogger(log.FromSlog(logger).With(log.ModelNameKey, "RandomForestClassifier")),
	)

	var simOpts []sensor.Option
	if cfg.SimulatorSeed >= 0 {
		seed := uint64(cfg.SimulatorSeed)
		simOpts = append(simOpts, sensor.WithRandSource(rand.NewPCG(seed, seed)))
	}
	sim := sensor.NewSimulator(simOpts...)

	monOpts := []monitor.Option{
		monitor.WithInterval(cfg.ReadingInterval),
		monitor.WithSamplesPerBuoy(cfg.SamplesPerBuoy),
		monitor.WithBuoy(cfg.SelectedBuoy),
	}
	var writer *kafkaadapter.Writer
	if cfg.Kafka.Enabled() {
		writer = kafkaadapter.NewWriter(cfg.Kafka, logger)
		monOpts = append(monOpts, monitor.WithSink(writer))
		logger.Info("kafka sink enabled", log.TopicKey, cfg.Kafka.Topic, "brokers", cfg.Kafka.Brokers)
	} else {
		logger.Info("kafka sink disabled")
	}

	mon := monitor.New(forest, sim, store, metrics, logger, monOpts...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, mon, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Serve health and metrics while the forest trains; /readyz reports 503
	// until it is fitted.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	runErr := func() error {
		if err := mon.Train(ctx); err != nil {
			return fmt.Errorf("train forest: %w", err)
		}
		return mon.Run(ctx)
	}()
	if runErr != nil {
		logger.Error("monitor error", "error", runErr)
		stop()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}
