// Command cacheservice binds the caches described by its settings, serves the management API and
// shuts everything down on SIGINT or SIGTERM.
//
// Settings are read from cacheservice.{yaml,json,toml} in the working directory or /etc/cacheservice,
// or from the file named by CACHESERVICE_SETTINGS. Environment variables prefixed with
// CACHESERVICE_ take precedence, e.g. CACHESERVICE_CACHE_MAXENTRIES.
//
//	cache:
//	  config: file:///etc/cacheservice/engine.yaml
//	  name: default
//	shop:
//	  cache: { config: ..., name: shop, cacheMode: LRU, maxEntries: 10000 }
//	bindings:
//	  annotated: [shop]
//	  instances: [sessions]
//	management:
//	  addr: 127.0.0.1:8089
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyp3rd/ewrap"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hyp3rd/cacheservice"
	"github.com/hyp3rd/cacheservice/pkg/config"
	"github.com/hyp3rd/cacheservice/pkg/middleware"
)

const (
	envPrefix       = "CACHESERVICE"
	instrumentation = "github.com/hyp3rd/cacheservice"
	shutdownTimeout = 10 * time.Second
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, logger)
	if err != nil {
		logger.Error().Err(err).Msg("cacheservice failed")
		stop()
		os.Exit(1) //nolint:gocritic
	}
}

func run(ctx context.Context, logger zerolog.Logger) error {
	settings, err := readSettings()
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(settings.GetString("log.level"))
	if err == nil {
		logger = logger.Level(level)
	}

	modules, err := modulesFrom(settings)
	if err != nil {
		return err
	}

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	stats, err := middleware.NewStatsCollector(metrics, "cacheservice")
	if err != nil {
		return err
	}

	otelMetrics, err := middleware.OTelMetrics(otel.Meter(instrumentation))
	if err != nil {
		return err
	}

	callLogger := logger.With().Str("component", "middleware").Logger()

	registry := cacheservice.NewRegistry(
		cacheservice.WithRegistryLogger(logger),
		cacheservice.WithMiddleware(
			middleware.Logging(&callLogger),
			middleware.Tracing(otel.Tracer(instrumentation), middleware.WithCommonAttributes(attribute.String("component", "cacheservice"))),
			otelMetrics,
			stats.Middleware(),
		),
	)

	source := config.Chain(config.EnvSource{Prefix: envPrefix}, config.NewViperSource(settings))
	factory := cacheservice.NewFactory(cacheservice.WithFactoryLogger(logger))

	err = registry.Install(ctx, source, factory, modules...)
	if err != nil {
		return err
	}

	mgmt := cacheservice.NewManagementHTTPServer(settings.GetString("management.addr"),
		cacheservice.WithMgmtLogger(logger),
		cacheservice.WithMgmtMetrics(metrics),
	)

	err = mgmt.Start(ctx, registry)
	if err != nil {
		return errors.Join(err, registry.Shutdown(context.WithoutCancel(ctx)))
	}

	logger.Info().Str("addr", mgmt.Address()).Strs("bindings", registry.Tokens()).Msg("cacheservice started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	logger.Info().Msg("shutting down")

	return errors.Join(mgmt.Shutdown(shutdownCtx), registry.Shutdown(shutdownCtx))
}

func readSettings() (*viper.Viper, error) {
	settings := viper.New()
	settings.SetDefault("management.addr", "127.0.0.1:8089")
	settings.SetDefault("log.level", "info")
	settings.SetEnvPrefix(envPrefix)
	settings.AutomaticEnv()

	settings.SetConfigName("cacheservice")
	settings.AddConfigPath(".")
	settings.AddConfigPath("/etc/cacheservice")

	if file := os.Getenv(envPrefix + "_SETTINGS"); file != "" {
		settings.SetConfigFile(file)
	}

	err := settings.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, ewrap.Wrap(err, "read settings")
		}
	}

	return settings, nil
}

// modulesFrom returns the default module plus one module per configured binding.
func modulesFrom(settings *viper.Viper) ([]cacheservice.Module, error) {
	modules := []cacheservice.Module{cacheservice.DefaultModule()}

	for _, prefix := range settings.GetStringSlice("bindings.annotated") {
		m, err := cacheservice.AnnotatedWith(prefix, prefix)
		if err != nil {
			return nil, err
		}

		modules = append(modules, m)
	}

	for _, instance := range settings.GetStringSlice("bindings.instances") {
		m, err := cacheservice.NamedInstance(instance, instance)
		if err != nil {
			return nil, err
		}

		modules = append(modules, m)
	}

	return modules, nil
}
