package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/litescript/ls-chartcore/internal/chart"
	"github.com/litescript/ls-chartcore/internal/config"
	"github.com/litescript/ls-chartcore/internal/eclipse"
	"github.com/litescript/ls-chartcore/internal/ephem"
	"github.com/litescript/ls-chartcore/internal/logging"
	"github.com/litescript/ls-chartcore/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "ls-chartcore",
	Short: "Astronomical timing and geometry for natal charts",
	Long: `ls-chartcore finds planetary returns, maps astrocartography lines and
classifies eclipses against a natal chart stored as TOML.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setupRuntime,
	PersistentPostRunE: teardownRuntime,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default .ls-chartcore.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("evaluator", "analytic", "chart evaluator (analytic, horizons)")
	flags.String("house-system", ephem.HouseEqual, fmt.Sprintf("house system (%s, %s)", ephem.HouseEqual, ephem.HouseWholeSign))
	flags.Float64("orb", eclipse.DefaultOrb, "eclipse impact orb in degrees")
	flags.String("natal", "natal.toml", "natal chart TOML file")
	flags.String("catalog", "", "eclipse catalog TOML file (default built-in)")
	flags.String("cache", "", "sqlite evaluation cache path (empty disables)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.Bool("tracing", false, "print trace spans to stderr")

	for key, flag := range map[string]string{
		"log_level":    "log-level",
		"evaluator":    "evaluator",
		"house_system": "house-system",
		"orb":          "orb",
		"natal":        "natal",
		"catalog":      "catalog",
		"cache_path":   "cache",
		"metrics_addr": "metrics-addr",
		"tracing":      "tracing",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

// app is the shared state built before every command runs.
type app struct {
	cfg       config.Config
	log       *logging.Logger
	metrics   *observability.EngineCollector
	evaluator ephem.Evaluator

	cache         *ephem.CachedEvaluator
	metricsServer *http.Server
	shutdownTrace func(context.Context) error
}

var rt *app

func setupRuntime(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if err := config.Init(cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	r := &app{cfg: cfg, log: logging.New(logging.ParseLevel(cfg.LogLevel))}
	ctx := cmd.Context()

	r.shutdownTrace, err = observability.InitTracing(ctx, observability.TracingConfig{Enabled: cfg.Tracing}, r.log.Named("tracing"))
	if err != nil {
		return err
	}

	r.metrics, err = observability.NewEngineCollector(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if cfg.MetricsAddr != "" {
		r.metricsServer = serveMetrics(cfg.MetricsAddr, r.metrics, r.log.Named("metrics"))
	}

	r.evaluator, r.cache, err = buildEvaluator(ctx, cfg, r.log)
	if err != nil {
		return err
	}

	rt = r
	return nil
}

func teardownRuntime(cmd *cobra.Command, _ []string) error {
	if rt == nil {
		return nil
	}
	ctx := context.WithoutCancel(cmd.Context())

	if rt.cache != nil {
		stats := rt.cache.Stats()
		rt.metrics.SetCacheHitRatio(stats.HitRatio())
		rt.log.Debug("evaluation cache: %d hits, %d misses", stats.Hits, stats.Misses)
		if err := rt.cache.Close(); err != nil {
			rt.log.Warn("closing cache: %v", err)
		}
	}

	observability.ShutdownWithTimeout(ctx, rt.shutdownTrace, rt.log)

	if rt.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = rt.metricsServer.Shutdown(shutdownCtx)
	}
	return nil
}

func buildEvaluator(ctx context.Context, cfg config.Config, log *logging.Logger) (ephem.Evaluator, *ephem.CachedEvaluator, error) {
	var ev ephem.Evaluator
	switch cfg.Mode() {
	case ephem.ModeHorizons:
		ev = ephem.NewHorizonsEvaluator()
	default:
		ev = ephem.NewAnalyticEvaluator()
	}
	log.Debug("using %s evaluator", ev.Name())

	if cfg.CachePath == "" {
		return ev, nil, nil
	}
	cache, err := ephem.NewCachedEvaluator(ctx, ev, cfg.CachePath)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("caching evaluations in %s", cfg.CachePath)
	return cache, cache, nil
}

func serveMetrics(addr string, collector *observability.EngineCollector, log *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server exited: %v", err)
		}
	}()

	log.Info("serving Prometheus metrics on %s", addr)
	return srv
}

// loadNatal reads the configured natal chart.
func loadNatal() (*chart.Natal, error) {
	n, err := chart.LoadNatal(rt.cfg.Natal)
	if err != nil {
		return nil, err
	}
	rt.log.Debug("loaded chart %q from %s", n.Name, rt.cfg.Natal)
	return n, nil
}

// loadCatalog reads the configured catalog, or the built-in one.
func loadCatalog() ([]eclipse.Event, error) {
	if rt.cfg.Catalog == "" {
		return eclipse.DefaultCatalog(), nil
	}
	return eclipse.LoadCatalog(rt.cfg.Catalog)
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
}
