package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mohamedmamdouh22/proxy-checker-app/internal/analytics"
	"github.com/mohamedmamdouh22/proxy-checker-app/internal/checker"
	"github.com/mohamedmamdouh22/proxy-checker-app/internal/config"
	"github.com/mohamedmamdouh22/proxy-checker-app/internal/geoip"
	"github.com/mohamedmamdouh22/proxy-checker-app/internal/httpapi"
	"github.com/mohamedmamdouh22/proxy-checker-app/internal/logging"
	"github.com/mohamedmamdouh22/proxy-checker-app/internal/output"
	"github.com/mohamedmamdouh22/proxy-checker-app/internal/parser"
)

func main() {
	var (
		configPath   = flag.String("config", "", "path to YAML config file")
		listenAddr   = flag.String("listen", "", "listen address for the HTTP API (overrides config)")
		input        = flag.String("input", "", "one-shot mode: file path or URL with a proxy list")
		outputFile   = flag.String("output", "", "optional path to write one-shot results (json/csv)")
		outputFormat = flag.String("format", "json", "output format: json | csv")
		timeoutSec   = flag.Int("timeout", 0, "per-proxy timeout in seconds (overrides config)")
		concurrency  = flag.Int("concurrency", 0, "max concurrent checks (overrides config)")
		verbose      = flag.Bool("verbose", false, "enable debug logs")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *timeoutSec > 0 {
		cfg.DefaultTimeoutSec = *timeoutSec
	}
	if *concurrency > 0 {
		cfg.DefaultMaxConcurrent = *concurrency
	}
	if *verbose {
		cfg.Verbose = true
	}

	log := logging.NewLogger(cfg.Verbose)

	opts := checker.Options{
		TestURL: cfg.TestURL,
		Timeout: cfg.DefaultTimeout(),
		Logger:  log,
	}
	if cfg.GeoIPDB != "" {
		resolver, err := geoip.Open(cfg.GeoIPDB)
		if err != nil {
			log.Error("failed to open geoip database", "path", cfg.GeoIPDB, "err", err)
			os.Exit(1)
		}
		defer resolver.Close()
		opts.Resolver = resolver
	}
	chk := checker.New(opts)

	if *input != "" {
		os.Exit(runOnce(chk, cfg, log, *input, *outputFile, *outputFormat))
	}

	runServer(chk, cfg, log)
}

// runOnce checks a proxy list from a file or URL and prints the results.
func runOnce(chk *checker.Checker, cfg config.Settings, log *slog.Logger, input, outputFile, outputFormat string) int {
	var proxies []string
	var err error
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		proxies, err = parser.FetchFromURL(input, cfg.DefaultTimeout())
	} else {
		proxies, err = parser.LoadFromFile(input)
	}
	if err != nil {
		log.Error("failed to load proxies", "err", err)
		return 1
	}

	log.Info("proxies loaded", "count", len(proxies))

	start := time.Now()
	report := chk.CheckBatch(context.Background(), proxies, cfg.DefaultTimeout(), cfg.DefaultMaxConcurrent)
	stats := analytics.Compute(report, time.Since(start))

	output.PrintResultsTable(os.Stdout, report.Results)
	output.PrintSummary(os.Stdout, stats)

	if outputFile != "" {
		if err := output.WriteFile(outputFile, outputFormat, report, stats); err != nil {
			log.Error("failed to write output file", "err", err, "path", outputFile)
			return 1
		}
		log.Info("results written", "path", outputFile, "format", outputFormat)
	}
	return 0
}

func runServer(chk *checker.Checker, cfg config.Settings, log *slog.Logger) {
	srv := httpapi.NewServer(chk, cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("http server failed", "err", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "err", err)
		}
	}
}
