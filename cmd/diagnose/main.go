// Command diagnose probes every configured source once, bypassing the caches,
// and reports which ones are reachable and produce usable articles.
//
// Usage:
//
//	diagnose                      # text report for the default source list
//	diagnose --sources s.yaml -j  # JSON report for a custom list
//	diagnose --strict             # exit 1 when any source fails
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"feedhub/internal/config"
	"feedhub/internal/infra/scraper"
	"feedhub/internal/observability/logging"
	"feedhub/internal/resilience/retry"
)

var version = "dev"

// errUnhealthy makes --strict runs exit non-zero without printing usage.
var errUnhealthy = errors.New("one or more sources failed")

type diagnoseFlags struct {
	sourcesFile string
	timeout     time.Duration
	jsonOutput  bool
	strict      bool
	retries     bool
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var f diagnoseFlags

	cmd := &cobra.Command{
		Use:          "diagnose",
		Short:        "Probe every configured news source",
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDiagnose(ctx, out, f)
		},
	}

	cmd.Flags().StringVarP(&f.sourcesFile, "sources", "s", "", "source list YAML (default: SOURCES_FILE or the embedded list)")
	cmd.Flags().DurationVarP(&f.timeout, "timeout", "t", 0, "per-source timeout (default: FEED_TIMEOUT)")
	cmd.Flags().BoolVarP(&f.jsonOutput, "json", "j", false, "print the report as JSON")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "exit non-zero when any source fails")
	cmd.Flags().BoolVar(&f.retries, "retry", false, "retry transient failures (FETCH_ATTEMPTS when above 1, else 3 attempts)")
	return cmd
}

func runDiagnose(ctx context.Context, out io.Writer, f diagnoseFlags) error {
	// レポートは stdout、ログは stderr に分ける
	logger := logging.New(logging.Options{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: "text",
		Output: os.Stderr,
	})
	slog.SetDefault(logger)

	cfg, err := config.LoadConfigFromEnv(logger, nil)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.sourcesFile != "" {
		cfg.SourcesFile = f.sourcesFile
	}
	if f.timeout <= 0 {
		f.timeout = cfg.FeedTimeout
	}

	list, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return err
	}

	retryCfg := retry.Disabled()
	if f.retries {
		retryCfg = retry.FeedFetchConfig()
		if cfg.FetchAttempts > 1 {
			retryCfg.MaxAttempts = cfg.FetchAttempts
		}
	}

	p := prober{
		fetchers: scraper.NewFetchers(&http.Client{Timeout: f.timeout},
			scraper.WithUserAgent(cfg.UserAgent),
			scraper.WithRetry(retryCfg)),
		publisher:   list.Publisher,
		timeout:     f.timeout,
		parallelism: cfg.Concurrency,
	}

	logger.Info("diagnosing sources",
		slog.Int("sources", len(list.Sources)),
		slog.Duration("timeout", f.timeout))

	diags := p.probeAll(ctx, list.Sources)

	now := time.Now()
	if f.jsonOutput {
		err = writeJSON(out, diags, now)
	} else {
		err = writeText(out, diags, now)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if f.strict {
		for _, d := range diags {
			if !d.OK() {
				return errUnhealthy
			}
		}
	}
	return nil
}
