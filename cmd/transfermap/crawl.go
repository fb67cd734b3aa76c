package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/transfermap/transfermap/internal/config"
	"github.com/transfermap/transfermap/internal/database"
	"github.com/transfermap/transfermap/internal/fetch"
	"github.com/transfermap/transfermap/internal/log"
	"github.com/transfermap/transfermap/internal/model"
	"github.com/transfermap/transfermap/internal/normalize"
	"github.com/transfermap/transfermap/internal/pipeline"
	"github.com/transfermap/transfermap/internal/ratelimit"
	"github.com/transfermap/transfermap/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the transfer equivalency portal",
		Long: `Crawl walks the portal's search flow, extracts every course
equivalency it publishes, and persists them to a local SQLite database.

The crawl is idempotent: re-running it converges to the same dataset.
A failed run leaves a partial but consistent dataset that the next run
completes.

Configuration layers, later layers winning:
  defaults < .env file < environment < profile (.transfermap.yml) < flags

Examples:
  # Full crawl with defaults (Georgia, Fall 2025, 8 requests/minute)
  transfermap crawl

  # Test slice: one school, one subject prefix
  transfermap crawl --school-filter "Kennesaw" --subject-filter "CS"

  # Different term, Markdown summary to a file
  transfermap crawl --semester "Spring 2026" --markdown -o summary.md`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	// Portal selection flags
	cmd.Flags().String("base-url", "",
		"Entry URL of the portal's search flow")
	cmd.Flags().String("state", "",
		"State whose institutions are crawled (visible option text)")
	cmd.Flags().String("level", "",
		"Course level to search (visible option text)")
	cmd.Flags().StringP("semester", "s", "",
		"Term to search and stamp on equivalencies (visible option text)")

	// Scope flags
	cmd.Flags().String("school-filter", "",
		"Only crawl schools whose name starts with this prefix (case-insensitive)")
	cmd.Flags().String("subject-filter", "",
		"Only crawl subjects whose label starts with this prefix")

	// Politeness and retry flags
	cmd.Flags().Int("requests-per-minute", 0,
		"Rolling-window request budget shared by all workers")
	cmd.Flags().Int("retry-max", 0,
		"Total attempt budget per page fetch")
	cmd.Flags().DurationP("timeout", "t", 0,
		"Per-request HTTP timeout")
	cmd.Flags().IntP("workers", "w", 0,
		"Number of concurrent crawl units")

	// Storage flags
	cmd.Flags().String("db", "",
		"SQLite database file path (default: XDG data directory)")
	cmd.Flags().String("semester-policy", "",
		"What a repeat equivalency with a different term does: overwrite or keep")

	// Configuration sources
	cmd.Flags().String("env", "",
		"Path to a .env file (default: .env in current directory, if present)")
	cmd.Flags().StringP("profile", "p", "",
		"Path to a YAML crawl profile (default: .transfermap.yml in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write run summary to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCrawlConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals. Cancellation flushes the run summary for
	// the work completed so far.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// buildCrawlConfig layers configuration sources onto the defaults:
// .env file, environment, crawl profile, then explicit flags.
func buildCrawlConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	envFile, err := cmd.Flags().GetString("env")
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadEnv(envFile); err != nil {
		return nil, err
	}

	cfg.ProfilePath, err = cmd.Flags().GetString("profile")
	if err != nil {
		return nil, err
	}

	// An explicitly named profile must exist; the default search paths
	// may come up empty.
	explicitProfile := cfg.ProfilePath != ""
	profilePath := config.FindProfile(cfg.ProfilePath)
	if profilePath != "" {
		profile, err := config.LoadProfile(profilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load crawl profile %s: %w", profilePath, err)
		}
		profile.Apply(cfg)
	} else if explicitProfile {
		return nil, fmt.Errorf("%w: %s", config.ErrProfileNotFound, cfg.ProfilePath)
	}

	if err := applyCrawlFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyCrawlFlags overrides cfg with every flag the user set explicitly.
// Unset flags leave the layered values alone.
func applyCrawlFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	stringFlags := []struct {
		name string
		dst  *string
	}{
		{"base-url", &cfg.BaseURL},
		{"state", &cfg.StateName},
		{"level", &cfg.Level},
		{"semester", &cfg.Semester},
		{"school-filter", &cfg.SchoolNameFilter},
		{"subject-filter", &cfg.SubjectPrefixFilter},
		{"db", &cfg.DBPath},
		{"semester-policy", &cfg.SemesterPolicy},
	}
	for _, f := range stringFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetString(f.name); err != nil {
			return err
		}
	}

	intFlags := []struct {
		name string
		dst  *int
	}{
		{"requests-per-minute", &cfg.RequestsPerMinute},
		{"retry-max", &cfg.RetryMax},
		{"workers", &cfg.Workers},
	}
	for _, f := range intFlags {
		if !flags.Changed(f.name) {
			continue
		}
		if *f.dst, err = flags.GetInt(f.name); err != nil {
			return err
		}
	}

	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}

	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}
	return nil
}

// runCrawl wires the components together and executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"state", cfg.StateName,
		"semester", cfg.Semester,
		"requestsPerMinute", cfg.RequestsPerMinute,
		"workers", cfg.Workers,
		"db", cfg.DBPath,
	)

	policy, err := database.ParseSemesterPolicy(cfg.SemesterPolicy)
	if err != nil {
		return err
	}

	dbOpts := database.DefaultOptions()
	dbOpts.SemesterPolicy = policy
	store, err := database.Open(cfg.DBPath, dbOpts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	limiter, err := ratelimit.New(cfg.RequestsPerMinute)
	if err != nil {
		return err
	}

	fetcher := fetch.New(limiter, fetch.NewArtifactStore(cfg.ArtifactDir),
		fetch.WithClient(&http.Client{Timeout: cfg.Timeout}),
		fetch.WithRetryMax(cfg.RetryMax),
		fetch.WithBackoff(cfg.RetryBackoff, 10*cfg.RetryBackoff),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	)

	navigator := pipeline.NewNavigator(fetcher, cfg,
		pipeline.WithNavigatorLogger(logger),
	)
	orch := pipeline.New(navigator, fetcher, store, normalize.New(normalize.WithLogger(logger)), cfg.Semester,
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithLogger(logger),
	)

	fmt.Printf("Crawling %s institutions for %s...\n", cfg.StateName, cfg.Semester)
	startTime := time.Now()

	summary, runErr := orch.Run(ctx)

	if summary != nil {
		fmt.Printf("Crawl finished in %s\n\n", time.Since(startTime).Round(time.Millisecond))
		if err := outputSummary(cfg, summary); err != nil {
			logger.Error("summary output failed", "error", err)
		}
	}

	// Export snapshots even after a partial run: the database is
	// consistent and the snapshots reflect what it holds.
	if err := exportSnapshots(ctx, cfg, store, logger); err != nil {
		logger.Error("snapshot export failed", "error", err)
	}

	return runErr
}

// exportSnapshots writes the full-dataset and per-school JSON snapshots.
func exportSnapshots(ctx context.Context, cfg *config.Config, store *database.Store, logger *slog.Logger) error {
	snap, err := store.Snapshot(ctx)
	if err != nil {
		return err
	}
	snap.Semester = cfg.Semester

	paths, err := report.NewSnapshotExporter(cfg.SnapshotDir).Export(snap)
	if err != nil {
		return err
	}

	logger.Info("snapshots exported", "dir", cfg.SnapshotDir, "files", len(paths))
	return nil
}

// outputSummary writes the run summary in the requested format.
func outputSummary(cfg *config.Config, summary *model.RunSummary) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided report path is intentional
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	_, err := writer.Write(summary)
	return err
}
