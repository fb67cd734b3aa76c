package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/transfermap/transfermap/internal/config"
	"github.com/transfermap/transfermap/internal/model"
)

// TestNewCrawlCmd tests the crawl command creation.
func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "crawl" {
			t.Errorf("expected use 'crawl', got %q", cmd.Use)
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{
			"base-url", "state", "level", "semester",
			"school-filter", "subject-filter",
			"requests-per-minute", "retry-max", "timeout", "workers",
			"db", "semester-policy", "env", "profile",
			"json", "markdown", "output",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("semester flag has shorthand", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("semester")
		if flag == nil {
			t.Fatal("expected semester flag")
		}
		if flag.Shorthand != "s" {
			t.Errorf("expected shorthand 's', got %q", flag.Shorthand)
		}
	})
}

// TestBuildCrawlConfig tests configuration layering from flags.
func TestBuildCrawlConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewCrawlCmd()
		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.StateName != config.DefaultStateName {
			t.Errorf("expected state %q, got %q", config.DefaultStateName, cfg.StateName)
		}
		if cfg.RequestsPerMinute != config.DefaultRequestsPerMinute {
			t.Errorf("expected %d requests per minute, got %d",
				config.DefaultRequestsPerMinute, cfg.RequestsPerMinute)
		}
		if cfg.SemesterPolicy != "overwrite" {
			t.Errorf("expected semester policy 'overwrite', got %q", cfg.SemesterPolicy)
		}
	})

	t.Run("flags override defaults", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("semester", "Spring 2026")
		_ = cmd.Flags().Set("requests-per-minute", "4")
		_ = cmd.Flags().Set("workers", "3")
		_ = cmd.Flags().Set("timeout", "10s")

		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Semester != "Spring 2026" {
			t.Errorf("expected semester 'Spring 2026', got %q", cfg.Semester)
		}
		if cfg.RequestsPerMinute != 4 {
			t.Errorf("expected 4 requests per minute, got %d", cfg.RequestsPerMinute)
		}
		if cfg.Workers != 3 {
			t.Errorf("expected 3 workers, got %d", cfg.Workers)
		}
		if cfg.Timeout != 10*time.Second {
			t.Errorf("expected 10s timeout, got %s", cfg.Timeout)
		}
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("SEMESTER", "Summer 2026")
		t.Setenv("SCHOOL_NAME_FILTER", "Georgia State")

		cmd := NewCrawlCmd()
		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Semester != "Summer 2026" {
			t.Errorf("expected semester 'Summer 2026', got %q", cfg.Semester)
		}
		if cfg.SchoolNameFilter != "Georgia State" {
			t.Errorf("expected school filter 'Georgia State', got %q", cfg.SchoolNameFilter)
		}
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv("SEMESTER", "Summer 2026")

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("semester", "Fall 2026")

		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Semester != "Fall 2026" {
			t.Errorf("expected semester 'Fall 2026', got %q", cfg.Semester)
		}
	})

	t.Run("loads crawl profile", func(t *testing.T) {
		profilePath := filepath.Join(t.TempDir(), "profile.yml")
		content := []byte("state: Alabama\nsubject_filter: CS\nsemester_policy: keep\n")
		if err := os.WriteFile(profilePath, content, 0o600); err != nil {
			t.Fatalf("failed to write profile: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("profile", profilePath)

		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.StateName != "Alabama" {
			t.Errorf("expected state 'Alabama', got %q", cfg.StateName)
		}
		if cfg.SubjectPrefixFilter != "CS" {
			t.Errorf("expected subject filter 'CS', got %q", cfg.SubjectPrefixFilter)
		}
		if cfg.SemesterPolicy != "keep" {
			t.Errorf("expected semester policy 'keep', got %q", cfg.SemesterPolicy)
		}
	})

	t.Run("flags override profile", func(t *testing.T) {
		profilePath := filepath.Join(t.TempDir(), "profile.yml")
		if err := os.WriteFile(profilePath, []byte("state: Alabama\n"), 0o600); err != nil {
			t.Fatalf("failed to write profile: %v", err)
		}

		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("profile", profilePath)
		_ = cmd.Flags().Set("state", "Florida")

		cfg, err := buildCrawlConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.StateName != "Florida" {
			t.Errorf("expected state 'Florida', got %q", cfg.StateName)
		}
	})

	t.Run("returns error for missing explicit profile", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("profile", filepath.Join(t.TempDir(), "nope.yml"))

		if _, err := buildCrawlConfig(cmd); err == nil {
			t.Fatal("expected error for missing profile")
		}
	})

	t.Run("returns error for missing explicit env file", func(t *testing.T) {
		cmd := NewCrawlCmd()
		_ = cmd.Flags().Set("env", filepath.Join(t.TempDir(), "nope.env"))

		if _, err := buildCrawlConfig(cmd); err == nil {
			t.Fatal("expected error for missing env file")
		}
	})
}

// TestOutputSummary tests run summary output.
func TestOutputSummary(t *testing.T) {
	t.Parallel()

	newSummary := func() *model.RunSummary {
		summary := model.NewRunSummary("test-run")
		summary.UnitAttempted()
		summary.UnitSucceeded()
		summary.PageFetched()
		summary.RecordsFound(2)
		summary.RecordPersisted()
		summary.RecordPersisted()
		summary.Finish()
		return summary
	}

	t.Run("writes JSON summary to file", func(t *testing.T) {
		t.Parallel()

		outPath := filepath.Join(t.TempDir(), "nested", "summary.json")
		cfg := config.NewConfig()
		cfg.JSONReport = true
		cfg.ReportFile = outPath

		if err := outputSummary(cfg, newSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(outPath) //nolint:gosec // Test-owned temp path
		if err != nil {
			t.Fatalf("failed to read summary file: %v", err)
		}
		if !strings.Contains(string(data), `"run_id": "test-run"`) {
			t.Errorf("summary missing run ID: %s", data)
		}
	})

	t.Run("writes Markdown summary to file", func(t *testing.T) {
		t.Parallel()

		outPath := filepath.Join(t.TempDir(), "summary.md")
		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		cfg.ReportFile = outPath

		if err := outputSummary(cfg, newSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(outPath) //nolint:gosec // Test-owned temp path
		if err != nil {
			t.Fatalf("failed to read summary file: %v", err)
		}
		if !strings.Contains(string(data), "# Crawl Summary") {
			t.Errorf("expected Markdown heading, got: %s", data)
		}
	})
}
