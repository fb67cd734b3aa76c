package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/transfermap/transfermap/internal/config"
	"github.com/transfermap/transfermap/internal/database"
	"github.com/transfermap/transfermap/internal/normalize"
)

// NewLookupCmd creates the lookup command.
func NewLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup [course-code]",
		Short: "List transfer equivalencies for a home-institution course",
		Long: `Lookup queries the local database for every known way to earn the
given course through transfer credit.

The course code is normalized before the query, so "cs 1331", "CS1331"
and "CS 1331" all match the same course.

Examples:
  # Which external courses transfer as CS 1331?
  transfermap lookup "CS 1331"

  # Machine-readable output
  transfermap lookup --json CS1331`,
		Args: cobra.ExactArgs(1),
		RunE: runLookupCmd,
	}

	cmd.Flags().String("db", "",
		"SQLite database file path (default: XDG data directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output equivalencies as JSON")

	return cmd
}

// runLookupCmd executes the lookup command.
func runLookupCmd(cmd *cobra.Command, args []string) error {
	code, err := normalize.CourseCode(args[0])
	if err != nil {
		return fmt.Errorf("invalid course code %q: %w", args[0], err)
	}

	store, err := openExistingStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	views, err := store.EquivalenciesForCourse(cmd.Context(), code)
	if err != nil {
		return err
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if jsonOut {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(views)
	}

	if len(views) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No equivalencies found for %s\n", code)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (%.1f credit hours)\n\n",
		views[0].GTCode, views[0].GTTitle, views[0].GTCreditHours)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCHOOL\tCOURSE\tTITLE\tHOURS\tSEMESTER")
	for _, v := range views {
		hours := "-"
		if v.ExternalCreditHours > 0 {
			hours = fmt.Sprintf("%.1f", v.ExternalCreditHours)
		}
		title := v.ExternalTitle
		if title == "" {
			title = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			v.SchoolName, v.ExternalCode, title, hours, v.Semester)
	}
	return w.Flush()
}

// openExistingStore opens the database named by the --db flag without
// creating it. Lookup and export only make sense after a crawl.
func openExistingStore(cmd *cobra.Command) (*database.Store, error) {
	dbPath, err := cmd.Flags().GetString("db")
	if err != nil {
		return nil, err
	}
	if dbPath == "" {
		dbPath = config.NewConfig().DBPath
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	store, err := database.Open(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s (run a crawl first?): %w", dbPath, err)
	}
	return store, nil
}
