package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/transfermap/transfermap/internal/config"
	"github.com/transfermap/transfermap/internal/report"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the dataset as JSON snapshots",
		Long: `Export writes the crawled dataset as JSON files: one full snapshot
(transfermap.json) and one file per school under schools/.

The snapshots are what a transfer-planning frontend consumes, so they
can be regenerated at any time from the database without re-crawling.

Examples:
  # Export to the default snapshot directory
  transfermap export

  # Export somewhere else
  transfermap export -o ./public/data`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().String("db", "",
		"SQLite database file path (default: XDG data directory)")
	cmd.Flags().StringP("output", "o", "",
		"Directory to write snapshots into (default: XDG data directory)")
	cmd.Flags().StringP("semester", "s", "",
		"Term label stamped on the snapshot metadata")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	store, err := openExistingStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := store.Snapshot(cmd.Context())
	if err != nil {
		return err
	}
	if semester, err := cmd.Flags().GetString("semester"); err != nil {
		return err
	} else if semester != "" {
		snap.Semester = semester
	}

	outDir, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if outDir == "" {
		outDir = config.NewConfig().SnapshotDir
	}

	paths, err := report.NewSnapshotExporter(outDir).Export(snap)
	if err != nil {
		return err
	}

	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}
