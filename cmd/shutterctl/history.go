package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-shutter/internal/history"
	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-shutter/migrations"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <shutter-id>",
		Short: "List recent position decisions of a shutter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := shutterConfig(cmd, args[0])
			if err != nil {
				return err
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close() //nolint:errcheck // read-only use

			if err := db.Migrate(cmd.Context(), migrations.FS); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			entries, err := history.NewSQLiteRepository(db.DB).List(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			return writeHistory(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().IntP("limit", "n", history.DefaultLimit, "number of entries to show")
	cmd.Flags().Bool("json", false, "print entries as JSON")
	return cmd
}

// writeHistory prints entries as a table, newest first.
func writeHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no history")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tMODE\tSPECIAL\tPOSITION\tOUTPUT\tREASON")
	for _, e := range entries {
		special := e.Special
		if special == "" {
			special = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Mode,
			special,
			e.Position,
			formatValue(e.Output),
			e.Reason,
		)
	}
	return tw.Flush()
}
