package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"streamstrip/internal/records"
	"streamstrip/internal/textutil"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently completed videos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := records.Open(cfg)
			if err != nil {
				return fmt.Errorf("open record store: %w", err)
			}
			defer store.Close()

			list, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, list)
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No completed videos yet")
				return nil
			}
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderTable(historyColumns, historyRows(list), historyFooter(stats)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of records to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit records as JSON")
	return cmd
}

var historyColumns = []column{
	{Header: "Job"},
	{Header: "File"},
	{Header: "Original", Right: true},
	{Header: "Processed", Right: true},
	{Header: "Took", Right: true},
	{Header: "Completed"},
}

func historyRows(list []records.CompletionRecord) [][]string {
	rows := make([][]string, 0, len(list))
	for _, rec := range list {
		rows = append(rows, []string{
			shortJobID(rec.JobID),
			rec.FileName,
			humanize.IBytes(uint64(rec.OriginalSize)),
			humanize.IBytes(uint64(rec.ProcessedSize)),
			textutil.FormatDuration(rec.ProcessingDurationSeconds),
			humanize.Time(rec.CompletedAt),
		})
	}
	return rows
}

func historyFooter(stats records.Stats) []string {
	saved := stats.OriginalBytes - stats.ProcessedBytes
	if saved < 0 {
		saved = 0
	}
	return []string{
		strconv.FormatInt(stats.Jobs, 10) + " total",
		"saved " + humanize.IBytes(uint64(saved)),
		humanize.IBytes(uint64(stats.OriginalBytes)),
		humanize.IBytes(uint64(stats.ProcessedBytes)),
		textutil.FormatDuration(stats.TotalSeconds),
		"",
	}
}

func shortJobID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
