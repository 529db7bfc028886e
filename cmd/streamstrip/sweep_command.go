package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"streamstrip/internal/botrun"
	"streamstrip/internal/logging"
	"streamstrip/internal/staging"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var minAge time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove leftover files from the downloads directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			lock, err := botrun.AcquireLock(cfg)
			if errors.Is(err, botrun.ErrAlreadyRunning) {
				return fmt.Errorf("%w; the bot sweeps on startup, stop it before sweeping manually", err)
			}
			if err != nil {
				return err
			}
			defer func() { _ = lock.Unlock() }()

			result := staging.Sweep(cmd.Context(), cfg.Paths.DownloadsDir, minAge, logging.NewNop())
			out := cmd.OutOrStdout()
			for _, path := range result.Removed {
				fmt.Fprintf(out, "removed %s\n", path)
			}
			for _, failure := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", failure.Path, failure.Error)
			}
			fmt.Fprintf(out, "Removed %d file(s), reclaimed %s\n", len(result.Removed), humanize.IBytes(uint64(result.Bytes)))
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d file(s) could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&minAge, "min-age", 0, "Only remove files older than this duration")
	return cmd
}
