package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"streamstrip/internal/config"
	"streamstrip/internal/logging"
	"streamstrip/internal/transform"
)

func newStripCommand(ctx *commandContext) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "strip <file>",
		Short: "Strip audio and subtitle streams from a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			input, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input: %w", err)
			}

			logger := logging.NewNop()
			if verbose {
				logger, err = logging.New(logging.Options{Level: "debug", Format: cfg.Logging.Format, OutputPaths: []string{"stderr"}})
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
			}

			result, err := transform.NewRunner(cfg, logger).Run(cmd.Context(), input)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %s\n", result.OutputPath)
			fmt.Fprintf(out, "Size: %s\n", humanize.IBytes(uint64(result.OutputSize)))
			fmt.Fprintf(out, "Took: %s\n", result.Duration.Round(10*time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log transform details to stderr")
	return cmd
}
