package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"streamstrip/internal/botrun"
	"streamstrip/internal/preflight"
	"streamstrip/internal/records"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check dependencies, directories, and bot state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failed := false

			fmt.Fprintln(out, renderSectionHeader("Dependencies", colorize))
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				kind, detail := statusOK, status.Version
				if !status.Available {
					kind, detail = statusError, status.Detail
					if status.Optional {
						kind = statusWarn
					} else {
						failed = true
					}
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, detail, colorize))
			}

			fmt.Fprintln(out, renderSectionHeader("Directories", colorize))
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed = true
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out, renderSectionHeader("Bot", colorize))
			writeBotStatus(cmd, out, ctx, colorize)

			if failed {
				return fmt.Errorf("one or more required checks failed")
			}
			return nil
		},
	}
}

func writeBotStatus(cmd *cobra.Command, out io.Writer, ctx *commandContext, colorize bool) {
	cfg := ctx.config
	tokenKind := statusOK
	if cfg.ValidateTelegram() != nil {
		tokenKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Bot token", tokenKind, "configured: "+yesNo(tokenKind == statusOK), colorize))
	fmt.Fprintln(out, renderStatusLine("Notifications", statusOK, "ntfy: "+yesNo(cfg.Notifications.NtfyTopic != ""), colorize))

	lock, err := botrun.AcquireLock(cfg)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Instance", statusOK, "running", colorize))
	} else {
		_ = lock.Unlock()
		fmt.Fprintln(out, renderStatusLine("Instance", statusWarn, "not running", colorize))
	}

	store, err := records.Open(cfg)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Records", statusError, err.Error(), colorize))
		return
	}
	defer store.Close()
	stats, err := store.Stats(cmd.Context())
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("Records", statusError, err.Error(), colorize))
		return
	}
	message := fmt.Sprintf("%d completed", stats.Jobs)
	if stats.HasLastCompletion {
		message += ", last " + humanize.Time(stats.LastCompletedAt)
	}
	fmt.Fprintln(out, renderStatusLine("Records", statusOK, message, colorize))
}
