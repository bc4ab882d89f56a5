package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dualsub/internal/language"
	"dualsub/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check catalog reachability and local paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p := newStatusPrinter(cmd.OutOrStdout())

			p.section("Configuration")
			configDetail := "defaults (no config file)"
			if ctx.configFile {
				configDetail = ctx.configPath
			}
			p.line("Config", statusInfo, configDetail)
			p.line("Languages", statusInfo,
				fmt.Sprintf("%s -> %s", language.DisplayName(cfg.Languages.Main), language.DisplayName(cfg.Languages.Translation)))
			p.line("Rate limit", statusInfo, fmt.Sprintf("%d searches per %s", cfg.RateLimit.Capacity, cfg.Window()))
			if cfg.Cache.Enabled {
				p.line("Cache", statusOK, cfg.Cache.Path)
			} else {
				p.line("Cache", statusWarn, "disabled; every run downloads again")
			}
			fmt.Fprintln(p.out)

			results := preflight.RunAll(cmd.Context(), cfg)
			if failed := p.checks(results); failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			return nil
		},
	}
}
