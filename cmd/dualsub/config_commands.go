package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"dualsub/internal/config"
	"dualsub/internal/language"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the dualsub config file",
	}
	configCmd.AddCommand(newConfigValidateCommand(ctx), newConfigInitCommand())
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		pathFlag  string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented starter config",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveInitTarget(pathFlag)
			if err != nil {
				return err
			}
			if err := writeSampleConfig(target, overwrite); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Wrote sample configuration to", target)
			fmt.Fprintln(out, "Set catalog.user_agent (or export DUALSUB_USER_AGENT) to your registered catalog user agent.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&pathFlag, "path", "p", "", "Where to write the config (default: the user config directory)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace a config file that already exists")
	return cmd
}

// resolveInitTarget expands an explicit --path or falls back to the default
// config location.
func resolveInitTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	path, err := config.ExpandPath(raw)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

func writeSampleConfig(target string, overwrite bool) error {
	_, err := os.Stat(target)
	switch {
	case err == nil && !overwrite:
		return fmt.Errorf("%s already exists; pass --overwrite to replace it", target)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("inspect %s: %w", target, err)
	}
	if err := config.CreateSample(target); err != nil {
		return fmt.Errorf("write starter config: %w", err)
	}
	return nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the config and report problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("config invalid: %w", err)
			}
			p := newStatusPrinter(cmd.OutOrStdout())
			if ctx.configFile {
				p.line("Config path", statusOK, ctx.configPath)
			} else {
				p.line("Config path", statusWarn, "file did not exist; defaults were used")
			}
			p.line("Languages", statusInfo, fmt.Sprintf("%s -> %s",
				language.DisplayName(cfg.Languages.Main), language.DisplayName(cfg.Languages.Translation)))
			p.line("Catalog", statusInfo, cfg.Catalog.BaseURL)
			if cfg.Catalog.UserAgent == "" {
				p.line("User agent", statusWarn, "not set; the catalog may reject requests")
			}
			fmt.Fprintln(p.out, "Configuration valid")
			return nil
		},
	}
}
