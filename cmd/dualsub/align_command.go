package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dualsub/internal/align"
	"dualsub/internal/config"
	"dualsub/internal/cue"
	"dualsub/internal/textenc"
)

func newAlignCommand(ctx *commandContext) *cobra.Command {
	var thresholdMS int64
	var outputPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "align <main.srt> <translation.srt>",
		Short: "Merge two local subtitle files onto the first file's timing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			threshold := cfg.Threshold()
			if cmd.Flags().Changed("threshold-ms") {
				if thresholdMS < 0 {
					return errors.New("--threshold-ms must not be negative")
				}
				threshold = time.Duration(thresholdMS) * time.Millisecond
			}

			normalizer := newNormalizer(cfg, logger)
			mainCues, err := loadCueFile(normalizer, args[0], logger)
			if err != nil {
				return err
			}
			if len(mainCues) == 0 {
				return fmt.Errorf("%s: no subtitle cues found", args[0])
			}
			transCues, err := loadCueFile(normalizer, args[1], logger)
			if err != nil {
				return err
			}

			merged := align.New(threshold, logger).Merge(mainCues, transCues)
			fmt.Fprintf(cmd.ErrOrStderr(), "Aligned %d cues, %s translated\n", len(merged), percent(align.Coverage(merged)))
			return writeCues(cmd, merged, outputPath, asJSON)
		},
	}

	cmd.Flags().Int64Var(&thresholdMS, "threshold-ms", 0, "Override alignment.threshold_ms")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the merged track to this file instead of stdout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit a JSON cue array instead of SRT")
	return cmd
}

func loadCueFile(normalizer *textenc.Normalizer, path string, logger *slog.Logger) (cue.Sequence, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("read subtitle file: %w", err)
	}
	text, err := normalizer.Normalize(data, expanded)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cue.Parse(text, logger), nil
}
