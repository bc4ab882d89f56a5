package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"dualsub/internal/config"
	"dualsub/internal/cue"
)

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeCues renders seq as SRT, or as a JSON cue array when asJSON is set,
// to outputPath or the command's stdout when the path is empty or "-".
func writeCues(cmd *cobra.Command, seq cue.Sequence, outputPath string, asJSON bool) error {
	if seq == nil {
		seq = cue.Sequence{}
	}
	target := strings.TrimSpace(outputPath)
	if target == "" || target == "-" {
		return encodeCues(cmd.OutOrStdout(), seq, asJSON)
	}

	expanded, err := config.ExpandPath(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(expanded)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := encodeCues(file, seq, asJSON); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d cues to %s\n", len(seq), expanded)
	return nil
}

func encodeCues(w io.Writer, seq cue.Sequence, asJSON bool) error {
	if asJSON {
		return writeJSON(w, seq)
	}
	_, err := io.WriteString(w, cue.FormatSRT(seq))
	return err
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div := int64(unit)
	exp := 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(v) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPEZY"[exp])
}

func percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}
