package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dualsub/internal/language"
	"dualsub/internal/subtitles"
)

// errInsufficientData marks a merge that completed without two usable tracks.
var errInsufficientData = errors.New("insufficient subtitle data")

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var video videoFlags
	var mainLang, transLang, outputPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Fetch two languages from the catalog and merge them into one track",
		Example: `  dualsub merge --imdb tt0111161 --main eng --translation tur -o movie.srt
  dualsub merge --query "the wire" --season 1 --episode 2 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := video.params()
			if err != nil {
				return err
			}
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			req := subtitles.Request{
				MainLanguage:        pick(mainLang, rt.cfg.Languages.Main),
				TranslationLanguage: pick(transLang, rt.cfg.Languages.Translation),
				Params:              params,
			}
			service := subtitles.NewService(rt.client,
				subtitles.WithLogger(rt.logger),
				subtitles.WithThreshold(rt.cfg.Threshold()),
				subtitles.WithMaxCandidates(rt.cfg.Catalog.MaxCandidates),
			)

			result, err := service.Merge(cmd.Context(), req)
			if err != nil {
				return err
			}
			if result.Outcome != subtitles.OutcomeMerged {
				return fmt.Errorf("%w: %s", errInsufficientData, result.Detail)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Merged %s (%s) with %s (%s): %d cues, %s translated\n",
				language.DisplayName(result.Main.Language), result.Main.Candidate.ID,
				language.DisplayName(result.Translation.Language), result.Translation.Candidate.ID,
				len(result.Cues), percent(result.Coverage),
			)
			return writeCues(cmd, result.Cues, outputPath, asJSON)
		},
	}

	video.bind(cmd.Flags())
	cmd.Flags().StringVar(&mainLang, "main", "", "Main (timing) language; defaults to languages.main")
	cmd.Flags().StringVar(&transLang, "translation", "", "Translation language; defaults to languages.translation")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the merged track to this file instead of stdout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit a JSON cue array instead of SRT")
	return cmd
}

func pick(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
