package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dualsub/internal/catalog"
	"dualsub/internal/language"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var video videoFlags
	var lang string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "List ranked catalog candidates for one language",
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

			code := language.CatalogCode(pick(lang, rt.cfg.Languages.Main))
			if code == "" {
				return fmt.Errorf("unknown language %q", lang)
			}
			raw, err := rt.client.Search(cmd.Context(), code, params)
			if err != nil {
				return err
			}
			ranked := catalog.Rank(raw)

			out := cmd.OutOrStdout()
			if asJSON {
				if ranked == nil {
					ranked = []catalog.Candidate{}
				}
				return writeJSON(out, ranked)
			}
			if len(ranked) == 0 {
				fmt.Fprintf(out, "No usable %s subtitles (%d results)\n", language.DisplayName(code), len(raw))
				return nil
			}
			fmt.Fprintln(out, candidateTable(code, ranked).render())
			fmt.Fprintf(out, "%d of %d results usable\n", len(ranked), len(raw))
			return nil
		},
	}

	video.bind(cmd.Flags())
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Language to search; defaults to languages.main")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit candidates as JSON")
	return cmd
}

func candidateTable(code string, ranked []catalog.Candidate) tableView {
	view := tableView{
		title:   language.DisplayName(code) + " candidates",
		columns: candidateColumns,
		rows:    make([][]string, 0, len(ranked)),
	}
	var downloads int64
	for i, c := range ranked {
		downloads += c.DownloadCount
		view.rows = append(view.rows, []string{
			strconv.Itoa(i + 1),
			c.ID,
			c.Format,
			strconv.FormatInt(c.DownloadCount, 10),
			strconv.FormatFloat(c.Rating, 'f', 1, 64),
			c.ReleaseName,
		})
	}
	view.footer = []string{"", "", "Total", strconv.FormatInt(downloads, 10)}
	return view
}
