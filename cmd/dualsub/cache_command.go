package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"dualsub/internal/language"
	"dualsub/internal/subcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the download cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show download cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(cache *subcache.Cache) error {
				stats, err := cache.Stats(cmd.Context())
				if err != nil {
					return err
				}
				printCacheStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

func printCacheStats(out io.Writer, stats subcache.Stats) {
	const stampLayout = "2006-01-02 15:04"
	fmt.Fprintf(out, "Path:    %s\n", stats.Path)
	fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
	fmt.Fprintf(out, "Size:    %s\n", humanBytes(stats.Bytes))
	if stats.Entries == 0 {
		return
	}
	fmt.Fprintf(out, "Oldest:  %s\n", stats.Oldest.Local().Format(stampLayout))
	fmt.Fprintf(out, "Newest:  %s\n", stats.Newest.Local().Format(stampLayout))

	fmt.Fprintln(out, cacheLanguageTable(stats).render())
}

func cacheLanguageTable(stats subcache.Stats) tableView {
	codes := make([]string, 0, len(stats.ByLanguage))
	for code := range stats.ByLanguage {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	view := tableView{columns: cacheLanguageColumns, rows: make([][]string, 0, len(codes))}
	for _, code := range codes {
		view.rows = append(view.rows, []string{code, language.DisplayName(code), strconv.Itoa(stats.ByLanguage[code])})
	}
	view.footer = []string{"", "Total", strconv.Itoa(stats.Entries)}
	return view
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove cache entries older than cache.max_age_days",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(cache *subcache.Cache) error {
				removed, err := cache.Prune(cmd.Context())
				if err != nil {
					return err
				}
				if removed == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No cache entries pruned")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d cache entries\n", removed)
				return nil
			})
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(cache *subcache.Cache) error {
				removed, err := cache.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries\n", removed)
				return nil
			})
		},
	}
}

func withCache(ctx *commandContext, fn func(*subcache.Cache) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Cache.Enabled {
		return errors.New("download cache is disabled (set cache.enabled = true)")
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}
	cache, err := subcache.Open(cfg.Cache.Path, cfg.CacheMaxAge(), logger)
	if err != nil {
		return err
	}
	defer cache.Close()
	return fn(cache)
}
