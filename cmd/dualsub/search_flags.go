package main

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"

	"dualsub/internal/catalog"
)

// videoFlags holds the identifiers shared by merge and search.
type videoFlags struct {
	imdbID  string
	query   string
	season  int
	episode int
	hash    string
	size    int64
}

func (f *videoFlags) bind(flags *pflag.FlagSet) {
	flags.StringVar(&f.imdbID, "imdb", "", "IMDb id (tt0111161 or 111161)")
	flags.StringVarP(&f.query, "query", "q", "", "Free-text title query")
	flags.IntVar(&f.season, "season", 0, "Season number for episodes")
	flags.IntVar(&f.episode, "episode", 0, "Episode number for episodes")
	flags.StringVar(&f.hash, "hash", "", "Movie hash of the video file")
	flags.Int64Var(&f.size, "size", 0, "Video file size in bytes (used with --hash)")
}

func (f *videoFlags) params() (catalog.SearchParams, error) {
	params := catalog.SearchParams{
		IMDBID:        strings.TrimSpace(f.imdbID),
		Query:         strings.TrimSpace(f.query),
		Season:        f.season,
		Episode:       f.episode,
		MovieHash:     strings.TrimSpace(f.hash),
		MovieByteSize: f.size,
	}
	if params.IsEmpty() {
		return params, errors.New("one of --imdb, --query, or --hash/--size is required")
	}
	if f.season < 0 || f.episode < 0 {
		return params, errors.New("--season and --episode must not be negative")
	}
	return params, nil
}
