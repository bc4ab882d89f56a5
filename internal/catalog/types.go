package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AllowedFormats lists the subtitle formats the cue parser can consume.
var AllowedFormats = map[string]struct{}{
	"srt": {},
	"vtt": {},
	"sub": {},
	"ass": {},
}

// SearchParams identifies the video to search for. Zero values are omitted.
type SearchParams struct {
	IMDBID        string
	Query         string
	Season        int
	Episode       int
	MovieHash     string
	MovieByteSize int64
}

// IsEmpty reports whether no identifying parameter is set.
func (p SearchParams) IsEmpty() bool {
	return sanitizeIMDBID(p.IMDBID) == "" &&
		strings.TrimSpace(p.Query) == "" &&
		strings.TrimSpace(p.MovieHash) == "" &&
		p.MovieByteSize <= 0
}

// Candidate is one catalog search hit.
type Candidate struct {
	ID            string  `json:"id"`
	DownloadURL   string  `json:"download_url"`
	Language      string  `json:"language"`
	LanguageName  string  `json:"language_name"`
	Format        string  `json:"format"`
	ReleaseName   string  `json:"release_name"`
	Rating        float64 `json:"rating"`
	DownloadCount int64   `json:"download_count"`
}

// searchEntry mirrors the fields read from a legacy search result. The legacy
// API returns most numbers as strings, so numeric fields accept both.
type searchEntry struct {
	SubDownloadLink  string     `json:"SubDownloadLink"`
	SubFormat        string     `json:"SubFormat"`
	SubLanguageID    string     `json:"SubLanguageID"`
	LanguageName     string     `json:"LanguageName"`
	MovieReleaseName string     `json:"MovieReleaseName"`
	MovieName        string     `json:"MovieName"`
	SubRating        flexString `json:"SubRating"`
	SubDownloadsCnt  flexString `json:"SubDownloadsCnt"`
	IDSubtitleFile   flexString `json:"IDSubtitleFile"`
}

func (e searchEntry) candidate() Candidate {
	release := strings.TrimSpace(e.MovieReleaseName)
	if release == "" {
		release = strings.TrimSpace(e.MovieName)
	}
	return Candidate{
		ID:            strings.TrimSpace(string(e.IDSubtitleFile)),
		DownloadURL:   strings.TrimSpace(e.SubDownloadLink),
		Language:      strings.ToLower(strings.TrimSpace(e.SubLanguageID)),
		LanguageName:  strings.TrimSpace(e.LanguageName),
		Format:        strings.ToLower(strings.TrimSpace(e.SubFormat)),
		ReleaseName:   release,
		Rating:        e.SubRating.asFloat(),
		DownloadCount: e.SubDownloadsCnt.asInt(),
	}
}

type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*f = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
	default:
		*f = flexString(raw)
	}
	return nil
}

// asInt parses the value as a whole number; anything unparsable is zero.
func (f flexString) asInt() int64 {
	v := strings.TrimSpace(string(f))
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return int64(n)
	}
	return 0
}

func (f flexString) asFloat() float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(string(f)), 64)
	if err != nil {
		return 0
	}
	return n
}
