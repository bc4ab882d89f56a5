package catalog

import (
	"sort"
	"strings"
)

// Rank drops candidates without a download link or with an unsupported format,
// then orders the rest by descending download count. Equal counts keep their
// original relative order.
func Rank(candidates []Candidate) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.DownloadURL) == "" {
			continue
		}
		if _, ok := AllowedFormats[strings.ToLower(strings.TrimSpace(c.Format))]; !ok {
			continue
		}
		ranked = append(ranked, c)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DownloadCount > ranked[j].DownloadCount
	})
	return ranked
}
