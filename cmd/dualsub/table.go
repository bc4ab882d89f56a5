package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one rendered column. Numeric columns are right-aligned;
// a positive maxWidth trims longer cells.
type column struct {
	header   string
	numeric  bool
	maxWidth int
}

var (
	candidateColumns = []column{
		{header: "#", numeric: true},
		{header: "ID"},
		{header: "Format"},
		{header: "Downloads", numeric: true},
		{header: "Rating", numeric: true},
		{header: "Release", maxWidth: 48},
	}
	cacheLanguageColumns = []column{
		{header: "Code"},
		{header: "Language"},
		{header: "Entries", numeric: true},
	}
	checkColumns = []column{
		{header: "Check"},
		{header: "Status"},
		{header: "Detail", maxWidth: 60},
	}
)

// tableView is a titled grid with an optional totals footer.
type tableView struct {
	title   string
	columns []column
	rows    [][]string
	footer  []string
}

func (v tableView) render() string {
	if len(v.columns) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if v.title != "" {
		tw.SetTitle(v.title)
	}

	tw.AppendHeader(v.row(headers(v.columns)))
	for _, cells := range v.rows {
		tw.AppendRow(v.row(cells))
	}
	if len(v.footer) > 0 {
		tw.AppendFooter(v.row(v.footer))
	}

	configs := make([]table.ColumnConfig, len(v.columns))
	for i, col := range v.columns {
		align := text.AlignLeft
		if col.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignFooter: align,
			AlignHeader: text.AlignLeft,
		}
		if col.maxWidth > 0 {
			configs[i].WidthMax = col.maxWidth
			configs[i].WidthMaxEnforcer = text.Trim
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// row pads or cuts cells to the column count.
func (v tableView) row(cells []string) table.Row {
	r := make(table.Row, len(v.columns))
	for i := range r {
		r[i] = ""
		if i < len(cells) {
			r[i] = cells[i]
		}
	}
	return r
}

func headers(columns []column) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = col.header
	}
	return out
}
