package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"dualsub/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

func (k statusKind) String() string {
	switch k {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (k statusKind) colors() text.Colors {
	switch k {
	case statusOK:
		return text.Colors{text.FgGreen}
	case statusWarn:
		return text.Colors{text.FgYellow}
	case statusError:
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgBlue}
	}
}

// paint wraps value in the kind's color. go-pretty's own Sprint consults
// environment variables, so the terminal decision is made by the caller.
func (k statusKind) paint(value string, colorize bool) string {
	if !colorize {
		return value
	}
	return text.Escape(value, k.colors().EscapeSeq())
}

func resultKind(r preflight.Result) statusKind {
	if r.Passed {
		return statusOK
	}
	return statusError
}

// statusPrinter writes the status report: section headers, aligned
// "label: [KIND] detail" lines and the preflight table.
type statusPrinter struct {
	out        io.Writer
	colorize   bool
	labelWidth int
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{out: out, colorize: shouldColorize(out), labelWidth: 12}
}

func (p *statusPrinter) section(title string) {
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	fmt.Fprintln(p.out, statusInfo.paint(heading, p.colorize))
	fmt.Fprintln(p.out, statusInfo.paint(strings.Repeat("-", len(heading)), p.colorize))
}

func (p *statusPrinter) line(label string, kind statusKind, detail string) {
	fmt.Fprintln(p.out, p.format(label, kind, detail))
}

func (p *statusPrinter) format(label string, kind statusKind, detail string) string {
	status := "[" + kind.String() + "]"
	if detail != "" {
		status += " " + detail
	}
	return kind.paint(fmt.Sprintf("  %-*s %s", p.labelWidth, label+":", status), p.colorize)
}

// checks renders the preflight results and returns how many failed.
func (p *statusPrinter) checks(results []preflight.Result) int {
	view := tableView{title: "Preflight", columns: checkColumns}
	for _, r := range results {
		kind := resultKind(r)
		view.rows = append(view.rows, []string{r.Name, kind.paint(kind.String(), p.colorize), r.Detail})
	}
	failed := len(preflight.Failed(results))
	view.footer = []string{"", fmt.Sprintf("%d/%d OK", len(results)-failed, len(results))}
	fmt.Fprintln(p.out, view.render())
	return failed
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
