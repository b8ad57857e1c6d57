package lint

import (
	"fmt"
	"io"
	"strings"
)

// ANSI color codes for the console report.
const (
	colorRed    = "\033[0;31m"
	colorYellow = "\033[0;33m"
	colorGreen  = "\033[0;32m"
	colorBlue   = "\033[0;34m"
	colorCyan   = "\033[0;36m"
	colorReset  = "\033[0m"
)

// maxInfoLines caps the informational section of a passing document.
const maxInfoLines = 5

// Reporter renders validation results to a console stream. The report text
// is for humans; machine consumers should use the process exit code.
type Reporter struct {
	Out   io.Writer
	Quiet bool // only show errors
	Color bool
}

func (p *Reporter) paint(color, s string) string {
	if !p.Color {
		return s
	}
	return color + s + colorReset
}

func (p *Reporter) status(r *Result) string {
	switch r.Status() {
	case Fail:
		return p.paint(colorRed, "FAIL")
	case Warn:
		return p.paint(colorYellow, "WARN")
	default:
		return p.paint(colorGreen, "PASS")
	}
}

// Report renders one document's result: status line first, then errors
// before warnings, then a capped list of informational notes.
func (p *Reporter) Report(r *Result) {
	if p.Quiet && r.Status() != Fail {
		return
	}

	fmt.Fprintf(p.Out, "[%s] %s\n", p.status(r), r.Name)

	for _, d := range r.Errors() {
		fmt.Fprintf(p.Out, "      %s %s\n", p.paint(colorRed, "ERROR:"), d.Message)
	}
	if p.Quiet {
		return
	}
	for _, d := range r.Warnings() {
		fmt.Fprintf(p.Out, "      %s %s\n", p.paint(colorYellow, "WARN:"), d.Message)
	}

	infos := r.Infos()
	if len(r.Errors()) > 0 || len(infos) == 0 {
		return
	}
	shown := infos
	if len(shown) > maxInfoLines {
		shown = shown[:maxInfoLines]
	}
	for _, d := range shown {
		fmt.Fprintf(p.Out, "      %s %s\n", p.paint(colorGreen, "OK:"), d.Message)
	}
	if len(infos) > maxInfoLines {
		fmt.Fprintf(p.Out, "      ... and %d more\n", len(infos)-maxInfoLines)
	}
}

// ReportAll renders every result followed by the summary block.
func (p *Reporter) ReportAll(results []*Result, summary Summary) {
	rule := p.paint(colorCyan, strings.Repeat("=", 60))

	fmt.Fprintf(p.Out, "%s\n", rule)
	fmt.Fprintf(p.Out, "%s\n", p.paint(colorBlue, "Workflow Integrity Validation"))
	fmt.Fprintf(p.Out, "%s\n\n", rule)

	for _, r := range results {
		p.Report(r)
	}

	fmt.Fprintf(p.Out, "\n%s\n", rule)
	fmt.Fprintf(p.Out, "Summary: %d workflow(s)\n", summary.Files)
	fmt.Fprintf(p.Out, "  Errors: %s\n", p.count(summary.Errors, colorRed))
	fmt.Fprintf(p.Out, "  Warnings: %s\n", p.count(summary.Warnings, colorYellow))
	if summary.Fixed > 0 {
		fmt.Fprintf(p.Out, "  Fixed: %s\n", p.count(summary.Fixed, colorYellow))
	}
	fmt.Fprintf(p.Out, "%s\n", rule)
}

func (p *Reporter) count(n int, badColor string) string {
	color := colorGreen
	if n > 0 {
		color = badColor
	}
	return p.paint(color, fmt.Sprintf("%d", n))
}
