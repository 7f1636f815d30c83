package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	depsolve "github.com/albertocavalcante/go-depsolve"
)

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleValue    = lipgloss.NewStyle().Foreground(colorWhite)
	styleVersion  = lipgloss.NewStyle().Foreground(colorCyan)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleWarning  = lipgloss.NewStyle().Foreground(colorYellow)
	styleConflict = lipgloss.NewStyle().Foreground(colorRed)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconArrow   = "→"
)

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+styleWarning.Render(fmt.Sprintf(format, args...)))
}

func printDetail(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, "  "+styleDim.Render(fmt.Sprintf(format, args...)))
}

// printResolution lists the selected packages, then diagnostics.
func printResolution(w io.Writer, res *depsolve.Resolution) {
	width := 0
	for _, p := range res.Packages {
		width = max(width, len(p.Name))
	}
	nameStyle := styleValue.Width(width)

	for _, p := range res.Packages {
		line := "  " + nameStyle.Render(p.Name) + " " + styleVersion.Render(p.Version.String())
		if p.Direct {
			line += styleDim.Render(" (direct)")
		}
		fmt.Fprintln(w, line)
	}
	for _, h := range res.Diagnostics.HeldBack {
		printWarning(w, "%s", h)
	}
	for _, warning := range res.Diagnostics.Warnings {
		printWarning(w, "%s", warning)
	}
}

// printConflicts renders an unsatisfiable report, one requirement per line.
func printConflicts(w io.Writer, report *depsolve.ConflictReport) {
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+styleTitle.Render("requirements cannot be satisfied"))
	if report == nil {
		return
	}
	for _, c := range report.Conflicts {
		fmt.Fprintln(w, "  "+styleDim.Render(iconArrow)+" "+styleConflict.Render(c.String()))
	}
	qualifier := "not minimal"
	if report.Minimal {
		qualifier = "minimal"
	}
	printDetail(w, "%s set over %s", qualifier, strings.Join(report.Packages(), ", "))
	for _, s := range report.Suggestions() {
		printDetail(w, "try: %s", s)
	}
}

// printStats prints search statistics on one dim line.
func printStats(w io.Writer, s depsolve.Stats) {
	parts := []string{
		fmt.Sprintf("%d packages", s.Packages),
		fmt.Sprintf("%d decisions", s.Decisions),
		fmt.Sprintf("%d conflicts", s.Conflicts),
		fmt.Sprintf("%d registry calls", s.ListVersionsCalls+s.GetRequirementsCalls),
	}
	if s.Fallback {
		parts = append(parts, "chronological fallback")
	}
	fmt.Fprintln(w, "  "+styleDim.Render(strings.Join(parts, " · ")))
}
