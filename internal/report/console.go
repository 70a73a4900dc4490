package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/docstruct/docstruct/internal/structure"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// dimStyle for muted label text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// successStyle for pass indicators
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	// warnStyle for warning-severity issues
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	// errStyle for error-severity issues and failures
	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// boxStyle for the run summary box
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)

	// headerBoxStyle for the run header
	headerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)

	// stageStyle for per-stage progress markers
	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)
)

// FormatRunHeader renders the run header box with the input and output
// locations.
func FormatRunHeader(w io.Writer, source, outputDir string) {
	content := fmt.Sprintf("%s\n%s %s\n%s %s",
		titleStyle.Render("docstruct"),
		dimStyle.Render("Source:"), source,
		dimStyle.Render("Output:"), outputDir,
	)
	fmt.Fprintln(w, headerBoxStyle.Render(content))
}

// FormatStage renders one pipeline progress line.
func FormatStage(w io.Writer, name, detail string) {
	marker := stageStyle.Render("▸")
	if detail == "" {
		fmt.Fprintf(w, "%s %s\n", marker, name)
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", marker, name, dimStyle.Render(detail))
}

// FormatSummary renders the run summary box: document facts, record
// counts, issue counts, and the verdict.
func FormatSummary(w io.Writer, res *structure.Result) {
	degraded := ""
	if res.Metadata.DegradedMode {
		degraded = "  " + warnStyle.Render("DEGRADED MODE")
	}

	verdict := successStyle.Render("OK")
	if res.Failed {
		verdict = errStyle.Render("FAILED (strict mode)")
	} else if res.ErrorCount() > 0 {
		verdict = warnStyle.Render("OK with errors")
	}

	line1 := fmt.Sprintf("%s %s", dimStyle.Render("Document:"), res.DocTitle)
	line2 := fmt.Sprintf("%s %d  %s %d  %s %d",
		dimStyle.Render("Pages:"), res.Metadata.TotalPages,
		dimStyle.Render("ToC entries:"), len(res.Entries),
		dimStyle.Render("Sections:"), len(res.Sections),
	)
	line3 := fmt.Sprintf("%s %d  %s %d  %s %d",
		dimStyle.Render("Tables:"), res.Metadata.TotalTables,
		dimStyle.Render("Figures:"), res.Metadata.TotalFigures,
		dimStyle.Render("Max level:"), res.Metadata.MaxLevel,
	)
	line4 := fmt.Sprintf("%s %s  %s %s%s",
		dimStyle.Render("Errors:"), renderCount(res.ErrorCount(), errStyle),
		dimStyle.Render("Warnings:"), renderCount(res.WarningCount(), warnStyle),
		degraded,
	)
	line5 := fmt.Sprintf("%s %s", dimStyle.Render("Run ID:"), res.Metadata.RunID)
	line6 := fmt.Sprintf("%s %s", dimStyle.Render("Verdict:"), verdict)

	content := titleStyle.Render("Run Complete") + "\n" +
		line1 + "\n" + line2 + "\n" + line3 + "\n" + line4 + "\n" + line5 + "\n" + line6
	fmt.Fprintln(w, boxStyle.Render(content))
}

// FormatIssues renders every accumulated issue, one line each, with both
// declared and observed values carried in the detail text.
func FormatIssues(w io.Writer, issues []structure.ValidationIssue) {
	if len(issues) == 0 {
		return
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Issues (%d)", len(issues))))
	for _, issue := range issues {
		sev := warnStyle.Render("warn ")
		if issue.Severity == structure.SeverityError {
			sev = errStyle.Render("error")
		}
		fmt.Fprintf(w, "  %s %s %s: %s\n",
			sev, stageStyle.Render(string(issue.Kind)), issue.SectionID, issue.Detail)
	}
}

// FormatFiles renders the generated-file listing with sizes.
func FormatFiles(w io.Writer, summary *WriteSummary) {
	fmt.Fprintln(w, titleStyle.Render("Generated Files"))
	for _, f := range summary.Files {
		fmt.Fprintf(w, "  %s %s\n", filepath.Base(f.Path), dimStyle.Render(fmt.Sprintf("(%d bytes)", f.Size)))
	}
	if summary.SchemaFailures > 0 {
		fmt.Fprintf(w, "  %s\n", warnStyle.Render(fmt.Sprintf("%d records failed schema validation (written anyway)", summary.SchemaFailures)))
	}
	fmt.Fprintf(w, "%s %d bytes\n", dimStyle.Render("Total output size:"), summary.TotalSize())
}

// FormatCheckReport renders the findings of an output re-validation.
func FormatCheckReport(w io.Writer, rep *CheckReport) {
	if rep.OK() {
		fmt.Fprintln(w, successStyle.Render("All output files valid"))
		for _, f := range rep.FilesChecked {
			fmt.Fprintf(w, "  %s %s\n", filepath.Base(f), dimStyle.Render(fmt.Sprintf("(%d records)", rep.RecordCounts[f])))
		}
		return
	}

	fmt.Fprintln(w, errStyle.Render("Output validation failed"))
	for _, f := range rep.MissingFiles {
		fmt.Fprintf(w, "  %s missing file %s\n", errStyle.Render("error"), f)
	}
	for _, e := range rep.SchemaErrors {
		fmt.Fprintf(w, "  %s %s\n", errStyle.Render("schema"), e)
	}
	for _, e := range rep.IntegrityErrors {
		fmt.Fprintf(w, "  %s %s\n", errStyle.Render("integrity"), e)
	}
}

func renderCount(n int, nonzero lipgloss.Style) string {
	s := fmt.Sprintf("%d", n)
	if n == 0 {
		return successStyle.Render(s)
	}
	return nonzero.Render(s)
}
