// Package report renders scan results for people: a Markdown summary with
// per-app finding tables, and an HTML conversion of the same document.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/a11ylab/appscan/internal/aggregate"
	"github.com/a11ylab/appscan/internal/findings"
	"github.com/a11ylab/appscan/internal/scan"
)

// Markdown renders the full scan result as a GFM document.
func Markdown(res *scan.Result) string {
	var sb strings.Builder

	title := res.SolutionName
	if title == "" {
		title = "Accessibility Scan"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "%d app(s) scanned, %d finding(s).\n\n", len(res.Apps), totalFindings(res.Apps))

	for _, app := range res.Apps {
		writeApp(&sb, app)
	}

	if len(res.Diagnostics) > 0 {
		sb.WriteString("## Diagnostics\n\n")
		sb.WriteString("Entries that could not be read or parsed:\n\n")
		for _, d := range res.Diagnostics {
			fmt.Fprintf(&sb, "- `%s`: %s\n", d.Path, d.Message)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeApp(sb *strings.Builder, app aggregate.AppResult) {
	fmt.Fprintf(sb, "## %s\n\n", app.App)

	if len(app.Result.Findings) == 0 {
		sb.WriteString("No findings.\n\n")
		return
	}

	writeHistogram(sb, app.Result.Histogram)

	sb.WriteString("| Severity | Control | Issue | Location | WCAG |\n")
	sb.WriteString("|---|---|---|---|---|\n")
	for _, f := range app.Result.Findings {
		fmt.Fprintf(sb, "| %s | `%s` | %s | %s | %s |\n",
			f.Severity, f.ControlID, escapeCell(f.Message), escapeCell(location(f)), f.WCAG)
	}
	sb.WriteString("\n")

	for _, f := range app.Result.Findings {
		if f.SuggestedFix == "" {
			continue
		}
		fmt.Fprintf(sb, "- **%s** (`%s`): %s\n", f.IssueType, f.ControlID, f.SuggestedFix)
	}
	sb.WriteString("\n")
}

func writeHistogram(sb *strings.Builder, hist map[findings.Severity]int) {
	var parts []string
	for _, sev := range []findings.Severity{
		findings.SeverityCritical,
		findings.SeverityHigh,
		findings.SeverityMedium,
		findings.SeverityLow,
		findings.SeverityInfo,
	} {
		if n := hist[sev]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(sb, "%s.\n\n", strings.Join(parts, ", "))
	}
}

// location describes where a finding sits, varying by surface.
func location(f findings.Finding) string {
	if f.Entity != "" {
		parts := []string{f.Entity}
		if f.Tab != "" {
			parts = append(parts, f.Tab)
		}
		if f.Section != "" {
			parts = append(parts, f.Section)
		}
		return strings.Join(parts, " / ")
	}
	return f.Screen
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func totalFindings(apps []aggregate.AppResult) int {
	total := 0
	for _, app := range apps {
		total += len(app.Result.Findings)
	}
	return total
}

// HTML converts the Markdown report to a standalone HTML fragment.
func HTML(res *scan.Result) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(res)), &buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}
