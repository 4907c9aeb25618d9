// Package render turns an evaluation report into console text, Markdown,
// HTML, and Prometheus text documents.
package render

import (
	"fmt"
	"strings"

	"github.com/dshills/trustfix/internal/report"
	"github.com/dshills/trustfix/internal/snapshot"
)

// Text renders the console report: the score line followed by one block per finding.
func Text(r *report.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Scores: Performance=%d, Stability=%d, Security=%d\n\n",
		r.Scores.Performance, r.Scores.Stability, r.Scores.Security)

	if len(r.Findings) == 0 {
		b.WriteString("No issues found.\n")
		return b.String()
	}

	for _, f := range r.Findings {
		fmt.Fprintf(&b, "[%s] %s\n", f.Severity, f.Title)
		fmt.Fprintf(&b, "- %s\n", f.Evidence)
		fmt.Fprintf(&b, "- Recommendation: %s\n\n", f.Recommendation)
	}
	return b.String()
}

// mdEscaper keeps finding text from being read as inline HTML by Markdown
// viewers.
var mdEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Markdown renders the report as a Markdown document. Finding text is
// HTML-escaped; Markdown emphasis characters pass through.
func Markdown(r *report.Report, s snapshot.Snapshot) string {
	var b strings.Builder

	worst := r.Scores.Worst()
	headline := Overall(Classify(worst))
	improvement := EstimateImprovement(s)

	b.WriteString("# TrustFix System Health Report\n\n")
	fmt.Fprintf(&b, "**Status:** %s (worst score %d / 100)\n\n", headline.Title, worst)
	fmt.Fprintf(&b, "%s\n\n", headline.Subtitle)
	fmt.Fprintf(&b, "**Estimated improvement:** +%d Performance (to approx. %d / 100)\n\n",
		improvement, PerformanceAfter(r.Scores.Performance, improvement))

	b.WriteString("## Scores\n\n")
	b.WriteString("| Score | Value | Status |\n|---|---|---|\n")
	for _, sc := range scoreRows(r.Scores) {
		fmt.Fprintf(&b, "| %s | %d / 100 | %s |\n", sc.Label, sc.Value, sc.Class)
	}
	b.WriteString("\n")

	b.WriteString("## Recommended Actions\n\n")
	if len(r.Findings) == 0 {
		b.WriteString("No issues found.\n\n")
	}
	for i, f := range r.Findings {
		fmt.Fprintf(&b, "%d. **%s** %s\n", i+1, mdEscaper.Replace(f.Title), mdEscaper.Replace(f.Recommendation))
	}
	if len(r.Findings) > 0 {
		b.WriteString("\n## Findings\n\n")
	}
	for _, f := range r.Findings {
		renderFinding(&b, f)
	}

	return b.String()
}

func renderFinding(b *strings.Builder, f report.Finding) {
	esc := mdEscaper.Replace
	fmt.Fprintf(b, "### %s [%s]\n\n", esc(f.Title), esc(string(f.Severity)))
	fmt.Fprintf(b, "_%s_\n\n", esc(ImpactEstimate(f.ID).Label))
	fmt.Fprintf(b, "%s\n\n", esc(f.Description))
	fmt.Fprintf(b, "> %s\n\n", esc(f.Evidence))
	fmt.Fprintf(b, "**Impact:** %s\n\n", esc(string(f.ImpactLevel())))
	fmt.Fprintf(b, "**Recommendation:** %s\n\n", esc(f.Recommendation))
}

type scoreRow struct {
	Label string
	Value int
	Class Bucket
}

func scoreRows(s report.ScoreSummary) []scoreRow {
	return []scoreRow{
		{"Performance", s.Performance, Classify(s.Performance)},
		{"Stability", s.Stability, Classify(s.Stability)},
		{"Security", s.Security, Classify(s.Security)},
	}
}
