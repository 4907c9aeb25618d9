package render

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/dshills/trustfix/internal/report"
	"github.com/dshills/trustfix/internal/snapshot"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html.tmpl"))

// GeneratedAtLayout formats the header timestamp.
const GeneratedAtLayout = "2006-01-02 15:04:05 MST"

type htmlView struct {
	GeneratedAt      string
	Overall          Bucket
	Headline         Headline
	WorstScore       int
	Improvement      int
	PerformanceAfter int
	DiskFreePercent  string
	StartupAppCount  int
	RAMUsedPercent   string
	Scores           []scoreRow
	Findings         []findingView
}

type findingView struct {
	Title          string
	Description    string
	Evidence       string
	Recommendation string
	SeverityClass  string
	Impact         Estimate
}

// HTML renders the self-contained HTML report stamped with the current time.
func HTML(r *report.Report, s snapshot.Snapshot) string {
	return HTMLAt(r, s, time.Now())
}

// HTMLAt renders the HTML report with an explicit generation time.
// Every text field is escaped by html/template.
func HTMLAt(r *report.Report, s snapshot.Snapshot, generatedAt time.Time) string {
	worst := r.Scores.Worst()
	overall := Classify(worst)
	improvement := EstimateImprovement(s)

	view := htmlView{
		GeneratedAt:      generatedAt.Format(GeneratedAtLayout),
		Overall:          overall,
		Headline:         Overall(overall),
		WorstScore:       worst,
		Improvement:      improvement,
		PerformanceAfter: PerformanceAfter(r.Scores.Performance, improvement),
		DiskFreePercent:  fmt.Sprintf("%.1f", s.DiskFreePercent),
		StartupAppCount:  s.StartupAppCount,
		RAMUsedPercent:   fmt.Sprintf("%.1f", s.RAMUsedPercent),
		Scores:           scoreRows(r.Scores),
		Findings:         make([]findingView, 0, len(r.Findings)),
	}
	for _, f := range r.Findings {
		view.Findings = append(view.Findings, findingView{
			Title:          f.Title,
			Description:    f.Description,
			Evidence:       f.Evidence,
			Recommendation: f.Recommendation,
			SeverityClass:  severityClass(f.Severity),
			Impact:         ImpactEstimate(f.ID),
		})
	}

	var b strings.Builder
	// The view holds only strings and ints, so execution cannot fail.
	if err := pageTemplate.Execute(&b, view); err != nil {
		panic(fmt.Sprintf("render.HTML: %v", err))
	}
	return b.String()
}

// severityClass returns the CSS class for a severity; unknown severities
// get no styling.
func severityClass(s report.Severity) string {
	switch s {
	case report.SeverityCritical:
		return "critical"
	case report.SeverityWarning:
		return "warning"
	case report.SeverityInfo:
		return "info"
	}
	return ""
}
