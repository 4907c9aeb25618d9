// Package report defines the evaluation output types shared by the engine and the renderers.
package report

// Report pairs the score summary with the findings that produced it.
// Findings are kept in rule declaration order.
type Report struct {
	Scores   ScoreSummary `json:"scores"`
	Findings []Finding    `json:"findings"`
}

// ScoreSummary holds the three 0-100 health scores.
type ScoreSummary struct {
	Performance int `json:"performance"`
	Stability   int `json:"stability"`
	Security    int `json:"security"`
}

// Worst returns the lowest of the three scores.
func (s ScoreSummary) Worst() int {
	return min(s.Performance, s.Stability, s.Security)
}

// Finding is one diagnostic observation produced by a rule.
type Finding struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Severity         Severity `json:"severity"`
	Evidence         string   `json:"evidence"`
	Recommendation   string   `json:"recommendation"`
	Impact           Impact   `json:"impact"`
	ReclaimableBytes *int64   `json:"reclaimable_bytes,omitempty"`
}

// ImpactLevel returns the finding's impact, or DefaultImpact when unset.
func (f Finding) ImpactLevel() Impact {
	if f.Impact == "" {
		return DefaultImpact
	}
	return f.Impact
}

// CountBySeverity tallies findings per severity. Unknown severities are
// counted under their own key.
func (r Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, 3)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}
