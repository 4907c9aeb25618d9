package engine

import "github.com/dshills/trustfix/internal/report"

// Stability and Security are v1 placeholders: Stability only tracks disk
// pressure and Security is constant.
var baseScores = report.ScoreSummary{
	Performance: 100,
	Stability:   90,
	Security:    85,
}

// adjustment is the score delta a rule contributes when it fires.
type adjustment struct {
	performance int
	stability   int
	security    int
}

func (a adjustment) apply(s report.ScoreSummary) report.ScoreSummary {
	s.Performance += a.performance
	s.Stability += a.stability
	s.Security += a.security
	return s
}

func clampScores(s report.ScoreSummary) report.ScoreSummary {
	return report.ScoreSummary{
		Performance: clamp(s.Performance),
		Stability:   clamp(s.Stability),
		Security:    clamp(s.Security),
	}
}

func clamp(v int) int {
	return max(0, min(100, v))
}
