// Package engine evaluates a snapshot against the fixed diagnostic rule table
// and derives the health scores.
package engine

import (
	"github.com/dshills/trustfix/internal/report"
	"github.com/dshills/trustfix/internal/snapshot"
)

// RuleSetVersion identifies the rule table and scoring formula.
const RuleSetVersion = "v1"

// Evaluate applies every rule to s in declaration order and computes the scores.
// It is deterministic and never fails for a snapshot within its documented ranges.
func Evaluate(s snapshot.Snapshot) report.Report {
	findings := []report.Finding{}
	scores := baseScores

	for _, r := range rules {
		if !r.applies(s) {
			continue
		}
		findings = append(findings, r.finding(s))
		scores = r.adjust(s).apply(scores)
	}

	return report.Report{
		Scores:   clampScores(scores),
		Findings: findings,
	}
}
