package engine

import (
	"fmt"

	"github.com/dshills/trustfix/internal/report"
	"github.com/dshills/trustfix/internal/snapshot"
)

// Thresholds used by the rule table.
const (
	LowFreeSpacePercent = 10.0
	MaxStartupApps      = 12
	HighRAMPercent      = 85.0
	CriticalRAMPercent  = 92.0
)

// rule is one entry of the declarative rule table. The table order is the
// order findings appear in a report.
type rule struct {
	id       string
	severity report.Severity // nominal; memory.high_usage escalates at runtime
	impact   report.Impact
	applies  func(snapshot.Snapshot) bool
	finding  func(snapshot.Snapshot) report.Finding
	adjust   func(snapshot.Snapshot) adjustment
}

var rules = []rule{
	{
		id:       "storage.low_free_space",
		severity: report.SeverityCritical,
		impact:   report.ImpactHigh,
		applies:  func(s snapshot.Snapshot) bool { return s.DiskFreePercent < LowFreeSpacePercent },
		finding: func(s snapshot.Snapshot) report.Finding {
			return report.Finding{
				ID:             "storage.low_free_space",
				Title:          "Low disk space on system drive",
				Description:    "Low free space can slow down the system and cause update failures.",
				Severity:       report.SeverityCritical,
				Evidence:       fmt.Sprintf("Free space is %.1f%% (~%s).", s.DiskFreePercent, FormatBytes(s.DiskFreeBytes)),
				Recommendation: "Run Safe Cleanup (temp/cache/recycle bin) and move large files off the system drive.",
				Impact:         report.ImpactHigh,
			}
		},
		adjust: func(snapshot.Snapshot) adjustment {
			return adjustment{performance: -30, stability: -10}
		},
	},
	{
		id:       "startup.too_many_apps",
		severity: report.SeverityWarning,
		impact:   report.ImpactMedium,
		applies:  func(s snapshot.Snapshot) bool { return s.StartupAppCount > MaxStartupApps },
		finding: func(s snapshot.Snapshot) report.Finding {
			return report.Finding{
				ID:             "startup.too_many_apps",
				Title:          "Too many apps start with Windows",
				Description:    "Excess startup apps increase boot time and waste RAM/CPU in the background.",
				Severity:       report.SeverityWarning,
				Evidence:       fmt.Sprintf("Detected %d startup apps.", s.StartupAppCount),
				Recommendation: "Disable non-essential startup apps (keep drivers/security tools enabled).",
				Impact:         report.ImpactMedium,
			}
		},
		adjust: func(snapshot.Snapshot) adjustment {
			return adjustment{performance: -10}
		},
	},
	{
		id:       "memory.high_usage",
		severity: report.SeverityWarning,
		impact:   report.ImpactHigh,
		applies:  func(s snapshot.Snapshot) bool { return s.RAMUsedPercent > HighRAMPercent },
		finding: func(s snapshot.Snapshot) report.Finding {
			sev := report.SeverityWarning
			if s.RAMUsedPercent > CriticalRAMPercent {
				sev = report.SeverityCritical
			}
			return report.Finding{
				ID:             "memory.high_usage",
				Title:          "High memory usage",
				Description:    "When RAM is near full, Windows starts paging to disk, making everything feel slow.",
				Severity:       sev,
				Evidence:       fmt.Sprintf("RAM usage is %.1f%%.", s.RAMUsedPercent),
				Recommendation: "Close heavy apps/tabs, reduce background apps, and consider upgrading RAM if this is frequent.",
				Impact:         report.ImpactHigh,
			}
		},
		adjust: func(s snapshot.Snapshot) adjustment {
			if s.RAMUsedPercent > CriticalRAMPercent {
				return adjustment{performance: -20}
			}
			return adjustment{performance: -10}
		},
	},
}

// RuleInfo describes a rule table entry for listing.
type RuleInfo struct {
	ID       string
	Severity report.Severity
	Impact   report.Impact
}

// Rules returns the rule table in declaration order.
func Rules() []RuleInfo {
	out := make([]RuleInfo, len(rules))
	for i, r := range rules {
		out[i] = RuleInfo{ID: r.id, Severity: r.severity, Impact: r.impact}
	}
	return out
}
