// Package schema validates snapshots at the input boundary and reports at the
// output boundary.
package schema

import (
	"fmt"
	"math"

	"github.com/dshills/trustfix/internal/report"
	"github.com/dshills/trustfix/internal/snapshot"
)

// ValidationError describes a single schema violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// ValidateSnapshot checks the snapshot's range invariants. The engine assumes
// a conforming snapshot; collectors call this before handing one over.
func ValidateSnapshot(s snapshot.Snapshot) []ValidationError {
	var errs []ValidationError

	errs = append(errs, validatePercent("disk_free_percent", s.DiskFreePercent)...)
	errs = append(errs, validatePercent("ram_used_percent", s.RAMUsedPercent)...)
	if s.DiskFreeBytes < 0 {
		errs = append(errs, ValidationError{"disk_free_bytes", fmt.Sprintf("must be >= 0, got %d", s.DiskFreeBytes)})
	}
	if s.StartupAppCount < 0 {
		errs = append(errs, ValidationError{"startup_app_count", fmt.Sprintf("must be >= 0, got %d", s.StartupAppCount)})
	}

	return errs
}

func validatePercent(path string, v float64) []ValidationError {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return []ValidationError{{path, fmt.Sprintf("must be within [0,100], got %v", v)}}
	}
	return nil
}

// Validate checks a Report for structural validity.
func Validate(r *report.Report) []ValidationError {
	var errs []ValidationError

	for path, v := range map[string]int{
		"scores.performance": r.Scores.Performance,
		"scores.stability":   r.Scores.Stability,
		"scores.security":    r.Scores.Security,
	} {
		if v < 0 || v > 100 {
			errs = append(errs, ValidationError{path, fmt.Sprintf("must be within [0,100], got %d", v)})
		}
	}

	ids := make(map[string]bool)
	for i, f := range r.Findings {
		prefix := fmt.Sprintf("findings[%d]", i)
		if f.ID == "" {
			errs = append(errs, ValidationError{prefix + ".id", "required"})
		} else if ids[f.ID] {
			errs = append(errs, ValidationError{prefix + ".id", fmt.Sprintf("duplicate ID: %q", f.ID)})
		} else {
			ids[f.ID] = true
		}
		if !f.Severity.Valid() {
			errs = append(errs, ValidationError{prefix + ".severity", fmt.Sprintf("invalid: %q", f.Severity)})
		}
		if f.Impact != "" && !f.Impact.Valid() {
			errs = append(errs, ValidationError{prefix + ".impact", fmt.Sprintf("invalid: %q", f.Impact)})
		}
		if f.Title == "" {
			errs = append(errs, ValidationError{prefix + ".title", "required"})
		}
		if f.Evidence == "" {
			errs = append(errs, ValidationError{prefix + ".evidence", "required"})
		}
		if f.Recommendation == "" {
			errs = append(errs, ValidationError{prefix + ".recommendation", "required"})
		}
		if f.ReclaimableBytes != nil && *f.ReclaimableBytes < 0 {
			errs = append(errs, ValidationError{prefix + ".reclaimable_bytes", "must be >= 0"})
		}
	}

	return errs
}
