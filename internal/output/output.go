// Package output writes rendered documents to files.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFile writes doc to outPath, creating missing parent directories.
// A trailing newline is added if doc lacks one.
func WriteFile(outPath, doc string) error {
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("output.WriteFile: %w", err)
		}
	}

	if !strings.HasSuffix(doc, "\n") {
		doc += "\n"
	}

	if err := os.WriteFile(outPath, []byte(doc), 0644); err != nil {
		return fmt.Errorf("output.WriteFile: %w", err)
	}
	return nil
}

// DefaultHTMLName is the report file name used for a source, e.g.
// "trustfix-report-slow.html" for scenario "slow".
func DefaultHTMLName(source string) string {
	base := filepath.Base(source)
	base = strings.TrimPrefix(base, "scenario:")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		base = "snapshot"
	}
	return "trustfix-report-" + base + ".html"
}
