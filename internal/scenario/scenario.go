// Package scenario provides built-in mock snapshots for demos and tests.
package scenario

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dshills/trustfix/internal/snapshot"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Default is the scenario used when none is named.
const Default = "slow"

// LoadBuiltin loads a built-in scenario by name. Names are case-insensitive.
// CapturedAt is set to the current time when the scenario omits it.
func LoadBuiltin(name string) (*snapshot.File, error) {
	name = strings.ToLower(name)
	path := "builtin/" + name + ".yaml"
	data, err := builtinFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario.LoadBuiltin: unknown scenario %q: %w", name, err)
	}
	s, err := snapshot.Parse(data, false)
	if err != nil {
		return nil, fmt.Errorf("scenario.LoadBuiltin: parse %q: %w", name, err)
	}
	if s.CapturedAt.IsZero() {
		s.CapturedAt = time.Now().UTC()
	}
	return &snapshot.File{
		FilePath: "scenario:" + name,
		Hash:     snapshot.Hash(data),
		Snapshot: s,
	}, nil
}

// List returns the names of all built-in scenarios, sorted.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}
