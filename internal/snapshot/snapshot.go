// Package snapshot defines the point-in-time health metrics the engine evaluates
// and loads them from YAML, JSON, or Prometheus text files.
package snapshot

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Snapshot is a single measurement of a machine's health metrics.
// Percentages are in [0,100]; counts and byte sizes are non-negative.
type Snapshot struct {
	CapturedAt      time.Time `yaml:"captured_at" json:"captured_at"`
	DiskFreePercent float64   `yaml:"disk_free_percent" json:"disk_free_percent"`
	DiskFreeBytes   int64     `yaml:"disk_free_bytes" json:"disk_free_bytes"`
	StartupAppCount int       `yaml:"startup_app_count" json:"startup_app_count"`
	RAMUsedPercent  float64   `yaml:"ram_used_percent" json:"ram_used_percent"`
}

// File holds a snapshot read from disk together with its source metadata.
type File struct {
	FilePath string
	Hash     string
	Snapshot Snapshot
}

// Loader reads a snapshot file.
type Loader func(path string) (*File, error)

// Load reads a YAML or JSON snapshot file and computes its SHA-256 hash.
// Files ending in .json are decoded as JSON; everything else as YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot.Load: %w", err)
	}
	s, err := Parse(data, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return nil, fmt.Errorf("snapshot.Load: parse %s: %w", path, err)
	}
	return &File{
		FilePath: path,
		Hash:     Hash(data),
		Snapshot: s,
	}, nil
}

// Parse decodes a snapshot document.
func Parse(data []byte, isJSON bool) (Snapshot, error) {
	var s Snapshot
	var err error
	if isJSON {
		err = json.Unmarshal(data, &s)
	} else {
		err = yaml.Unmarshal(data, &s)
	}
	if err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Hash returns the sha256 digest of data in "sha256:<hex>" form.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("sha256:%x", h)
}
