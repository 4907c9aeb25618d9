package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Metric names read from a node_exporter style text exposition.
const (
	MetricFilesystemAvail = "node_filesystem_avail_bytes"
	MetricFilesystemSize  = "node_filesystem_size_bytes"
	MetricMemAvailable    = "node_memory_MemAvailable_bytes"
	MetricMemTotal        = "node_memory_MemTotal_bytes"

	// MetricStartupApps is exported by a textfile collector; it has no
	// node_exporter equivalent.
	MetricStartupApps = "trustfix_startup_apps"
)

// maxBytes bounds byte gauges so they convert to int64 without overflow.
const maxBytes = 1 << 62

// DefaultMountpoint selects the system drive's filesystem series.
const DefaultMountpoint = "/"

// LoadMetrics reads a Prometheus text exposition file and converts it into a
// snapshot using the filesystem series for DefaultMountpoint.
func LoadMetrics(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot.LoadMetrics: %w", err)
	}
	s, err := FromMetrics(bytes.NewReader(data), DefaultMountpoint)
	if err != nil {
		return nil, fmt.Errorf("snapshot.LoadMetrics: %s: %w", path, err)
	}
	return &File{
		FilePath: path,
		Hash:     Hash(data),
		Snapshot: s,
	}, nil
}

// FromMetrics builds a snapshot from a Prometheus text exposition.
// Disk and memory series are required; the startup app gauge defaults to 0.
// Any parse error or non-finite or negative sample fails the conversion.
// CapturedAt is taken from the newest sample timestamp, if any.
func FromMetrics(r io.Reader, mountpoint string) (Snapshot, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse prometheus text: %w", err)
	}

	var s Snapshot
	var newest int64

	avail, ok1 := filesystemValue(mfs[MetricFilesystemAvail], mountpoint, &newest)
	size, ok2 := filesystemValue(mfs[MetricFilesystemSize], mountpoint, &newest)
	if !ok1 || !ok2 {
		return Snapshot{}, fmt.Errorf("missing filesystem metrics for mountpoint %q", mountpoint)
	}
	if err := checkSample(MetricFilesystemAvail, avail, maxBytes); err != nil {
		return Snapshot{}, err
	}
	if err := checkSample(MetricFilesystemSize, size, math.MaxFloat64); err != nil {
		return Snapshot{}, err
	}
	if size == 0 {
		return Snapshot{}, fmt.Errorf("filesystem %q reports size %v", mountpoint, size)
	}
	s.DiskFreeBytes = int64(avail)
	s.DiskFreePercent = avail / size * 100

	memAvail, ok1 := firstValue(mfs[MetricMemAvailable], &newest)
	memTotal, ok2 := firstValue(mfs[MetricMemTotal], &newest)
	if !ok1 || !ok2 {
		return Snapshot{}, fmt.Errorf("missing memory metrics")
	}
	if err := checkSample(MetricMemAvailable, memAvail, math.MaxFloat64); err != nil {
		return Snapshot{}, err
	}
	if err := checkSample(MetricMemTotal, memTotal, math.MaxFloat64); err != nil {
		return Snapshot{}, err
	}
	if memTotal == 0 {
		return Snapshot{}, fmt.Errorf("memory total is %v", memTotal)
	}
	s.RAMUsedPercent = (1 - memAvail/memTotal) * 100

	if apps, ok := firstValue(mfs[MetricStartupApps], &newest); ok {
		if err := checkSample(MetricStartupApps, apps, math.MaxInt32); err != nil {
			return Snapshot{}, err
		}
		s.StartupAppCount = int(apps)
	}

	if newest > 0 {
		s.CapturedAt = time.UnixMilli(newest).UTC()
	}
	return s, nil
}

// checkSample rejects values that cannot be converted into a snapshot field:
// NaN, infinities, negatives, and anything above limit.
func checkSample(name string, v, limit float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > limit {
		return fmt.Errorf("%s: sample %v out of range", name, v)
	}
	return nil
}

func filesystemValue(mf *dto.MetricFamily, mountpoint string, newest *int64) (float64, bool) {
	if mf == nil {
		return 0, false
	}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "mountpoint" && lp.GetValue() == mountpoint {
				trackTimestamp(m, newest)
				return sampleValue(m), true
			}
		}
	}
	return 0, false
}

func firstValue(mf *dto.MetricFamily, newest *int64) (float64, bool) {
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0, false
	}
	m := mf.GetMetric()[0]
	trackTimestamp(m, newest)
	return sampleValue(m), true
}

func sampleValue(m *dto.Metric) float64 {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	}
	return 0
}

func trackTimestamp(m *dto.Metric, newest *int64) {
	if ts := m.GetTimestampMs(); ts > *newest {
		*newest = ts
	}
}
