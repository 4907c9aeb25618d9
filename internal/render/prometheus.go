package render

import (
	"fmt"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/dshills/trustfix/internal/report"
	"github.com/dshills/trustfix/internal/snapshot"
)

// Prometheus renders scores, findings and the improvement estimate in the
// Prometheus text exposition format, suitable for a node_exporter textfile
// collector.
func Prometheus(r *report.Report, s snapshot.Snapshot) (string, error) {
	improvement := EstimateImprovement(s)

	scores := gaugeFamily("trustfix_score", "Health score (0-100) by dimension.")
	for _, sc := range scoreRows(r.Scores) {
		scores.Metric = append(scores.Metric, gauge(float64(sc.Value),
			"dimension", strings.ToLower(sc.Label),
			"bucket", string(sc.Class)))
	}

	findings := gaugeFamily("trustfix_finding", "Active findings; always 1 when present.")
	for _, f := range r.Findings {
		findings.Metric = append(findings.Metric, gauge(1,
			"id", f.ID,
			"severity", strings.ToLower(string(f.Severity)),
			"impact", strings.ToLower(string(f.ImpactLevel()))))
	}

	counts := r.CountBySeverity()
	bySeverity := gaugeFamily("trustfix_findings", "Number of findings by severity.")
	for _, sev := range []report.Severity{report.SeverityCritical, report.SeverityWarning, report.SeverityInfo} {
		bySeverity.Metric = append(bySeverity.Metric, gauge(float64(counts[sev]),
			"severity", strings.ToLower(string(sev))))
	}

	est := gaugeFamily("trustfix_estimated_improvement", "Estimated Performance points gained by applying all recommendations.")
	est.Metric = append(est.Metric, gauge(float64(improvement)))

	after := gaugeFamily("trustfix_estimated_performance_after", "Projected Performance score after fixes.")
	after.Metric = append(after.Metric, gauge(float64(PerformanceAfter(r.Scores.Performance, improvement))))

	var b strings.Builder
	for _, mf := range []*dto.MetricFamily{scores, findings, bySeverity, est, after} {
		// An empty family would fail to encode.
		if len(mf.Metric) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(&b, mf); err != nil {
			return "", fmt.Errorf("render.Prometheus: %s: %w", mf.GetName(), err)
		}
	}
	return b.String(), nil
}

func gaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

// gauge builds a gauge sample; labels are name/value pairs.
func gauge(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  proto.String(labels[i]),
			Value: proto.String(labels[i+1]),
		})
	}
	return m
}
