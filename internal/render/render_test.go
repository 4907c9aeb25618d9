package render

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/dshills/trustfix/internal/engine"
	"github.com/dshills/trustfix/internal/report"
	"github.com/dshills/trustfix/internal/snapshot"
)

const gib = 1024 * 1024 * 1024

var (
	slowLaptop  = snapshot.Snapshot{DiskFreePercent: 7.8, DiskFreeBytes: 12 * gib, StartupAppCount: 18, RAMUsedPercent: 82.5}
	ramPressure = snapshot.Snapshot{DiskFreePercent: 22.0, DiskFreeBytes: 80 * gib, StartupAppCount: 6, RAMUsedPercent: 92.0}
	allFiring   = snapshot.Snapshot{DiskFreePercent: 3.0, StartupAppCount: 20, RAMUsedPercent: 97.0}
	healthy     = snapshot.Snapshot{DiskFreePercent: 50, StartupAppCount: 5, RAMUsedPercent: 40}
)

var fixedTime = time.Date(2026, 10, 19, 9, 15, 0, 0, time.UTC)

func TestClassify(t *testing.T) {
	tests := []struct {
		score int
		want  Bucket
	}{
		{100, BucketGood},
		{80, BucketGood},
		{79, BucketOK},
		{60, BucketOK},
		{59, BucketBad},
		{0, BucketBad},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score), "score %d", tt.score)
	}
}

func TestOverall(t *testing.T) {
	assert.Equal(t, "All good", Overall(BucketGood).Title)
	assert.Equal(t, "Needs attention", Overall(BucketOK).Title)
	assert.Equal(t, "Action recommended", Overall(BucketBad).Title)
	assert.Equal(t, Overall(BucketBad), Overall(Bucket("purple")))
	for _, b := range []Bucket{BucketGood, BucketOK, BucketBad} {
		assert.NotEmpty(t, Overall(b).Subtitle)
	}
}

func TestEstimateImprovement(t *testing.T) {
	tests := []struct {
		name string
		snap snapshot.Snapshot
		want int
	}{
		{"slow laptop", slowLaptop, 20 + 14},
		{"ram pressure", ramPressure, 12},
		{"capped", allFiring, MaxImprovement},
		{"healthy", healthy, 0},
		{"disk under 15", snapshot.Snapshot{DiskFreePercent: 14.9}, 12},
		{"disk under 20", snapshot.Snapshot{DiskFreePercent: 19.9}, 6},
		{"disk exactly 20", snapshot.Snapshot{DiskFreePercent: 20}, 0},
		{"eleven apps", snapshot.Snapshot{DiskFreePercent: 50, StartupAppCount: 11}, 2},
		{"ram just over 85", snapshot.Snapshot{DiskFreePercent: 50, RAMUsedPercent: 85.5}, 6},
		{"ram exactly 95", snapshot.Snapshot{DiskFreePercent: 50, RAMUsedPercent: 95}, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateImprovement(tt.snap))
		})
	}
}

func TestEstimateImprovementMonotonic(t *testing.T) {
	disks := []float64{100, 50, 20, 19.9, 15, 14.9, 10, 9.9, 5, 4.9, 0}
	apps := []int{0, 10, 11, 12, 15, 17, 18, 40}
	rams := []float64{0, 85, 85.1, 90, 90.1, 95, 95.1, 100}

	for _, a := range apps {
		for _, r := range rams {
			prev := -1
			for _, d := range disks {
				got := EstimateImprovement(snapshot.Snapshot{DiskFreePercent: d, StartupAppCount: a, RAMUsedPercent: r})
				require.GreaterOrEqual(t, got, prev, "disk %v apps %d ram %v", d, a, r)
				require.LessOrEqual(t, got, MaxImprovement)
				prev = got
			}
		}
	}
	for _, d := range disks {
		for _, r := range rams {
			prev := -1
			for _, a := range apps {
				got := EstimateImprovement(snapshot.Snapshot{DiskFreePercent: d, StartupAppCount: a, RAMUsedPercent: r})
				require.GreaterOrEqual(t, got, prev, "disk %v apps %d ram %v", d, a, r)
				prev = got
			}
		}
	}
	for _, d := range disks {
		for _, a := range apps {
			prev := -1
			for _, r := range rams {
				got := EstimateImprovement(snapshot.Snapshot{DiskFreePercent: d, StartupAppCount: a, RAMUsedPercent: r})
				require.GreaterOrEqual(t, got, prev, "disk %v apps %d ram %v", d, a, r)
				prev = got
			}
		}
	}
}

func TestPerformanceAfter(t *testing.T) {
	assert.Equal(t, 94, PerformanceAfter(60, 34))
	assert.Equal(t, 100, PerformanceAfter(90, 40))
	assert.Equal(t, 100, PerformanceAfter(100, 0))
}

func TestImpactEstimate(t *testing.T) {
	assert.Equal(t, "impact-high", ImpactEstimate("storage.low_free_space").Class)
	assert.Equal(t, "impact-medium", ImpactEstimate("startup.too_many_apps").Class)
	assert.Equal(t, "impact-high", ImpactEstimate("memory.high_usage").Class)
	assert.True(t, strings.HasPrefix(ImpactEstimate("memory.high_usage").Label, "High impact"))

	unknown := ImpactEstimate("network.flaky")
	assert.Equal(t, "Low impact: small improvement", unknown.Label)
	assert.Equal(t, "impact-low", unknown.Class)
}

func TestText(t *testing.T) {
	r := engine.Evaluate(slowLaptop)
	out := Text(&r)

	assert.True(t, strings.HasPrefix(out, "Scores: Performance=60, Stability=80, Security=85\n\n"))
	assert.Contains(t, out, "[Critical] Low disk space on system drive\n")
	assert.Contains(t, out, "[Warning] Too many apps start with Windows\n")
	for _, f := range r.Findings {
		assert.Equal(t, 1, strings.Count(out, f.Title), "title %q", f.Title)
		assert.Equal(t, 1, strings.Count(out, f.Evidence), "evidence %q", f.Evidence)
		assert.Equal(t, 1, strings.Count(out, f.Recommendation), "recommendation %q", f.Recommendation)
	}
	assert.Less(t, strings.Index(out, "Low disk space"), strings.Index(out, "Too many apps"))
}

func TestTextEmpty(t *testing.T) {
	r := engine.Evaluate(healthy)
	out := Text(&r)
	assert.Contains(t, out, "Scores: Performance=100, Stability=90, Security=85")
	assert.Contains(t, out, "No issues found.")
}

func TestMarkdown(t *testing.T) {
	r := engine.Evaluate(slowLaptop)
	md := Markdown(&r, slowLaptop)

	checks := []string{
		"# TrustFix System Health Report",
		"**Status:** Needs attention (worst score 60 / 100)",
		"**Estimated improvement:** +34 Performance (to approx. 94 / 100)",
		"| Performance | 60 / 100 | ok |",
		"| Stability | 80 / 100 | good |",
		"## Recommended Actions",
		"1. **Low disk space on system drive**",
		"2. **Too many apps start with Windows**",
		"## Findings",
		"> Free space is 7.8% (~12.0 GB).",
		"_High impact: smoother system &amp; fewer update errors_",
	}
	for _, want := range checks {
		assert.Contains(t, md, want)
	}
}

func TestMarkdownEmpty(t *testing.T) {
	r := engine.Evaluate(healthy)
	md := Markdown(&r, healthy)
	assert.Contains(t, md, "No issues found")
	assert.Contains(t, md, "**Status:** All good")
	assert.NotContains(t, md, "## Findings")
}

func TestMarkdownEscapesFindingText(t *testing.T) {
	r := report.Report{
		Scores: report.ScoreSummary{Performance: 50, Stability: 90, Security: 85},
		Findings: []report.Finding{{
			ID:             "custom.injected",
			Title:          `<img src=x onerror=alert(1)>`,
			Description:    "Tom & Jerry",
			Severity:       report.SeverityWarning,
			Evidence:       "value <b>bold</b>",
			Recommendation: "use a > b",
		}},
	}
	md := Markdown(&r, healthy)

	assert.NotContains(t, md, "<img")
	assert.NotContains(t, md, "<b>")
	assert.Contains(t, md, "### &lt;img src=x onerror=alert(1)&gt; [Warning]")
	assert.Contains(t, md, "1. **&lt;img src=x onerror=alert(1)&gt;** use a &gt; b")
	assert.Contains(t, md, "Tom &amp; Jerry")
	assert.Contains(t, md, "> value &lt;b&gt;bold&lt;/b&gt;")
	assert.Contains(t, md, "**Recommendation:** use a &gt; b")
}

// --- HTML ---

func parseHTML(t *testing.T, doc string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	return root
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func byID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := byID(c, id); found != nil {
			return found
		}
	}
	return nil
}

func elements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode && n.Data == tag {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, elements(c, tag)...)
	}
	return out
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func TestHTMLStructure(t *testing.T) {
	r := engine.Evaluate(slowLaptop)
	doc := HTMLAt(&r, slowLaptop, fixedTime)
	root := parseHTML(t, doc)

	titles := elements(root, "title")
	require.Len(t, titles, 1)
	assert.Equal(t, "TrustFix – System Health Report", textOf(titles[0]))

	header := byID(root, "header")
	require.NotNil(t, header)
	assert.Contains(t, textOf(header), "Generated at: 2026-10-19 09:15:00 UTC")

	overall := byID(root, "overall")
	require.NotNil(t, overall)
	assert.True(t, hasClass(overall, "ok"))
	overallText := textOf(overall)
	assert.Contains(t, overallText, "Needs attention")
	assert.Contains(t, overallText, "Worst score: 60/100")
	assert.Contains(t, overallText, "+34 points")
	assert.Contains(t, overallText, "Estimated Performance after fixes: 94/100")
	assert.Contains(t, overallText, "7.8% disk free • 18 startup apps")
	assert.Contains(t, overallText, "RAM used: 82.5%")

	scores := byID(root, "scores")
	require.NotNil(t, scores)
	var boxes []*html.Node
	for _, div := range elements(scores, "div") {
		if hasClass(div, "scorebox") {
			boxes = append(boxes, div)
		}
	}
	require.Len(t, boxes, 3)
	assert.True(t, hasClass(boxes[0], "ok"), "performance 60 is ok")
	assert.True(t, hasClass(boxes[1], "good"), "stability 80 is good")
	assert.True(t, hasClass(boxes[2], "good"), "security 85 is good")

	var links []string
	for _, a := range elements(root, "a") {
		links = append(links, attr(a, "href"))
	}
	assert.Equal(t, []string{"#recommended-actions", "#"}, links)
}

func TestHTMLPreservesFindingOrder(t *testing.T) {
	r := engine.Evaluate(allFiring)
	root := parseHTML(t, HTMLAt(&r, allFiring, fixedTime))

	actions := byID(root, "recommended-actions")
	require.NotNil(t, actions)
	items := elements(actions, "li")
	require.Len(t, items, len(r.Findings))
	for i, f := range r.Findings {
		assert.Contains(t, textOf(items[i]), f.Title)
		assert.Contains(t, textOf(items[i]), f.Recommendation)
	}

	findings := byID(root, "findings")
	require.NotNil(t, findings)
	headings := elements(findings, "h3")
	require.Len(t, headings, len(r.Findings))
	for i, f := range r.Findings {
		assert.Contains(t, textOf(headings[i]), f.Title)
	}

	sectionText := textOf(findings)
	for _, f := range r.Findings {
		assert.Equal(t, 1, strings.Count(sectionText, f.Title), "title %q", f.Title)
		assert.Equal(t, 1, strings.Count(sectionText, f.Evidence), "evidence %q", f.Evidence)
		assert.Equal(t, 1, strings.Count(sectionText, f.Recommendation), "recommendation %q", f.Recommendation)
	}
	actionsText := textOf(actions)
	for _, f := range r.Findings {
		assert.Equal(t, 1, strings.Count(actionsText, f.Title))
		assert.Equal(t, 1, strings.Count(actionsText, f.Recommendation))
	}
}

func TestHTMLFindingClasses(t *testing.T) {
	r := engine.Evaluate(allFiring)
	root := parseHTML(t, HTMLAt(&r, allFiring, fixedTime))

	var cards []*html.Node
	for _, div := range elements(byID(root, "findings"), "div") {
		if hasClass(div, "finding") {
			cards = append(cards, div)
		}
	}
	require.Len(t, cards, 3)
	assert.True(t, hasClass(cards[0], "critical"))
	assert.True(t, hasClass(cards[1], "warning"))
	assert.True(t, hasClass(cards[2], "critical"))

	badges := []string{"impact-high", "impact-medium", "impact-high"}
	for i, card := range cards {
		var spans []*html.Node
		for _, s := range elements(card, "span") {
			if hasClass(s, "impact-badge") {
				spans = append(spans, s)
			}
		}
		require.Len(t, spans, 1)
		assert.True(t, hasClass(spans[0], badges[i]))
	}
}

func TestHTMLEscapesFindingText(t *testing.T) {
	r := report.Report{
		Scores: report.ScoreSummary{Performance: 50, Stability: 90, Security: 85},
		Findings: []report.Finding{{
			ID:             "custom.injected",
			Title:          `<script>alert("x")</script>`,
			Description:    "Tom & Jerry",
			Severity:       report.Severity("Catastrophic"),
			Evidence:       "value <b>bold</b>",
			Recommendation: "use a > b",
			Impact:         report.Impact("Enormous"),
		}},
	}
	doc := HTMLAt(&r, healthy, fixedTime)

	assert.NotContains(t, doc, "<script>")
	assert.Contains(t, doc, "&lt;script&gt;")
	assert.Contains(t, doc, "Tom &amp; Jerry")
	assert.Contains(t, doc, "value &lt;b&gt;bold&lt;/b&gt;")
	assert.Contains(t, doc, "use a &gt; b")

	root := parseHTML(t, doc)
	assert.Contains(t, textOf(byID(root, "findings")), `<script>alert("x")</script>`)
	assert.Contains(t, textOf(byID(root, "overall")), "Action recommended")

	for _, div := range elements(byID(root, "findings"), "div") {
		if hasClass(div, "finding") {
			assert.Equal(t, "card finding", strings.TrimSpace(attr(div, "class")))
		}
	}
	for _, span := range elements(root, "span") {
		assert.True(t, hasClass(span, "impact-low"))
		assert.Equal(t, "Low impact: small improvement", textOf(span))
	}
}

func TestHTMLEmptyFindings(t *testing.T) {
	r := engine.Evaluate(healthy)
	root := parseHTML(t, HTMLAt(&r, healthy, fixedTime))

	actions := byID(root, "recommended-actions")
	require.NotNil(t, actions)
	assert.Empty(t, elements(actions, "li"))
	assert.Len(t, elements(actions, "ol"), 1)

	findings := byID(root, "findings")
	require.NotNil(t, findings)
	assert.Empty(t, elements(findings, "h3"))

	overall := byID(root, "overall")
	assert.True(t, hasClass(overall, "good"))
	assert.Contains(t, textOf(overall), "All good")
	assert.Contains(t, textOf(overall), "+0 points")
}

func TestHTMLUsesWallClock(t *testing.T) {
	r := engine.Evaluate(healthy)
	before := time.Now().Add(-time.Minute)
	doc := HTML(&r, healthy)

	header := textOf(byID(parseHTML(t, doc), "header"))
	idx := strings.Index(header, "Generated at: ")
	require.GreaterOrEqual(t, idx, 0)
	stamp := strings.TrimSpace(header[idx+len("Generated at: "):])
	got, err := time.Parse(GeneratedAtLayout, stamp)
	require.NoError(t, err)
	assert.False(t, got.Before(before.Truncate(time.Second)))
}

func TestHTMLConcurrent(t *testing.T) {
	r := engine.Evaluate(slowLaptop)
	want := HTMLAt(&r, slowLaptop, fixedTime)

	done := make(chan string, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- HTMLAt(&r, slowLaptop, fixedTime) }()
	}
	for i := 0; i < 8; i++ {
		assert.Equal(t, want, <-done)
	}
}

func TestPrometheus(t *testing.T) {
	r := engine.Evaluate(slowLaptop)
	out, err := Prometheus(&r, slowLaptop)
	require.NoError(t, err)

	checks := []string{
		"# TYPE trustfix_score gauge",
		`trustfix_score{dimension="performance",bucket="ok"} 60`,
		`trustfix_score{dimension="stability",bucket="good"} 80`,
		`trustfix_score{dimension="security",bucket="good"} 85`,
		`trustfix_finding{id="storage.low_free_space",severity="critical",impact="high"} 1`,
		`trustfix_finding{id="startup.too_many_apps",severity="warning",impact="medium"} 1`,
		`trustfix_findings{severity="critical"} 1`,
		`trustfix_findings{severity="warning"} 1`,
		`trustfix_findings{severity="info"} 0`,
		"trustfix_estimated_improvement 34",
		"trustfix_estimated_performance_after 94",
	}
	for _, want := range checks {
		assert.Contains(t, out, want)
	}
}

func TestPrometheusNoFindings(t *testing.T) {
	r := engine.Evaluate(healthy)
	out, err := Prometheus(&r, healthy)
	require.NoError(t, err)
	assert.NotContains(t, out, "trustfix_finding{")
	assert.Contains(t, out, "trustfix_estimated_improvement 0")

	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(strings.NewReader(out))
	require.NoError(t, err)
	require.Contains(t, mfs, "trustfix_score")
	assert.Len(t, mfs["trustfix_score"].GetMetric(), 3)
	assert.NotContains(t, mfs, "trustfix_finding")
}
