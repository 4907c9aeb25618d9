package render

import "github.com/dshills/trustfix/internal/snapshot"

// Bucket is the three-way presentation class of a score.
type Bucket string

const (
	BucketGood Bucket = "good"
	BucketOK   Bucket = "ok"
	BucketBad  Bucket = "bad"
)

// Classify maps a score to its bucket: good at 80 and above, ok at 60 and above.
func Classify(score int) Bucket {
	switch {
	case score >= 80:
		return BucketGood
	case score >= 60:
		return BucketOK
	default:
		return BucketBad
	}
}

// Headline is the fixed overall-status copy for a bucket.
type Headline struct {
	Title    string
	Subtitle string
}

var headlines = map[Bucket]Headline{
	BucketGood: {"All good", "Your system looks healthy. Keep it up."},
	BucketOK:   {"Needs attention", "Your system is usable, but a few fixes will improve it."},
	BucketBad:  {"Action recommended", "Your system needs fixes to avoid slowdowns or issues."},
}

// Overall returns the headline for b. Unknown buckets read as BucketBad.
func Overall(b Bucket) Headline {
	if h, ok := headlines[b]; ok {
		return h
	}
	return headlines[BucketBad]
}

// MaxImprovement caps the estimated Performance gain.
const MaxImprovement = 40

// EstimateImprovement projects how many Performance points applying every
// recommendation would gain. It reads the raw snapshot, not the findings.
func EstimateImprovement(s snapshot.Snapshot) int {
	gain := 0

	switch {
	case s.DiskFreePercent < 5:
		gain += 25
	case s.DiskFreePercent < 10:
		gain += 20
	case s.DiskFreePercent < 15:
		gain += 12
	case s.DiskFreePercent < 20:
		gain += 6
	}

	// ~10 startup apps is a healthy baseline.
	if s.StartupAppCount > 10 {
		gain += min(14, (s.StartupAppCount-10)*2)
	}

	switch {
	case s.RAMUsedPercent > 95:
		gain += 18
	case s.RAMUsedPercent > 90:
		gain += 12
	case s.RAMUsedPercent > 85:
		gain += 6
	}

	return min(gain, MaxImprovement)
}

// PerformanceAfter is the projected Performance score once improvement is applied.
func PerformanceAfter(performance, improvement int) int {
	return min(100, performance+improvement)
}

// Estimate is the presentation label for the benefit of fixing a finding.
type Estimate struct {
	Label string
	Class string
}

var lowEstimate = Estimate{"Low impact: small improvement", "impact-low"}

var estimates = map[string]Estimate{
	"storage.low_free_space": {"High impact: smoother system & fewer update errors", "impact-high"},
	"startup.too_many_apps":  {"Medium impact: faster boot & less background load", "impact-medium"},
	"memory.high_usage":      {"High impact: fewer freezes & better responsiveness", "impact-high"},
}

// ImpactEstimate looks up the estimate for a finding ID. It is independent of
// the finding's own Impact field; unknown IDs get the low-impact label.
func ImpactEstimate(findingID string) Estimate {
	if e, ok := estimates[findingID]; ok {
		return e
	}
	return lowEstimate
}
