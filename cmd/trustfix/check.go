package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/trustfix/internal/engine"
	"github.com/dshills/trustfix/internal/output"
	"github.com/dshills/trustfix/internal/render"
	"github.com/dshills/trustfix/internal/report"
	"github.com/dshills/trustfix/internal/scenario"
	"github.com/dshills/trustfix/internal/schema"
	"github.com/dshills/trustfix/internal/snapshot"
)

// autoHTML is the --html value used when the flag is given without a path.
const autoHTML = "auto"

type checkFlags struct {
	format   string
	out      string
	htmlOut  string
	scenario string
	metrics  string
	failOn   string
	watch    bool
	verbose  bool
}

func newCheckCmd() *cobra.Command {
	f := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [snapshot-file]",
		Short: "Evaluate a snapshot and print the health report",
		Long: `Evaluate a snapshot and print the health report.

The snapshot comes from a YAML or JSON file, a Prometheus text exposition
(--metrics), or a built-in scenario (--scenario, default "slow").`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), args, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.format, "format", "text", "Output format: text, md, html, json, or prom")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.StringVar(&f.htmlOut, "html", "", "Also write the HTML report to this path (bare --html picks a name)")
	flags.Lookup("html").NoOptDefVal = autoHTML
	flags.StringVar(&f.scenario, "scenario", "", "Built-in scenario name (see 'trustfix scenarios')")
	flags.StringVar(&f.metrics, "metrics", "", "Read the snapshot from a Prometheus text exposition file")
	flags.StringVar(&f.failOn, "fail-on", "", "Exit non-zero if the overall status is at or below: good, ok, or bad")
	flags.BoolVar(&f.watch, "watch", false, "Re-evaluate whenever the snapshot file changes")
	flags.BoolVar(&f.verbose, "verbose", false, "Print processing steps to stderr")

	return cmd
}

func runCheck(w io.Writer, args []string, f *checkFlags) error {
	logger := log.New(os.Stderr, "", 0)
	verbose := func(msg string, args ...any) {
		if f.verbose {
			logger.Printf(msg, args...)
		}
	}

	if !validFormat(f.format) {
		return exitError(3, "unknown format: %s", f.format)
	}
	if f.failOn != "" {
		if _, err := bucketMeetsThreshold(render.BucketGood, f.failOn); err != nil {
			return exitError(3, "%v", err)
		}
	}

	// 1. Resolve the snapshot source
	source, load, err := resolveSource(args, f)
	if err != nil {
		return exitError(3, "%v", err)
	}

	// 2. Load
	verbose("Loading snapshot: %s", source)
	file, err := load(source)
	if err != nil {
		return exitError(3, "failed to load snapshot: %v", err)
	}

	// 3. Evaluate and emit
	bucket, err := emit(w, file, f, logger, verbose)
	if err != nil {
		return err
	}

	if f.watch {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return watch(ctx, w, source, load, f, logger, verbose)
	}

	// 4. Exit code based on --fail-on
	if f.failOn != "" {
		meets, _ := bucketMeetsThreshold(bucket, f.failOn)
		if meets {
			return exitError(2, "overall status %s meets fail threshold %s", bucket, f.failOn)
		}
	}
	return nil
}

func watch(ctx context.Context, w io.Writer, source string, load snapshot.Loader, f *checkFlags, logger *log.Logger, verbose func(string, ...any)) error {
	verbose("Watching %s for changes", source)
	err := snapshot.Watch(ctx, source, load, func(file *snapshot.File, err error) {
		if err != nil {
			logger.Printf("reload failed, keeping previous report: %v", err)
			return
		}
		verbose("Snapshot changed: %s", file.Hash)
		if _, err := emit(w, file, f, logger, verbose); err != nil {
			logger.Printf("%v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", source, err)
	}
	return nil
}

// resolveSource picks the snapshot source from the positional argument and
// flags. At most one of file, --metrics, and --scenario may be given.
// --watch never exits on its own, so it cannot be combined with --fail-on.
func resolveSource(args []string, f *checkFlags) (string, snapshot.Loader, error) {
	if f.watch && f.failOn != "" {
		return "", nil, fmt.Errorf("--watch cannot be combined with --fail-on")
	}
	given := 0
	if len(args) == 1 {
		given++
	}
	if f.metrics != "" {
		given++
	}
	if f.scenario != "" {
		given++
	}
	if given > 1 {
		return "", nil, fmt.Errorf("give only one of a snapshot file, --metrics, or --scenario")
	}

	switch {
	case len(args) == 1:
		return args[0], snapshot.Load, nil
	case f.metrics != "":
		return f.metrics, snapshot.LoadMetrics, nil
	}

	if f.watch {
		return "", nil, fmt.Errorf("--watch requires a snapshot file or --metrics")
	}
	name := f.scenario
	if name == "" {
		name = scenario.Default
	}
	return name, scenario.LoadBuiltin, nil
}

// emit validates and evaluates one snapshot, writes the requested document,
// and returns the overall status bucket.
func emit(w io.Writer, file *snapshot.File, f *checkFlags, logger *log.Logger, verbose func(string, ...any)) (render.Bucket, error) {
	if errs := schema.ValidateSnapshot(file.Snapshot); len(errs) > 0 {
		for _, e := range errs {
			logger.Printf("  %s", e)
		}
		return "", exitError(3, "snapshot %s failed validation (%d errors)", file.FilePath, len(errs))
	}

	rep := engine.Evaluate(file.Snapshot)
	verbose("Evaluated rule set %s: %d findings", engine.RuleSetVersion, len(rep.Findings))

	if errs := schema.Validate(&rep); len(errs) > 0 {
		return "", fmt.Errorf("report failed validation: %v", errs)
	}

	doc, err := format(&rep, file, f.format)
	if err != nil {
		return "", err
	}

	if f.out != "" {
		verbose("Writing output to %s", f.out)
		if err := output.WriteFile(f.out, doc); err != nil {
			return "", fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		fmt.Fprint(w, doc)
	}

	if f.htmlOut != "" {
		path := f.htmlOut
		if path == autoHTML {
			path = output.DefaultHTMLName(file.FilePath)
		}
		if err := output.WriteFile(path, render.HTML(&rep, file.Snapshot)); err != nil {
			return "", fmt.Errorf("failed to write HTML report: %w", err)
		}
		logger.Printf("HTML report generated: %s", path)
	}

	return render.Classify(rep.Scores.Worst()), nil
}

var formats = []string{"text", "md", "html", "json", "prom"}

func validFormat(name string) bool {
	for _, f := range formats {
		if f == name {
			return true
		}
	}
	return false
}

func format(rep *report.Report, file *snapshot.File, name string) (string, error) {
	switch name {
	case "text":
		return render.Text(rep), nil
	case "md":
		return render.Markdown(rep, file.Snapshot), nil
	case "html":
		return render.HTML(rep, file.Snapshot), nil
	case "prom":
		return render.Prometheus(rep, file.Snapshot)
	case "json":
		data, err := json.MarshalIndent(newJSONReport(rep, file), "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal output: %w", err)
		}
		return string(data) + "\n", nil
	}
	return "", exitError(3, "unknown format: %s", name)
}

type jsonReport struct {
	Tool    string    `json:"tool"`
	Version string    `json:"version"`
	RuleSet string    `json:"rule_set"`
	Input   jsonInput `json:"input"`
	report.Report
	Status               render.Bucket `json:"status"`
	EstimatedImprovement int           `json:"estimated_improvement"`
	PerformanceAfter     int           `json:"performance_after"`
	GeneratedAt          time.Time     `json:"generated_at"`
}

type jsonInput struct {
	Source     string    `json:"source"`
	Hash       string    `json:"hash"`
	CapturedAt time.Time `json:"captured_at"`
}

func newJSONReport(rep *report.Report, file *snapshot.File) jsonReport {
	improvement := render.EstimateImprovement(file.Snapshot)
	return jsonReport{
		Tool:    "trustfix",
		Version: version,
		RuleSet: engine.RuleSetVersion,
		Input: jsonInput{
			Source:     file.FilePath,
			Hash:       file.Hash,
			CapturedAt: file.Snapshot.CapturedAt,
		},
		Report:               *rep,
		Status:               render.Classify(rep.Scores.Worst()),
		EstimatedImprovement: improvement,
		PerformanceAfter:     render.PerformanceAfter(rep.Scores.Performance, improvement),
		GeneratedAt:          time.Now().UTC(),
	}
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// bucketMeetsThreshold reports whether bucket is at or below failOn.
// Order from best to worst: good, ok, bad.
func bucketMeetsThreshold(bucket render.Bucket, failOn string) (bool, error) {
	level := map[render.Bucket]int{
		render.BucketGood: 0,
		render.BucketOK:   1,
		render.BucketBad:  2,
	}
	tl, ok := level[render.Bucket(strings.ToLower(failOn))]
	if !ok {
		return false, fmt.Errorf("unrecognized --fail-on value %q (want good, ok, or bad)", failOn)
	}
	bl, ok := level[bucket]
	if !ok {
		return false, nil
	}
	return bl >= tl, nil
}
