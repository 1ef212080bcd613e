package main

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/gscript"
	"github.com/deepnoodle-ai/gscript/env"
)

// benchResult holds benchmark statistics.
type benchResult struct {
	Hook       string  `json:"hook"`
	Iterations int     `json:"iterations"`
	Warmup     int     `json:"warmup"`
	TotalNs    int64   `json:"total_ns"`
	OpsPerSec  float64 `json:"ops_per_sec"`
	MinNs      int64   `json:"min_ns"`
	MaxNs      int64   `json:"max_ns"`
	AvgNs      int64   `json:"avg_ns"`
	MedianNs   int64   `json:"median_ns"`
	P95Ns      int64   `json:"p95_ns"`
	P99Ns      int64   `json:"p99_ns"`
}

func (a *app) newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench FILE|ARTIFACT",
		Short: "Time repeated runs of one hook",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.benchHandler,
	}
	flags := cmd.Flags()
	flags.String("hook", env.DefaultBlockName, "Hook to run")
	flags.StringArray("in", nil, "Set an input: name=value (repeatable)")
	flags.StringArray("arg", nil, "Bind the next script parameter (repeatable)")
	flags.StringArray("global", nil, "Seed a G.* entry: key=value (repeatable)")
	flags.IntP("iterations", "n", 10000, "Number of timed runs")
	flags.Int("warmup", 100, "Number of untimed runs first")
	flags.StringP("output", "o", "text", "Output format: text or json")
	return cmd
}

func (a *app) benchHandler(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	hook, _ := flags.GetString("hook")
	inputs, _ := flags.GetStringArray("in")
	scriptArgs, _ := flags.GetStringArray("arg")
	seeds, _ := flags.GetStringArray("global")
	iterations, _ := flags.GetInt("iterations")
	warmup, _ := flags.GetInt("warmup")
	format, _ := flags.GetString("output")
	if iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", iterations)
	}
	if format != "json" && format != "text" {
		return fmt.Errorf("unknown output format: %s (expected %s)", format, strings.Join(outputFormats, " or "))
	}

	src, err := a.readSource(cmd, args)
	if err != nil {
		return err
	}
	blocks, err := a.compileSource(cmd, src)
	if err != nil {
		return err
	}
	e, err := a.environment()
	if err != nil {
		return err
	}
	table, err := seedGlobals(seeds)
	if err != nil {
		return err
	}
	image, err := newImage(blocks, hook, inputs, scriptArgs,
		gscript.WithEnvironment(e), gscript.WithGlobals(table))
	if err != nil {
		return err
	}

	// A faulting hook would only measure the fault path.
	if err := image.Run(); err != nil {
		return err
	}
	for range warmup {
		_ = image.Run()
	}
	runtime.GC()

	durations := make([]time.Duration, iterations)
	var total time.Duration
	for i := range durations {
		start := time.Now()
		_ = image.Run()
		durations[i] = time.Since(start)
		total += durations[i]
	}
	slices.Sort(durations)

	r := benchResult{
		Hook:       hook,
		Iterations: iterations,
		Warmup:     warmup,
		TotalNs:    total.Nanoseconds(),
		OpsPerSec:  float64(iterations) / max(total.Seconds(), 1e-9),
		MinNs:      durations[0].Nanoseconds(),
		MaxNs:      durations[iterations-1].Nanoseconds(),
		AvgNs:      (total / time.Duration(iterations)).Nanoseconds(),
		MedianNs:   durations[iterations/2].Nanoseconds(),
		P95Ns:      percentile(durations, 0.95).Nanoseconds(),
		P99Ns:      percentile(durations, 0.99).Nanoseconds(),
	}
	if format == "json" {
		return a.writeJSON(cmd.OutOrStdout(), r)
	}
	printBench(cmd.OutOrStdout(), r, durations)
	return nil
}

// percentile expects sorted durations.
func percentile(sorted []time.Duration, p float64) time.Duration {
	i := int(float64(len(sorted)) * p)
	return sorted[min(i, len(sorted)-1)]
}

func printBench(w io.Writer, r benchResult, sorted []time.Duration) {
	title := color.New(color.FgYellow, color.Bold)
	label := color.New(color.FgMagenta)
	value := color.New(color.FgGreen)

	title.Fprintf(w, "%s: %d runs (%d warmup)\n", r.Hook, r.Iterations, r.Warmup)
	rows := []struct {
		name string
		text string
	}{
		{"ops/sec", fmt.Sprintf("%.0f", r.OpsPerSec)},
		{"min", time.Duration(r.MinNs).String()},
		{"avg", time.Duration(r.AvgNs).String()},
		{"median", time.Duration(r.MedianNs).String()},
		{"p95", time.Duration(r.P95Ns).String()},
		{"p99", time.Duration(r.P99Ns).String()},
		{"max", time.Duration(r.MaxNs).String()},
	}
	for _, row := range rows {
		label.Fprintf(w, "%-8s", row.name)
		value.Fprintln(w, row.text)
	}
	fmt.Fprintln(w)
	printHistogram(w, sorted, label, value)
}

func printHistogram(w io.Writer, sorted []time.Duration, label, value *color.Color) {
	const buckets, width = 10, 30
	lo, hi := sorted[0], sorted[len(sorted)-1]
	size := (hi - lo) / buckets
	if size == 0 {
		size = time.Nanosecond
	}
	counts := make([]int, buckets)
	for _, d := range sorted {
		counts[min(int((d-lo)/size), buckets-1)]++
	}
	most := slices.Max(counts)
	for i, n := range counts {
		from := lo + time.Duration(i)*size
		bar := n * width / most
		label.Fprintf(w, "%10v ", from)
		value.Fprint(w, strings.Repeat("#", bar)+strings.Repeat(".", width-bar))
		fmt.Fprintf(w, " %d\n", n)
	}
}
