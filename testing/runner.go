// Package testing runs scenario suites: YAML files that compile a script
// against an environment, run hooks with given inputs and check the
// outputs and globals they produce.
package testing

import (
	"context"
	goerrors "errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/gscript"
	"github.com/deepnoodle-ai/gscript/dis"
	"github.com/deepnoodle-ai/gscript/env"
	"github.com/deepnoodle-ai/gscript/errors"
	"github.com/deepnoodle-ai/gscript/errz"
	"github.com/deepnoodle-ai/gscript/globals"
	"github.com/deepnoodle-ai/gscript/store"
)

// Config holds configuration for running suites.
type Config struct {
	// Patterns specifies files or directories to search for suites.
	// Default is the current directory.
	Patterns []string

	// RunPattern filters cases by name regex.
	RunPattern string

	// Logger receives compile and cache events.
	Logger zerolog.Logger
}

// DiscoverTestFiles finds all *_test.yaml and *_test.yml files matching
// the given patterns. A pattern ending in "..." is searched recursively.
func DiscoverTestFiles(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	var files []string
	seen := map[string]bool{}
	add := func(path string) {
		if isTestFile(path) && !seen[path] {
			files = append(files, path)
			seen[path] = true
		}
	}

	for _, pattern := range patterns {
		if strings.Contains(pattern, "*") {
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			for _, m := range matches {
				add(m)
			}
			continue
		}

		recursive := strings.HasSuffix(pattern, "...")
		dir := pattern
		if recursive {
			dir = strings.TrimSuffix(strings.TrimSuffix(pattern, "..."), "/")
			if dir == "" {
				dir = "."
			}
		}
		info, err := os.Stat(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("path not found: %s", dir)
			}
			return nil, err
		}
		switch {
		case !info.IsDir():
			add(pattern)
		case recursive:
			err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		default:
			entries, err := os.ReadDir(dir)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if !e.IsDir() {
					add(filepath.Join(dir, e.Name()))
				}
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

func isTestFile(path string) bool {
	return strings.HasSuffix(path, "_test.yaml") || strings.HasSuffix(path, "_test.yml")
}

// Run executes every suite matching the configuration.
func Run(ctx context.Context, cfg *Config) (*Summary, error) {
	if cfg == nil {
		cfg = &Config{Logger: zerolog.Nop()}
	}
	files, err := DiscoverTestFiles(cfg.Patterns)
	if err != nil {
		return nil, err
	}
	var runRe *regexp.Regexp
	if cfg.RunPattern != "" {
		if runRe, err = regexp.Compile(cfg.RunPattern); err != nil {
			return nil, fmt.Errorf("invalid run pattern: %w", err)
		}
	}

	r := &runner{cache: store.NewCache(store.WithLogger(cfg.Logger)), logger: cfg.Logger, runRe: runRe}
	summary := &Summary{}
	start := time.Now()
	for _, file := range files {
		summary.Files = append(summary.Files, r.runFile(ctx, file))
	}
	summary.Duration = time.Since(start)
	summary.ComputeTotals()
	return summary, nil
}

type runner struct {
	cache  *store.Cache
	logger zerolog.Logger
	runRe  *regexp.Regexp
}

func (r *runner) runFile(ctx context.Context, filename string) *FileResult {
	result := &FileResult{Filename: filename}
	suite, err := LoadSuite(filename)
	if err != nil {
		result.LoadErr = err
		return result
	}
	e := env.Default()
	if suite.Env != "" {
		if e, err = env.LoadFile(suite.Env); err != nil {
			result.LoadErr = err
			return result
		}
	}
	for _, c := range suite.Cases {
		if r.runRe != nil && !r.runRe.MatchString(c.Name) {
			continue
		}
		result.Tests = append(result.Tests, r.runCase(ctx, filename, suite, e, c))
	}
	return result
}

func (r *runner) runCase(ctx context.Context, filename string, suite *Suite, e *env.Environment, c Case) *TestResult {
	result := &TestResult{Name: c.Name}
	if c.Skip != "" {
		result.Status = StatusSkipped
		result.SkipReason = c.Skip
		return result
	}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	source, params := suite.Source, suite.Params
	if c.Source != "" {
		source = c.Source
	}
	if c.Params != nil {
		params = c.Params
	}
	blocks, err := gscript.CompileContext(ctx, source, params,
		gscript.WithEnvironment(e),
		gscript.WithFilename(filename),
		gscript.WithLogger(r.logger),
		gscript.WithCache(r.cache),
	)
	if c.Error != "" {
		switch {
		case err == nil:
			result.fail("expected a compile error", "success", c.Error)
		case !errors.HasCode(err, errors.ErrorCode(c.Error)):
			result.fail("wrong compile error", err.Error(), c.Error)
		}
		return result
	}
	if err != nil {
		result.Status = StatusError
		result.Error = err
		return result
	}

	hook := c.Hook
	if hook == "" {
		hook = e.DefaultBlock
	}
	table := globals.New(c.Globals)
	image, err := gscript.NewImage(blocks, hook,
		gscript.WithEnvironment(e),
		gscript.WithGlobals(table),
		gscript.WithLogger(r.logger),
	)
	if err == nil {
		err = prepare(image, c)
		if err != nil {
			result.Status = StatusError
			result.Error = err
			return result
		}
		err = image.Run()
	}
	if c.Fault != "" {
		var f *errz.Fault
		switch {
		case err == nil:
			result.fail("expected a fault", "success", c.Fault)
		case !goerrors.As(err, &f):
			result.Status = StatusError
			result.Error = err
		case f.Kind.String() != c.Fault:
			result.fail("wrong fault", f.Kind.String(), c.Fault)
		}
		return result
	}
	if err != nil {
		result.Status = StatusError
		result.Error = err
		return result
	}
	check(result, image, table, c)
	return result
}

func prepare(image *gscript.Image, c Case) error {
	for _, name := range sortedKeys(c.Inputs) {
		if err := image.Set(name, c.Inputs[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(c.Strings) {
		if err := image.SetString(name, c.Strings[name]); err != nil {
			return err
		}
	}
	return image.SetArgs(c.Args...)
}

func check(result *TestResult, image *gscript.Image, table *globals.Table, c Case) {
	for _, name := range sortedKeys(c.Want) {
		got, err := image.Get(name)
		if err != nil {
			result.fail(err.Error(), "", "")
			continue
		}
		if want := c.Want[name]; !same(got, want) {
			result.fail(name, dis.FormatNumber(got), dis.FormatNumber(want))
		}
	}
	for _, name := range sortedKeys(c.WantStrings) {
		got, err := image.GetString(name)
		if err != nil {
			result.fail(err.Error(), "", "")
			continue
		}
		if want := c.WantStrings[name]; got != want {
			result.fail(name, fmt.Sprintf("%q", got), fmt.Sprintf("%q", want))
		}
	}
	for _, key := range sortedKeys(c.WantGlobals) {
		if got, want := table.Get(key), c.WantGlobals[key]; !same(got, want) {
			result.fail(fmt.Sprintf("G[%q]", key), dis.FormatNumber(got), dis.FormatNumber(want))
		}
	}
}

// same compares numbers exactly, treating NaN as equal to NaN.
func same(got, want float64) bool {
	if math.IsNaN(want) {
		return math.IsNaN(got)
	}
	return got == want
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
