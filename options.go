package gscript

import (
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/gscript/env"
	"github.com/deepnoodle-ai/gscript/parser"
	"github.com/deepnoodle-ai/gscript/store"
	"github.com/deepnoodle-ai/gscript/vm"
)

// Option configures a compilation or a run.
type Option func(*options)

type options struct {
	env      *env.Environment
	filename string
	logger   zerolog.Logger
	cache    *store.Cache
	globals  vm.Globals
	tracer   vm.Tracer
}

// collectOptions applies opts and fills in the default environment.
func collectOptions(opts ...Option) *options {
	o := applyOptions(opts...)
	if o.env == nil {
		o.env = env.Default()
	}
	return o
}

// applyOptions applies opts without resolving an environment, for the run
// path.
func applyOptions(opts ...Option) *options {
	o := &options{logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) parserOpts(params []string) []parser.Option {
	opts := []parser.Option{
		parser.WithEnvironment(o.env),
		parser.WithParams(params...),
	}
	if o.filename != "" {
		opts = append(opts, parser.WithFilename(o.filename))
	}
	return opts
}

func (o *options) vmOpts() []vm.Option {
	var opts []vm.Option
	if o.tracer != nil {
		opts = append(opts, vm.WithTracer(o.tracer))
	}
	return opts
}

// WithEnvironment sets the tables scripts are compiled against and images
// are sized from. The default is DefaultEnvironment().
func WithEnvironment(e *env.Environment) Option {
	return func(o *options) {
		o.env = e
	}
}

// WithFilename sets the filename recorded in errors and in the artifact.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}

// WithLogger sets the logger for compile and run events. The default
// discards them.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithCache compiles through c, so identical compilations against the same
// environment share one artifact.
func WithCache(c *store.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithGlobals sets the G.* table of images created by NewImage.
func WithGlobals(g vm.Globals) Option {
	return func(o *options) {
		o.globals = g
	}
}

// WithTracer sets a callback invoked after every executed instruction.
func WithTracer(t vm.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}
