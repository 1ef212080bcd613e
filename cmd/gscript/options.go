package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/gscript"
	"github.com/deepnoodle-ai/gscript/env"
	"github.com/deepnoodle-ai/gscript/store"
)

// Reads global flags and adjusts the process accordingly.
func (a *app) processGlobalFlags() {
	if a.v.GetBool("no-color") || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
}

func (a *app) useColor() bool {
	return !color.NoColor
}

func (a *app) logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(a.v.GetString("log-level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.WarnLevel
	}
	out := zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: a.v.GetBool("no-color") || !isTerminal(os.Stderr),
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func (a *app) environment() (*env.Environment, error) {
	path := a.v.GetString("env")
	if path == "" {
		return gscript.DefaultEnvironment(), nil
	}
	return env.LoadFile(path)
}

func (a *app) params() []string {
	raw := strings.TrimSpace(a.v.GetString("params"))
	if raw == "" {
		return nil
	}
	var params []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			params = append(params, p)
		}
	}
	return params
}

// options returns the compile and run options for the configured
// environment, logger and store. The returned function releases the store.
func (a *app) options(ctx context.Context, e *env.Environment, filename string) ([]gscript.Option, func(), error) {
	logger := a.logger()
	opts := []gscript.Option{
		gscript.WithEnvironment(e),
		gscript.WithLogger(logger),
	}
	if filename != "" {
		opts = append(opts, gscript.WithFilename(filename))
	}
	backend, closer, err := openStore(ctx, a.v.GetString("store"))
	if err != nil {
		return nil, nil, err
	}
	if backend != nil {
		cache := store.NewCache(store.WithBackend(backend), store.WithLogger(logger))
		opts = append(opts, gscript.WithCache(cache))
	}
	return opts, closer, nil
}

// openStore opens the backend named by a store URL. An empty URL means no
// backend.
func openStore(ctx context.Context, raw string) (store.Backend, func(), error) {
	nop := func() {}
	if raw == "" {
		return nil, nop, nil
	}
	switch {
	case strings.HasPrefix(raw, "sqlite:"):
		db, err := store.NewSQLite(ctx, strings.TrimPrefix(raw, "sqlite:"))
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		db, pool, err := store.NewPostgres(ctx, raw)
		if err != nil {
			return nil, nil, err
		}
		return db, pool.Close, nil
	case strings.HasPrefix(raw, "s3://"):
		u, err := url.Parse(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid store url: %w", err)
		}
		b, err := store.NewS3(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
		if err != nil {
			return nil, nil, err
		}
		return b, nop, nil
	}
	return nil, nil, fmt.Errorf("unsupported store %q (expected sqlite:PATH, postgres://... or s3://BUCKET/PREFIX)", raw)
}
