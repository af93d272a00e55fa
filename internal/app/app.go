// Package app implements the application layer for forge.
package app

import (
	"context"
	"runtime"

	"go.trai.ch/zerr"

	"go.trai.ch/forge/internal/adapters/builddb"
	"go.trai.ch/forge/internal/adapters/config"
	"go.trai.ch/forge/internal/adapters/execqueue"
	"go.trai.ch/forge/internal/buildsystem"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

const (
	// clientName is the name build manifests must declare.
	clientName = "forge"
	// clientVersion is the client schema version merged into the build
	// database schema identifier.
	clientVersion uint32 = 0
)

// App represents the main application logic.
type App struct {
	log    ports.Logger
	fs     ports.FileSystem
	status ports.StatusReporter
}

// New creates a new App instance.
func New(log ports.Logger, fs ports.FileSystem, status ports.StatusReporter) *App {
	return &App{log: log, fs: fs, status: status}
}

// BuildOptions parameterize one build invocation.
type BuildOptions struct {
	// Manifest is the path of the main build file.
	Manifest string

	// Target is the target to build.
	Target string

	// DBPath, when set, persists results across builds.
	DBPath string

	// TracePath, when set, records an engine execution trace.
	TracePath string

	// NumJobs is the execution queue parallelism; zero means the number
	// of CPUs.
	NumJobs int
}

// Build runs a build of the given target and returns an error when the
// build failed or reported diagnostics.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	numJobs := opts.NumJobs
	if numJobs <= 0 {
		numJobs = runtime.NumCPU()
	}

	delegate := newBuildDelegate(ctx, a.log, a.fs, a.status, func() ports.ExecutionQueue {
		return execqueue.NewQueue(ctx, a.log, numJobs)
	})

	system := buildsystem.New(delegate, opts.Manifest, config.NewLoader())

	if opts.DBPath != "" {
		db, err := builddb.Open(opts.DBPath, system.SchemaVersion())
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if err := system.AttachDB(db); err != nil {
			return err
		}
	}

	if opts.TracePath != "" {
		if err := system.EnableTracing(opts.TracePath); err != nil {
			return err
		}
	}

	ok := system.Build(opts.Target)
	if err := system.Close(); err != nil {
		a.log.Warn("unable to close trace sink", "error", err)
	}

	if !ok || delegate.NumErrors() > 0 || delegate.CommandsFailed() {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrBuildFailed, "unable to build target"), "target", opts.Target), "num_errors", delegate.NumErrors())
	}
	return nil
}

// Close releases application resources.
func (a *App) Close() error {
	return a.status.Close()
}

// Components contains the initialized application components exposed
// to the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}
