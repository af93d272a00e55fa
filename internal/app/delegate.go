package app

import (
	"context"
	"fmt"
	"sync"

	"go.trai.ch/forge/internal/buildsystem"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

var _ buildsystem.Delegate = (*buildDelegate)(nil)

// buildDelegate is the application's build system delegate: it routes
// diagnostics to the logger, command status to the reporter, and tracks
// the error and failure state of one build.
type buildDelegate struct {
	ctx    context.Context
	log    ports.Logger
	fs     ports.FileSystem
	status ports.StatusReporter

	newQueue func() ports.ExecutionQueue

	mu         sync.Mutex
	numErrors  int
	hadFailure bool
}

func newBuildDelegate(
	ctx context.Context,
	log ports.Logger,
	fs ports.FileSystem,
	status ports.StatusReporter,
	newQueue func() ports.ExecutionQueue,
) *buildDelegate {
	return &buildDelegate{ctx: ctx, log: log, fs: fs, status: status, newQueue: newQueue}
}

// Name returns the client name manifests must declare.
func (d *buildDelegate) Name() string { return clientName }

// Version returns the client schema version.
func (d *buildDelegate) Version() uint32 { return clientVersion }

// FileSystem returns the build's filesystem.
func (d *buildDelegate) FileSystem() ports.FileSystem { return d.fs }

// SetFileContentsBeingParsed is uninteresting to the application; the
// loader reports token positions directly.
func (d *buildDelegate) SetFileContentsBeingParsed([]byte) {}

// Error logs a build diagnostic and counts it.
func (d *buildDelegate) Error(filename string, at domain.Token, message string) {
	d.mu.Lock()
	d.numErrors++
	d.mu.Unlock()

	position := filename
	if at.Line > 0 {
		position = fmt.Sprintf("%s:%d:%d", filename, at.Line, at.Column)
	}
	d.log.Error(message, "file", position)
}

// NumErrors returns the number of diagnostics reported so far.
func (d *buildDelegate) NumErrors() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.numErrors
}

// HadCommandFailure records that some command failed.
func (d *buildDelegate) HadCommandFailure() {
	d.mu.Lock()
	d.hadFailure = true
	d.mu.Unlock()
}

// CommandsFailed reports whether any command failed.
func (d *buildDelegate) CommandsFailed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hadFailure
}

// IsCancelled reports whether the build's context was cancelled.
func (d *buildDelegate) IsCancelled() bool {
	return d.ctx.Err() != nil
}

// CommandStarted reports a command's external body starting.
func (d *buildDelegate) CommandStarted(command buildsystem.Command) {
	if !command.ShouldShowStatus() {
		return
	}
	d.status.CommandStarted(command.Name(), command.ShortDescription())
	d.log.Info("command started", "command", command.Name())
}

// CommandFinished reports a command's external body finishing.
func (d *buildDelegate) CommandFinished(command buildsystem.Command) {
	if !command.ShouldShowStatus() {
		return
	}
	d.status.CommandFinished(command.Name(), nil)
	d.log.Info("command finished", "command", command.Name())
}

// LookupTool declines; the built-in tool definitions cover this client.
func (d *buildDelegate) LookupTool(string) buildsystem.Tool { return nil }

// CreateExecutionQueue constructs the queue for one build.
func (d *buildDelegate) CreateExecutionQueue() ports.ExecutionQueue {
	return d.newQueue()
}
