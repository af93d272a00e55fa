package buildsystem

import (
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine"
)

// Delegate is the capability surface a client supplies to drive a
// build: identity, filesystem, error reporting, status callbacks, tool
// resolution, and execution queue creation.
type Delegate interface {
	// Name returns the client name the manifest must declare.
	Name() string

	// Version returns the client schema version (16 bits).
	Version() uint32

	// FileSystem returns the filesystem the build observes.
	FileSystem() ports.FileSystem

	// SetFileContentsBeingParsed provides the manifest buffer before
	// parse errors are reported against it.
	SetFileContentsBeingParsed(buf []byte)

	// Error reports a diagnostic against filename at the given token.
	Error(filename string, at domain.Token, message string)

	// HadCommandFailure notifies the client that some command failed.
	HadCommandFailure()

	// IsCancelled reports whether the build should stop scheduling new
	// external work.
	IsCancelled() bool

	// CommandStarted notifies that a command's external body is about to
	// run.
	CommandStarted(command Command)

	// CommandFinished notifies that a command's external body finished.
	CommandFinished(command Command)

	// LookupTool resolves a non-builtin tool name, or returns nil.
	LookupTool(name string) Tool

	// CreateExecutionQueue constructs the queue used for one build.
	CreateExecutionQueue() ports.ExecutionQueue
}

// CommandInterface is the surface commands use to interact with the
// engine and the execution environment during a build.
type CommandInterface interface {
	// TaskNeedsInput requests a synchronous dependency.
	TaskNeedsInput(task engine.Task, key BuildKey, inputID uint)

	// TaskMustFollow requests an ordering-only dependency.
	TaskMustFollow(task engine.Task, key BuildKey)

	// TaskDiscoveredDependency declares a dependency found during
	// execution.
	TaskDiscoveredDependency(task engine.Task, key BuildKey)

	// TaskIsComplete reports the task's result. Safe to call from
	// execution queue workers.
	TaskIsComplete(task engine.Task, value BuildValue, forceChange bool)

	// AddJob submits external work to the execution queue.
	AddJob(job ports.QueueJob)

	// ExecutionQueue returns the queue for the build in progress.
	ExecutionQueue() ports.ExecutionQueue

	// Delegate returns the build's client delegate.
	Delegate() Delegate

	// Error reports a diagnostic without a token. An empty filename
	// reports against the main build file.
	Error(filename string, message string)
}
