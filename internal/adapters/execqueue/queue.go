// Package execqueue provides the lane-based execution queue that runs
// external process jobs for the build system.
package execqueue

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"go.trai.ch/forge/internal/core/ports"
)

var _ ports.ExecutionQueue = (*Queue)(nil)

// Queue runs submitted jobs on a fixed number of worker lanes. Process
// execution inherits the parent environment with per-command entries
// appended; output streams through the logger.
type Queue struct {
	logger ports.Logger

	jobs   chan ports.QueueJob
	lanes  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// NewQueue creates an execution queue with the given number of worker
// lanes. Cancelling parent terminates in-flight processes.
func NewQueue(parent context.Context, logger ports.Logger, numLanes int) *Queue {
	if numLanes < 1 {
		numLanes = 1
	}

	ctx, cancel := context.WithCancel(parent)
	q := &Queue{
		logger: logger,
		jobs:   make(chan ports.QueueJob, 64),
		lanes:  &errgroup.Group{},
		ctx:    ctx,
		cancel: cancel,
	}

	for range numLanes {
		q.lanes.Go(func() error {
			for job := range q.jobs {
				job.Work(q.ctx)
			}
			return nil
		})
	}

	return q
}

// AddJob submits a job to some worker lane.
func (q *Queue) AddJob(job ports.QueueJob) {
	q.jobs <- job
}

// Cancel terminates in-flight process jobs. Queued jobs still run, but
// observe a cancelled context.
func (q *Queue) Cancel() {
	q.cancel()
}

// Shutdown stops accepting jobs and waits for all submitted work to
// finish.
func (q *Queue) Shutdown() {
	close(q.jobs)
	_ = q.lanes.Wait()
	q.cancel()
}

// ExecuteProcess runs argv with the given extra environment entries
// appended to the inherited environment.
func (q *Queue) ExecuteProcess(ctx context.Context, argv []string, env []string) bool {
	if len(argv) == 0 {
		q.logger.Error("refusing to execute empty argv")
		return false
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // Commands come from the build description
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = &logWriter{logger: q.logger}
	cmd.Stderr = &logWriter{logger: q.logger, isError: true}

	if err := cmd.Run(); err != nil {
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		q.logger.Error("command failed",
			"command", argv[0],
			"error", zerr.With(zerr.Wrap(err, "process execution failed"), "exit_code", exitCode))
		return false
	}

	return true
}

// ExecuteShellCommand runs the command line via /bin/sh.
func (q *Queue) ExecuteShellCommand(ctx context.Context, command string) bool {
	return q.ExecuteProcess(ctx, []string{"/bin/sh", "-c", command}, nil)
}

// logWriter forwards process output to the logger line by line.
type logWriter struct {
	logger  ports.Logger
	isError bool
}

func (w *logWriter) Write(p []byte) (int, error) {
	for line := range strings.SplitSeq(strings.TrimSuffix(string(p), "\n"), "\n") {
		if w.isError {
			w.logger.Error(line)
		} else {
			w.logger.Info(line)
		}
	}
	return len(p), nil
}
