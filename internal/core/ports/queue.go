package ports

import "context"

// QueueJob is a unit of external work submitted to the execution queue.
// Work runs on a queue worker and must deliver its outcome through the
// engine itself (taskIsComplete); the queue only schedules it.
type QueueJob struct {
	// Description names the job for status output.
	Description string

	// Work is the job body.
	Work func(ctx context.Context)
}

// ExecutionQueue runs external process jobs in worker slots.
//
//go:generate go run go.uber.org/mock/mockgen -source=queue.go -destination=mocks/mock_queue.go -package=mocks
type ExecutionQueue interface {
	// AddJob submits a job for execution on some worker lane.
	AddJob(job QueueJob)

	// ExecuteProcess runs argv with the given extra environment entries
	// and reports whether the process exited successfully.
	ExecuteProcess(ctx context.Context, argv []string, env []string) bool

	// ExecuteShellCommand runs the command line via the shell and
	// reports whether it exited successfully.
	ExecuteShellCommand(ctx context.Context, command string) bool

	// Shutdown stops accepting jobs and blocks until all submitted jobs
	// have finished.
	Shutdown()
}
