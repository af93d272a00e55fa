package ports

// StatusReporter receives command lifecycle notifications for progress
// output. Implementations must tolerate calls from queue workers.
//
//go:generate go run go.uber.org/mock/mockgen -source=status.go -destination=mocks/mock_status.go -package=mocks
type StatusReporter interface {
	// CommandStarted marks the named command as running.
	CommandStarted(name, description string)

	// CommandFinished marks the named command as finished.
	CommandFinished(name string, err error)

	// Close flushes and closes the reporting session.
	Close() error
}
