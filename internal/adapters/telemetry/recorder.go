// Package telemetry provides the Progrock implementation of command
// status reporting.
package telemetry

import (
	"sync"

	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"

	"go.trai.ch/forge/internal/core/ports"
)

var _ ports.StatusReporter = (*Recorder)(nil)

// Recorder implements ports.StatusReporter with one Progrock vertex
// per command execution.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder

	mu       sync.Mutex
	vertices map[string]*progrock.VertexRecorder
}

// New creates a Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:        w,
		rec:      progrock.NewRecorder(w),
		vertices: make(map[string]*progrock.VertexRecorder),
	}
}

// CommandStarted opens a vertex for the command.
func (r *Recorder) CommandStarted(name, description string) {
	if description == "" {
		description = name
	}

	v := r.rec.Vertex(digest.FromString(name), description)

	r.mu.Lock()
	r.vertices[name] = v
	r.mu.Unlock()
}

// CommandFinished completes the command's vertex.
func (r *Recorder) CommandFinished(name string, err error) {
	r.mu.Lock()
	v := r.vertices[name]
	delete(r.vertices, name)
	r.mu.Unlock()

	if v != nil {
		v.Done(err)
	}
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
