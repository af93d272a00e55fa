package engine

import (
	"bufio"
	"fmt"
	"os"

	"go.trai.ch/zerr"
)

// Trace records engine events to a file, one record per line. A nil
// *Trace is a no-op sink so callers never guard their calls.
type Trace struct {
	f *os.File
	w *bufio.Writer
}

// NewTrace opens a trace sink writing to path.
func NewTrace(path string) (*Trace, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "unable to open trace file"), "path", path)
	}
	return &Trace{f: f, w: bufio.NewWriter(f)}, nil
}

func (t *Trace) emit(format string, args ...any) {
	if t == nil {
		return
	}
	_, _ = fmt.Fprintf(t.w, format+"\n", args...)
}

func (t *Trace) buildStarted(iteration uint64) {
	t.emit("{ \"build-started\", %d }", iteration)
}

func (t *Trace) buildEnded(iteration uint64) {
	t.emit("{ \"build-ended\", %d }", iteration)
}

func (t *Trace) ruleLookup(key KeyType) {
	t.emit("{ \"rule-lookup\", %q }", string(key))
}

func (t *Trace) taskStarted(key KeyType) {
	t.emit("{ \"task-started\", %q }", string(key))
}

func (t *Trace) inputRequest(from, to KeyType) {
	t.emit("{ \"input-request\", %q, %q }", string(from), string(to))
}

func (t *Trace) discoveredDependency(from, to KeyType) {
	t.emit("{ \"discovered-dependency\", %q, %q }", string(from), string(to))
}

func (t *Trace) taskComplete(key KeyType, changed bool) {
	t.emit("{ \"task-complete\", %q, changed=%t }", string(key), changed)
}

func (t *Trace) ruleReused(key KeyType) {
	t.emit("{ \"rule-reused\", %q }", string(key))
}

func (t *Trace) ruleInvalidated(key, by KeyType) {
	t.emit("{ \"rule-invalidated\", %q, by=%q }", string(key), string(by))
}

func (t *Trace) cycleDetected(cycle []Rule) {
	if t == nil {
		return
	}
	_, _ = t.w.WriteString("{ \"cycle-detected\"")
	for _, r := range cycle {
		_, _ = fmt.Fprintf(t.w, ", %q", string(r.Key))
	}
	_, _ = t.w.WriteString(" }\n")
}

func (t *Trace) close() error {
	if t == nil {
		return nil
	}
	if err := t.w.Flush(); err != nil {
		_ = t.f.Close()
		return zerr.Wrap(err, "unable to flush trace file")
	}
	return t.f.Close()
}
