package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/forge/internal/engine"
)

func TestTracingRecordsEngineEvents(t *testing.T) {
	tracePath := filepath.Join(t.TempDir(), "build.trace")

	d := newFakeDelegate(t)
	d.constant("dep", "v")
	d.add("top", &ruleSpec{
		needs:   []engine.KeyType{"dep"},
		compute: func(values map[uint]engine.ValueType) engine.ValueType { return values[0] },
		isValid: func(engine.ValueType) bool { return true },
	})

	e := engine.New(d)
	require.NoError(t, e.EnableTracing(tracePath))

	_, err := e.Build("top")
	require.NoError(t, err)
	require.NoError(t, e.Close())

	data, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	trace := string(data)

	assert.Contains(t, trace, `"build-started"`)
	assert.Contains(t, trace, `"rule-lookup", "top"`)
	assert.Contains(t, trace, `"task-started", "dep"`)
	assert.Contains(t, trace, `"input-request", "top", "dep"`)
	assert.Contains(t, trace, `"task-complete", "top"`)
	assert.Contains(t, trace, `"build-ended"`)
}

func TestEnableTracingBadPath(t *testing.T) {
	e := engine.New(newFakeDelegate(t))
	err := e.EnableTracing(filepath.Join(t.TempDir(), "no", "such", "dir", "trace"))
	assert.Error(t, err)
}
