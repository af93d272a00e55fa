package buildsystem_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/forge/internal/adapters/builddb"
	"go.trai.ch/forge/internal/adapters/config"
	"go.trai.ch/forge/internal/adapters/execqueue"
	"go.trai.ch/forge/internal/adapters/fs"
	"go.trai.ch/forge/internal/adapters/logger"
	"go.trai.ch/forge/internal/buildsystem"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

const manifestHeader = `client:
  name: forge
  version: 0

`

// testDelegate collects diagnostics and command lifecycle events for
// assertions.
type testDelegate struct {
	fs  ports.FileSystem
	log ports.Logger

	mu       sync.Mutex
	errors   []string
	failed   bool
	started  []string
	finished []string
}

func newTestDelegate() *testDelegate {
	return &testDelegate{
		fs:  fs.New(),
		log: logger.NewWithWriter(io.Discard, slog.LevelError),
	}
}

func (d *testDelegate) Name() string                    { return "forge" }
func (d *testDelegate) Version() uint32                 { return 0 }
func (d *testDelegate) FileSystem() ports.FileSystem    { return d.fs }
func (d *testDelegate) SetFileContentsBeingParsed([]byte) {}

func (d *testDelegate) Error(_ string, _ domain.Token, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = append(d.errors, message)
}

func (d *testDelegate) HadCommandFailure() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failed = true
}

func (d *testDelegate) IsCancelled() bool { return false }

func (d *testDelegate) CommandStarted(command buildsystem.Command) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = append(d.started, command.Name())
}

func (d *testDelegate) CommandFinished(command buildsystem.Command) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finished = append(d.finished, command.Name())
}

func (d *testDelegate) LookupTool(string) buildsystem.Tool { return nil }

func (d *testDelegate) CreateExecutionQueue() ports.ExecutionQueue {
	return execqueue.NewQueue(context.Background(), d.log, 2)
}

func (d *testDelegate) ran(command string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Contains(d.started, command)
}

func (d *testDelegate) someErrorContains(substr string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

// runBuild writes the manifest, runs one build of target against the
// database at dbPath, and returns the delegate for assertions.
func runBuild(t *testing.T, manifest, target, dbPath string) (*testDelegate, bool) {
	t.Helper()

	require.NoError(t, os.WriteFile("build.forge", []byte(manifest), 0o644))

	delegate := newTestDelegate()
	system := buildsystem.New(delegate, "build.forge", config.NewLoader())

	if dbPath != "" {
		db, err := builddb.Open(dbPath, system.SchemaVersion())
		require.NoError(t, err)
		defer func() { require.NoError(t, db.Close()) }()
		require.NoError(t, system.AttachDB(db))
	}

	ok := system.Build(target)
	require.NoError(t, system.Close())
	return delegate, ok
}

func touch(t *testing.T, path string) {
	t.Helper()
	// A strictly newer mtime guarantees the stat identity changes even
	// on filesystems with coarse timestamps.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))
}

func TestFreshBuildOfShellCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dbPath := filepath.Join(dir, "build.db")

	manifest := manifestHeader + `targets:
  all: ["out"]

commands:
  c1:
    tool: shell
    outputs: ["out"]
    args: ["/bin/sh", "-c", "echo hi > out"]
`

	delegate, ok := runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	assert.Empty(t, delegate.errors)
	assert.False(t, delegate.failed)
	assert.True(t, delegate.ran("c1"))

	data, err := os.ReadFile("out")
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(data))

	// The database holds results for the target, node and command keys.
	db, err := builddb.Open(dbPath, 1)
	require.NoError(t, err)
	defer db.Close()
	for _, key := range []buildsystem.BuildKey{
		buildsystem.MakeTargetKey("all"),
		buildsystem.MakeNodeKey("out"),
		buildsystem.MakeCommandKey("c1"),
	} {
		result, err := db.LookupRuleResult([]byte(key.ToData()))
		require.NoError(t, err)
		require.NotNil(t, result, "missing result for key kind %c", key.Kind)
	}

	commandResult, err := db.LookupRuleResult([]byte(buildsystem.MakeCommandKey("c1").ToData()))
	require.NoError(t, err)
	value, err := buildsystem.BuildValueFromData(commandResult.Value)
	require.NoError(t, err)
	assert.True(t, value.IsSuccessfulCommand())
	assert.False(t, value.OutputInfo().IsMissing())
	assert.NotZero(t, value.Signature)

	// A second build with no changes re-executes nothing.
	delegate2, ok := runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	assert.False(t, delegate2.ran("c1"))
	assert.Empty(t, delegate2.errors)
}

func TestInputMutationTriggersRebuild(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dbPath := filepath.Join(dir, "build.db")

	manifest := manifestHeader + `targets:
  all: ["out"]

commands:
  c1:
    tool: shell
    inputs: ["in"]
    outputs: ["out"]
    args: ["/bin/sh", "-c", "cat in > out"]
`

	require.NoError(t, os.WriteFile("in", []byte("v1\n"), 0o644))

	delegate, ok := runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	require.True(t, delegate.ran("c1"))

	// Unchanged input: no re-execution.
	delegate, ok = runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	assert.False(t, delegate.ran("c1"))

	// Touching the input changes its stat identity and re-executes the
	// command.
	require.NoError(t, os.WriteFile("in", []byte("v2\n"), 0o644))
	touch(t, "in")

	delegate, ok = runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	assert.True(t, delegate.ran("c1"))

	data, err := os.ReadFile("out")
	require.NoError(t, err)
	assert.Equal(t, "v2\n", string(data))
}

func TestMissingInputSkipsCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dbPath := filepath.Join(dir, "build.db")

	manifest := manifestHeader + `targets:
  all: ["out"]

commands:
  c1:
    tool: shell
    inputs: ["in"]
    outputs: ["out"]
    args: ["/bin/sh", "-c", "cat in > out"]
`

	require.NoError(t, os.WriteFile("in", []byte("v1\n"), 0o644))
	delegate, ok := runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	require.True(t, delegate.ran("c1"))

	require.NoError(t, os.Remove("in"))

	delegate, ok = runBuild(t, manifest, "all", dbPath)
	require.True(t, ok, "graph errors surface through the delegate, not the return value")
	assert.False(t, delegate.ran("c1"), "command with missing input must be skipped")
	assert.True(t, delegate.someErrorContains("missing input 'in'"))
	assert.True(t, delegate.failed)
}

func TestTargetWithMissingDirectInput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	manifest := manifestHeader + `targets:
  all: ["ghost"]
`

	delegate, ok := runBuild(t, manifest, "all", "")
	require.True(t, ok)
	assert.True(t, delegate.someErrorContains("missing input 'ghost' and no rule to build it"))
	assert.True(t, delegate.someErrorContains("cannot build target 'all' due to missing input"))
	assert.True(t, delegate.failed)
}

func TestCycleDetection(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	manifest := manifestHeader + `targets:
  all: ["a"]

commands:
  c1:
    tool: shell
    inputs: ["b"]
    outputs: ["a"]
    args: ["/bin/sh", "-c", "true"]
  c2:
    tool: shell
    inputs: ["a"]
    outputs: ["b"]
    args: ["/bin/sh", "-c", "true"]
`

	delegate, ok := runBuild(t, manifest, "all", "")
	assert.False(t, ok)
	assert.True(t, delegate.someErrorContains(
		"cycle detected while building: node 'a' -> command 'c1' -> node 'b' -> command 'c2' -> node 'a'"))
}

func TestClangDiscoveredDependency(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dbPath := filepath.Join(dir, "build.db")

	// The "compiler" is simulated: it produces the object file and a
	// makefile-format dependency file naming a header the manifest does
	// not declare.
	manifest := manifestHeader + `targets:
  all: ["main.o"]

commands:
  c1:
    tool: clang
    inputs: ["main.c"]
    outputs: ["main.o"]
    args: "touch main.o && printf 'main.o: main.c header.h\n' > main.d"
    deps: "main.d"
`

	require.NoError(t, os.WriteFile("main.c", []byte("int main(){}\n"), 0o644))
	require.NoError(t, os.WriteFile("header.h", []byte("#define X 1\n"), 0o644))

	delegate, ok := runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	require.True(t, delegate.ran("c1"))
	assert.Empty(t, delegate.errors)

	// No change: nothing runs.
	delegate, ok = runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	assert.False(t, delegate.ran("c1"))

	// Touching the discovered header re-executes the command without any
	// manifest change.
	touch(t, "header.h")
	delegate, ok = runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	assert.True(t, delegate.ran("c1"))
}

func TestMkdirValidity(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dbPath := filepath.Join(dir, "build.db")

	manifest := manifestHeader + `targets:
  all: ["d"]

commands:
  m1:
    tool: mkdir
    outputs: ["d"]
`

	delegate, ok := runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	require.True(t, delegate.ran("m1"))

	info, err := os.Stat("d")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Unchanged: no re-execution.
	delegate, ok = runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	assert.False(t, delegate.ran("m1"))

	// Deleting the directory re-runs the command and recreates it.
	require.NoError(t, os.Remove("d"))
	delegate, ok = runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	assert.True(t, delegate.ran("m1"))
	info, err = os.Stat("d")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Replacing the directory with a regular file re-runs the command.
	require.NoError(t, os.Remove("d"))
	require.NoError(t, os.WriteFile("d", []byte("not a dir"), 0o644))
	delegate, _ = runBuild(t, manifest, "all", dbPath)
	assert.True(t, delegate.ran("m1"))
}

func TestRemovedCommandForcesRevisit(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dbPath := filepath.Join(dir, "build.db")

	withCommand := manifestHeader + `targets:
  all: ["out"]

commands:
  c1:
    tool: shell
    outputs: ["out"]
    args: ["/bin/sh", "-c", "echo hi > out"]
`

	delegate, ok := runBuild(t, withCommand, "all", dbPath)
	require.True(t, ok)
	require.True(t, delegate.ran("c1"))

	// Dropping the command from the manifest leaves a stale command
	// result in the database; the synthesized missing-command rule
	// forces the node to be revisited as a plain input.
	withoutCommand := manifestHeader + `targets:
  all: ["out"]
`

	delegate, ok = runBuild(t, withoutCommand, "all", dbPath)
	require.True(t, ok)
	assert.Empty(t, delegate.errors)
	assert.False(t, delegate.failed)
}

func TestVirtualNodesAndPhony(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	dbPath := filepath.Join(dir, "build.db")

	manifest := manifestHeader + `targets:
  all: ["<all>"]

commands:
  c1:
    tool: shell
    outputs: ["out"]
    args: ["/bin/sh", "-c", "echo hi > out"]
  group:
    tool: phony
    inputs: ["out"]
    outputs: ["<all>"]
`

	delegate, ok := runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	assert.Empty(t, delegate.errors)
	assert.True(t, delegate.ran("c1"))
	assert.True(t, delegate.ran("group"))

	_, err := os.Stat("out")
	require.NoError(t, err)

	// Incremental: nothing runs.
	delegate, ok = runBuild(t, manifest, "all", dbPath)
	require.True(t, ok)
	assert.False(t, delegate.ran("c1"))
	assert.False(t, delegate.ran("group"))
}

func TestMultiProducerNodeIsAnError(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	manifest := manifestHeader + `targets:
  all: ["out"]

commands:
  c1:
    tool: shell
    outputs: ["out"]
    args: ["/bin/sh", "-c", "echo a > out"]
  c2:
    tool: shell
    outputs: ["out"]
    args: ["/bin/sh", "-c", "echo b > out"]
`

	delegate, ok := runBuild(t, manifest, "all", "")
	require.True(t, ok)
	assert.True(t, delegate.someErrorContains("node is produced by multiple commands"))
	assert.True(t, delegate.someErrorContains("'c1'"))
}
