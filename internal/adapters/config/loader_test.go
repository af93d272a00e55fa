package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/forge/internal/adapters/config"
	"go.trai.ch/forge/internal/adapters/fs"
	"go.trai.ch/forge/internal/buildsystem"
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

// loaderDelegate collects diagnostics with their positions.
type loaderDelegate struct {
	fs ports.FileSystem

	mu     sync.Mutex
	errors []string
	tokens []domain.Token
}

func newLoaderDelegate() *loaderDelegate {
	return &loaderDelegate{fs: fs.New()}
}

func (d *loaderDelegate) Name() string                     { return "forge" }
func (d *loaderDelegate) Version() uint32                  { return 0 }
func (d *loaderDelegate) FileSystem() ports.FileSystem     { return d.fs }
func (d *loaderDelegate) SetFileContentsBeingParsed([]byte) {}
func (d *loaderDelegate) HadCommandFailure()               {}
func (d *loaderDelegate) IsCancelled() bool                { return false }
func (d *loaderDelegate) CommandStarted(buildsystem.Command)  {}
func (d *loaderDelegate) CommandFinished(buildsystem.Command) {}
func (d *loaderDelegate) LookupTool(string) buildsystem.Tool  { return nil }
func (d *loaderDelegate) CreateExecutionQueue() ports.ExecutionQueue { return nil }

func (d *loaderDelegate) Error(_ string, at domain.Token, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = append(d.errors, message)
	d.tokens = append(d.tokens, at)
}

func (d *loaderDelegate) someErrorContains(substr string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, e := range d.errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func load(t *testing.T, manifest string) (*buildsystem.BuildFile, bool, *loaderDelegate) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "build.forge")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	delegate := newLoaderDelegate()
	buildFile, ok := config.NewLoader().Load(path, delegate)
	return buildFile, ok, delegate
}

func TestLoadCompleteManifest(t *testing.T) {
	buildFile, ok, delegate := load(t, `client:
  name: forge
  version: 0

tools:
  shell: {}

targets:
  all: ["out", "<done>"]

nodes:
  out: {}

commands:
  c1:
    tool: shell
    inputs: ["in"]
    outputs: ["out"]
    description: "building out"
    args: ["/bin/sh", "-c", "cat in > out"]
    env:
      LANG: C
`)
	require.True(t, ok)
	assert.Empty(t, delegate.errors)

	assert.Equal(t, "forge", buildFile.ClientName)

	target := buildFile.Targets[domain.NewInternedString("all")]
	require.NotNil(t, target)
	require.Len(t, target.Nodes(), 2)
	assert.Equal(t, "out", target.Nodes()[0].Name())
	assert.False(t, target.Nodes()[0].IsVirtual())
	assert.True(t, target.Nodes()[1].IsVirtual())

	command := buildFile.Commands[domain.NewInternedString("c1")]
	require.NotNil(t, command)
	assert.Equal(t, "building out", command.ShortDescription())

	// The command is registered as its outputs' producer.
	out := buildFile.GetNode("out")
	require.NotNil(t, out)
	require.Len(t, out.Producers(), 1)
	assert.Equal(t, "c1", out.Producers()[0].Name())

	// Inputs are minted as nodes even when undeclared.
	assert.NotNil(t, buildFile.GetNode("in"))
}

func TestLoadRejectsDuplicateCommands(t *testing.T) {
	_, ok, delegate := load(t, `client:
  name: forge
  version: 0

commands:
  c1:
    tool: shell
    args: "true"
  c1:
    tool: shell
    args: "false"
`)
	require.True(t, ok, "structural errors are collected, not fatal")
	assert.True(t, delegate.someErrorContains("duplicate command name: 'c1'"))
}

func TestLoadRequiresToolFirstKey(t *testing.T) {
	_, ok, delegate := load(t, `client:
  name: forge
  version: 0

commands:
  c1:
    args: "true"
    tool: shell
`)
	require.True(t, ok)
	assert.True(t, delegate.someErrorContains("expected 'tool' initial key"))
}

func TestLoadRejectsNonListTarget(t *testing.T) {
	_, _, delegate := load(t, `client:
  name: forge
  version: 0

targets:
  all: out
`)
	assert.True(t, delegate.someErrorContains("expected list for target 'all'"))
}

func TestLoadRejectsNonStringKeys(t *testing.T) {
	_, _, delegate := load(t, `client:
  name: forge
  version: 0

targets:
  7: ["out"]
`)
	assert.True(t, delegate.someErrorContains("invalid key type in 'targets' map"))
}

func TestLoadRejectsClientMismatch(t *testing.T) {
	_, ok, delegate := load(t, `client:
  name: somethingelse
  version: 0
`)
	assert.False(t, ok)
	assert.True(t, delegate.someErrorContains("unable to configure client"))
}

func TestLoadRejectsInvalidVersion(t *testing.T) {
	_, ok, delegate := load(t, `client:
  name: forge
  version: banana
`)
	assert.False(t, ok)
	assert.True(t, delegate.someErrorContains("invalid version number: 'banana'"))
}

func TestLoadRejectsUnknownTool(t *testing.T) {
	_, _, delegate := load(t, `client:
  name: forge
  version: 0

commands:
  c1:
    tool: quantum
`)
	assert.True(t, delegate.someErrorContains("invalid tool type in 'tools' map: 'quantum'"))
}

func TestLoadReportsUnexpectedAttributeWithPosition(t *testing.T) {
	_, _, delegate := load(t, `client:
  name: forge
  version: 0

commands:
  c1:
    tool: shell
    args: "true"
    frobnicate: yes
`)
	require.True(t, delegate.someErrorContains("unexpected attribute: 'frobnicate'"))

	var found bool
	for i, e := range delegate.errors {
		if strings.Contains(e, "frobnicate") {
			assert.Equal(t, 9, delegate.tokens[i].Line)
			found = true
		}
	}
	assert.True(t, found)
}

func TestLoadRejectsEmptyShellArgs(t *testing.T) {
	_, _, delegate := load(t, `client:
  name: forge
  version: 0

commands:
  c1:
    tool: shell
    args: []
`)
	assert.True(t, delegate.someErrorContains("invalid arguments for command 'c1'"))
}

func TestLoadRejectsMkdirMisuse(t *testing.T) {
	_, _, delegate := load(t, `client:
  name: forge
  version: 0

commands:
  m1:
    tool: mkdir
    inputs: ["x"]
    outputs: ["<v>"]
`)
	assert.True(t, delegate.someErrorContains("unexpected explicit input: 'x'"))
	assert.True(t, delegate.someErrorContains("unexpected virtual output"))
}

func TestLoadMissingFile(t *testing.T) {
	delegate := newLoaderDelegate()
	_, ok := config.NewLoader().Load(filepath.Join(t.TempDir(), "absent.forge"), delegate)
	assert.False(t, ok)
	assert.True(t, delegate.someErrorContains("unable to read build file"))
}
