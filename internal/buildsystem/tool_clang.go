package buildsystem

import (
	"context"
	"fmt"

	"go.trai.ch/forge/internal/engine"
)

// ClangShellCommand executes a compiler command line and, when
// configured with a deps path, registers the dependencies the compiler
// emitted in makefile format as discovered dependencies.
type ClangShellCommand struct {
	ExternalCommand

	args     string
	depsPath string
}

// NewClangShellCommand creates a clang command.
func NewClangShellCommand(name string) *ClangShellCommand {
	c := &ClangShellCommand{}
	c.ExternalCommand = newExternalCommand(name, c)
	return c
}

// ShortDescription returns the manifest description.
func (c *ClangShellCommand) ShortDescription() string { return c.Description() }

// VerboseDescription returns the compiler command line.
func (c *ClangShellCommand) VerboseDescription() string { return c.args }

// ConfigureAttribute handles the `args` and `deps` attributes.
func (c *ClangShellCommand) ConfigureAttribute(ctx *ConfigureContext, name, value string) bool {
	switch name {
	case "args":
		c.args = value
	case "deps":
		c.depsPath = value
	default:
		return c.ExternalCommand.ConfigureAttribute(ctx, name, value)
	}
	return true
}

// ExecuteExternalCommand runs the command line via the shell and, on
// success, collects the discovered dependencies.
func (c *ClangShellCommand) ExecuteExternalCommand(bsci CommandInterface, task engine.Task, ctx context.Context) bool {
	if !bsci.ExecutionQueue().ExecuteShellCommand(ctx, c.args) {
		// If the command failed, there is no need to gather dependencies.
		return false
	}

	if c.depsPath != "" {
		if !c.processDiscoveredDependencies(bsci, task) {
			return false
		}
	}

	return true
}

// processDiscoveredDependencies parses the dependency output file and
// declares each referenced path as a discovered dependency.
func (c *ClangShellCommand) processDiscoveredDependencies(bsci CommandInterface, task engine.Task) bool {
	contents, err := bsci.Delegate().FileSystem().GetFileContents(c.depsPath)
	if err != nil {
		bsci.Error(c.depsPath, fmt.Sprintf("unable to open dependencies file (%s)", c.depsPath))
		return false
	}

	// The rule targets are ignored; every dependency encountered in the
	// file is added.
	numErrors := 0
	parseMakefileDeps(contents, makefileDepsActions{
		onError: func(message string, _ int) {
			bsci.Error(c.depsPath, "error reading dependency file: "+message)
			numErrors++
		},
		onRuleDependency: func(name string) {
			bsci.TaskDiscoveredDependency(task, MakeNodeKey(name))
		},
	})
	return numErrors == 0
}

// CommandSignature folds the command line into the base signature.
func (c *ClangShellCommand) CommandSignature() uint64 {
	return c.BaseSignature() ^ hashString(c.args)
}

// ClangTool constructs clang commands.
type ClangTool struct {
	toolBase
}

// CreateCommand constructs a clang command.
func (t *ClangTool) CreateCommand(name string) Command {
	return NewClangShellCommand(name)
}
