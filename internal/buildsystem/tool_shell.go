package buildsystem

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.trai.ch/forge/internal/engine"
)

// ShellCommand executes a process described by an argv vector, or a
// command line run through the shell when configured with a scalar.
type ShellCommand struct {
	ExternalCommand

	args []string
	env  map[string]string
}

// NewShellCommand creates a shell command.
func NewShellCommand(name string) *ShellCommand {
	c := &ShellCommand{}
	c.ExternalCommand = newExternalCommand(name, c)
	return c
}

// ShortDescription returns the manifest description.
func (c *ShellCommand) ShortDescription() string { return c.Description() }

// VerboseDescription renders the argv, quoting elements with spaces.
func (c *ShellCommand) VerboseDescription() string {
	var sb strings.Builder
	for i, arg := range c.args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if strings.Contains(arg, " ") {
			fmt.Fprintf(&sb, "%q", arg)
		} else {
			sb.WriteString(arg)
		}
	}
	return sb.String()
}

// ConfigureAttribute handles the scalar `args` form, which executes via
// the shell.
func (c *ShellCommand) ConfigureAttribute(ctx *ConfigureContext, name, value string) bool {
	if name == "args" {
		c.args = []string{"/bin/sh", "-c", value}
		return true
	}
	return c.ExternalCommand.ConfigureAttribute(ctx, name, value)
}

// ConfigureAttributeList handles the argv `args` form.
func (c *ShellCommand) ConfigureAttributeList(ctx *ConfigureContext, name string, values []string) bool {
	if name == "args" {
		if len(values) == 0 {
			ctx.Error(fmt.Sprintf("invalid arguments for command '%s'", c.Name()))
			return false
		}
		c.args = values
		return true
	}
	return c.ExternalCommand.ConfigureAttributeList(ctx, name, values)
}

// ConfigureAttributeMap handles the `env` attribute.
func (c *ShellCommand) ConfigureAttributeMap(ctx *ConfigureContext, name string, values map[string]string) bool {
	if name == "env" {
		c.env = values
		return true
	}
	return c.ExternalCommand.ConfigureAttributeMap(ctx, name, values)
}

// ExecuteExternalCommand submits the argv and environment to the
// execution queue.
func (c *ShellCommand) ExecuteExternalCommand(bsci CommandInterface, _ engine.Task, ctx context.Context) bool {
	env := make([]string, 0, len(c.env))
	for k, v := range c.env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)

	return bsci.ExecutionQueue().ExecuteProcess(ctx, c.args, env)
}

// CommandSignature folds each argv element into the base signature.
func (c *ShellCommand) CommandSignature() uint64 {
	result := c.BaseSignature()
	for _, arg := range c.args {
		result ^= hashString(arg)
	}
	// FIXME: Need to take the environment into the signature.
	return result
}

// ShellTool constructs shell commands.
type ShellTool struct {
	toolBase
}

// CreateCommand constructs a shell command.
func (t *ShellTool) CreateCommand(name string) Command {
	return NewShellCommand(name)
}
