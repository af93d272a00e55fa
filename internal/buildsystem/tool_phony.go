package buildsystem

import (
	"context"

	"go.trai.ch/forge/internal/engine"
)

// PhonyCommand consumes its declared inputs and produces its declared
// outputs with no observable side effect.
type PhonyCommand struct {
	ExternalCommand
}

// NewPhonyCommand creates a phony command.
func NewPhonyCommand(name string) *PhonyCommand {
	c := &PhonyCommand{}
	c.ExternalCommand = newExternalCommand(name, c)
	return c
}

// ShouldShowStatus hides phony commands from status output.
func (c *PhonyCommand) ShouldShowStatus() bool { return false }

// ShortDescription names the command.
func (c *PhonyCommand) ShortDescription() string { return c.Name() }

// VerboseDescription names the command.
func (c *PhonyCommand) VerboseDescription() string { return c.Name() }

// ExecuteExternalCommand is a no-op returning success.
func (c *PhonyCommand) ExecuteExternalCommand(CommandInterface, engine.Task, context.Context) bool {
	return true
}

// CommandSignature returns the base signature over the output names.
func (c *PhonyCommand) CommandSignature() uint64 {
	return c.BaseSignature()
}

// PhonyTool constructs phony commands.
type PhonyTool struct {
	toolBase
}

// CreateCommand constructs a phony command.
func (t *PhonyTool) CreateCommand(name string) Command {
	return NewPhonyCommand(name)
}
