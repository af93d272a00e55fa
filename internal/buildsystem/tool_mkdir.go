package buildsystem

import (
	"context"
	"fmt"
	"strings"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine"
)

// MkdirCommand creates its sole declared output directory, including
// missing parents. It accepts no inputs and exactly one non-virtual
// output.
type MkdirCommand struct {
	name        string
	description string
	output      *BuildNode
}

// NewMkdirCommand creates a mkdir command.
func NewMkdirCommand(name string) *MkdirCommand {
	return &MkdirCommand{name: name}
}

// Name returns the command name.
func (c *MkdirCommand) Name() string { return c.name }

// ShortDescription returns the manifest description.
func (c *MkdirCommand) ShortDescription() string { return c.description }

// VerboseDescription renders the mkdir invocation.
func (c *MkdirCommand) VerboseDescription() string {
	if strings.Contains(c.output.Name(), " ") {
		return fmt.Sprintf("mkdir %q", c.output.Name())
	}
	return "mkdir " + c.output.Name()
}

// ShouldShowStatus reports the command in status output.
func (c *MkdirCommand) ShouldShowStatus() bool { return true }

// ConfigureDescription sets the description.
func (c *MkdirCommand) ConfigureDescription(_ *ConfigureContext, value string) {
	c.description = value
}

// ConfigureInputs rejects explicit inputs.
func (c *MkdirCommand) ConfigureInputs(ctx *ConfigureContext, inputs []*BuildNode) {
	if len(inputs) != 0 {
		ctx.Error(fmt.Sprintf("unexpected explicit input: '%s'", inputs[0].Name()))
	}
}

// ConfigureOutputs requires exactly one non-virtual output.
func (c *MkdirCommand) ConfigureOutputs(ctx *ConfigureContext, outputs []*BuildNode) {
	switch {
	case len(outputs) == 1:
		c.output = outputs[0]
		if c.output.IsVirtual() {
			ctx.Error("unexpected virtual output")
		}
	case len(outputs) == 0:
		ctx.Error("missing declared output")
	default:
		c.output = outputs[0]
		ctx.Error(fmt.Sprintf("unexpected explicit output: '%s'", outputs[1].Name()))
	}
}

// ConfigureAttribute rejects all scalar attributes.
func (c *MkdirCommand) ConfigureAttribute(ctx *ConfigureContext, name, _ string) bool {
	ctx.Error(fmt.Sprintf("unexpected attribute: '%s'", name))
	return false
}

// ConfigureAttributeList rejects all list attributes.
func (c *MkdirCommand) ConfigureAttributeList(ctx *ConfigureContext, name string, _ []string) bool {
	ctx.Error(fmt.Sprintf("unexpected attribute: '%s'", name))
	return false
}

// ConfigureAttributeMap rejects all map attributes.
func (c *MkdirCommand) ConfigureAttributeMap(ctx *ConfigureContext, name string, _ map[string]string) bool {
	ctx.Error(fmt.Sprintf("unexpected attribute: '%s'", name))
	return false
}

func (c *MkdirCommand) signature() uint64 {
	return hashString(c.output.Name())
}

// GetResultForOutput propagates failure and otherwise returns the
// directory's recorded info.
func (c *MkdirCommand) GetResultForOutput(_ *BuildNode, value BuildValue) BuildValue {
	if value.IsFailedCommand() || value.IsSkippedCommand() {
		return MakeFailedInputValue()
	}

	return MakeExistingInputValue(value.OutputInfo())
}

// IsResultValid requires a successful prior run and that the output
// still exists and is still a directory.
//
// The result deliberately does not revalidate the recorded file info:
// the directory's timestamp may drift as entries are created inside it
// without requiring the command to re-run.
func (c *MkdirCommand) IsResultValid(system *BuildSystem, value BuildValue) bool {
	if !value.IsSuccessfulCommand() {
		return false
	}

	info := c.output.GetFileInfo(system.Delegate().FileSystem())
	if info.IsMissing() {
		return false
	}
	return info.IsDirectory()
}

// Start has no inputs to request.
func (c *MkdirCommand) Start(CommandInterface, engine.Task) {}

// ProvidePriorValue ignores the prior result.
func (c *MkdirCommand) ProvidePriorValue(CommandInterface, engine.Task, BuildValue) {}

// ProvideValue is never called; mkdir commands have no inputs.
func (c *MkdirCommand) ProvideValue(CommandInterface, engine.Task, uint, BuildValue) {}

// InputsAvailable enqueues the directory creation.
func (c *MkdirCommand) InputsAvailable(bsci CommandInterface, task engine.Task) {
	if bsci.Delegate().IsCancelled() {
		bsci.TaskIsComplete(task, MakeSkippedCommandValue(), false)
		return
	}

	bsci.AddJob(ports.QueueJob{
		Description: c.description,
		Work: func(context.Context) {
			bsci.Delegate().CommandStarted(c)

			fs := bsci.Delegate().FileSystem()
			success := true
			if err := fs.CreateDirectories(c.output.Name()); err != nil {
				bsci.Error("", fmt.Sprintf("unable to create directory '%s'", c.output.Name()))
				success = false
			}

			var outputInfo domain.FileInfo
			if success {
				outputInfo = c.output.GetFileInfo(fs)
				if outputInfo.IsMissing() || !outputInfo.IsDirectory() {
					bsci.Error("", fmt.Sprintf("unable to create directory '%s'", c.output.Name()))
					success = false
				}
			}

			bsci.Delegate().CommandFinished(c)

			if !success {
				bsci.Delegate().HadCommandFailure()
				bsci.TaskIsComplete(task, MakeFailedCommandValue(), false)
				return
			}

			bsci.TaskIsComplete(task, MakeSuccessfulCommandValue(
				[]domain.FileInfo{outputInfo}, c.signature()), false)
		},
	})
}

// MkdirTool constructs mkdir commands.
type MkdirTool struct {
	toolBase
}

// CreateCommand constructs a mkdir command.
func (t *MkdirTool) CreateCommand(name string) Command {
	return NewMkdirCommand(name)
}
