package buildsystem

import (
	"context"
	"fmt"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
	"go.trai.ch/forge/internal/engine"
)

// externalCommandImpl is the behavior a concrete external command
// supplies on top of the shared ExternalCommand base.
type externalCommandImpl interface {
	Command

	// ExecuteExternalCommand runs the command body on a queue worker and
	// reports success.
	ExecuteExternalCommand(bsci CommandInterface, task engine.Task, ctx context.Context) bool

	// CommandSignature returns the full signature, typically composed
	// from the base signature plus invocation parameters.
	CommandSignature() uint64
}

// ExternalCommand is the shared base for commands which run external
// work: it owns the declared inputs and outputs, requests them in
// order, skips on missing or failed inputs and cancellation, and stats
// the declared outputs after a successful run.
type ExternalCommand struct {
	name        string
	description string
	inputs      []*BuildNode
	outputs     []*BuildNode

	impl externalCommandImpl

	shouldSkip    bool
	missingInputs []*BuildNode
}

func newExternalCommand(name string, impl externalCommandImpl) ExternalCommand {
	return ExternalCommand{name: name, impl: impl}
}

// Name returns the command name.
func (c *ExternalCommand) Name() string { return c.name }

// Description returns the manifest-supplied description.
func (c *ExternalCommand) Description() string { return c.description }

// Inputs returns the declared input nodes.
func (c *ExternalCommand) Inputs() []*BuildNode { return c.inputs }

// Outputs returns the declared output nodes.
func (c *ExternalCommand) Outputs() []*BuildNode { return c.outputs }

// ShouldShowStatus reports whether the command appears in status
// output.
func (c *ExternalCommand) ShouldShowStatus() bool { return true }

// ConfigureDescription sets the description.
func (c *ExternalCommand) ConfigureDescription(_ *ConfigureContext, value string) {
	c.description = value
}

// ConfigureInputs sets the declared inputs.
func (c *ExternalCommand) ConfigureInputs(_ *ConfigureContext, inputs []*BuildNode) {
	c.inputs = inputs
}

// ConfigureOutputs sets the declared outputs. Producer registration on
// the nodes is the loader's responsibility.
func (c *ExternalCommand) ConfigureOutputs(_ *ConfigureContext, outputs []*BuildNode) {
	c.outputs = outputs
}

// ConfigureAttribute rejects unknown scalar attributes.
func (c *ExternalCommand) ConfigureAttribute(ctx *ConfigureContext, name, _ string) bool {
	ctx.Error(fmt.Sprintf("unexpected attribute: '%s'", name))
	return false
}

// ConfigureAttributeList rejects unknown list attributes.
func (c *ExternalCommand) ConfigureAttributeList(ctx *ConfigureContext, name string, _ []string) bool {
	ctx.Error(fmt.Sprintf("unexpected attribute: '%s'", name))
	return false
}

// ConfigureAttributeMap rejects unknown map attributes.
func (c *ExternalCommand) ConfigureAttributeMap(ctx *ConfigureContext, name string, _ map[string]string) bool {
	ctx.Error(fmt.Sprintf("unexpected attribute: '%s'", name))
	return false
}

// BaseSignature hashes the declared output names. Concrete commands
// fold in their invocation parameters.
func (c *ExternalCommand) BaseSignature() uint64 {
	var result uint64
	for _, output := range c.outputs {
		result ^= hashString(output.Name())
	}
	return result
}

// Start requests each declared input, with inputID equal to its
// declaration index.
func (c *ExternalCommand) Start(bsci CommandInterface, task engine.Task) {
	c.shouldSkip = false
	c.missingInputs = nil
	for i, input := range c.inputs {
		bsci.TaskNeedsInput(task, MakeNodeKey(input.Name()), uint(i))
	}
}

// ProvidePriorValue ignores the prior result; validity is handled by
// IsResultValid.
func (c *ExternalCommand) ProvidePriorValue(CommandInterface, engine.Task, BuildValue) {}

// ProvideValue records missing or failed inputs so execution can be
// skipped.
func (c *ExternalCommand) ProvideValue(_ CommandInterface, _ engine.Task, inputID uint, value BuildValue) {
	if value.IsMissingInput() {
		c.shouldSkip = true
		c.missingInputs = append(c.missingInputs, c.inputs[inputID])
	} else if value.IsFailedInput() {
		c.shouldSkip = true
	}
}

// InputsAvailable skips on cancellation or unsatisfied inputs, and
// otherwise enqueues the external body.
func (c *ExternalCommand) InputsAvailable(bsci CommandInterface, task engine.Task) {
	if bsci.Delegate().IsCancelled() {
		bsci.TaskIsComplete(task, MakeSkippedCommandValue(), false)
		return
	}

	if c.shouldSkip {
		for _, input := range c.missingInputs {
			bsci.Error("", fmt.Sprintf("missing input '%s' of command '%s'", input.Name(), c.name))
		}
		if len(c.missingInputs) != 0 {
			bsci.Delegate().HadCommandFailure()
		}
		bsci.TaskIsComplete(task, MakeSkippedCommandValue(), false)
		return
	}

	bsci.AddJob(ports.QueueJob{
		Description: c.description,
		Work: func(ctx context.Context) {
			bsci.Delegate().CommandStarted(c.impl)
			success := c.impl.ExecuteExternalCommand(bsci, task, ctx)
			bsci.Delegate().CommandFinished(c.impl)

			if !success {
				bsci.Delegate().HadCommandFailure()
				bsci.TaskIsComplete(task, MakeFailedCommandValue(), false)
				return
			}

			fs := bsci.Delegate().FileSystem()
			infos := make([]domain.FileInfo, len(c.outputs))
			for i, output := range c.outputs {
				if output.IsVirtual() {
					continue
				}
				infos[i] = output.GetFileInfo(fs)
			}

			bsci.TaskIsComplete(task, MakeSuccessfulCommandValue(infos, c.impl.CommandSignature()), false)
		},
	})
}

// IsResultValid requires a successful prior command whose signature
// matches the current invocation and whose declared outputs are
// unchanged on disk.
func (c *ExternalCommand) IsResultValid(system *BuildSystem, value BuildValue) bool {
	if !value.IsSuccessfulCommand() {
		return false
	}
	if value.Signature != c.impl.CommandSignature() {
		return false
	}
	if len(value.OutputInfos) != len(c.outputs) {
		return false
	}

	fs := system.Delegate().FileSystem()
	for i, output := range c.outputs {
		if output.IsVirtual() {
			continue
		}
		if !output.GetFileInfo(fs).Equal(value.OutputInfos[i]) {
			return false
		}
	}
	return true
}

// GetResultForOutput propagates command failure as a failed input and
// otherwise returns the recorded file info for the node.
func (c *ExternalCommand) GetResultForOutput(node *BuildNode, value BuildValue) BuildValue {
	if value.IsFailedCommand() || value.IsSkippedCommand() {
		return MakeFailedInputValue()
	}

	if node.IsVirtual() {
		return MakeVirtualInputValue()
	}

	for i, output := range c.outputs {
		if output == node {
			return MakeExistingInputValue(value.OutputInfos[i])
		}
	}
	return MakeInvalidValue()
}
