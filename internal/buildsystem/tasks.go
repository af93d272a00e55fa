package buildsystem

import (
	"fmt"

	"go.trai.ch/forge/internal/engine"
)

// targetTask translates a request for building a target into requests
// for all of its nodes.
type targetTask struct {
	system *BuildSystem
	target *Target

	hasMissingInput bool
}

func (t *targetTask) Start(e *engine.BuildEngine) {
	for i, node := range t.target.Nodes() {
		e.TaskNeedsInput(t, MakeNodeKey(node.Name()).ToData(), uint(i))
	}
}

func (t *targetTask) ProvidePriorValue(*engine.BuildEngine, engine.ValueType) {}

func (t *targetTask) ProvideValue(_ *engine.BuildEngine, inputID uint, data engine.ValueType) {
	value := valueFromData(data)
	if value.IsMissingInput() {
		t.hasMissingInput = true
		t.system.Error(t.system.MainFilename(), fmt.Sprintf(
			"missing input '%s' and no rule to build it", t.target.Nodes()[inputID].Name()))
	}
}

func (t *targetTask) InputsAvailable(e *engine.BuildEngine) {
	if t.hasMissingInput {
		t.system.Error(t.system.MainFilename(), fmt.Sprintf(
			"cannot build target '%s' due to missing input", t.target.Name()))
		t.system.Delegate().HadCommandFailure()
	}

	e.TaskIsComplete(t, MakeTargetValue().ToData(), false)
}

// inputNodeTask "builds" a node which is pure raw input to the system.
type inputNodeTask struct {
	system *BuildSystem
	node   *BuildNode
}

func (t *inputNodeTask) Start(*engine.BuildEngine)                              {}
func (t *inputNodeTask) ProvidePriorValue(*engine.BuildEngine, engine.ValueType) {}
func (t *inputNodeTask) ProvideValue(*engine.BuildEngine, uint, engine.ValueType) {}

func (t *inputNodeTask) InputsAvailable(e *engine.BuildEngine) {
	if t.node.IsVirtual() {
		e.TaskIsComplete(t, MakeVirtualInputValue().ToData(), false)
		return
	}

	info := t.node.GetFileInfo(t.system.Delegate().FileSystem())
	if info.IsMissing() {
		e.TaskIsComplete(t, MakeMissingInputValue().ToData(), false)
		return
	}

	e.TaskIsComplete(t, MakeExistingInputValue(info).ToData(), false)
}

// inputNodeIsResultValid implements the validity predicate for pure
// input nodes: virtual nodes revalidate on kind alone, file nodes on
// field-equal file info.
func inputNodeIsResultValid(system *BuildSystem, node *BuildNode, value BuildValue) bool {
	if node.IsVirtual() {
		return value.IsVirtualInput()
	}

	info := node.GetFileInfo(system.Delegate().FileSystem())
	if info.IsMissing() {
		return value.IsMissingInput()
	}
	return value.IsExistingInput() && value.OutputInfo().Equal(info)
}

// producedNodeTask "builds" a node which is the product of a command,
// requesting the producer and extracting the per-output result.
type producedNodeTask struct {
	system *BuildSystem
	node   *BuildNode

	producer   Command
	nodeResult BuildValue
	isInvalid  bool
}

func (t *producedNodeTask) Start(e *engine.BuildEngine) {
	producers := t.node.Producers()
	if len(producers) == 1 {
		t.producer = producers[0]
		e.TaskNeedsInput(t, MakeCommandKey(t.producer.Name()).ToData(), 0)
		return
	}

	// FIXME: Building nodes with multiple producers is unsupported; a
	// client-registered resolver remains an open design question.
	t.system.Error("", fmt.Sprintf(
		"unable to build node: '%s' (node is produced by multiple commands; e.g., '%s' and '%s')",
		t.node.Name(), producers[0].Name(), producers[1].Name()))
	t.isInvalid = true
}

func (t *producedNodeTask) ProvidePriorValue(*engine.BuildEngine, engine.ValueType) {}

func (t *producedNodeTask) ProvideValue(_ *engine.BuildEngine, _ uint, data engine.ValueType) {
	t.nodeResult = t.producer.GetResultForOutput(t.node, valueFromData(data))
}

func (t *producedNodeTask) InputsAvailable(e *engine.BuildEngine) {
	if t.isInvalid {
		e.TaskIsComplete(t, MakeFailedInputValue().ToData(), false)
		return
	}

	e.TaskIsComplete(t, t.nodeResult.ToData(), false)
}

// commandTask adapts a command to the engine's task callbacks.
type commandTask struct {
	system  *BuildSystem
	command Command
}

func (t *commandTask) Start(*engine.BuildEngine) {
	t.command.Start(t.system, t)
}

func (t *commandTask) ProvidePriorValue(_ *engine.BuildEngine, data engine.ValueType) {
	t.command.ProvidePriorValue(t.system, t, valueFromData(data))
}

func (t *commandTask) ProvideValue(_ *engine.BuildEngine, inputID uint, data engine.ValueType) {
	t.command.ProvideValue(t.system, t, inputID, valueFromData(data))
}

func (t *commandTask) InputsAvailable(*engine.BuildEngine) {
	t.command.InputsAvailable(t.system, t)
}

// missingCommandTask stands in for a command that is no longer in the
// manifest: it completes with an invalid value and forces downstream
// clients to rebuild, at which point they observe the absence.
type missingCommandTask struct{}

func (t *missingCommandTask) Start(*engine.BuildEngine)                               {}
func (t *missingCommandTask) ProvidePriorValue(*engine.BuildEngine, engine.ValueType)  {}
func (t *missingCommandTask) ProvideValue(*engine.BuildEngine, uint, engine.ValueType) {}

func (t *missingCommandTask) InputsAvailable(e *engine.BuildEngine) {
	e.TaskIsComplete(t, MakeInvalidValue().ToData(), true)
}
