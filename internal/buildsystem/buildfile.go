package buildsystem

import (
	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/engine"
)

// ConfigureContext carries the error-reporting position for manifest
// configuration callbacks.
type ConfigureContext struct {
	Delegate Delegate
	Filename string
	Token    domain.Token
}

// Error reports a configuration diagnostic at the context's position.
func (c *ConfigureContext) Error(message string) {
	c.Delegate.Error(c.Filename, c.Token, message)
}

// Tool is a factory for commands and a handler for tool-scoped
// attributes.
type Tool interface {
	// Name returns the tool name.
	Name() string

	// ConfigureAttribute handles a scalar attribute at tool scope.
	ConfigureAttribute(ctx *ConfigureContext, name, value string) bool

	// ConfigureAttributeList handles a list attribute at tool scope.
	ConfigureAttributeList(ctx *ConfigureContext, name string, values []string) bool

	// ConfigureAttributeMap handles a map attribute at tool scope.
	ConfigureAttributeMap(ctx *ConfigureContext, name string, values map[string]string) bool

	// CreateCommand constructs a command of this tool.
	CreateCommand(name string) Command

	// CreateCustomCommand constructs a command for a custom task key, or
	// returns nil when the tool does not claim the payload.
	CreateCustomCommand(key BuildKey) Command
}

// Command is a unit of work transforming declared inputs into declared
// outputs via a tool.
type Command interface {
	// Name returns the command name.
	Name() string

	// ShortDescription returns the one-line status description.
	ShortDescription() string

	// VerboseDescription returns the full invocation description.
	VerboseDescription() string

	// ShouldShowStatus reports whether the command participates in
	// status output.
	ShouldShowStatus() bool

	// ConfigureDescription sets the manifest-supplied description.
	ConfigureDescription(ctx *ConfigureContext, value string)

	// ConfigureInputs sets the declared input nodes.
	ConfigureInputs(ctx *ConfigureContext, inputs []*BuildNode)

	// ConfigureOutputs sets the declared output nodes.
	ConfigureOutputs(ctx *ConfigureContext, outputs []*BuildNode)

	// ConfigureAttribute handles a scalar command attribute.
	ConfigureAttribute(ctx *ConfigureContext, name, value string) bool

	// ConfigureAttributeList handles a list command attribute.
	ConfigureAttributeList(ctx *ConfigureContext, name string, values []string) bool

	// ConfigureAttributeMap handles a map command attribute.
	ConfigureAttributeMap(ctx *ConfigureContext, name string, values map[string]string) bool

	// Start establishes the command's input requests.
	Start(bsci CommandInterface, task engine.Task)

	// ProvidePriorValue supplies the command's previous result.
	ProvidePriorValue(bsci CommandInterface, task engine.Task, value BuildValue)

	// ProvideValue supplies a requested input value.
	ProvideValue(bsci CommandInterface, task engine.Task, inputID uint, value BuildValue)

	// InputsAvailable is called once all inputs are in; the command must
	// eventually complete the task.
	InputsAvailable(bsci CommandInterface, task engine.Task)

	// IsResultValid reports whether the prior value may be reused.
	IsResultValid(system *BuildSystem, value BuildValue) bool

	// GetResultForOutput derives the per-output node value from the
	// command's value.
	GetResultForOutput(node *BuildNode, value BuildValue) BuildValue
}

// Target is a named ordered list of nodes.
type Target struct {
	name  domain.InternedString
	nodes []*BuildNode
}

// NewTarget creates a target.
func NewTarget(name string, nodes []*BuildNode) *Target {
	return &Target{name: domain.NewInternedString(name), nodes: nodes}
}

// Name returns the target name.
func (t *Target) Name() string { return t.name.String() }

// Nodes returns the target's nodes in declaration order.
func (t *Target) Nodes() []*BuildNode { return t.nodes }

// BuildFile is the loaded build description. The build system owns it
// exclusively; the engine borrows its objects through rule closures for
// the duration of a build.
type BuildFile struct {
	// ClientName and ClientVersion are the manifest's client
	// declaration.
	ClientName    string
	ClientVersion uint32

	// Tools maps tool names to instances; ToolOrder preserves
	// registration order for the custom task scan.
	Tools     map[string]Tool
	ToolOrder []string

	Targets  map[domain.InternedString]*Target
	Nodes    map[domain.InternedString]*BuildNode
	Commands map[domain.InternedString]Command
}

// NewBuildFile creates an empty build file.
func NewBuildFile() *BuildFile {
	return &BuildFile{
		Tools:    make(map[string]Tool),
		Targets:  make(map[domain.InternedString]*Target),
		Nodes:    make(map[domain.InternedString]*BuildNode),
		Commands: make(map[domain.InternedString]Command),
	}
}

// AddTool records a tool, preserving registration order.
func (f *BuildFile) AddTool(tool Tool) {
	if _, ok := f.Tools[tool.Name()]; ok {
		return
	}
	f.Tools[tool.Name()] = tool
	f.ToolOrder = append(f.ToolOrder, tool.Name())
}

// GetNode returns the declared node with the given name, or nil.
func (f *BuildFile) GetNode(name string) *BuildNode {
	return f.Nodes[domain.NewInternedString(name)]
}

// GetOrCreateNode returns the declared node with the given name,
// minting and recording it when absent.
func (f *BuildFile) GetOrCreateNode(name string) *BuildNode {
	key := domain.NewInternedString(name)
	if n, ok := f.Nodes[key]; ok {
		return n
	}
	n := lookupNode(name)
	f.Nodes[key] = n
	return n
}

// AddTarget records a target.
func (f *BuildFile) AddTarget(t *Target) {
	f.Targets[domain.NewInternedString(t.Name())] = t
}

// AddCommand records a command under its name. It does not register the
// command as producer of its outputs; callers do that, and have already
// rejected duplicate names.
func (f *BuildFile) AddCommand(c Command) {
	f.Commands[domain.NewInternedString(c.Name())] = c
}

// FileLoader parses the main build file into a BuildFile, reporting
// diagnostics through the delegate. It returns false when the manifest
// could not be loaded at all.
type FileLoader interface {
	Load(mainFilename string, delegate Delegate) (*BuildFile, bool)
}
