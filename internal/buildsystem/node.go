package buildsystem

import (
	"strings"

	"go.trai.ch/forge/internal/core/domain"
	"go.trai.ch/forge/internal/core/ports"
)

// BuildNode is a node in the build description: a file path or, when
// the name is wrapped in angle brackets, a virtual entity with no
// filesystem presence.
type BuildNode struct {
	name      domain.InternedString
	virtual   bool
	producers []Command
}

// NewBuildNode creates a node with the given name and virtualness.
func NewBuildNode(name string, virtual bool) *BuildNode {
	return &BuildNode{name: domain.NewInternedString(name), virtual: virtual}
}

// lookupNode mints a node for name, inferring virtualness from the
// `<...>` convention. Used for both declared and implicit nodes.
func lookupNode(name string) *BuildNode {
	virtual := strings.HasPrefix(name, "<") && strings.HasSuffix(name, ">")
	return NewBuildNode(name, virtual)
}

// Name returns the node name.
func (n *BuildNode) Name() string { return n.name.String() }

// IsVirtual reports whether the node has no filesystem presence.
func (n *BuildNode) IsVirtual() bool { return n.virtual }

// Producers returns the commands declaring this node as an output.
func (n *BuildNode) Producers() []Command { return n.producers }

// AddProducer records a command that produces this node.
func (n *BuildNode) AddProducer(c Command) { n.producers = append(n.producers, c) }

// GetFileInfo stats the node's path.
func (n *BuildNode) GetFileInfo(fs ports.FileSystem) domain.FileInfo {
	return fs.GetFileInfo(n.name.String())
}
