package fs

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/forge/internal/core/ports"
)

// NodeID is the unique identifier for the filesystem Graft node.
const NodeID graft.ID = "adapter.filesystem"

func init() {
	graft.Register(graft.Node[ports.FileSystem]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.FileSystem, error) {
			return New(), nil
		},
	})
}
