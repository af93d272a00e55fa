package telemetry

import (
	"context"

	"github.com/grindlemire/graft"

	"go.trai.ch/forge/internal/core/ports"
)

// NodeID is the unique identifier for the telemetry Graft node.
const NodeID graft.ID = "adapter.telemetry"

func init() {
	graft.Register(graft.Node[ports.StatusReporter]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.StatusReporter, error) {
			return New(), nil
		},
	})
}
