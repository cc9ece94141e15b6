package datagram

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ferry/internal/adapters/logger"
	"go.trai.ch/ferry/internal/adapters/telemetry"
	"go.trai.ch/ferry/internal/core/ports"
)

// NodeID is the unique identifier for the datagram relay Graft node.
const NodeID graft.ID = "adapter.datagram"

func init() {
	graft.Register(graft.Node[*Relay]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, telemetry.TracerNodeID},
		Run: func(ctx context.Context) (*Relay, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			return New(log, tracer), nil
		},
	})
}
