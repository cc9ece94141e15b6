package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/ferry/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/ferry/internal/adapters/datagram"  //nolint:depguard // Wired in app layer
	"go.trai.ch/ferry/internal/adapters/dnscache"  //nolint:depguard // Wired in app layer
	"go.trai.ch/ferry/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/ferry/internal/adapters/stream"    //nolint:depguard // Wired in app layer
	"go.trai.ch/ferry/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/ferry/internal/core/ports"
	"go.trai.ch/ferry/internal/engine/reactor"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			reactor.NodeID,
			dnscache.NodeID,
			stream.NodeID,
			datagram.NodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.NodeID,
			telemetry.TracerNodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	engines, err := graft.Dep[ports.EngineFactory](ctx)
	if err != nil {
		return nil, err
	}

	resolvers, err := graft.Dep[ports.ResolverFactory](ctx)
	if err != nil {
		return nil, err
	}

	streamRelay, err := graft.Dep[*stream.Relay](ctx)
	if err != nil {
		return nil, err
	}

	datagramRelay, err := graft.Dep[*datagram.Relay](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(engines, resolvers, streamRelay, datagramRelay, log), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:          app,
		Logger:       log,
		ConfigLoader: loader,
		Tracer:       tracer,
	}, nil
}
