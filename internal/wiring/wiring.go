// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/ferry/internal/adapters/config"
	_ "go.trai.ch/ferry/internal/adapters/datagram"
	_ "go.trai.ch/ferry/internal/adapters/dnscache"
	_ "go.trai.ch/ferry/internal/adapters/logger"
	_ "go.trai.ch/ferry/internal/adapters/stream"
	_ "go.trai.ch/ferry/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/ferry/internal/app"
	_ "go.trai.ch/ferry/internal/engine/reactor"
)
