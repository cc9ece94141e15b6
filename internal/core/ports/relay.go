package ports

import "go.trai.ch/ferry/internal/core/domain"

// Relay builds the long-running task of one relay kind.
//
//go:generate mockgen -source=relay.go -destination=mocks/mock_relay.go -package=mocks
type Relay interface {
	// Task returns the unit of work serving every configured endpoint.
	// Building the task performs no I/O.
	Task(cfg *domain.Config, engine EngineHandle, resolver Resolver) domain.Task
}
