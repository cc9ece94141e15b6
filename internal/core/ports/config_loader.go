package ports

import "go.trai.ch/ferry/internal/core/domain"

// ConfigLoader defines the interface for loading the relay configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads and validates the configuration file at path.
	Load(path string) (*domain.Config, error)
}
