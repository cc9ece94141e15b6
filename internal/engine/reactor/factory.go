package reactor

import (
	"errors"

	"go.trai.ch/ferry/internal/core/domain"
	"go.trai.ch/ferry/internal/core/ports"
	"go.trai.ch/zerr"
)

var errNegativeLimit = zerr.New("max_connections must not be negative")

// Factory implements ports.EngineFactory.
type Factory struct {
	Logger ports.Logger
}

// NewFactory creates a new Factory.
func NewFactory(logger ports.Logger) *Factory {
	return &Factory{Logger: logger}
}

// NewEngine claims the process resources requested by cfg and returns an
// engine ready to run. Every failure is classified as domain.ErrEngineInit.
func (f *Factory) NewEngine(cfg *domain.Config) (ports.Engine, error) {
	if cfg.Limits.MaxConnections < 0 {
		return nil, errors.Join(domain.ErrEngineInit,
			zerr.With(errNegativeLimit, "max_connections", cfg.Limits.MaxConnections))
	}

	if cfg.Limits.NoFile > 0 {
		got, err := raiseNoFile(cfg.Limits.NoFile)
		if err != nil {
			return nil, errors.Join(domain.ErrEngineInit,
				zerr.With(zerr.Wrap(err, "failed to raise open file limit"), "nofile", cfg.Limits.NoFile))
		}
		f.Logger.Debug("open file limit applied", "requested", cfg.Limits.NoFile, "soft", got)
	}

	if cfg.ReusePort && !reusePortSupported {
		f.Logger.Warn("reuse_port is not supported on this platform, ignoring")
	}

	return &Engine{
		handle: newHandle(cfg, f.Logger),
		logger: f.Logger,
	}, nil
}
