package domain

import "go.trai.ch/zerr"

var (
	// ErrEngineInit is returned when the execution engine cannot be created.
	// It is fatal: no relay is started once it occurs.
	ErrEngineInit = zerr.New("failed to initialize execution engine")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when the configuration fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrNoServers is returned when the configuration does not define any server endpoint.
	ErrNoServers = zerr.New("no servers configured")

	// ErrListenFailed is returned when a relay cannot bind its listening socket.
	ErrListenFailed = zerr.New("failed to listen")

	// ErrDialFailed is returned when no resolved target address accepts a connection.
	ErrDialFailed = zerr.New("failed to dial target")

	// ErrResolveFailed is returned when a hostname cannot be resolved.
	ErrResolveFailed = zerr.New("failed to resolve hostname")

	// ErrNoAddresses is returned when a lookup succeeds but yields no usable address.
	ErrNoAddresses = zerr.New("no addresses found for hostname")

	// ErrTaskPanicked is returned when a relay task panics while being driven by the engine.
	ErrTaskPanicked = zerr.New("relay task panicked")
)
