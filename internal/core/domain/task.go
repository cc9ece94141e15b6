package domain

import "context"

// Task is a long-running unit of relay work.
//
// A task runs until it fails or until ctx is cancelled. Returning nil after
// cancellation is a clean stop.
type Task func(ctx context.Context) error
