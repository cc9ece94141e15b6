package reactor

import (
	"context"

	"go.trai.ch/ferry/internal/core/domain"
)

// Join combines tasks into one that runs them concurrently. It returns nil
// once every task has returned nil, or the first non-nil error as soon as it
// occurs. Siblings still running at that point see their context cancelled
// but are not waited for.
func Join(tasks ...domain.Task) domain.Task {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		results := make(chan error, len(tasks))
		for _, task := range tasks {
			go func() {
				results <- runTask(ctx, task)
			}()
		}

		for pending := len(tasks); pending > 0; pending-- {
			if err := <-results; err != nil {
				return err
			}
		}
		return nil
	}
}
