package downloader

import (
	"context"
)

// Downloader runs the poll loop that moves the checkpoint towards the chain head.
type Downloader interface {
	// Step indexes (cursor, head] and returns the new cursor. On error it returns
	// the last committed cursor together with the error.
	Step(ctx context.Context, cursor uint64) (uint64, error)

	// Run loads the checkpoint and calls Step every poll interval until ctx is cancelled.
	Run(ctx context.Context) error
}
