package eventstore

import (
	"context"
	"time"

	"git.home.luguber.info/inful/grdesk/internal/store"
)

// Journal persists and reads dispatched actions in dispatch order.
type Journal interface {
	// Append records an action.
	Append(ctx context.Context, action store.Action) error

	// All returns every entry ordered by sequence.
	All(ctx context.Context) ([]Entry, error)

	// GetRange returns entries recorded within [start, end].
	GetRange(ctx context.Context, start, end time.Time) ([]Entry, error)

	// Count returns the number of entries.
	Count(ctx context.Context) (int64, error)

	// Close releases resources.
	Close() error
}
