package eventstore

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/grdesk/internal/logfields"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

type replayKey struct{}

// WithReplay marks ctx as a replay so the journal hook does not
// record actions a second time.
func WithReplay(ctx context.Context) context.Context {
	return context.WithValue(ctx, replayKey{}, true)
}

// IsReplay reports whether ctx carries the replay marker.
func IsReplay(ctx context.Context) bool {
	v, _ := ctx.Value(replayKey{}).(bool)
	return v
}

// JournalHook appends every applied action to j. It runs as a store commit
// hook, so the journal keeps the order in which reducers applied actions.
// A failed append is logged; the dispatch itself has already succeeded.
func JournalHook(j Journal, logger *slog.Logger) store.CommitHook {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, action store.Action, _ store.State) {
		if IsReplay(ctx) {
			return
		}
		if err := j.Append(context.WithoutCancel(ctx), action); err != nil {
			logger.ErrorContext(ctx, "Journal append failed",
				logfields.ActionType(action.Type),
				logfields.ActionID(action.ID),
				logfields.Error(err))
		}
	}
}
