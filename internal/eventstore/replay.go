package eventstore

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/grdesk/internal/logfields"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// Replay re-dispatches every journaled action into d, in order, and returns
// how many were applied. Modules must be registered before replay for their
// slices to be rebuilt.
func Replay(ctx context.Context, j Journal, d store.Dispatcher, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := j.All(ctx)
	if err != nil {
		return 0, err
	}
	ctx = WithReplay(ctx)
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := d.Dispatch(ctx, e.Action()); err != nil {
			return i, ErrReplayFailed.
				WithContext("seq", e.Seq).
				WithContext(logfields.KeyActionType, e.Type).
				WithCause(err)
		}
	}
	logger.InfoContext(ctx, "Journal replayed", slog.Int("actions", len(entries)))
	return len(entries), nil
}
