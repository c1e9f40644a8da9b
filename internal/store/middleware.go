package store

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/grdesk/internal/logfields"
)

// LoggingMiddleware logs every dispatch at debug level and failures at warn.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next DispatchFunc) DispatchFunc {
		return func(ctx context.Context, action Action) error {
			start := time.Now()
			err := next(ctx, action)
			if err != nil {
				logger.LogAttrs(ctx, slog.LevelWarn, "Dispatch failed",
					logfields.ActionType(action.Type),
					logfields.ActionID(action.ID),
					logfields.Duration(time.Since(start)),
					logfields.Error(err))
				return err
			}
			logger.LogAttrs(ctx, slog.LevelDebug, "Action dispatched",
				logfields.ActionType(action.Type),
				logfields.ActionID(action.ID),
				logfields.Duration(time.Since(start)))
			return nil
		}
	}
}
