package receipts

import (
	"context"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/grdesk/internal/logfields"
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// Backend is the goods-receipt API used by the feature.
type Backend interface {
	CreateOperation(ctx context.Context, body CreateBody) (Operation, error)
	ListOperations(ctx context.Context, filter ListFilter) (OperationsList, error)
	StatusRules(ctx context.Context) ([]StatusRule, error)
}

// Actions holds the async operations of the feature bound to a backend.
type Actions struct {
	CreateOperation  *store.Thunk[CreateBody, Operation]
	FetchStatusRules *store.Thunk[struct{}, []StatusRule]
}

// NewActions binds the feature thunks to backend.
func NewActions(backend Backend, logger *slog.Logger) *Actions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Actions{
		CreateOperation: store.NewThunk(ActionCreateOperation,
			func(ctx context.Context, body CreateBody) (Operation, error) {
				op, err := backend.CreateOperation(ctx, body)
				if err != nil {
					logUnlessCanceled(ctx, logger, "Create operation failed", err)
					return Operation{}, err
				}
				return op, nil
			}),
		FetchStatusRules: store.NewThunk(ActionFetchStatusRules,
			func(ctx context.Context, _ struct{}) ([]StatusRule, error) {
				rules, err := backend.StatusRules(ctx)
				if err != nil {
					logUnlessCanceled(ctx, logger, "Fetch status rules failed", err)
					return nil, err
				}
				return rules, nil
			}),
	}
}

func logUnlessCanceled(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if isCanceled(ctx, err) {
		return
	}
	logger.ErrorContext(ctx, msg, logfields.Error(err))
}

func isCanceled(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || ctx.Err() != nil
}
