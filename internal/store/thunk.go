package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Lifecycle suffixes and meta keys of async operations.
const (
	SuffixPending   = "/pending"
	SuffixFulfilled = "/fulfilled"
	SuffixRejected  = "/rejected"

	MetaRequestID     = "requestId"
	MetaRequestStatus = "requestStatus"
	MetaAborted       = "aborted"
)

// Thunk runs an async operation and reports its lifecycle as actions:
// prefix/pending before the call, then prefix/fulfilled with the result or
// prefix/rejected with the error message.
type Thunk[A, R any] struct {
	prefix string
	run    func(ctx context.Context, arg A) (R, error)
}

// NewThunk creates a Thunk for the given action type prefix.
func NewThunk[A, R any](prefix string, run func(ctx context.Context, arg A) (R, error)) *Thunk[A, R] {
	return &Thunk[A, R]{prefix: prefix, run: run}
}

func (t *Thunk[A, R]) Prefix() string    { return t.prefix }
func (t *Thunk[A, R]) Pending() string   { return t.prefix + SuffixPending }
func (t *Thunk[A, R]) Fulfilled() string { return t.prefix + SuffixFulfilled }
func (t *Thunk[A, R]) Rejected() string  { return t.prefix + SuffixRejected }

// Run executes the operation. If ctx is canceled while the operation runs,
// the result is dropped and a rejected action marked aborted is dispatched
// so pending flags are reset.
func (t *Thunk[A, R]) Run(ctx context.Context, d Dispatcher, arg A) (R, error) {
	var zero R
	requestID := uuid.NewString()
	meta := func(status string) map[string]string {
		return map[string]string{MetaRequestID: requestID, MetaRequestStatus: status}
	}

	if err := d.Dispatch(ctx, Action{Type: t.Pending(), Meta: meta("pending")}); err != nil {
		return zero, err
	}

	res, err := t.run(ctx, arg)

	if ctxErr := ctx.Err(); ctxErr != nil {
		m := meta("rejected")
		m[MetaAborted] = "true"
		derr := d.Dispatch(context.WithoutCancel(ctx), Action{Type: t.Rejected(), Error: ctxErr.Error(), Meta: m})
		return zero, errors.Join(ctxErr, derr)
	}
	if err != nil {
		derr := d.Dispatch(ctx, Action{Type: t.Rejected(), Error: err.Error(), Meta: meta("rejected")})
		return zero, errors.Join(err, derr)
	}
	if err := d.Dispatch(ctx, Action{Type: t.Fulfilled(), Payload: res, Meta: meta("fulfilled")}); err != nil {
		return zero, err
	}
	return res, nil
}

// IsAborted reports whether a rejected action came from a canceled operation.
func IsAborted(action Action) bool {
	return action.MetaValue(MetaAborted) == "true"
}
