// Package store implements the grdesk state container: a single source of
// truth for application state assembled from independently owned slices.
//
// Each slice is identified by a ModuleKey and owned by a Reducer (a pure
// transition function). A Store is built from a fixed set of built-in
// modules and can be extended at runtime with RegisterModule, which rebuilds
// the aggregate reducer without touching the state of other slices:
//
//	s, err := store.New([]store.Module{common.Slice.Module(), stuff.Slice.Module()})
//	if err != nil {
//		return err // ErrDuplicateBuiltinKey, ErrInvalidModule
//	}
//	_ = s.RegisterModule(receipts.ModuleKey, receipts.Slice)
//	err = s.Dispatch(ctx, store.Action{Type: "common/SET_CURRENT_EMPLOYEE", Payload: int64(7)})
//
// Concurrency: every writer is serialized. Reducers run under the state lock
// and listeners are notified after the new snapshot is published, in
// dispatch order. A listener must not call Dispatch synchronously.
//
// Errors: a reducer that returns an error or panics leaves the state
// untouched and Dispatch returns ErrTransitionFailed wrapping the cause.
package store
