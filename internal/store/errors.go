package store

import (
	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
)

var (
	// ErrNotInitialized indicates Dispatch or RegisterModule ran before Initialize.
	ErrNotInitialized = ferrors.StoreError("store not initialized").Fatal().Build()

	// ErrAlreadyInitialized indicates Initialize was called on a ready store.
	ErrAlreadyInitialized = ferrors.StoreError("store already initialized").Fatal().Build()

	// ErrDuplicateBuiltinKey indicates two built-in modules share a key.
	ErrDuplicateBuiltinKey = ferrors.ConfigError("duplicate built-in module key").Build()

	// ErrInvalidModule indicates an empty module key or a nil reducer.
	ErrInvalidModule = ferrors.ConfigError("invalid module registration").Build()

	// ErrInvalidAction indicates an action without a type.
	ErrInvalidAction = ferrors.ValidationError("action type is required").Build()

	// ErrTransitionFailed indicates a reducer returned an error or panicked.
	ErrTransitionFailed = ferrors.StoreError("transition function failed").Build()

	// ErrSliceType indicates a slice received state of an unexpected type.
	ErrSliceType = ferrors.StoreError("unexpected slice state type").Build()

	// ErrPayload indicates an action payload could not be decoded.
	ErrPayload = ferrors.ValidationError("unexpected action payload").Build()
)
