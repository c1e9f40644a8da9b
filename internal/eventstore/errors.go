package eventstore

import (
	"git.home.luguber.info/inful/grdesk/internal/foundation/errors"
)

var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = errors.EventStoreError("could not open journal database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = errors.EventStoreError("failed to initialize journal schema").Build()

	// ErrAppendFailed indicates appending an entry failed.
	ErrAppendFailed = errors.EventStoreError("failed to append journal entry").Build()

	// ErrQueryFailed indicates querying entries failed.
	ErrQueryFailed = errors.EventStoreError("failed to query journal").Build()

	// ErrScanFailed indicates scanning entry rows failed.
	ErrScanFailed = errors.EventStoreError("failed to scan journal rows").Build()

	// ErrMarshalPayloadFailed indicates an action payload could not be encoded.
	ErrMarshalPayloadFailed = errors.EventStoreError("failed to marshal action payload").Build()

	// ErrReplayFailed indicates a journaled action could not be re-dispatched.
	ErrReplayFailed = errors.EventStoreError("journal replay failed").Build()
)
