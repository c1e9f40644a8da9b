package grapi

import (
	"git.home.luguber.info/inful/grdesk/internal/foundation/errors"
)

var (
	// ErrUnreachable signals a transport failure talking to the backend.
	ErrUnreachable = errors.NetworkError("goods-receipt backend unreachable").Build()

	// ErrBackend signals a 5xx response.
	ErrBackend = errors.BackendError("goods-receipt backend error").Retryable().Build()

	// ErrRejected signals a 4xx response other than 404.
	ErrRejected = errors.ValidationError("goods-receipt backend rejected the request").Build()

	// ErrNotFound signals a 404 response.
	ErrNotFound = errors.NotFoundError("goods-receipt resource not found").Warning().Build()

	// ErrDecode signals a malformed response body.
	ErrDecode = errors.BackendError("malformed goods-receipt backend response").Build()
)
