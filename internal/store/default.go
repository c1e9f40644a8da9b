package store

import (
	"context"
	"sync"
)

var (
	defaultOnce  sync.Once
	defaultStore *Store
)

// Default returns the process-wide container. It still has to be initialized.
func Default() *Store {
	defaultOnce.Do(func() {
		defaultStore = &Store{}
	})
	return defaultStore
}

// Initialize initializes the process-wide container.
func Initialize(builtins []Module, opts ...Option) error {
	return Default().Initialize(builtins, opts...)
}

// Dispatch dispatches on the process-wide container.
func Dispatch(ctx context.Context, action Action) error {
	return Default().Dispatch(ctx, action)
}

// RegisterModule registers on the process-wide container.
func RegisterModule(key ModuleKey, reducer Reducer) error {
	return Default().RegisterModule(key, reducer)
}

// GetState reads the process-wide container.
func GetState() State {
	return Default().GetState()
}
