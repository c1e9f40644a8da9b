package store

import (
	"fmt"
)

// CaseReducer handles one action type for a typed slice.
type CaseReducer[S any] func(state S, action Action) (S, error)

// Slice is a typed reducer for one module key. Unknown action types return
// the state unchanged; an absent state starts from the initial value.
type Slice[S any] struct {
	key     ModuleKey
	initial func() S
	cases   map[string]CaseReducer[S]
}

// NewSlice creates a typed slice reducer.
func NewSlice[S any](key ModuleKey, initial func() S) *Slice[S] {
	if initial == nil {
		initial = func() S {
			var zero S
			return zero
		}
	}
	return &Slice[S]{key: key, initial: initial, cases: make(map[string]CaseReducer[S])}
}

// On adds a case reducer. Registering the same action type twice panics.
func (s *Slice[S]) On(actionType string, fn CaseReducer[S]) *Slice[S] {
	if _, exists := s.cases[actionType]; exists {
		panic(fmt.Sprintf("store: slice %q already handles %q", s.key, actionType))
	}
	s.cases[actionType] = fn
	return s
}

// Key returns the module key.
func (s *Slice[S]) Key() ModuleKey { return s.key }

// Initial returns a fresh default state.
func (s *Slice[S]) Initial() S { return s.initial() }

// Module returns the registration-table entry for the slice.
func (s *Slice[S]) Module() Module { return Module{Key: s.key, Reducer: s} }

// Handles reports whether the slice reacts to actionType.
func (s *Slice[S]) Handles(actionType string) bool {
	_, ok := s.cases[actionType]
	return ok
}

// Reduce implements Reducer.
func (s *Slice[S]) Reduce(state any, action Action) (any, error) {
	cur, err := s.coerce(state)
	if err != nil {
		return nil, err
	}
	fn, ok := s.cases[action.Type]
	if !ok {
		return cur, nil
	}
	return fn(cur, action)
}

// Select reads the slice from a snapshot, falling back to the initial state.
func (s *Slice[S]) Select(state State) S {
	cur, err := s.coerce(state[s.key])
	if err != nil {
		return s.initial()
	}
	return cur
}

func (s *Slice[S]) coerce(state any) (S, error) {
	switch v := state.(type) {
	case nil:
		return s.initial(), nil
	case S:
		return v, nil
	default:
		var zero S
		return zero, ErrSliceType.
			WithContext("module_key", string(s.key)).
			WithCause(fmt.Errorf("got %T, want %T", state, zero))
	}
}

// Selector derives a value from a snapshot.
type Selector[R any] func(State) R

// Derive composes a selector with a projection.
func Derive[S, R any](sel Selector[S], fn func(S) R) Selector[R] {
	return func(state State) R {
		return fn(sel(state))
	}
}
