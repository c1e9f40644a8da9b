package store

import (
	"fmt"
	"maps"
	"slices"
)

// Reducer is a transition function for one slice. It must be pure and
// total: a nil state means the slice is absent and must yield the slice's
// default state.
type Reducer interface {
	Reduce(state any, action Action) (any, error)
}

// ReducerFunc adapts a plain function to Reducer.
type ReducerFunc func(state any, action Action) (any, error)

// Reduce calls f(state, action).
func (f ReducerFunc) Reduce(state any, action Action) (any, error) {
	return f(state, action)
}

// Module is one entry of the registration table.
type Module struct {
	Key     ModuleKey
	Reducer Reducer
}

// ModuleInfo describes a registered module.
type ModuleInfo struct {
	Key     ModuleKey `json:"key"`
	Builtin bool      `json:"builtin"`
	// Shadowed is set when a late registration replaced a built-in of the same key.
	Shadowed bool `json:"shadowed,omitempty"`
}

// State is the aggregate state snapshot keyed by module.
type State map[ModuleKey]any

// Clone returns a shallow copy; slice values are shared and must be treated as immutable.
func (s State) Clone() State {
	if s == nil {
		return nil
	}
	return maps.Clone(s)
}

// Keys returns the keys present in the snapshot in sorted order.
func (s State) Keys() []ModuleKey {
	return slices.Sorted(maps.Keys(s))
}

// aggregate is the combined reducer built from the registration table.
type aggregate struct {
	keys     []ModuleKey
	reducers map[ModuleKey]Reducer
}

// combine merges built-ins and late registrations; late registrations win on key collision.
func combine(builtins, registered map[ModuleKey]Reducer) aggregate {
	reducers := make(map[ModuleKey]Reducer, len(builtins)+len(registered))
	maps.Copy(reducers, builtins)
	maps.Copy(reducers, registered)
	return aggregate{
		keys:     slices.Sorted(maps.Keys(reducers)),
		reducers: reducers,
	}
}

// reduce runs every reducer against action. Keys without a reducer are
// carried over untouched. On the first failure nothing is returned.
func (g aggregate) reduce(prev State, action Action) (State, error) {
	next := make(State, len(prev)+len(g.keys))
	maps.Copy(next, prev)
	for _, key := range g.keys {
		value, err := invoke(key, g.reducers[key], prev[key], action)
		if err != nil {
			return nil, err
		}
		next[key] = value
	}
	return next, nil
}

func invoke(key ModuleKey, r Reducer, prev any, action Action) (next any, err error) {
	defer func() {
		if p := recover(); p != nil {
			next = nil
			err = ErrTransitionFailed.
				WithContext("module_key", string(key)).
				WithContext("action_type", action.Type).
				WithCause(fmt.Errorf("panic: %v", p))
		}
	}()
	next, err = r.Reduce(prev, action)
	if err != nil {
		return nil, ErrTransitionFailed.
			WithContext("module_key", string(key)).
			WithContext("action_type", action.Type).
			WithCause(err)
	}
	return next, nil
}
