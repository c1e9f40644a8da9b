// Package common holds the built-in slice with session-wide data.
package common

import (
	"git.home.luguber.info/inful/grdesk/internal/store"
)

const (
	ModuleKey store.ModuleKey = "common"

	ActionSetCurrentEmployee = "common/SET_CURRENT_EMPLOYEE"
)

// State is the common slice.
type State struct {
	CurrentEmployeeID int64 `json:"currentEmployeeId"`
}

// Slice is the common reducer.
var Slice = store.NewSlice[State](ModuleKey, func() State { return State{} }).
	On(ActionSetCurrentEmployee, func(s State, a store.Action) (State, error) {
		id, err := store.DecodePayload[int64](a)
		if err != nil {
			return s, err
		}
		s.CurrentEmployeeID = id
		return s, nil
	})

// SetCurrentEmployee builds the action that selects the signed-in employee.
func SetCurrentEmployee(id int64) store.Action {
	return store.Action{Type: ActionSetCurrentEmployee, Payload: id}
}

// SelectCurrentEmployeeID returns the signed-in employee, 0 when unknown.
func SelectCurrentEmployeeID(state store.State) int64 {
	return Slice.Select(state).CurrentEmployeeID
}
