// Package stuff holds the built-in employee directory slice.
package stuff

import (
	"git.home.luguber.info/inful/grdesk/internal/store"
)

const (
	ModuleKey store.ModuleKey = "stuff"

	ActionSetEmployees = "stuff/SET_EMPLOYEES"
)

// Employee is a staff member who can act as worker or creator of an operation.
type Employee struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// State is the normalized employee directory.
type State struct {
	Employees map[int64]Employee `json:"employees"`
	Order     []int64            `json:"order"`
}

func initial() State {
	return State{Employees: map[int64]Employee{}, Order: []int64{}}
}

// Slice is the stuff reducer. SET_EMPLOYEES replaces the directory.
var Slice = store.NewSlice[State](ModuleKey, initial).
	On(ActionSetEmployees, func(_ State, a store.Action) (State, error) {
		list, err := store.DecodePayload[[]Employee](a)
		if err != nil {
			return State{}, err
		}
		next := initial()
		for _, e := range list {
			if _, seen := next.Employees[e.ID]; !seen {
				next.Order = append(next.Order, e.ID)
			}
			next.Employees[e.ID] = e
		}
		return next, nil
	})

// SetEmployees builds the action that loads the directory.
func SetEmployees(list []Employee) store.Action {
	return store.Action{Type: ActionSetEmployees, Payload: list}
}

// SelectEmployees returns employees in load order.
func SelectEmployees(state store.State) []Employee {
	s := Slice.Select(state)
	out := make([]Employee, 0, len(s.Order))
	for _, id := range s.Order {
		out = append(out, s.Employees[id])
	}
	return out
}

// SelectEmployeeByID looks up one employee.
func SelectEmployeeByID(state store.State, id int64) (Employee, bool) {
	e, ok := Slice.Select(state).Employees[id]
	return e, ok
}
