package receipts

import (
	"git.home.luguber.info/inful/grdesk/internal/store"
)

// SelectList returns the loaded operations keyed by id.
func SelectList(state store.State) map[int64]Operation {
	list := Slice.Select(state).List
	if list == nil {
		return map[int64]Operation{}
	}
	return list
}

// SelectStatusRules returns the known status rules.
func SelectStatusRules(state store.State) []StatusRule {
	return Slice.Select(state).StatusRules
}

// OperationByID returns a loaded operation.
func OperationByID(state store.State, id int64) (Operation, bool) {
	op, ok := SelectList(state)[id]
	return op, ok
}

// SelectFinalRule returns the first final status rule.
func SelectFinalRule(state store.State) (StatusRule, bool) {
	for _, r := range SelectStatusRules(state) {
		if r.Final {
			return r, true
		}
	}
	return StatusRule{}, false
}

// IsOperationReadOnly reports whether the operation reached the final status.
// Unknown operations and a missing final rule yield false.
func IsOperationReadOnly(state store.State, id int64) bool {
	op, ok := OperationByID(state, id)
	if !ok {
		return false
	}
	final, ok := SelectFinalRule(state)
	if !ok {
		return false
	}
	return op.Status == final.ID
}
