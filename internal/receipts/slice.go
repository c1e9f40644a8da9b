package receipts

import (
	"maps"

	"git.home.luguber.info/inful/grdesk/internal/store"
)

const (
	// ModuleKey is the slice key of the feature.
	ModuleKey store.ModuleKey = "operationsGR"

	// Prefix namespaces every action of the feature.
	Prefix = "goodsReceipts/operations"

	ActionCreateOperation  = Prefix + "/CREATE_OPERATION"
	ActionFetchStatusRules = Prefix + "/FETCH_STATUS_RULES"
)

// OperationsState is the feature slice.
type OperationsState struct {
	List        map[int64]Operation `json:"list"`
	ByIDs       []int64             `json:"byIds"`
	Total       int                 `json:"total"`
	Creating    bool                `json:"creating"`
	StatusRules []StatusRule        `json:"statusRules"`
}

// InitialState returns an empty slice.
func InitialState() OperationsState {
	return OperationsState{
		List:        map[int64]Operation{},
		ByIDs:       []int64{},
		StatusRules: []StatusRule{},
	}
}

// Slice is the feature reducer.
var Slice = store.NewSlice[OperationsState](ModuleKey, InitialState).
	On(ActionCreateOperation+store.SuffixPending, func(s OperationsState, _ store.Action) (OperationsState, error) {
		s.Creating = true
		return s, nil
	}).
	On(ActionCreateOperation+store.SuffixFulfilled, func(s OperationsState, a store.Action) (OperationsState, error) {
		op, err := store.DecodePayload[Operation](a)
		if err != nil {
			return s, err
		}
		s.Creating = false
		s.ByIDs = append([]int64{op.ID}, s.ByIDs...)
		s.List = maps.Clone(s.List)
		if s.List == nil {
			s.List = map[int64]Operation{}
		}
		s.List[op.ID] = op
		s.Total++
		return s, nil
	}).
	On(ActionCreateOperation+store.SuffixRejected, func(s OperationsState, _ store.Action) (OperationsState, error) {
		s.Creating = false
		return s, nil
	}).
	On(ActionFetchStatusRules+store.SuffixFulfilled, func(s OperationsState, a store.Action) (OperationsState, error) {
		rules, err := store.DecodePayload[[]StatusRule](a)
		if err != nil {
			return s, err
		}
		s.StatusRules = rules
		return s, nil
	})
