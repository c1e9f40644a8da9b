package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/grdesk/internal/store"
)

// Entry is one journaled action.
type Entry struct {
	Seq       int64             `json:"seq"`
	ActionID  string            `json:"action_id"`
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
	Meta      map[string]string `json:"meta,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Action rebuilds the dispatched action. The payload stays raw JSON.
func (e Entry) Action() store.Action {
	a := store.Action{ID: e.ActionID, Type: e.Type, Meta: e.Meta, Error: e.Error}
	if len(e.Payload) > 0 {
		a.Payload = e.Payload
	}
	return a
}
