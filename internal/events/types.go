package events

import (
	"time"

	"git.home.luguber.info/inful/grdesk/internal/store"
)

// Event is implemented by every grdesk notification.
type Event interface {
	EventName() string
}

// StateChanged is published after a successful dispatch.
type StateChanged struct {
	ActionID   string            `json:"action_id"`
	ActionType string            `json:"action_type"`
	Changed    []store.ModuleKey `json:"changed"`
	State      store.State       `json:"state,omitempty"`
	At         time.Time         `json:"at"`
}

// ModuleRegistered is published after RegisterModule.
type ModuleRegistered struct {
	Key      store.ModuleKey `json:"key"`
	Replaced bool            `json:"replaced"`
	At       time.Time       `json:"at"`
}

func (StateChanged) EventName() string     { return "state_changed" }
func (ModuleRegistered) EventName() string { return "module_registered" }
