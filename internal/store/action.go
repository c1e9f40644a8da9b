package store

import (
	"encoding/json"
	"fmt"
	"maps"
)

// ModuleKey identifies a state slice. Keys are unique within a Store.
type ModuleKey string

// Action describes a state-changing event. Type is the discriminant; the
// container passes the rest through unchanged to every reducer.
type Action struct {
	ID      string            `json:"id,omitempty"`
	Type    string            `json:"type"`
	Payload any               `json:"payload,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// UnmarshalJSON keeps the payload as raw JSON so that slices decode it into
// their own types with DecodePayload.
func (a *Action) UnmarshalJSON(b []byte) error {
	var wire struct {
		ID      string            `json:"id"`
		Type    string            `json:"type"`
		Payload json.RawMessage   `json:"payload"`
		Meta    map[string]string `json:"meta"`
		Error   string            `json:"error"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	*a = Action{ID: wire.ID, Type: wire.Type, Meta: wire.Meta, Error: wire.Error}
	if len(wire.Payload) > 0 && string(wire.Payload) != "null" {
		a.Payload = wire.Payload
	}
	return nil
}

// MetaValue returns a meta entry or "".
func (a Action) MetaValue(key string) string {
	return a.Meta[key]
}

// WithMeta returns a copy of the action with an extra meta entry.
func (a Action) WithMeta(key, value string) Action {
	meta := make(map[string]string, len(a.Meta)+1)
	maps.Copy(meta, a.Meta)
	meta[key] = value
	a.Meta = meta
	return a
}

// DecodePayload converts the action payload into T. Typed payloads are
// returned as-is; raw JSON and generic maps (HTTP bodies, journal replay)
// are decoded through encoding/json.
func DecodePayload[T any](action Action) (T, error) {
	var zero T
	switch p := action.Payload.(type) {
	case T:
		return p, nil
	case *T:
		if p != nil {
			return *p, nil
		}
	case json.RawMessage:
		return decodeJSON[T](action.Type, p)
	case []byte:
		return decodeJSON[T](action.Type, p)
	case nil:
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return zero, ErrPayload.WithContext("action_type", action.Type).WithCause(err)
		}
		return decodeJSON[T](action.Type, raw)
	}
	return zero, ErrPayload.WithContext("action_type", action.Type).
		WithCause(fmt.Errorf("missing payload, want %T", zero))
}

func decodeJSON[T any](actionType string, raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, ErrPayload.WithContext("action_type", actionType).WithCause(err)
	}
	return v, nil
}
