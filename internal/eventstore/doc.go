// Package eventstore journals successfully dispatched actions in SQLite so
// that container state can be inspected and rehydrated by replay.
package eventstore
