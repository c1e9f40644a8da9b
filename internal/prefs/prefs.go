// Package prefs persists user preferences as a JSON object on disk.
package prefs

import (
	"encoding/json"
	"errors"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/grdesk/internal/foundation/errors"
)

// Store is a string key/value store backed by one JSON file. Writes replace
// the file atomically through a temporary file.
type Store struct {
	path string

	mu        sync.RWMutex
	values    map[string]string
	lastSaved time.Time
}

type fileFormat struct {
	UpdatedAt time.Time         `json:"updated_at"`
	Values    map[string]string `json:"values"`
}

// Open loads path, creating the parent directory. A missing file is empty.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, ferrors.FileSystemError("create preferences directory").
			WithContext("path", path).WithCause(err).Build()
	}
	s := &Store{path: path, values: map[string]string{}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, ferrors.FileSystemError("read preferences").
			WithContext("path", path).WithCause(err).Build()
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, ferrors.ValidationError("malformed preferences file").
			WithContext("path", path).WithCause(err).Build()
	}
	if f.Values != nil {
		s.values = f.Values
	}
	s.lastSaved = f.UpdatedAt
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Get returns the value for key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and saves.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	s.values[key] = value
	if err := s.saveLocked(); err != nil {
		if had {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Delete removes key and saves. Deleting a missing key is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.values[key]
	if !had {
		return nil
	}
	delete(s.values, key)
	if err := s.saveLocked(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

// Keys lists stored keys in order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

func (s *Store) saveLocked() error {
	now := time.Now().UTC()
	data, err := json.MarshalIndent(fileFormat{UpdatedAt: now, Values: s.values}, "", "  ")
	if err != nil {
		return ferrors.InternalError("encode preferences").WithCause(err).Build()
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return ferrors.FileSystemError("write preferences").
			WithContext("path", tmp).WithCause(err).Build()
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return ferrors.FileSystemError("replace preferences").
			WithContext("path", s.path).WithCause(err).Build()
	}
	s.lastSaved = now
	return nil
}

// LastSaved returns when the file was last written, zero if never.
func (s *Store) LastSaved() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSaved
}
