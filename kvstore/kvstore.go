// Package kvstore is a tiny string-keyed persistence layer backed by a JSON
// file. The web task store keeps exactly two entries in it: the serialized
// task list and the selected theme name.
package kvstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

type Store struct {
	path string
	mux  sync.Mutex
	data map[string]string
}

// Open loads the store from path, starting empty when the file doesn't exist.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return s, nil
	case err != nil:
		return nil, errors.Wrap(err, "failed reading state file")
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, errors.Wrap(err, "failed parsing state file")
	}

	return s, nil
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	s.mux.Lock()
	defer s.mux.Unlock()

	val, ok := s.data[key]
	return val, ok
}

// Set stores the value and persists the whole map in one write.
func (s *Store) Set(key, val string) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.data[key] = val
	return s.flush()
}

// flush writes the map to a temp file and renames it over the target so a
// crashed write never leaves a truncated state file. Caller must hold mux.
func (s *Store) flush() error {
	raw, err := json.Marshal(s.data)
	if err != nil {
		return errors.Wrap(err, "failed serializing state")
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".zentask-*")
	if err != nil {
		return errors.Wrap(err, "failed creating temp state file")
	}

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed writing state")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed closing temp state file")
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "failed replacing state file")
	}
	return nil
}
