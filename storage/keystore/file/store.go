package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/micky-code/school-management-system-SMS--sub000/core/session"
)

type store struct {
	mutex sync.Mutex
	path  string
}

var _ session.Backend = (*store)(nil)

// New returns a session.Backend persisting every key in one JSON file at `path`.
// The file is created on first write with 0600 permissions.
func New(path string) (session.Backend, error) {
	if path == "" {
		return nil, errors.New("filestore: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "creating session dir")
	}
	return &store{path: path}, nil
}

func (s *store) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading session file")
	}
	table := make(map[string]string)
	if len(data) == 0 {
		return table, nil
	}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, errors.Wrap(err, "decoding session file")
	}
	return table, nil
}

// save writes to a temp file then renames it over the previous one.
func (s *store) save(table map[string]string) error {
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding session file")
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return errors.Wrap(err, "creating temp session file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing temp session file")
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "chmod temp session file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing temp session file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replacing session file")
}

func (s *store) Get(key string) (string, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	table, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := table[key]
	return v, ok, nil
}

func (s *store) Set(key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	table, err := s.load()
	if err != nil {
		return err
	}
	table[key] = value
	return s.save(table)
}

func (s *store) Delete(key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	table, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := table[key]; !ok {
		return nil
	}
	delete(table, key)
	return s.save(table)
}
