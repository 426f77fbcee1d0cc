package inmemstore

import (
	"sync"

	"github.com/micky-code/school-management-system-SMS--sub000/core/session"
)

type store struct {
	mutex sync.RWMutex
	table map[string]string
}

var _ session.Backend = (*store)(nil)

// New returns a session.Backend that forgets everything when the process exits.
func New() session.Backend {
	return &store{table: make(map[string]string)}
}

func (s *store) Get(key string) (string, bool, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	v, ok := s.table[key]
	return v, ok, nil
}

func (s *store) Set(key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.table[key] = value
	return nil
}

func (s *store) Delete(key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.table, key)
	return nil
}
