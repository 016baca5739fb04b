package client

import "sync"

// inflightSet drops a second concurrent trigger for the same key.
type inflightSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newInflightSet() *inflightSet {
	return &inflightSet{keys: make(map[string]struct{})}
}

// begin reserves the key. Returns false if it is already held.
func (s *inflightSet) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.keys[key]; held {
		return false
	}

	s.keys[key] = struct{}{}

	return true
}

func (s *inflightSet) end(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}
