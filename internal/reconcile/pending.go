package reconcile

import "sync"

// PendingSet holds ids of entries the client uploaded and has not yet seen
// leave pending. It is advisory only: the server row is the source of truth.
// When full, the oldest id is evicted.
type PendingSet struct {
	mu    sync.Mutex
	max   int
	ids   map[uint]struct{}
	order []uint
}

func NewPendingSet(max int) *PendingSet {
	if max <= 0 {
		max = 256
	}
	return &PendingSet{max: max, ids: make(map[uint]struct{})}
}

func (s *PendingSet) Add(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return
	}
	if len(s.order) >= s.max {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.ids, oldest)
	}
	s.ids[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *PendingSet) Remove(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; !ok {
		return
	}
	delete(s.ids, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *PendingSet) Has(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

func (s *PendingSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}
