package turn

import "sync"

// DefaultCapacity is the number of turns kept in memory.
const DefaultCapacity = 200

// Store keeps the most recent turns for dashboard lookups.
type Store struct {
	mu       sync.RWMutex
	capacity int
	records  map[int64]Record
}

// NewStore creates a store holding at most capacity turns.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		capacity: capacity,
		records:  make(map[int64]Record, capacity+1),
	}
}

// Put inserts or overwrites a record, then evicts the lowest turn numbers
// until the store is back within capacity.
func (s *Store) Put(r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[r.Turn] = r
	for len(s.records) > s.capacity {
		delete(s.records, s.lowest())
	}
}

// lowest must be called with the lock held.
func (s *Store) lowest() int64 {
	first := true
	var lo int64
	for n := range s.records {
		if first || n < lo {
			lo = n
			first = false
		}
	}
	return lo
}

// Get returns the record for turn n.
func (s *Store) Get(n int64) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[n]
	return r, ok
}

// Len returns the number of stored turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Latencies returns the latency of every stored turn.
func (s *Store) Latencies() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]float64, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.LatencyMs)
	}
	return out
}
