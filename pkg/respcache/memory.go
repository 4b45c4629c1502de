package respcache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Bound on distinct cache keys held in memory. Entries beyond it evict
// in least-recently-used order.
const maxMemoryEntries = 4096

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Entries carry a TTL and the key
// population is bounded: once full, storing a new key evicts the least
// recently used one. An optional sweeper reclaims expired entries
// between reads.
type MemoryStore struct {
	mu       sync.Mutex
	index    map[string]*list.Element
	recency  *list.List
	capacity int

	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// NewMemoryStore creates an in-memory store. A zero cleanupInterval
// disables the sweeper; expired entries still miss on Get.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		index:    make(map[string]*list.Element),
		recency:  list.New(),
		capacity: maxMemoryEntries,
		done:     make(chan struct{}),
	}
	if cleanupInterval > 0 {
		s.ticker = time.NewTicker(cleanupInterval)
		go s.cleanupLoop()
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.index[key]
	if !ok {
		return nil, false, nil
	}
	e := elem.Value.(*memoryEntry)
	if time.Now().After(e.expiresAt) {
		s.evict(elem)
		return nil, false, nil
	}
	s.recency.MoveToFront(elem)
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.index[key]; ok {
		e := elem.Value.(*memoryEntry)
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		s.recency.MoveToFront(elem)
		return nil
	}

	s.index[key] = s.recency.PushFront(&memoryEntry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
	for len(s.index) > s.capacity {
		s.evict(s.recency.Back())
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.index[key]; ok {
		s.evict(elem)
	}
	return nil
}

// Close stops the sweeper goroutine.
func (s *MemoryStore) Close() {
	s.once.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.done)
	})
}

// evict removes an entry. Caller holds mu.
func (s *MemoryStore) evict(elem *list.Element) {
	s.recency.Remove(elem)
	delete(s.index, elem.Value.(*memoryEntry).key)
}

func (s *MemoryStore) cleanupLoop() {
	for {
		select {
		case <-s.ticker.C:
			s.sweep(time.Now())
		case <-s.done:
			return
		}
	}
}

// sweep drops every entry expired as of now.
func (s *MemoryStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for elem := s.recency.Front(); elem != nil; {
		next := elem.Next()
		if now.After(elem.Value.(*memoryEntry).expiresAt) {
			s.evict(elem)
		}
		elem = next
	}
}
