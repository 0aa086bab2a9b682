package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps session records in process memory.
type MemoryStore struct {
	records map[string]Record
	mutex   sync.RWMutex
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates an in-memory store. When purgeInterval is positive a
// goroutine removes expired records at that interval until Close is called.
func NewMemoryStore(purgeInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if purgeInterval > 0 {
		go s.purgeLoop(purgeInterval)
	}
	return s
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mutex.RLock()
	record, ok := s.records[id]
	s.mutex.RUnlock()

	if !ok || record.Expired(s.now()) {
		return nil, nil
	}
	return &record, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, record *Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	s.mutex.Lock()
	s.records[record.ID] = *record
	s.mutex.Unlock()
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mutex.Lock()
	delete(s.records, id)
	s.mutex.Unlock()
	return nil
}

// Len returns the number of stored records, expired ones included.
func (s *MemoryStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.records)
}

// Purge removes expired records and returns how many were removed.
func (s *MemoryStore) Purge() int {
	now := s.now()
	removed := 0

	s.mutex.Lock()
	for id, record := range s.records {
		if record.Expired(now) {
			delete(s.records, id)
			removed++
		}
	}
	s.mutex.Unlock()

	return removed
}

// Close stops the purge goroutine.
func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *MemoryStore) purgeLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Purge()
		case <-s.stop:
			return
		}
	}
}
