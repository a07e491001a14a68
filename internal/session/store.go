package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"trendlens/internal/dataset"
)

// ErrNotFound is returned for unknown or expired dataset ids.
var ErrNotFound = errors.New("dataset not found")

const cleanupInterval = time.Minute

// Dataset is one stored upload.
type Dataset struct {
	ID        string
	Filename  string
	Table     *dataset.NormalizedTable
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is an in-memory dataset store with TTL expiry and bounded capacity.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]Dataset
	ttl      time.Duration
	maxSize  int
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewStore creates a store and starts its expiry sweeper. Call Stop to
// release it.
func NewStore(ttl time.Duration, maxSize int) *Store {
	s := newStore(ttl, maxSize, time.Now)
	go s.cleanup(cleanupInterval)
	return s
}

func newStore(ttl time.Duration, maxSize int, now func() time.Time) *Store {
	return &Store{
		entries:  make(map[string]Dataset),
		ttl:      ttl,
		maxSize:  maxSize,
		now:      now,
		stopChan: make(chan struct{}),
	}
}

// Put stores a deep copy of table under a new id.
func (s *Store) Put(filename string, table *dataset.NormalizedTable) (Dataset, error) {
	if table == nil {
		return Dataset{}, fmt.Errorf("put %s: nil table", filename)
	}
	if s.maxSize <= 0 {
		return Dataset{}, fmt.Errorf("put %s: store has no capacity", filename)
	}

	now := s.now()
	entry := Dataset{
		ID:        uuid.New().String(),
		Filename:  filename,
		Table:     table.Clone(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeExpired(now)
	for len(s.entries) >= s.maxSize {
		s.evictOldest()
	}
	s.entries[entry.ID] = entry

	entry.Table = entry.Table.Clone()
	return entry, nil
}

// Get returns a copy of the dataset with the given id.
func (s *Store) Get(id string) (Dataset, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.ExpiresAt) {
		return Dataset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	entry.Table = entry.Table.Clone()
	return entry, nil
}

// Delete removes a dataset.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.entries, id)
	return nil
}

// Len returns the number of stored datasets, expired ones included until the
// next sweep.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns store statistics for health reporting.
func (s *Store) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"datasets":     len(s.entries),
		"max_datasets": s.maxSize,
		"ttl_seconds":  s.ttl.Seconds(),
	}
}

// Stop ends the expiry sweeper.
func (s *Store) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *Store) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, entry := range s.entries {
		if oldestID == "" || entry.CreatedAt.Before(oldest) {
			oldestID = id
			oldest = entry.CreatedAt
		}
	}
	if oldestID != "" {
		delete(s.entries, oldestID)
	}
}

func (s *Store) removeExpired(now time.Time) int {
	removed := 0
	for id, entry := range s.entries {
		if now.After(entry.ExpiresAt) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func (s *Store) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.removeExpired(s.now())
			s.mu.Unlock()
		case <-s.stopChan:
			return
		}
	}
}
