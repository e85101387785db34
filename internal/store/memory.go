package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/power-fluctuation-advisory/internal/power"
)

var (
	// ErrNotFound is returned when no report exists for an ID, or it has expired.
	ErrNotFound = errors.New("report not found")
)

// MemoryStore is a concurrency-safe in-memory implementation of a report store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: report ID
	data map[string]power.Report
	// insertion order, oldest first
	order []string

	// retention configuration
	maxHistory int           // max number of reports kept
	maxAge     time.Duration // optional max age for reports

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory or maxAge is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]power.Report),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// Save stores a report and evicts the oldest reports beyond maxHistory.
func (s *MemoryStore) Save(report power.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[report.ID]; !exists {
		s.order = append(s.order, report.ID)
	}
	s.data[report.ID] = report

	if s.maxHistory > 0 && len(s.order) > s.maxHistory {
		over := len(s.order) - s.maxHistory
		for _, id := range s.order[:over] {
			delete(s.data, id)
		}
		s.order = append([]string(nil), s.order[over:]...)
	}
}

// Get returns the report with the given ID.
func (s *MemoryStore) Get(id string) (power.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.data[id]
	if !ok || s.expired(report, s.now()) {
		return power.Report{}, ErrNotFound
	}
	return report, nil
}

// Purge drops expired reports and returns how many were removed.
func (s *MemoryStore) Purge() int {
	if s.maxAge <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.order[:0]
	removed := 0
	for _, id := range s.order {
		if s.expired(s.data[id], now) {
			delete(s.data, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// Len returns the number of reports held, expired ones included until purged.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *MemoryStore) expired(r power.Report, now time.Time) bool {
	return s.maxAge > 0 && r.CreatedAt.Before(now.Add(-s.maxAge))
}
