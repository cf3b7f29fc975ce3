package repository

import (
	"context"
	"sync"
	"time"

	"github.com/neven/neven/internal/models"
)

// MemoryOTPStore keeps OTP entries in process memory. Entries do not survive
// a restart and are not shared between instances; use RedisOTPStore for that.
type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]models.OTPEntry
}

func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{entries: make(map[string]models.OTPEntry)}
}

func (s *MemoryOTPStore) Set(_ context.Context, entry models.OTPEntry, _ time.Duration) error {
	entry.Attempts = 0
	s.mu.Lock()
	s.entries[entry.Phone] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryOTPStore) Get(_ context.Context, phone string) (*models.OTPEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[phone]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[phone]; !ok {
		return false, nil
	}
	delete(s.entries, phone)
	return true, nil
}

func (s *MemoryOTPStore) IncrementAttempts(_ context.Context, phone string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[phone]
	if !ok {
		return 0, nil
	}
	entry.Attempts++
	s.entries[phone] = entry
	return entry.Attempts, nil
}

// Sweep drops entries that expired before now and returns how many were removed.
func (s *MemoryOTPStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for phone, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, phone)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *MemoryOTPStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

func (s *MemoryOTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
