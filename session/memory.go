package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a map with TTL-based eviction. A background
// sweeper removes expired entries; Close stops it.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*State
	ttl      time.Duration
	logger   *slog.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

// MemoryOption customises a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryLogger sets the logger used by the sweeper.
func WithMemoryLogger(l *slog.Logger) MemoryOption {
	return func(s *MemoryStore) { s.logger = l }
}

// NewMemoryStore returns a store that expires sessions after ttl. A
// non-positive ttl falls back to DefaultTTL.
func NewMemoryStore(ttl time.Duration, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		sessions: make(map[string]*State),
		ttl:      ttl,
		logger:   slog.Default(),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.sweep()
	return s
}

func (s *MemoryStore) Get(_ context.Context, id string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[id]
	if !ok || time.Since(st.UpdatedAt) > s.ttl {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound{ID: id}
	}
	copied := *st
	return &copied, nil
}

func (s *MemoryStore) Put(_ context.Context, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *state
	copied.UpdatedAt = time.Now()
	s.sessions[state.ID] = &copied
	return nil
}

func (s *MemoryStore) Evict(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Close stops the background sweeper.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			removed := 0
			for id, st := range s.sessions {
				if time.Since(st.UpdatedAt) > s.ttl {
					delete(s.sessions, id)
					removed++
				}
			}
			s.mu.Unlock()
			if removed > 0 {
				s.logger.Debug("swept expired sessions", "removed", removed)
			}
		}
	}
}
