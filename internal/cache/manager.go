package cache

import (
	"sync"
	"time"
)

// Cleaner is a cache that can drop its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Flusher is a cache that can drop everything at once.
type Flusher interface {
	Flush()
}

// Manager owns the registered caches' shared lifecycle: a periodic expiry
// sweep and a flush-all hook for refresh completions.
type Manager struct {
	mu       sync.Mutex
	cleaners []Cleaner
	flushers []Flusher

	stop    chan struct{}
	done    chan struct{}
	started bool
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register adds a cache to the sweep; caches that also flush join FlushAll.
func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleaners = append(m.cleaners, c)
	if f, ok := c.(Flusher); ok {
		m.flushers = append(m.flushers, f)
	}
}

// FlushAll empties every flushable cache.
func (m *Manager) FlushAll() {
	m.mu.Lock()
	flushers := append([]Flusher(nil), m.flushers...)
	m.mu.Unlock()
	for _, f := range flushers {
		f.Flush()
	}
}

// StartCleanup sweeps expired entries on the interval until Stop.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go m.sweep(interval)
}

func (m *Manager) sweep(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			cleaners := append([]Cleaner(nil), m.cleaners...)
			m.mu.Unlock()
			for _, c := range cleaners {
				c.CleanExpired()
			}
		case <-m.stop:
			return
		}
	}
}

// Stop ends the sweep and waits for it to exit. Safe to call when
// StartCleanup never ran.
func (m *Manager) Stop() {
	m.mu.Lock()
	started := m.started
	m.mu.Unlock()

	close(m.stop)
	if started {
		<-m.done
	}
}
