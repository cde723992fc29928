package store

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Memory keeps statuses in process. Entries expire after ttl when ttl > 0.
type Memory struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	jobs map[string]memEntry
}

type memEntry struct {
	st      Status
	expires time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, jobs: map[string]memEntry{}}
}

func (m *Memory) Set(_ context.Context, jobID string, st Status) error {
	st.Files = slices.Clone(st.Files)
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{st: st}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.jobs[jobID] = e
	return nil
}

func (m *Memory) Get(_ context.Context, jobID string) (Status, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.jobs[jobID]
	if !ok {
		return Status{}, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.jobs, jobID)
		return Status{}, false, nil
	}
	st := e.st
	st.Files = slices.Clone(st.Files)
	return st, true, nil
}

func (m *Memory) Close() error { return nil }
