package store

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/riddler/internal/domain"
)

// MemoryStore keeps sessions in process memory, bounded by an LRU capacity and a TTL.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]*list.Element // key -> element holding *memoryEntry
	order      *list.List               // front = most recently used
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

type memoryEntry struct {
	key string
	rec domain.RiddleRecord
}

// NewMemory creates an in-memory store. ttl <= 0 disables expiry and
// maxEntries <= 0 disables the capacity bound.
func NewMemory(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns a copy of the record for key.
func (m *MemoryStore) Get(_ context.Context, key string) (*domain.RiddleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	entry := el.Value.(*memoryEntry)
	if entry.rec.Expired(m.ttl, m.now()) {
		m.removeElement(el)
		return nil, nil
	}
	m.order.MoveToFront(el)
	rec := entry.rec
	return &rec, nil
}

// Put stores a copy of rec, replacing any previous record for key.
func (m *MemoryStore) Put(_ context.Context, key string, rec *domain.RiddleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		el.Value.(*memoryEntry).rec = *rec
		m.order.MoveToFront(el)
		return nil
	}

	m.entries[key] = m.order.PushFront(&memoryEntry{key: key, rec: *rec})
	// Evict least recently used sessions beyond capacity.
	for m.maxEntries > 0 && m.order.Len() > m.maxEntries {
		oldest := m.order.Back()
		slog.Debug("Evicting session from memory store", "session_key", oldest.Value.(*memoryEntry).key)
		m.removeElement(oldest)
	}
	return nil
}

// SetState moves the reveal state of the record identified by recordID.
func (m *MemoryStore) SetState(_ context.Context, key, recordID string, state domain.RevealState) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	entry := el.Value.(*memoryEntry)
	if entry.rec.ID != recordID {
		return false, nil
	}
	entry.rec.State = state
	entry.rec.UpdatedAt = m.now()
	m.order.MoveToFront(el)
	return true, nil
}

// PurgeExpired drops records idle for longer than ttl.
func (m *MemoryStore) PurgeExpired(_ context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var removed int64
	for el := m.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*memoryEntry).rec.Expired(ttl, now) {
			m.removeElement(el)
			removed++
		}
		el = prev
	}
	return removed, nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) removeElement(el *list.Element) {
	delete(m.entries, el.Value.(*memoryEntry).key)
	m.order.Remove(el)
}
