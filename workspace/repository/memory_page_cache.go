package repository

import (
	"context"
	"sync"
	"time"

	"github.com/AzielCF/az-console/workspace/domain/workspace"
)

type cachedPage struct {
	page      workspace.ListPage
	tags      []string
	expiresAt time.Time
}

// MemoryPageCache implements PageCache in process memory. Expired pages are
// swept on every Set so the tag index never outgrows the live pages.
type MemoryPageCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	pages map[string]cachedPage
	tags  map[string]map[string]struct{}
	now   func() time.Time
}

func NewMemoryPageCache(ttl time.Duration) *MemoryPageCache {
	return &MemoryPageCache{
		ttl:   ttl,
		pages: make(map[string]cachedPage),
		tags:  make(map[string]map[string]struct{}),
		now:   time.Now,
	}
}

func (m *MemoryPageCache) Get(ctx context.Context, key string) (workspace.ListPage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.pages[key]
	if !ok {
		return workspace.ListPage{}, false, nil
	}
	if m.expired(entry, m.now()) {
		m.removeLocked(key)
		return workspace.ListPage{}, false, nil
	}
	return entry.page, true, nil
}

func (m *MemoryPageCache) Set(ctx context.Context, key string, page workspace.ListPage, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, entry := range m.pages {
		if m.expired(entry, now) {
			m.removeLocked(k)
		}
	}
	m.removeLocked(key)

	m.pages[key] = cachedPage{page: page, tags: append([]string(nil), tags...), expiresAt: now.Add(m.ttl)}
	for _, tag := range tags {
		keys, ok := m.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			m.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return nil
}

func (m *MemoryPageCache) Invalidate(ctx context.Context, tags ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tag := range tags {
		for key := range m.tags[tag] {
			m.removeLocked(key)
		}
		delete(m.tags, tag)
	}
	return nil
}

func (m *MemoryPageCache) expired(entry cachedPage, now time.Time) bool {
	return m.ttl > 0 && now.After(entry.expiresAt)
}

// removeLocked drops key and unlinks it from every tag it was stored under.
func (m *MemoryPageCache) removeLocked(key string) {
	entry, ok := m.pages[key]
	if !ok {
		return
	}
	delete(m.pages, key)
	for _, tag := range entry.tags {
		keys := m.tags[tag]
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.tags, tag)
		}
	}
}
