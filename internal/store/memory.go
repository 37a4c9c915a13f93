package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/serroba/short-links/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu    sync.RWMutex
	links map[string]*shortener.Link // id -> link
	codes map[shortener.Code]string  // code -> id
	order []string                   // ids in insertion order
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[string]*shortener.Link),
		codes: make(map[shortener.Code]string),
	}
}

func (m *MemoryStore) Insert(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.codes[link.Code]; ok {
		return shortener.ErrConflict
	}

	link.ID = uuid.NewString()
	stored := *link

	m.links[link.ID] = &stored
	m.codes[link.Code] = link.ID
	m.order = append(m.order, link.ID)

	return nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.codes[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return m.copyOf(id), nil
}

// GetByOriginalURL returns the oldest link with this exact URL.
func (m *MemoryStore) GetByOriginalURL(_ context.Context, originalURL string) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		if m.links[id].OriginalURL == originalURL {
			return m.copyOf(id), nil
		}
	}

	return nil, shortener.ErrNotFound
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.links[id]; !ok {
		return nil, shortener.ErrNotFound
	}

	return m.copyOf(id), nil
}

func (m *MemoryStore) List(_ context.Context) ([]*shortener.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	links := make([]*shortener.Link, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		links = append(links, m.copyOf(m.order[i]))
	}

	slices.SortStableFunc(links, func(a, b *shortener.Link) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return links, nil
}

func (m *MemoryStore) Save(_ context.Context, link *shortener.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.links[link.ID]
	if !ok {
		return shortener.ErrNotFound
	}

	stored.OriginalURL = link.OriginalURL

	return nil
}

func (m *MemoryStore) IncrementClicks(_ context.Context, code shortener.Code) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.codes[code]
	if !ok {
		return shortener.ErrNotFound
	}

	m.links[id].Clicks++

	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[id]
	if !ok {
		return shortener.ErrNotFound
	}

	delete(m.codes, link.Code)
	delete(m.links, id)
	m.order = slices.DeleteFunc(m.order, func(v string) bool { return v == id })

	return nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (m *MemoryStore) copyOf(id string) *shortener.Link {
	c := *m.links[id]

	return &c
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
