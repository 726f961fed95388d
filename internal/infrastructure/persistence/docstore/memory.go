package docstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/skillera/skillera-hub/internal/domain/shared"
)

// MemoryStore keeps documents in process. Used for demos and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document

	// FailPuts, when set, makes every Put return the error. Tests use it to
	// exercise the "persist failed, nothing applied" path.
	FailPuts error
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(_ context.Context, key string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[key]
	if !ok {
		return Document{}, shared.ErrDocumentMissing
	}
	doc.Data = append([]byte(nil), doc.Data...)
	return doc, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailPuts != nil {
		return 0, m.FailPuts
	}

	current := m.docs[key].Version
	if current != expectedVersion {
		return 0, shared.ErrVersionConflict
	}

	next := current + 1
	m.docs[key] = Document{Key: key, Data: append([]byte(nil), data...), Version: next}
	return next, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.docs, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.docs))
	for k := range m.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
