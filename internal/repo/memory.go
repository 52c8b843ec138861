package repo

import (
	"context"
	"sync"

	"github.com/crucial707/searchsync/internal/models"
)

type memKey struct{ app, name string }

// MemoryStore keeps saved searches in process memory. It has the same
// methods as SavedSearchRepo.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[memKey]models.SavedSearch
	order   []memKey
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[memKey]models.SavedSearch)}
}

func (m *MemoryStore) List(_ context.Context, app string) ([]models.SavedSearch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var list []models.SavedSearch
	for _, k := range m.order {
		if k.app == app {
			list = append(list, m.entries[k])
		}
	}
	return list, nil
}

func (m *MemoryStore) Get(_ context.Context, app, name string) (*models.SavedSearch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.entries[memKey{app, name}]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) Create(_ context.Context, app, owner, name, search string) (*models.SavedSearch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memKey{app, name}
	if _, ok := m.entries[k]; ok {
		return nil, ErrDuplicate
	}
	s := models.SavedSearch{Name: name, App: app, Owner: owner, Search: search}
	m.entries[k] = s
	m.order = append(m.order, k)
	return &s, nil
}

func (m *MemoryStore) Update(_ context.Context, app, name string, u models.SavedSearchUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memKey{app, name}
	s, ok := m.entries[k]
	if !ok {
		return false, nil
	}
	if u.Search != nil {
		s.Search = *u.Search
	}
	if u.CronSchedule != nil {
		s.CronSchedule = *u.CronSchedule
	}
	if u.IsScheduled != nil {
		s.IsScheduled = *u.IsScheduled
	}
	m.entries[k] = s
	return true, nil
}

func (m *MemoryStore) SetDisabled(_ context.Context, app, name string, disabled bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memKey{app, name}
	s, ok := m.entries[k]
	if !ok {
		return false, nil
	}
	s.Disabled = disabled
	m.entries[k] = s
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, app, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := memKey{app, name}
	if _, ok := m.entries[k]; !ok {
		return false, nil
	}
	delete(m.entries, k)
	for i, o := range m.order {
		if o == k {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}
