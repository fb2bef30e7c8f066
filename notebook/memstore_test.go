package notebook

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/alkemata/reasonreport-backend/models"
)

// memStore cài Store trong bộ nhớ cho test, mô phỏng unique index trên
// slug của storage thật. replaceHook cho phép test chen một thao tác vào
// giữa lúc quét slug và lúc ghi (mô phỏng hai save tranh nhau).
type memStore struct {
	mu          sync.Mutex
	notebooks   map[uuid.UUID]*models.Notebook
	replaceHook func(nb *models.Notebook) error
}

func newMemStore() *memStore {
	return &memStore{notebooks: make(map[uuid.UUID]*models.Notebook)}
}

func cloneNotebook(nb *models.Notebook) *models.Notebook {
	copied := *nb
	return &copied
}

func (m *memStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Notebook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nb, ok := m.notebooks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneNotebook(nb), nil
}

func (m *memStore) FindBySlug(ctx context.Context, slug string) (*models.Notebook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, nb := range m.notebooks {
		if nb.Slug != "" && nb.Slug == slug {
			return cloneNotebook(nb), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memStore) Insert(ctx context.Context, nb *models.Notebook) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notebooks[nb.ID] = cloneNotebook(nb)
	return nil
}

func (m *memStore) Replace(ctx context.Context, nb *models.Notebook) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.replaceHook != nil {
		if err := m.replaceHook(nb); err != nil {
			return err
		}
	}
	if nb.Slug != "" {
		for id, other := range m.notebooks {
			if id != nb.ID && other.Slug == nb.Slug {
				return ErrSlugTaken
			}
		}
	}
	m.notebooks[nb.ID] = cloneNotebook(nb)
	return nil
}

func (m *memStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notebooks[id]; !ok {
		return false, nil
	}
	delete(m.notebooks, id)
	return true, nil
}

// putDirect ghi thẳng một bản ghi, bỏ qua mọi kiểm tra (dựng dữ liệu test).
func (m *memStore) putDirect(nb *models.Notebook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notebooks[nb.ID] = cloneNotebook(nb)
}
