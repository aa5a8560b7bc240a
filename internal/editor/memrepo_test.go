package editor

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"categorytree/internal/models"
	"categorytree/internal/tree"
)

// memRepo is an in-memory Repository used by the service tests.
type memRepo struct {
	mu         sync.Mutex
	items      []Category
	reorderErr error
	reorders   [][]Reassignment
	lists      int
}

func (m *memRepo) List(context.Context) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++
	return tree.Normalize(tree.Flat(m.items)), nil
}

func (m *memRepo) FindByID(_ context.Context, id uuid.UUID) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memRepo) FindBySlug(_ context.Context, slug string) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memRepo) Create(_ context.Context, c *Category) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := *c
	created.ID = uuid.New()
	m.items = append(m.items, created)
	return &created, nil
}

func (m *memRepo) UpdateDetails(_ context.Context, c *Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == c.ID {
			m.items[i].NamePrimary = c.NamePrimary
			m.items[i].NameSecondary = c.NameSecondary
			m.items[i].Slug = c.Slug
			m.items[i].ModifierID = c.ModifierID
			return nil
		}
	}
	return errors.New("no such row")
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID, renumber []Reassignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	gone := tree.Descendants(id, m.items)
	gone[id] = struct{}{}
	kept := m.items[:0]
	for _, c := range m.items {
		if _, ok := gone[c.ID]; !ok {
			kept = append(kept, c)
		}
	}
	m.items = tree.Apply(kept, renumber)
	return nil
}

func (m *memRepo) Reorder(_ context.Context, items []Reassignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reorderErr != nil {
		return m.reorderErr
	}
	m.reorders = append(m.reorders, items)
	m.items = tree.Apply(m.items, items)
	return nil
}

// memCache is an in-memory Cache.
type memCache struct {
	mu          sync.Mutex
	flat        []Category
	ok          bool
	invalidated int
}

func (c *memCache) Get(context.Context) ([]Category, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flat, c.ok
}

func (c *memCache) Set(_ context.Context, flat []Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flat, c.ok = flat, true
}

func (c *memCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flat, c.ok = nil, false
	c.invalidated++
}

// fixture holds the ids of a small catalog:
//
//	electronics: phones, laptops
//	fashion: shoes
type fixture struct {
	electronics, fashion, phones, laptops, shoes uuid.UUID
}

func newFixture() (*memRepo, fixture) {
	f := fixture{
		electronics: uuid.New(),
		fashion:     uuid.New(),
		phones:      uuid.New(),
		laptops:     uuid.New(),
		shoes:       uuid.New(),
	}
	cat := func(id uuid.UUID, parent *uuid.UUID, order int, name, slug string) Category {
		return Category{ID: id, ParentID: models.CloneID(parent), Order: order, NamePrimary: name, NameSecondary: name, Slug: slug}
	}
	repo := &memRepo{items: []Category{
		cat(f.electronics, nil, 0, "Electronics", "electronics"),
		cat(f.fashion, nil, 1, "Fashion", "fashion"),
		cat(f.phones, &f.electronics, 0, "Phones", "phones"),
		cat(f.laptops, &f.electronics, 1, "Laptops", "laptops"),
		cat(f.shoes, &f.fashion, 0, "Shoes", "shoes"),
	}}
	return repo, f
}
