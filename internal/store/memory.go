// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"categorytree/internal/tree"
)

// MemoryStore keeps categories in memory. It backs offline CLI runs over a
// JSON snapshot and handler tests; the service talks to it exactly like it
// talks to CategoryStore.
type MemoryStore struct {
	mu    sync.Mutex
	items []Category
}

// NewMemoryStore returns a store holding a copy of items. Nested input is
// flattened first.
func NewMemoryStore(items []Category) *MemoryStore {
	return &MemoryStore{items: tree.Normalize(tree.Detect(items))}
}

// List returns a copy of every category.
func (m *MemoryStore) List(_ context.Context) ([]Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return tree.Normalize(tree.Flat(m.items)), nil
}

// FindByID returns the category with the given id, or nil.
func (m *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(id); i >= 0 {
		c := m.items[i]
		return &c, nil
	}
	return nil, nil
}

// FindBySlug returns the category with the given slug, or nil.
func (m *MemoryStore) FindBySlug(_ context.Context, slug string) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.items {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, nil
}

// Create stores c under a fresh id.
func (m *MemoryStore) Create(_ context.Context, c *Category) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	created := *c
	created.ID = uuid.New()
	created.Children = nil
	created.CreatedAt, created.UpdatedAt = now, now
	m.items = append(m.items, created)
	return &created, nil
}

// UpdateDetails copies names, slug and modifier from c.
func (m *MemoryStore) UpdateDetails(_ context.Context, c *Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(c.ID)
	if i < 0 {
		return fmt.Errorf("update category %s: %w", c.ID, ErrNotFound)
	}
	m.items[i].NamePrimary = c.NamePrimary
	m.items[i].NameSecondary = c.NameSecondary
	m.items[i].Slug = c.Slug
	m.items[i].ModifierID = c.ModifierID
	m.items[i].UpdatedAt = time.Now()
	return nil
}

// Delete removes id and its subtree, then applies renumber.
func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID, renumber []Reassignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	gone := tree.Descendants(id, m.items)
	gone[id] = struct{}{}
	kept := slices.DeleteFunc(slices.Clone(m.items), func(c Category) bool {
		_, ok := gone[c.ID]
		return ok
	})
	if err := m.checkIDs(kept, renumber); err != nil {
		return err
	}
	m.items = tree.Apply(kept, renumber)
	return nil
}

// Reorder applies every item or, when one references a missing category,
// none.
func (m *MemoryStore) Reorder(_ context.Context, items []Reassignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkIDs(m.items, items); err != nil {
		return err
	}
	m.items = tree.Apply(m.items, items)
	return nil
}

func (m *MemoryStore) checkIDs(list []Category, items []Reassignment) error {
	for _, r := range items {
		if !slices.ContainsFunc(list, func(c Category) bool { return c.ID == r.ID }) {
			return fmt.Errorf("reorder category %s: %w", r.ID, ErrNotFound)
		}
	}
	return nil
}

func (m *MemoryStore) index(id uuid.UUID) int {
	return slices.IndexFunc(m.items, func(c Category) bool { return c.ID == id })
}
