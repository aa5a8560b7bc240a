// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides the PostgreSQL-backed source of truth for the
// category tree.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"categorytree/internal/models"
)

type (
	// Category is the uuid-keyed category persisted by this package.
	Category = models.Category[uuid.UUID]
	// Reassignment is a uuid-keyed position change.
	Reassignment = models.Reassignment[uuid.UUID]
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name_primary, name_secondary, slug, parent_id, sort_order,
	creator_id, modifier_id, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*Category, error) {
	var c Category
	err := scanner.Scan(
		&c.ID, &c.NamePrimary, &c.NameSecondary, &c.Slug,
		&c.ParentID, &c.Order, &c.CreatorID, &c.ModifierID,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns every category as a flat list, roots first, then by parent
// and sort order.
func (s *CategoryStore) List(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		ORDER BY parent_id NULLS FIRST, sort_order, name_primary
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindBySlug retrieves a category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// Create inserts a new category and returns it with its generated id.
func (s *CategoryStore) Create(ctx context.Context, c *Category) (*Category, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name_primary, name_secondary, slug, parent_id, sort_order, creator_id, modifier_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+categoryColumns,
		c.NamePrimary, c.NameSecondary, c.Slug, c.ParentID, c.Order, c.CreatorID, c.ModifierID,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return result, nil
}

// UpdateDetails modifies the names, slug and modifier of a category. The
// position (parent and order) is only changed through Reorder.
func (s *CategoryStore) UpdateDetails(ctx context.Context, c *Category) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE categories SET
			name_primary = $1, name_secondary = $2, slug = $3,
			modifier_id = $4, updated_at = NOW()
		WHERE id = $5
	`, c.NamePrimary, c.NameSecondary, c.Slug, c.ModifierID, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category and, through ON DELETE CASCADE, its subtree.
// The renumbering of the siblings left behind is applied in the same
// transaction.
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID, renumber []Reassignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := applyReassignments(ctx, tx, renumber); err != nil {
		return err
	}

	return tx.Commit()
}

// Reorder updates sort_order and parent_id for multiple categories in a
// transaction. Either every item is written or none is.
func (s *CategoryStore) Reorder(ctx context.Context, items []Reassignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := applyReassignments(ctx, tx, items); err != nil {
		return err
	}

	return tx.Commit()
}

// applyReassignments writes each item's position inside tx.
func applyReassignments(ctx context.Context, tx *sql.Tx, items []Reassignment) error {
	if len(items) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE categories SET parent_id = $1, sort_order = $2, updated_at = $3
		WHERE id = $4`)
	if err != nil {
		return fmt.Errorf("prepare reorder: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, item := range items {
		res, err := stmt.ExecContext(ctx, item.ParentID, item.Order, now, item.ID)
		if err != nil {
			return fmt.Errorf("reorder category %s: %w", item.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("reorder category %s: %w", item.ID, ErrNotFound)
		}
	}
	return nil
}

// ErrNotFound is returned when a batch write references a missing category.
var ErrNotFound = errors.New("category not found")
