// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data shapes shared by the tree core, the
// store and the HTTP layer.
package models

import (
	"time"
)

// Category is a node of the classification tree. K is the identifier type;
// the tree code only relies on equality, so any comparable type works.
//
// The flat representation (ParentID pointers, no Children) is the source of
// truth. Children and Depth are derived by the tree assembler.
type Category[K comparable] struct {
	ID            K         `json:"id"`
	NamePrimary   string    `json:"name_primary"`
	NameSecondary string    `json:"name_secondary"`
	Slug          string    `json:"slug"`
	Order         int       `json:"order"`
	ParentID      *K        `json:"parent_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CreatorID     string    `json:"creator_id"`
	ModifierID    *string   `json:"modifier_id"`

	// Virtual fields populated by the tree assembler.
	Children []Category[K] `json:"children,omitempty"`
	Depth    int           `json:"depth"`
}

// IsRoot reports whether the category sits at the top level.
func (c *Category[K]) IsRoot() bool {
	return c.ParentID == nil
}

// DisplayName returns the secondary name when asked for it and it is set,
// falling back to the primary name otherwise.
func (c *Category[K]) DisplayName(secondary bool) string {
	if secondary && c.NameSecondary != "" {
		return c.NameSecondary
	}
	return c.NamePrimary
}

// Reassignment is one node's new position produced by a move computation.
type Reassignment[K comparable] struct {
	ID       K   `json:"id"`
	ParentID *K  `json:"parent_id"`
	Order    int `json:"order"`
}

// Apply copies the reassignment's position onto c.
func (r Reassignment[K]) Apply(c *Category[K]) {
	c.ParentID = CloneID(r.ParentID)
	c.Order = r.Order
}

// SameParent compares two parent pointers: both nil, or equal values.
func SameParent[K comparable](a, b *K) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// CloneID returns a fresh pointer holding the same id, or nil.
func CloneID[K comparable](id *K) *K {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// CategoryInput is the editable payload of a category. Names and slug are
// the only fields an edit may touch; ParentID is honoured on create only.
type CategoryInput[K comparable] struct {
	NamePrimary   string `json:"name_primary" validate:"required,max=300"`
	NameSecondary string `json:"name_secondary" validate:"max=300"`
	Slug          string `json:"slug" validate:"max=300"`
	ParentID      *K     `json:"parent_id"`
	ActorID       string `json:"actor_id" validate:"max=100"`
}
