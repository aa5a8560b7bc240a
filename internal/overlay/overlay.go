// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package overlay keeps structural edits that have been planned but not yet
// persisted, layered over the last known-good category list. Editors can
// stage several moves, preview the result and then commit or discard them
// as one batch.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"categorytree/internal/models"
	"categorytree/internal/tree"
)

// ErrCommitInProgress is returned when Commit is called while another
// commit of the same store has not returned yet.
var ErrCommitInProgress = errors.New("overlay: commit already in progress")

// PersistFunc writes a batch of reassignments to the source of truth. It
// must apply all of them or none.
type PersistFunc[K comparable] func(ctx context.Context, batch []models.Reassignment[K]) error

// Store holds the committed list and the pending reassignments keyed by
// node id. At most one pending reassignment exists per id.
type Store[K comparable] struct {
	mu        sync.Mutex
	committed []models.Category[K]
	pending   map[K]models.Reassignment[K]
	order     []K // staging order of pending ids
	inFlight  bool
}

// New returns a store over the given committed flat list.
func New[K comparable](committed []models.Category[K]) *Store[K] {
	return &Store[K]{
		committed: tree.Normalize(tree.Flat(committed)),
		pending:   make(map[K]models.Reassignment[K]),
	}
}

// Stage upserts each reassignment by id. A later reassignment for an id
// replaces the earlier one.
func (s *Store[K]) Stage(batch ...models.Reassignment[K]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range batch {
		if _, ok := s.pending[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		r.ParentID = models.CloneID(r.ParentID)
		s.pending[r.ID] = r
	}
}

// Materialize returns the committed list with every pending reassignment
// applied. Neither the committed list nor the pending set is modified.
func (s *Store[K]) Materialize() []models.Category[K] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.Apply(s.committed, s.pendingLocked())
}

// Pending returns the pending reassignments in staging order.
func (s *Store[K]) Pending() []models.Reassignment[K] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

// Len returns the number of pending reassignments.
func (s *Store[K]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Committed returns a copy of the committed list.
func (s *Store[K]) Committed() []models.Category[K] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tree.Normalize(tree.Flat(s.committed))
}

// Commit hands every pending reassignment to persist. With nothing pending
// it returns (0, nil) without calling persist. On success the persisted
// entries are cleared; entries staged again while persist ran are kept for
// the next round. On failure pending is left exactly as it was.
//
// The store does not fold the batch into the committed list; callers
// refresh it from the source of truth with Reset.
func (s *Store[K]) Commit(ctx context.Context, persist PersistFunc[K]) (int, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return 0, ErrCommitInProgress
	}
	batch := s.pendingLocked()
	if len(batch) == 0 {
		s.mu.Unlock()
		return 0, nil
	}
	s.inFlight = true
	s.mu.Unlock()

	err := persist(ctx, batch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return 0, fmt.Errorf("overlay commit: %w", err)
	}

	for _, sent := range batch {
		if cur, ok := s.pending[sent.ID]; ok && sameReassignment(cur, sent) {
			delete(s.pending, sent.ID)
		}
	}
	s.compactOrderLocked()
	return len(batch), nil
}

// Discard drops every pending reassignment.
func (s *Store[K]) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[K]models.Reassignment[K])
	s.order = nil
}

// Reset replaces the committed list, typically after a commit or any other
// write to the source of truth, and rebases the pending entries on it with
// tree.Rebase: entries that lost their node or parent, or that would now
// close a cycle, are dropped, and the sibling groups they touch are
// renumbered so the materialized view stays contiguous.
func (s *Store[K]) Reset(committed []models.Category[K]) {
	flat := tree.Normalize(tree.Flat(committed))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = flat

	rebased := tree.Rebase(flat, s.pendingLocked())
	s.pending = make(map[K]models.Reassignment[K], len(rebased))
	s.order = s.order[:0]
	for _, r := range rebased {
		if _, ok := s.pending[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		s.pending[r.ID] = r
	}
}

func (s *Store[K]) pendingLocked() []models.Reassignment[K] {
	out := make([]models.Reassignment[K], 0, len(s.pending))
	for _, id := range s.order {
		if r, ok := s.pending[id]; ok {
			r.ParentID = models.CloneID(r.ParentID)
			out = append(out, r)
		}
	}
	return out
}

// compactOrderLocked removes ids from the staging order that are no longer
// pending.
func (s *Store[K]) compactOrderLocked() {
	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.pending[id]; ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
}

func sameReassignment[K comparable](a, b models.Reassignment[K]) bool {
	return a.ID == b.ID && a.Order == b.Order && models.SameParent(a.ParentID, b.ParentID)
}
