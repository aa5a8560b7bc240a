// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package editor hosts the tree core behind a service used by the HTTP
// layer and the CLI. Each editor session owns an overlay of staged moves
// over the canonical list loaded from the store. Creates, edits and deletes
// are written through immediately; moves wait for an explicit commit.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"categorytree/internal/models"
	"categorytree/internal/overlay"
	"categorytree/internal/slug"
	"categorytree/internal/tree"
)

type (
	// Category is the uuid-keyed category handled by the service.
	Category = models.Category[uuid.UUID]
	// Reassignment is a uuid-keyed position change.
	Reassignment = models.Reassignment[uuid.UUID]
	// Input is the create/edit payload.
	Input = models.CategoryInput[uuid.UUID]
)

var (
	// ErrNotFound is returned when an id does not resolve to a category.
	ErrNotFound = errors.New("category not found")
	// ErrIllegalMove is returned when a move would place a node inside
	// itself or one of its descendants.
	ErrIllegalMove = errors.New("cannot move a category into itself or one of its descendants")
	// ErrInvalidIntent is returned for a drop intent other than into,
	// before or after.
	ErrInvalidIntent = errors.New("invalid move intent")
	// ErrEmptySlug is returned when neither the slug nor the primary name
	// yields a usable identifier.
	ErrEmptySlug = errors.New("slug is empty")
	// ErrSlugTaken is returned when another category already uses the slug.
	ErrSlugTaken = errors.New("slug already in use")
	// ErrConflict is returned by Commit when the saved tree changed under
	// the staged moves in a way they no longer fit. The moves are rebased
	// on the saved tree before it returns.
	ErrConflict = errors.New("staged moves no longer fit the saved tree")
)

// Repository is the source of truth for categories.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	Create(ctx context.Context, c *Category) (*Category, error)
	UpdateDetails(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id uuid.UUID, renumber []Reassignment) error
	Reorder(ctx context.Context, items []Reassignment) error
}

// Cache holds a copy of the canonical list between writes.
type Cache interface {
	Get(ctx context.Context) ([]Category, bool)
	Set(ctx context.Context, flat []Category)
	Invalidate(ctx context.Context)
}

// workspace is one editor's overlay and the last time it was used.
type workspace struct {
	overlay  *overlay.Store[uuid.UUID]
	lastUsed time.Time
}

// Service coordinates the tree core with the repository and cache.
type Service struct {
	repo  Repository
	cache Cache // optional

	mu         sync.Mutex
	workspaces map[string]*workspace
}

// New creates a service. cache may be nil.
func New(repo Repository, cache Cache) *Service {
	return &Service{
		repo:       repo,
		cache:      cache,
		workspaces: make(map[string]*workspace),
	}
}

// Canonical returns the committed flat list, from the cache when possible.
func (s *Service) Canonical(ctx context.Context) ([]Category, error) {
	if s.cache != nil {
		if flat, ok := s.cache.Get(ctx); ok {
			canonicalLoads.WithLabelValues("cache").Inc()
			return tree.Normalize(tree.Detect(flat)), nil
		}
	}

	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	canonicalLoads.WithLabelValues("store").Inc()

	flat := tree.Normalize(tree.Detect(items))
	if s.cache != nil {
		s.cache.Set(ctx, flat)
	}
	return flat, nil
}

// overlayFor returns the session's overlay, creating it over the canonical
// list on first use.
func (s *Service) overlayFor(ctx context.Context, session string) (*overlay.Store[uuid.UUID], error) {
	s.mu.Lock()
	if ws, ok := s.workspaces[session]; ok {
		ws.lastUsed = time.Now()
		s.mu.Unlock()
		return ws.overlay, nil
	}
	s.mu.Unlock()

	flat, err := s.Canonical(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request of the same session may have won the race.
	if ws, ok := s.workspaces[session]; ok {
		ws.lastUsed = time.Now()
		return ws.overlay, nil
	}
	ws := &workspace{overlay: overlay.New(flat), lastUsed: time.Now()}
	s.workspaces[session] = ws
	workspacesActive.Set(float64(len(s.workspaces)))
	return ws.overlay, nil
}

// Materialize returns the session's view: the canonical list with its
// staged moves applied.
func (s *Service) Materialize(ctx context.Context, session string) ([]Category, error) {
	ov, err := s.overlayFor(ctx, session)
	if err != nil {
		return nil, err
	}
	return ov.Materialize(), nil
}

// Tree returns the session's view as a nested forest.
func (s *Service) Tree(ctx context.Context, session string) ([]Category, error) {
	flat, err := s.Materialize(ctx, session)
	if err != nil {
		return nil, err
	}
	return tree.ToNested(flat), nil
}

// Find returns one node of the session's view with its subtree.
func (s *Service) Find(ctx context.Context, session string, id uuid.UUID) (*Category, error) {
	nested, err := s.Tree(ctx, session)
	if err != nil {
		return nil, err
	}
	c, ok := tree.Find(nested, id)
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// Descendants returns every node below id in the session's view, in
// pre-order.
func (s *Service) Descendants(ctx context.Context, session string, id uuid.UUID) ([]Category, error) {
	flat, err := s.Materialize(ctx, session)
	if err != nil {
		return nil, err
	}
	if !exists(flat, id) {
		return nil, ErrNotFound
	}

	closure := tree.Descendants(id, flat)
	out := make([]Category, 0, len(closure))
	for _, c := range tree.ToFlat(tree.ToNested(flat)) {
		if _, ok := closure[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Move validates a move against the session's view, plans it and stages
// the resulting reassignments. The staged plan is returned.
func (s *Service) Move(ctx context.Context, session string, subject uuid.UUID, target tree.Target[uuid.UUID]) ([]Reassignment, error) {
	if !target.Intent.Valid() {
		movesTotal.WithLabelValues("invalid", "rejected").Inc()
		return nil, ErrInvalidIntent
	}
	intent := string(target.Intent)

	ov, err := s.overlayFor(ctx, session)
	if err != nil {
		return nil, err
	}
	flat := ov.Materialize()

	if !exists(flat, subject) || !exists(flat, target.NodeID) {
		movesTotal.WithLabelValues(intent, "not_found").Inc()
		return nil, ErrNotFound
	}
	if !tree.CanMoveInto(subject, target.NodeID, flat) {
		movesTotal.WithLabelValues(intent, "illegal").Inc()
		return nil, ErrIllegalMove
	}

	plan := tree.PlanMove(subject, target, flat)
	ov.Stage(plan...)
	movesTotal.WithLabelValues(intent, "staged").Inc()

	slog.Debug("move staged", "session", session, "subject", subject,
		"target", target.NodeID, "intent", intent, "reassignments", len(plan))
	return plan, nil
}

// Pending returns the session's staged reassignments.
func (s *Service) Pending(ctx context.Context, session string) ([]Reassignment, error) {
	ov, err := s.overlayFor(ctx, session)
	if err != nil {
		return nil, err
	}
	return ov.Pending(), nil
}

// Commit persists the session's staged moves as one batch. It returns
// (0, nil) when nothing is staged. The batch is checked against a fresh
// read of the store first and refused with ErrConflict when it would
// leave a cycle or a gapped sibling group. After a successful commit
// every open session is rebased on the refreshed canonical list.
func (s *Service) Commit(ctx context.Context, session string) (int, error) {
	ov, err := s.overlayFor(ctx, session)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	n, err := ov.Commit(ctx, s.persist)
	if err != nil {
		switch {
		case errors.Is(err, overlay.ErrCommitInProgress):
			commitsTotal.WithLabelValues("in_progress").Inc()
		case errors.Is(err, ErrConflict):
			commitsTotal.WithLabelValues("conflict").Inc()
			slog.Warn("commit refused, saved tree changed", "session", session)
			if rerr := s.refresh(ctx); rerr != nil {
				slog.Warn("refresh after conflict failed", "error", rerr)
			}
		default:
			commitsTotal.WithLabelValues("error").Inc()
			slog.Error("commit failed", "session", session, "error", err)
		}
		return 0, err
	}
	if n == 0 {
		commitsTotal.WithLabelValues("empty").Inc()
		return 0, nil
	}

	commitsTotal.WithLabelValues("ok").Inc()
	commitDuration.Observe(time.Since(start).Seconds())
	commitBatchSize.Observe(float64(n))
	slog.Info("moves committed", "session", session, "count", n)

	if err := s.refresh(ctx); err != nil {
		// The batch is stored; the views catch up on the next refresh.
		slog.Warn("refresh after commit failed", "error", err)
	}
	return n, nil
}

// persist writes batch after checking it against the store's current list.
func (s *Service) persist(ctx context.Context, batch []Reassignment) error {
	items, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	if !tree.Fits(tree.Normalize(tree.Detect(items)), batch) {
		return ErrConflict
	}
	return s.repo.Reorder(ctx, batch)
}

// Discard drops the session's staged moves.
func (s *Service) Discard(ctx context.Context, session string) error {
	ov, err := s.overlayFor(ctx, session)
	if err != nil {
		return err
	}
	ov.Discard()
	return nil
}

// Create inserts a new category at the end of its committed sibling group.
// Moves staged into that group are pushed after it when the open sessions
// are rebased.
func (s *Service) Create(ctx context.Context, in Input) (*Category, error) {
	canonical, err := s.Canonical(ctx)
	if err != nil {
		return nil, err
	}
	if in.ParentID != nil && !exists(canonical, *in.ParentID) {
		return nil, fmt.Errorf("parent %s: %w", *in.ParentID, ErrNotFound)
	}

	c := &Category{
		ParentID:  models.CloneID(in.ParentID),
		Order:     tree.NextOrder(in.ParentID, canonical),
		CreatorID: in.ActorID,
	}
	if err := s.applyInput(ctx, c, in); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	slog.Info("category created", "id", created.ID, "slug", created.Slug)

	if err := s.refresh(ctx); err != nil {
		slog.Warn("refresh after create failed", "error", err)
	}
	return created, nil
}

// Update changes the names and slug of a category. The position is left
// alone; moves go through Move and Commit.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Category, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}

	if err := s.applyInput(ctx, c, in); err != nil {
		return nil, err
	}
	if in.ActorID != "" {
		actor := in.ActorID
		c.ModifierID = &actor
	}

	if err := s.repo.UpdateDetails(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	slog.Info("category updated", "id", c.ID, "slug", c.Slug)

	if err := s.refresh(ctx); err != nil {
		slog.Warn("refresh after update failed", "error", err)
	}
	return c, nil
}

// Delete removes a category together with its subtree and closes the gap
// it leaves among its siblings. Staged moves of the removed nodes, and
// moves into them, are dropped when the open sessions are rebased. It
// returns the number of removed nodes.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (int, error) {
	canonical, err := s.Canonical(ctx)
	if err != nil {
		return 0, err
	}
	if !exists(canonical, id) {
		return 0, ErrNotFound
	}

	removed := tree.Descendants(id, canonical)
	removed[id] = struct{}{}
	renumber := tree.PlanRemoval(id, canonical)

	if err := s.repo.Delete(ctx, id, renumber); err != nil {
		return 0, fmt.Errorf("delete category: %w", err)
	}
	slog.Info("category deleted", "id", id, "removed", len(removed))

	if err := s.refresh(ctx); err != nil {
		slog.Warn("refresh after delete failed", "error", err)
	}
	return len(removed), nil
}

// Close drops the session's overlay and any moves staged in it.
func (s *Service) Close(session string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workspaces, session)
	workspacesActive.Set(float64(len(s.workspaces)))
}

// Sweep drops overlays unused for longer than maxIdle and returns how many
// were removed.
func (s *Service) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, ws := range s.workspaces {
		if ws.lastUsed.Before(cutoff) {
			delete(s.workspaces, id)
			removed++
		}
	}
	workspacesActive.Set(float64(len(s.workspaces)))
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *Service) StartSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(maxIdle); n > 0 {
					slog.Info("idle editor overlays dropped", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// refresh invalidates the cache, reloads the canonical list and rebases
// every open overlay on it.
func (s *Service) refresh(ctx context.Context) error {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	flat, err := s.Canonical(ctx)
	if err != nil {
		return err
	}
	s.forEachOverlay(func(ov *overlay.Store[uuid.UUID]) { ov.Reset(flat) })
	return nil
}

func (s *Service) forEachOverlay(fn func(*overlay.Store[uuid.UUID])) {
	s.mu.Lock()
	overlays := make([]*overlay.Store[uuid.UUID], 0, len(s.workspaces))
	for _, ws := range s.workspaces {
		overlays = append(overlays, ws.overlay)
	}
	s.mu.Unlock()

	for _, ov := range overlays {
		fn(ov)
	}
}

// applyInput copies names and slug from in onto c. The secondary name
// defaults to the primary one; the slug is derived from the primary name
// unless given, and is normalized either way.
func (s *Service) applyInput(ctx context.Context, c *Category, in Input) error {
	c.NamePrimary = in.NamePrimary
	c.NameSecondary = in.NameSecondary
	if c.NameSecondary == "" {
		c.NameSecondary = in.NamePrimary
	}

	source := in.Slug
	if source == "" {
		source = in.NamePrimary
	}
	c.Slug = slug.Generate(source)
	if c.Slug == "" {
		return ErrEmptySlug
	}

	existing, err := s.repo.FindBySlug(ctx, c.Slug)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if existing != nil && existing.ID != c.ID {
		return fmt.Errorf("%q: %w", c.Slug, ErrSlugTaken)
	}
	return nil
}

func exists(flat []Category, id uuid.UUID) bool {
	for _, c := range flat {
		if c.ID == id {
			return true
		}
	}
	return false
}
