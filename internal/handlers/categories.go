// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API of the category tree editor.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"categorytree/internal/editor"
	"categorytree/internal/middleware"
	"categorytree/internal/overlay"
	"categorytree/internal/session"
	"categorytree/internal/slug"
	"categorytree/internal/tree"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ViewStore persists an editor's view state.
type ViewStore interface {
	Save(ctx context.Context, data *session.Data) error
}

// Categories groups the category and view-state endpoints.
type Categories struct {
	svc   *editor.Service
	views ViewStore
}

// NewCategories creates the handler group.
func NewCategories(svc *editor.Service, views ViewStore) *Categories {
	return &Categories{svc: svc, views: views}
}

// List returns the editor's view of the tree. The shape query parameter
// selects nested (default), flat or outline.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	shape := r.URL.Query().Get("shape")
	if shape == "" {
		shape = "nested"
	}

	flat, err := h.svc.Materialize(r.Context(), sess.ID)
	if err != nil {
		serverError(w, "load tree", err)
		return
	}
	pending, err := h.svc.Pending(r.Context(), sess.ID)
	if err != nil {
		serverError(w, "load pending", err)
		return
	}

	var nodes []editor.Category
	switch shape {
	case "nested":
		nodes = tree.ToNested(flat)
	case "flat":
		nodes = flat
	case "outline":
		nodes = tree.Outline(tree.ToNested(flat))
	default:
		writeError(w, http.StatusBadRequest, "shape must be one of: nested, flat, outline.")
		return
	}
	if nodes == nil {
		nodes = []editor.Category{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"shape":      shape,
		"categories": nodes,
		"pending":    len(pending),
	})
}

// Get returns one category of the editor's view with its subtree.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	c, err := h.svc.Find(r.Context(), sess.ID, id)
	if err != nil {
		h.serviceError(w, "find category", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Create adds a category at the end of its sibling group.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.svc.Create(r.Context(), editor.Input{
		NamePrimary:   req.NamePrimary,
		NameSecondary: req.NameSecondary,
		Slug:          req.Slug,
		ParentID:      parseOptionalID(req.ParentID),
		ActorID:       req.ActorID,
	})
	if err != nil {
		h.serviceError(w, "create category", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Update edits names and slug. The change is stored immediately.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.svc.Update(r.Context(), id, editor.Input{
		NamePrimary:   req.NamePrimary,
		NameSecondary: req.NameSecondary,
		Slug:          req.Slug,
		ActorID:       req.ActorID,
	})
	if err != nil {
		h.serviceError(w, "update category", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Delete removes a category with its subtree and drops the removed ids
// from the editor's view state.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	removed, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.serviceError(w, "delete category", err)
		return
	}

	if flat, err := h.svc.Materialize(r.Context(), sess.ID); err == nil {
		keep := make(map[uuid.UUID]bool, len(flat))
		for _, c := range flat {
			keep[c.ID] = true
		}
		sess.Prune(keep)
		h.saveView(r.Context(), sess)
	}

	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// Descendants lists every category below the given one.
func (h *Categories) Descendants(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	list, err := h.svc.Descendants(r.Context(), sess.ID, id)
	if err != nil {
		h.serviceError(w, "list descendants", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"descendants": list})
}

// Move validates, plans and stages a move in the editor's overlay.
func (h *Categories) Move(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// Both ids passed the uuid validator.
	subject := uuid.MustParse(req.SubjectID)
	target := tree.Target[uuid.UUID]{NodeID: uuid.MustParse(req.TargetID), Intent: tree.Intent(req.Intent)}

	plan, err := h.svc.Move(r.Context(), sess.ID, subject, target)
	if err != nil {
		h.serviceError(w, "stage move", err)
		return
	}
	pending, err := h.svc.Pending(r.Context(), sess.ID)
	if err != nil {
		serverError(w, "load pending", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"staged":  plan,
		"pending": len(pending),
	})
}

// Pending lists the editor's staged reassignments.
func (h *Categories) Pending(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	pending, err := h.svc.Pending(r.Context(), sess.ID)
	if err != nil {
		serverError(w, "load pending", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pending": pending})
}

// Discard drops the editor's staged reassignments.
func (h *Categories) Discard(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	if err := h.svc.Discard(r.Context(), sess.ID); err != nil {
		serverError(w, "discard", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Commit persists the editor's staged reassignments as one batch.
func (h *Categories) Commit(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}

	n, err := h.svc.Commit(r.Context(), sess.ID)
	switch {
	case errors.Is(err, overlay.ErrCommitInProgress):
		writeError(w, http.StatusConflict, "A save is already in progress.")
	case errors.Is(err, editor.ErrConflict):
		writeError(w, http.StatusConflict, "The saved tree changed; your changes were adjusted to it. Review them and save again.")
	case err != nil:
		writeError(w, http.StatusBadGateway, "Saving failed; your changes are still pending.")
	case n == 0:
		writeJSON(w, http.StatusOK, map[string]any{"saved": 0, "message": "nothing to save"})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"saved": n})
	}
}

// Slug previews the identifier derived from the text query parameter.
func (h *Categories) Slug(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"slug": slug.Generate(r.URL.Query().Get("text"))})
}

// serviceError maps editor errors to status codes.
func (h *Categories) serviceError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, editor.ErrNotFound):
		writeError(w, http.StatusNotFound, "Category not found.")
	case errors.Is(err, editor.ErrIllegalMove):
		writeError(w, http.StatusUnprocessableEntity, "A category cannot be moved into itself or one of its descendants.")
	case errors.Is(err, editor.ErrInvalidIntent):
		writeError(w, http.StatusBadRequest, "intent must be one of: into, before, after.")
	case errors.Is(err, editor.ErrEmptySlug):
		writeError(w, http.StatusUnprocessableEntity, "The name does not produce a usable slug.")
	case errors.Is(err, editor.ErrSlugTaken):
		writeError(w, http.StatusConflict, "Another category already uses this slug.")
	default:
		serverError(w, action, err)
	}
}

func (h *Categories) saveView(ctx context.Context, sess *session.Data) bool {
	if err := h.views.Save(ctx, sess); err != nil {
		slog.Error("save view state failed", "error", err)
		return false
	}
	return true
}

// requireSession returns the editor session loaded by the middleware.
func requireSession(w http.ResponseWriter, r *http.Request) (*session.Data, bool) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, http.StatusUnauthorized, "No editor session.")
		return nil, false
	}
	return sess, true
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid category id.")
		return uuid.Nil, false
	}
	return id, true
}

// decodeAndValidate reads a JSON body into dst and validates it, writing a
// 400 response on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed JSON body.")
		return false
	}
	if msg := validateRequest(dst); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return false
	}
	return true
}

func serverError(w http.ResponseWriter, action string, err error) {
	slog.Error(action+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, "Internal server error.")
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
