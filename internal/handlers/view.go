// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"categorytree/internal/session"
	"categorytree/internal/tree"
)

type viewResponse struct {
	Expanded []uuid.UUID `json:"expanded"`
	Selected *uuid.UUID  `json:"selected"`
}

func viewOf(sess *session.Data) viewResponse {
	expanded := sess.Expanded
	if expanded == nil {
		expanded = []uuid.UUID{}
	}
	return viewResponse{Expanded: expanded, Selected: sess.Selected}
}

// View returns the editor's expanded and selected nodes.
func (h *Categories) View(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// SetView replaces the editor's view state.
func (h *Categories) SetView(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	var req viewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	expanded := make([]uuid.UUID, 0, len(req.Expanded))
	for _, s := range req.Expanded {
		expanded = append(expanded, uuid.MustParse(s))
	}
	sess.ExpandAll(expanded)
	sess.Select(parseOptionalID(req.Selected))

	h.respondView(w, r, sess)
}

// Toggle flips the expanded state of one node.
func (h *Categories) Toggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	sess.Toggle(id)
	h.respondView(w, r, sess)
}

// ExpandAll expands every node that has children in the editor's view.
func (h *Categories) ExpandAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	flat, err := h.svc.Materialize(r.Context(), sess.ID)
	if err != nil {
		serverError(w, "load tree", err)
		return
	}

	hasChildren := make(map[uuid.UUID]bool)
	for _, c := range flat {
		if c.ParentID != nil {
			hasChildren[*c.ParentID] = true
		}
	}
	var parents []uuid.UUID
	for _, c := range tree.Outline(tree.ToNested(flat)) {
		if hasChildren[c.ID] {
			parents = append(parents, c.ID)
		}
	}
	sess.ExpandAll(parents)
	h.respondView(w, r, sess)
}

// CollapseAll collapses every node.
func (h *Categories) CollapseAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	sess.CollapseAll()
	h.respondView(w, r, sess)
}

func (h *Categories) respondView(w http.ResponseWriter, r *http.Request, sess *session.Data) {
	if !h.saveView(r.Context(), sess) {
		writeError(w, http.StatusServiceUnavailable, "Could not save view state.")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}
