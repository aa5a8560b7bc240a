// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Handlers run against an in-memory store, so no services are needed.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"categorytree/internal/editor"
	"categorytree/internal/middleware"
	"categorytree/internal/models"
	"categorytree/internal/session"
	"categorytree/internal/store"
)

// fakeViews records saved view states.
type fakeViews struct {
	saved []session.Data
	err   error
}

func (f *fakeViews) Save(_ context.Context, data *session.Data) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *data)
	return nil
}

// testEnv holds a handler wired to an in-memory catalog:
//
//	electronics: phones, laptops
//	fashion
type testEnv struct {
	h     *Categories
	svc   *editor.Service
	repo  *store.MemoryStore
	views *fakeViews
	sess  *session.Data

	electronics, fashion, phones, laptops uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		electronics: uuid.New(),
		fashion:     uuid.New(),
		phones:      uuid.New(),
		laptops:     uuid.New(),
		views:       &fakeViews{},
		sess:        &session.Data{ID: "editor-" + uuid.NewString()},
	}
	cat := func(id uuid.UUID, parent *uuid.UUID, order int, name string) store.Category {
		return store.Category{ID: id, ParentID: models.CloneID(parent), Order: order,
			NamePrimary: name, NameSecondary: name, Slug: name}
	}
	env.repo = store.NewMemoryStore([]store.Category{
		cat(env.electronics, nil, 0, "electronics"),
		cat(env.fashion, nil, 1, "fashion"),
		cat(env.phones, &env.electronics, 0, "phones"),
		cat(env.laptops, &env.electronics, 1, "laptops"),
	})
	env.svc = editor.New(env.repo, nil)
	env.h = NewCategories(env.svc, env.views)
	return env
}

// do runs handler with the env's session, an optional JSON body and an
// optional chi id parameter.
func (env *testEnv) do(t *testing.T, handler http.HandlerFunc, method, target string, body any, id string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req = req.WithContext(middleware.WithSession(req.Context(), env.sess))
	if id != "" {
		req = withChiURLParam(req, "id", id)
	}

	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
}

// failingRepo wraps a store and fails every Reorder.
type failingRepo struct {
	*store.MemoryStore
}

func (failingRepo) Reorder(context.Context, []store.Reassignment) error {
	return errors.New("database unavailable")
}
