package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestToggleAndView(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, env.h.Toggle, http.MethodPost, "/", nil, env.electronics.String())
	if rr.Code != http.StatusOK {
		t.Fatalf("toggle: got %d", rr.Code)
	}
	if len(env.views.saved) != 1 {
		t.Fatalf("view state saved %d times, want 1", len(env.views.saved))
	}

	rr = env.do(t, env.h.View, http.MethodGet, "/api/view", nil, "")
	var view viewResponse
	decode(t, rr, &view)
	if len(view.Expanded) != 1 || view.Expanded[0] != env.electronics {
		t.Errorf("expanded: %v", view.Expanded)
	}
}

func TestExpandAllAndCollapseAll(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, env.h.ExpandAll, http.MethodPost, "/api/view/expand-all", nil, "")
	var view viewResponse
	decode(t, rr, &view)
	// Only electronics has children.
	if len(view.Expanded) != 1 || view.Expanded[0] != env.electronics {
		t.Errorf("expand all: %v", view.Expanded)
	}

	rr = env.do(t, env.h.CollapseAll, http.MethodPost, "/api/view/collapse-all", nil, "")
	decode(t, rr, &view)
	if len(view.Expanded) != 0 {
		t.Errorf("collapse all: %v", view.Expanded)
	}
}

func TestSetView(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, env.h.SetView, http.MethodPut, "/api/view", map[string]any{
		"expanded": []string{env.electronics.String(), env.fashion.String()},
		"selected": env.phones.String(),
	}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("set view: got %d (%s)", rr.Code, rr.Body.String())
	}
	if env.sess.Selected == nil || *env.sess.Selected != env.phones {
		t.Error("selection not applied")
	}

	rr = env.do(t, env.h.SetView, http.MethodPut, "/api/view", map[string]any{"expanded": []string{"x"}}, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed id: got %d, want 400", rr.Code)
	}
}

func TestViewSaveFailure(t *testing.T) {
	env := newTestEnv(t)
	env.views.err = errors.New("valkey down")

	rr := env.do(t, env.h.Toggle, http.MethodPost, "/", nil, uuid.NewString())
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", rr.Code)
	}
}
