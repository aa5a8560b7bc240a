// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"categorytree/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// SessionKey is the context key for the session data.
	SessionKey contextKey = "session"
	// newSessionKey marks requests whose session was created while
	// serving them.
	newSessionKey contextKey = "session_new"
)

// SessionStore is the part of session.Store the middleware needs.
type SessionStore interface {
	Get(ctx context.Context, r *http.Request) (*session.Data, error)
	Create(ctx context.Context, w http.ResponseWriter) (*session.Data, error)
}

// Admission decides whether a request may start a new session.
type Admission func(r *http.Request) bool

// EditorSession loads the editor session from Valkey, starting a new one
// when the request carries none, and stores it in the request context.
// Every editor owns its own overlay of staged moves, so API handlers can
// rely on SessionFromCtx returning a session.
//
// admit, when set, is asked before a session is created; a refusal is
// answered with 429 and nothing is written to the store.
func EditorSession(store SessionStore, admit Admission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, err := store.Get(r.Context(), r)
			if err != nil {
				// Unreadable session: start a fresh one.
				slog.Warn("session load failed", "error", err)
				data = nil
			}

			ctx := r.Context()
			if data == nil {
				if admit != nil && !admit(r) {
					writeJSONError(w, http.StatusTooManyRequests, "too many requests")
					return
				}
				data, err = store.Create(ctx, w)
				if err != nil {
					slog.Error("session create failed", "error", err)
					writeJSONError(w, http.StatusServiceUnavailable, "session store unavailable")
					return
				}
				ctx = context.WithValue(ctx, newSessionKey, true)
			}

			next.ServeHTTP(w, r.WithContext(WithSession(ctx, data)))
		})
	}
}

// WithSession returns a copy of ctx carrying the session data.
func WithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, SessionKey, data)
}

// SessionFromCtx extracts the session data from the request context.
// Returns nil if no session is loaded.
func SessionFromCtx(ctx context.Context) *session.Data {
	data, _ := ctx.Value(SessionKey).(*session.Data)
	return data
}

// SessionIsNew reports whether the session in ctx was created for the
// current request.
func SessionIsNew(ctx context.Context) bool {
	fresh, _ := ctx.Value(newSessionKey).(bool)
	return fresh
}
