// Package session provides Valkey-backed editor sessions. A session is
// identified by a cookie and carries the editor's view state (expanded and
// selected nodes), which the tree core never reads.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "ct_editor"

	// DefaultTTL is how long a session lives in Valkey before automatic expiry.
	DefaultTTL = 24 * time.Hour

	// keyPrefix namespaces session keys in Valkey to avoid collisions.
	keyPrefix = "editor:"

	// idLength is the byte length of the random session ID (32 bytes = 64 hex chars).
	idLength = 32
)

// Data holds the session payload stored in Valkey.
type Data struct {
	ID        string      `json:"id"`
	Expanded  []uuid.UUID `json:"expanded"`
	Selected  *uuid.UUID  `json:"selected"`
	CreatedAt time.Time   `json:"created_at"`
}

// IsExpanded reports whether the node is expanded in this editor.
func (d *Data) IsExpanded(id uuid.UUID) bool {
	return slices.Contains(d.Expanded, id)
}

// Toggle flips the expanded state of a node.
func (d *Data) Toggle(id uuid.UUID) {
	if i := slices.Index(d.Expanded, id); i >= 0 {
		d.Expanded = slices.Delete(d.Expanded, i, i+1)
		return
	}
	d.Expanded = append(d.Expanded, id)
}

// ExpandAll marks every given node as expanded.
func (d *Data) ExpandAll(ids []uuid.UUID) {
	d.Expanded = slices.Clone(ids)
}

// CollapseAll clears the expanded set.
func (d *Data) CollapseAll() {
	d.Expanded = nil
}

// Select sets the selected node; nil clears the selection.
func (d *Data) Select(id *uuid.UUID) {
	if id == nil {
		d.Selected = nil
		return
	}
	v := *id
	d.Selected = &v
}

// Prune drops expanded and selected ids that are not in keep, typically
// after nodes were deleted.
func (d *Data) Prune(keep map[uuid.UUID]bool) {
	d.Expanded = slices.DeleteFunc(d.Expanded, func(id uuid.UUID) bool { return !keep[id] })
	if d.Selected != nil && !keep[*d.Selected] {
		d.Selected = nil
	}
}

// Store manages session lifecycle in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store backed by the given Valkey client.
// secure marks the cookie HTTPS-only.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{
		client: client,
		ttl:    DefaultTTL,
		secure: secure,
	}
}

// Create generates a new session, stores it in Valkey, and sets the
// session cookie on the response.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter) (*Data, error) {
	id, err := generateID()
	if err != nil {
		return nil, fmt.Errorf("session create: %w", err)
	}

	data := &Data{ID: id, CreatedAt: time.Now()}
	if err := s.Save(ctx, data); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})

	return data, nil
}

// Get retrieves session data from Valkey using the session ID from the
// request cookie. Returns nil if no valid session exists.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil // No cookie = no session (not an error)
	}

	payload, err := s.client.Get(ctx, keyPrefix+cookie.Value).Bytes()
	if err == redis.Nil {
		return nil, nil // Session expired or doesn't exist
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var data Data
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	data.ID = cookie.Value

	return &data, nil
}

// Save writes the session data to Valkey and resets its TTL.
func (s *Store) Save(ctx context.Context, data *Data) error {
	if data.ID == "" {
		return fmt.Errorf("session save: missing id")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+data.ID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	return nil
}

// Destroy removes the session from Valkey and clears the cookie.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil // No cookie, nothing to destroy
	}

	s.client.Del(ctx, keyPrefix+cookie.Value)

	// Expire the cookie immediately.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	return nil
}

// generateID creates a cryptographically random session identifier.
func generateID() (string, error) {
	b := make([]byte, idLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
