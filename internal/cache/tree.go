// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// tree.go caches the canonical flat category list in Valkey so editors
// materializing their overlay skip the database round trip. Every write to
// the categories table invalidates the entry.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"categorytree/internal/models"
)

const (
	// treeKey is the Valkey key holding the cached flat list.
	treeKey = "categories:flat"

	// DefaultTreeTTL is how long the cached list lives without writes.
	DefaultTreeTTL = 10 * time.Minute
)

// TreeCache stores the canonical category list in Valkey.
type TreeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTreeCache creates a tree cache backed by the given Valkey client.
func NewTreeCache(client *redis.Client, ttl time.Duration) *TreeCache {
	if ttl == 0 {
		ttl = DefaultTreeTTL
	}
	return &TreeCache{client: client, ttl: ttl}
}

// Get returns the cached list. A miss, an expired entry or an undecodable
// payload all report false.
func (tc *TreeCache) Get(ctx context.Context) ([]models.Category[uuid.UUID], bool) {
	val, err := tc.client.Get(ctx, treeKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("tree cache get error", "error", err)
		return nil, false
	}

	var flat []models.Category[uuid.UUID]
	if err := json.Unmarshal(val, &flat); err != nil {
		slog.Warn("tree cache decode error", "error", err)
		return nil, false
	}
	slog.Debug("tree cache hit", "count", len(flat))
	return flat, true
}

// Set stores the flat list with the configured TTL.
func (tc *TreeCache) Set(ctx context.Context, flat []models.Category[uuid.UUID]) {
	payload, err := json.Marshal(flat)
	if err != nil {
		slog.Warn("tree cache encode error", "error", err)
		return
	}
	if err := tc.client.Set(ctx, treeKey, payload, tc.ttl).Err(); err != nil {
		slog.Warn("tree cache set error", "error", err)
	}
}

// Invalidate removes the cached list.
func (tc *TreeCache) Invalidate(ctx context.Context) {
	if err := tc.client.Del(ctx, treeKey).Err(); err != nil {
		slog.Warn("tree cache invalidate error", "error", err)
		return
	}
	slog.Debug("tree cache invalidated")
}
