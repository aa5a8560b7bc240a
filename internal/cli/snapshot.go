package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"categorytree/internal/database"
	"categorytree/internal/store"
	"categorytree/internal/tree"
)

// readSnapshot loads a JSON array of categories from path. Either shape is
// accepted; the result is always the normalized flat list.
func readSnapshot(path string) ([]store.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var nodes []store.Category
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return tree.Normalize(tree.Detect(nodes)), nil
}

// writeSnapshot stores flat as an indented JSON array at path.
func writeSnapshot(path string, flat []store.Category) error {
	data, err := json.MarshalIndent(flat, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// loadCategories returns the flat list from the snapshot at path, or from
// the configured database when path is empty.
func loadCategories(ctx context.Context, path string) ([]store.Category, error) {
	if path != "" {
		return readSnapshot(path)
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	return store.NewCategoryStore(db).List(ctx)
}
