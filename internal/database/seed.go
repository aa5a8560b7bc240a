// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"categorytree/internal/slug"
)

// seedNode is one category of the development catalog.
type seedNode struct {
	primary   string
	secondary string
	children  []seedNode
}

// devCatalog is a small bilingual catalog used in development.
var devCatalog = []seedNode{
	{primary: "Điện tử", secondary: "Electronics", children: []seedNode{
		{primary: "Điện thoại di động", secondary: "Mobile phones", children: []seedNode{
			{primary: "Điện thoại thông minh", secondary: "Smartphones"},
			{primary: "Phụ kiện điện thoại", secondary: "Phone accessories"},
		}},
		{primary: "Máy tính xách tay", secondary: "Laptops"},
		{primary: "Máy ảnh", secondary: "Cameras"},
	}},
	{primary: "Thời trang", secondary: "Fashion", children: []seedNode{
		{primary: "Thời trang nam", secondary: "Men"},
		{primary: "Thời trang nữ", secondary: "Women"},
	}},
	{primary: "Nhà cửa & Đời sống", secondary: "Home & Living"},
}

// Seed populates the database with initial development data.
// It creates the sample catalog only when the categories table is empty.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	inserted, err := seedLevel(tx, devCatalog, nil)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with sample categories", "count", inserted)
	return nil
}

// seedLevel inserts nodes under parentID, numbering them in list order.
func seedLevel(tx *sql.Tx, nodes []seedNode, parentID *string) (int, error) {
	inserted := 0
	for i, n := range nodes {
		var id string
		err := tx.QueryRow(`
			INSERT INTO categories (name_primary, name_secondary, slug, parent_id, sort_order, creator_id)
			VALUES ($1, $2, $3, $4, $5, 'seed')
			RETURNING id
		`, n.primary, n.secondary, slug.Generate(n.primary), parentID, i).Scan(&id)
		if err != nil {
			return inserted, fmt.Errorf("seed insert %q: %w", n.primary, err)
		}
		inserted++

		sub, err := seedLevel(tx, n.children, &id)
		inserted += sub
		if err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}
