// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"categorytree/internal/database"
)

var migrateSeed bool

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	GroupID: "server",
	Short:   "Apply pending database migrations",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		db, err := database.Connect(cfg.DSN())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		if migrateSeed {
			if err := database.Seed(db); err != nil {
				return fmt.Errorf("seed database: %w", err)
			}
		}

		slog.Info("database is up to date")
		PrintSuccess("migrations applied")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateSeed, "seed", false, "also seed the development catalog when the table is empty")
}
