// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package cli implements the categorytree command line: the API server,
// migrations and offline tools that run the tree core over a JSON snapshot
// or the database.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"categorytree/internal/config"
)

// jsonOutput switches offline commands to machine-readable output.
var jsonOutput bool

// rootCmd is the root command for categorytree.
var rootCmd = &cobra.Command{
	Use:     "categorytree",
	Version: "dev",
	Short:   "Category tree editor service",
	Long: `categorytree serves the category tree editor API and offers offline
tools to inspect a tree, plan moves and preview slugs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")

	rootCmd.AddGroup(
		&cobra.Group{ID: "server", Title: "Server Commands:"},
		&cobra.Group{ID: "tools", Title: "Tree Tools:"},
	)
	rootCmd.AddCommand(serveCmd, migrateCmd, treeCmd, planCmd, slugCmd)
}

// SetVersion sets the version printed by --version.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration and installs the default logger at
// the configured level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)
	return cfg, nil
}
