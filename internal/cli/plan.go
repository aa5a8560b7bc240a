// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"categorytree/internal/editor"
	"categorytree/internal/store"
	"categorytree/internal/tree"
)

// planSession names the single overlay workspace used by the plan command.
const planSession = "cli"

var (
	planFile  string
	planWrite bool
)

var planCmd = &cobra.Command{
	Use:     "plan <subject-id> <into|before|after> <target-id>",
	GroupID: "tools",
	Short:   "Plan a move against a JSON snapshot",
	Long: `plan stages one move against a snapshot file and prints the position
changes it needs followed by the resulting outline. With --write the move
is committed and the snapshot is rewritten as a flat list.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("subject id: %w", err)
		}
		target, err := uuid.Parse(args[2])
		if err != nil {
			return fmt.Errorf("target id: %w", err)
		}

		flat, err := readSnapshot(planFile)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		repo := store.NewMemoryStore(flat)
		svc := editor.New(repo, nil)

		plan, err := svc.Move(ctx, planSession, subject, tree.Target[uuid.UUID]{
			NodeID: target,
			Intent: tree.Intent(args[1]),
		})
		if err != nil {
			return err
		}
		nested, err := svc.Tree(ctx, planSession)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if err := writeJSON(out, map[string]any{"plan": plan, "categories": nested}); err != nil {
				return err
			}
		} else {
			fprintSection(out, fmt.Sprintf("%d position changes", len(plan)))
			for _, r := range plan {
				parent := "root"
				if r.ParentID != nil {
					parent = r.ParentID.String()
				}
				_, _ = fmt.Fprintf(out, "  %s -> %s #%d\n", r.ID, parent, r.Order)
			}
			fprintSection(out, "preview")
			for _, c := range tree.Outline(nested) {
				fprintNode(out, c.Depth, c.NamePrimary, c.Slug)
			}
		}

		if !planWrite {
			return nil
		}
		n, err := svc.Commit(ctx, planSession)
		if err != nil {
			return err
		}
		saved, err := repo.List(ctx)
		if err != nil {
			return err
		}
		if err := writeSnapshot(planFile, saved); err != nil {
			return err
		}
		if !jsonOutput {
			fprintSuccess(out, fmt.Sprintf("saved %d position changes to %s", n, planFile))
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "JSON snapshot to plan against (required)")
	planCmd.Flags().BoolVar(&planWrite, "write", false, "commit the move and rewrite the snapshot")
	_ = planCmd.MarkFlagRequired("file")
}
