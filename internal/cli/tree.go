package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"categorytree/internal/tree"
)

var (
	treeFile      string
	treeSecondary bool
	treeFlat      bool
)

var treeCmd = &cobra.Command{
	Use:     "tree",
	GroupID: "tools",
	Short:   "Print the category tree",
	Long: `tree prints the category tree as an indented outline. It reads the
database by default, or a JSON snapshot (flat or nested) with --file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flat, err := loadCategories(cmd.Context(), treeFile)
		if err != nil {
			return err
		}
		nested := tree.ToNested(flat)

		out := cmd.OutOrStdout()
		if jsonOutput {
			if treeFlat {
				return writeJSON(out, flat)
			}
			return writeJSON(out, nested)
		}

		fprintSection(out, fmt.Sprintf("%d categories", len(flat)))
		for _, c := range tree.Outline(nested) {
			fprintNode(out, c.Depth, c.DisplayName(treeSecondary), c.Slug)
		}
		return nil
	},
}

func init() {
	treeCmd.Flags().StringVarP(&treeFile, "file", "f", "", "read a JSON snapshot instead of the database")
	treeCmd.Flags().BoolVar(&treeSecondary, "secondary", false, "show secondary names where set")
	treeCmd.Flags().BoolVar(&treeFlat, "flat", false, "with --json, print the flat list instead of the nested tree")
}
