package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"categorytree/internal/slug"
)

var slugCmd = &cobra.Command{
	Use:     "slug <text>...",
	GroupID: "tools",
	Short:   "Preview the slug generated for a name",
	Example: `  categorytree slug "Điện thoại & Máy tính bảng"`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		s := slug.Generate(text)

		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, map[string]string{"input": text, "slug": s})
		}
		if s == "" {
			fprintWarning(out, "no slug can be derived from this text")
			return nil
		}
		_, err := fmt.Fprintln(out, s)
		return err
	},
}
