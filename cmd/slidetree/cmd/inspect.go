package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/slidegest/internal/courses"
	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/dgallion1/slidegest/internal/treefile"
)

var inspectDecks bool
var inspectDump bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <tree-file>",
	Short: "Summarize a tree file",
	Long: `Print the root, size, depth, deck count and content version of a tree file.

Example:
  slidetree inspect trees/ai-1.tree.xz --decks`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := treefile.Load(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if inspectDump {
			return doctree.Serialize(out, tree)
		}

		version, err := treefile.Version(tree)
		if err != nil {
			return err
		}
		depth := 0
		for _, id := range tree.Preorder() {
			depth = max(depth, tree.Node(id).Level)
		}
		fmt.Fprintf(out, "root:    %s\n", tree.Node(tree.Root()).Loc)
		fmt.Fprintf(out, "nodes:   %d\n", tree.Len())
		fmt.Fprintf(out, "depth:   %d\n", depth)
		fmt.Fprintf(out, "decks:   %d\n", len(tree.Decks()))
		fmt.Fprintf(out, "version: %s\n", version)

		if inspectDecks {
			c := &courses.Course{Tree: tree}
			for _, d := range c.Decks() {
				fmt.Fprintf(out, "%s%s  %s\n", strings.Repeat("  ", d.Level), d.ID, d.Title)
			}
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectDecks, "decks", false, "list deck boundaries with their titles")
	inspectCmd.Flags().BoolVar(&inspectDump, "dump", false, "print the tree in tree file format")

	rootCmd.AddCommand(inspectCmd)
}
