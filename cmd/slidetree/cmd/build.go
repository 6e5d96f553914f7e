package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/dgallion1/slidegest/internal/treebuild"
	"github.com/dgallion1/slidegest/internal/treefile"
)

var buildPlain bool
var buildConcurrency int

var buildCmd = &cobra.Command{
	Use:   "build [course-id...]",
	Short: "Crawl the content service and write course tree files",
	Long: `Build the document tree of each named course, or of every defined course,
and write it to <trees>/<course-id>.tree.xz.

Any document that cannot be fetched aborts the build and leaves existing
tree files untouched.

Example:
  slidetree build ai-1 iwgs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := selectDefinitions(args)
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		builder := treebuild.NewBuilder(client, log, buildConcurrency)
		for _, def := range defs {
			start := time.Now()
			tree, err := builder.Build(ctx, def.RootLocation())
			if err != nil {
				return fmt.Errorf("course %s: %w", def.ID, err)
			}
			decks := def.DeckLocations()
			tree.Fixup(decks)
			for _, d := range decks {
				if tree.Find(d) == doctree.NoNode {
					log.Warn("deck not in tree", "course", def.ID, "deck", d.String())
				}
			}

			path := treefile.PathFor(treeDir, def.ID, !buildPlain)
			if err := treefile.Save(path, tree); err != nil {
				return fmt.Errorf("course %s: %w", def.ID, err)
			}
			version, err := treefile.Version(tree)
			if err != nil {
				return fmt.Errorf("course %s: %w", def.ID, err)
			}
			log.Info("tree written", "course", def.ID, "path", path, "elapsed", time.Since(start).String())
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d nodes\t%d decks\t%s\n",
				def.ID, path, tree.Len(), len(tree.Decks()), version)
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().BoolVar(&buildPlain, "plain", false, "write uncompressed .tree files")
	buildCmd.Flags().IntVarP(&buildConcurrency, "concurrency", "c", cfg.BuildConcurrency, "maximum concurrent document fetches")

	rootCmd.AddCommand(buildCmd)
}
