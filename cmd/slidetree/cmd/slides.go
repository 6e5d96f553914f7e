package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/slidegest/internal/courses"
	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/dgallion1/slidegest/internal/slides"
	"github.com/dgallion1/slidegest/internal/treebuild"
)

var (
	slidesDeck  string
	slidesStart string
	slidesEnd   string
)

var slidesCmd = &cobra.Command{
	Use:   "slides <course-id>",
	Short: "Extract slides and print them as JSON",
	Long: `Extract the slides of a deck, or of the range between two documents, and
print them as JSON. Without --deck, --start and --end default to the
beginning and end of the course.

The course tree is read from its tree file, or built live when none exists.

Example:
  slidetree slides ai-1 --deck 'MiKoMH/AI||course/notes/search.xhtml'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if slidesDeck != "" && (slidesStart != "" || slidesEnd != "") {
			return fmt.Errorf("--deck cannot be combined with --start or --end")
		}
		defs, err := selectDefinitions(args)
		if err != nil {
			return err
		}
		client, err := newClient()
		if err != nil {
			return err
		}
		defer client.Close()

		loader := &courses.Loader{
			Docs:    client,
			Builder: treebuild.NewBuilder(client, log, cfg.BuildConcurrency),
			TreeDir: treeDir,
			Log:     log,
		}
		ctx := context.Background()
		course, err := loader.Load(ctx, defs[0])
		if err != nil {
			return err
		}

		var list []slides.Slide
		if slidesDeck != "" {
			deck, err := doctree.ParseLocation(slidesDeck)
			if err != nil {
				return err
			}
			list, err = course.Extractor.Deck(ctx, deck)
			if err != nil {
				return err
			}
		} else {
			start, err := optionalLocation(slidesStart)
			if err != nil {
				return err
			}
			end, err := optionalLocation(slidesEnd)
			if err != nil {
				return err
			}
			list, err = course.Extractor.Range(ctx, start, end)
			if err != nil {
				return err
			}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	},
}

// optionalLocation parses s, mapping "" to the zero location.
func optionalLocation(s string) (doctree.Location, error) {
	if s == "" {
		return doctree.Location{}, nil
	}
	return doctree.ParseLocation(s)
}

func init() {
	slidesCmd.Flags().StringVar(&slidesDeck, "deck", "", "deck to extract (archive||path)")
	slidesCmd.Flags().StringVar(&slidesStart, "start", "", "extract after this document (archive||path)")
	slidesCmd.Flags().StringVar(&slidesEnd, "end", "", "extract before this document (archive||path)")

	rootCmd.AddCommand(slidesCmd)
}
