// Package treebuild builds a course tree by fetching the root document and
// following every embedding reference recursively.
package treebuild

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"sync/atomic"

	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/dgallion1/slidegest/internal/markup"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// maxTitleBytes is the title length above which inline image payloads are
// removed.
const maxTitleBytes = 4000

var inlineImage = regexp.MustCompile(`(?i)data:image/[^"]*`)

// Documents returns parsed documents by location.
type Documents interface {
	Document(ctx context.Context, loc doctree.Location) (*html.Node, error)
}

// Builder fetches and assembles course trees.
type Builder struct {
	docs    Documents
	log     *slog.Logger
	fetches *semaphore.Weighted
	fetched atomic.Int64
}

// NewBuilder returns a Builder that keeps at most concurrency documents in
// flight.
func NewBuilder(docs Documents, log *slog.Logger, concurrency int) *Builder {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Builder{
		docs:    docs,
		log:     log,
		fetches: semaphore.NewWeighted(int64(concurrency)),
	}
}

type pending struct {
	loc      doctree.Location
	title    string
	children []*pending
}

// Build returns the fixed-up tree rooted at root. Deck flags are not set.
// The first fetch failure aborts the build.
func (b *Builder) Build(ctx context.Context, root doctree.Location) (*doctree.Tree, error) {
	b.fetched.Store(0)
	top, err := b.build(ctx, root, "", nil)
	if err != nil {
		return nil, err
	}

	tree := doctree.New(top.loc, top.title)
	var attach func(parent doctree.NodeID, p *pending)
	attach = func(parent doctree.NodeID, p *pending) {
		for _, c := range p.children {
			attach(tree.AddChild(parent, c.loc, c.title), c)
		}
	}
	attach(tree.Root(), top)
	tree.Fixup(nil)

	b.log.Info("tree built", "root", root.String(), "nodes", tree.Len(), "documents", b.fetched.Load())
	return tree, nil
}

func (b *Builder) build(ctx context.Context, loc doctree.Location, title string, ancestors []doctree.Location) (*pending, error) {
	doc, err := b.fetch(ctx, loc)
	if err != nil {
		return nil, err
	}

	node := &pending{loc: loc, title: title}
	lineage := append(slices.Clip(ancestors), loc)

	var children []*pending
	for _, el := range markup.Embeddings(doc) {
		child, _ := markup.Embedded(el)
		if slices.Contains(lineage, child) {
			b.log.Warn("skipping cyclic embedding", "document", loc.String(), "embeds", child.String())
			continue
		}
		children = append(children, &pending{loc: child, title: Title(el)})
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range children {
		i, c := i, c
		g.Go(func() error {
			built, err := b.build(gctx, c.loc, c.title, lineage)
			if err != nil {
				return err
			}
			children[i] = built
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	node.children = children
	return node, nil
}

func (b *Builder) fetch(ctx context.Context, loc doctree.Location) (*html.Node, error) {
	if err := b.fetches.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.fetches.Release(1)

	doc, err := b.docs.Document(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", loc, err)
	}
	if n := b.fetched.Add(1); n%100 == 0 {
		b.log.Info("building tree", "documents", n, "current", loc.String())
	}
	return doc, nil
}

// Title returns the title recorded for the document embedded by el: the
// element's outer markup without the embedding and class attributes. The
// element is modified in place.
func Title(el *html.Node) string {
	markup.RemoveAttr(el, markup.EmbedAttr, "class")
	title, err := markup.Render(el)
	if err != nil {
		return ""
	}
	if len(title) > maxTitleBytes {
		title = inlineImage.ReplaceAllString(title, "")
	}
	return title
}
