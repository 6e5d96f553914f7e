package slides

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/slidegest/internal/doctree"
	"golang.org/x/net/html"
)

// Documents returns parsed documents by location. Each call must return a
// tree the caller may modify.
type Documents interface {
	Document(ctx context.Context, loc doctree.Location) (*html.Node, error)
}

// Extractor walks a fixed-up course tree and the documents behind it. It
// is safe for concurrent use.
type Extractor struct {
	tree       *doctree.Tree
	docs       Documents
	log        *slog.Logger
	Whitespace WhitespacePolicy
}

func NewExtractor(tree *doctree.Tree, docs Documents, log *slog.Logger) *Extractor {
	return &Extractor{
		tree:       tree,
		docs:       docs,
		log:        log,
		Whitespace: DefaultWhitespacePolicy(),
	}
}

// Tree returns the tree the extractor walks.
func (x *Extractor) Tree() *doctree.Tree {
	return x.tree
}

// Range returns the slides after the content of start and before end. A
// zero start means the beginning of the tree, a zero end its end.
func (x *Extractor) Range(ctx context.Context, start, end doctree.Location) ([]Slide, error) {
	cut := beginning(x.tree)
	if !start.IsZero() {
		id := x.tree.Find(start)
		if id == doctree.NoNode {
			return nil, &NotFoundError{Boundary: StartBoundary, Loc: start}
		}
		cut = Cut{Node: id, Side: After}
	}
	return x.extract(ctx, cut, ExplicitEnd{Loc: end})
}

// Deck returns the slides from deck up to the next deck boundary. A zero
// deck means the beginning of the tree.
func (x *Extractor) Deck(ctx context.Context, deck doctree.Location) ([]Slide, error) {
	cut := beginning(x.tree)
	if !deck.IsZero() {
		id := x.tree.Find(deck)
		if id == doctree.NoNode {
			return nil, &NotFoundError{Boundary: DeckBoundary, Loc: deck}
		}
		cut = Cut{Node: id, Side: Before}
	}
	return x.extract(ctx, cut, NextDeckEnd{})
}

// Between returns the slides between two cuts.
func (x *Extractor) Between(ctx context.Context, start Cut, end EndResolver) ([]Slide, error) {
	return x.extract(ctx, start, end)
}

func (x *Extractor) extract(ctx context.Context, start Cut, resolver EndResolver) ([]Slide, error) {
	t := x.tree
	if !t.Valid(start.Node) {
		return nil, fmt.Errorf("start cut: node %d not in tree", start.Node)
	}
	stop, err := resolver.ResolveEnd(t, start)
	if err != nil {
		return nil, err
	}
	if !t.Valid(stop.Node) {
		return nil, fmt.Errorf("end cut: node %d not in tree", stop.Node)
	}
	switch startKey, endKey := start.key(t), stop.key(t); {
	case endKey < startKey:
		return nil, &MalformedRangeError{Start: start.describe(t), End: stop.describe(t)}
	case endKey == startKey:
		return []Slide{}, nil
	}

	began := time.Now()
	w := newWalker(ctx, x, stop)
	if err := w.run(start); err != nil {
		return nil, err
	}
	out := w.finish()
	x.log.Debug("slides extracted",
		"start", start.describe(t),
		"end", stop.describe(t),
		"slides", len(out),
		"documents", w.documents,
		"duration_ms", time.Since(began).Milliseconds(),
	)
	return out, nil
}
