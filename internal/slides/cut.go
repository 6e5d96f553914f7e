package slides

import (
	"github.com/dgallion1/slidegest/internal/doctree"
)

// Side places a cut on one side of a node's embedding element.
type Side uint8

const (
	// Before cuts immediately before the node's embedding element.
	Before Side = iota
	// After cuts immediately after it, past the node's whole subtree.
	After
)

// Cut is a point in the preorder-flattened content of a tree. Before the
// root is the beginning of the tree and After the root is its end.
type Cut struct {
	Node doctree.NodeID
	Side Side
}

// beginning and end of t.
func beginning(t *doctree.Tree) Cut { return Cut{Node: t.Root(), Side: Before} }
func end(t *doctree.Tree) Cut       { return Cut{Node: t.Root(), Side: After} }

// key orders cuts: a cut before node n sits at twice its preorder position,
// a cut after n sits just past its last descendant.
func (c Cut) key(t *doctree.Tree) int {
	if c.Side == Before {
		return 2 * t.Position(c.Node)
	}
	return 2*t.Position(t.LastDescendant(c.Node)) + 1
}

func (c Cut) describe(t *doctree.Tree) string {
	switch {
	case c == beginning(t):
		return "initial"
	case c == end(t):
		return "final"
	case c.Side == Before:
		return "before " + t.Node(c.Node).Loc.String()
	default:
		return "after " + t.Node(c.Node).Loc.String()
	}
}

// EndResolver derives the end cut of a range from its start.
type EndResolver interface {
	ResolveEnd(t *doctree.Tree, start Cut) (Cut, error)
}

// ExplicitEnd ends a range before a given location. The zero location
// means the end of the tree.
type ExplicitEnd struct {
	Loc doctree.Location
}

func (e ExplicitEnd) ResolveEnd(t *doctree.Tree, _ Cut) (Cut, error) {
	if e.Loc.IsZero() {
		return end(t), nil
	}
	id := t.Find(e.Loc)
	if id == doctree.NoNode {
		return Cut{}, &NotFoundError{Boundary: EndBoundary, Loc: e.Loc}
	}
	return Cut{Node: id, Side: Before}, nil
}

// NextDeckEnd ends a range before the first deck boundary following the
// start node, or at the end of the tree.
type NextDeckEnd struct{}

func (NextDeckEnd) ResolveEnd(t *doctree.Tree, start Cut) (Cut, error) {
	next := t.NextDeck(start.Node)
	if next == doctree.NoNode {
		return end(t), nil
	}
	return Cut{Node: next, Side: Before}, nil
}
