package doctree

import (
	"fmt"
	"strings"
)

// Location identifies one document on the content service.
type Location struct {
	Archive string
	Path    string
}

// locationSep separates archive and path in the string form of a Location.
const locationSep = "||"

func (l Location) String() string {
	return l.Archive + locationSep + l.Path
}

// IsZero reports whether l is the zero Location.
func (l Location) IsZero() bool {
	return l.Archive == "" && l.Path == ""
}

// ParseLocation parses the "archive||path" form produced by Location.String.
func ParseLocation(s string) (Location, error) {
	parts := strings.Split(s, locationSep)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Location{}, fmt.Errorf("invalid location %q: want archive||path", s)
	}
	return Location{Archive: parts[0], Path: parts[1]}, nil
}

// NodeID addresses a node inside a Tree.
type NodeID int

// NoNode is returned where a navigation step has no result.
const NoNode NodeID = -1

// Node is one document in the course tree.
type Node struct {
	Loc          Location
	Title        string // markup of the element that embedded this document
	Level        int    // depth, root is 0
	Parent       NodeID
	Index        int // position among the parent's children
	Children     []NodeID
	DeckBoundary bool
}

// Tree is an arena of nodes connected by embedding. Node 0 is the root.
// A tree must be fixed up before it is shared between goroutines.
type Tree struct {
	nodes []Node
	order []NodeID
	pos   []int
	index map[Location]NodeID
}

// New returns a tree holding only a root node.
func New(root Location, title string) *Tree {
	t := &Tree{}
	t.nodes = append(t.nodes, Node{
		Loc:    root,
		Title:  title,
		Parent: NoNode,
	})
	return t
}

// Root returns the root node id.
func (t *Tree) Root() NodeID {
	if len(t.nodes) == 0 {
		return NoNode
	}
	return 0
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the node for id. It panics if id is out of range.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Valid reports whether id addresses a node of t.
func (t *Tree) Valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// AddChild appends a new last child under parent and returns its id.
func (t *Tree) AddChild(parent NodeID, loc Location, title string) NodeID {
	id := NodeID(len(t.nodes))
	p := &t.nodes[parent]
	t.nodes = append(t.nodes, Node{
		Loc:    loc,
		Title:  title,
		Level:  p.Level + 1,
		Parent: parent,
		Index:  len(p.Children),
	})
	// p may point into the old backing array after append.
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id
}

// Fixup re-derives parent back-references, sibling indexes and levels from
// the child lists, numbers the nodes in preorder, indexes the first
// occurrence of every location and flags nodes whose location is a deck.
func (t *Tree) Fixup(decks []Location) {
	isDeck := make(map[Location]bool, len(decks))
	for _, d := range decks {
		isDeck[d] = true
	}

	t.order = t.order[:0]
	t.pos = make([]int, len(t.nodes))
	t.index = make(map[Location]NodeID, len(t.nodes))
	if len(t.nodes) == 0 {
		return
	}

	t.nodes[0].Parent = NoNode
	t.nodes[0].Index = 0
	t.nodes[0].Level = 0

	var walk func(id NodeID)
	walk = func(id NodeID) {
		n := &t.nodes[id]
		n.DeckBoundary = isDeck[n.Loc]
		t.pos[id] = len(t.order)
		t.order = append(t.order, id)
		if _, seen := t.index[n.Loc]; !seen {
			t.index[n.Loc] = id
		}
		for i, c := range n.Children {
			child := &t.nodes[c]
			child.Parent = id
			child.Index = i
			child.Level = n.Level + 1
			walk(c)
		}
	}
	walk(0)
}
