package doctree

// Find returns the first node in preorder whose location is loc, or NoNode.
func (t *Tree) Find(loc Location) NodeID {
	if t.index != nil {
		if id, ok := t.index[loc]; ok {
			return id
		}
		return NoNode
	}
	var find func(id NodeID) NodeID
	find = func(id NodeID) NodeID {
		if t.nodes[id].Loc == loc {
			return id
		}
		for _, c := range t.nodes[id].Children {
			if found := find(c); found != NoNode {
				return found
			}
		}
		return NoNode
	}
	if len(t.nodes) == 0 {
		return NoNode
	}
	return find(0)
}

// Successor returns the node after id in preorder: the first child, else
// the next sibling of the nearest ancestor-or-self that has one.
func (t *Tree) Successor(id NodeID) NodeID {
	n := &t.nodes[id]
	if len(n.Children) > 0 {
		return n.Children[0]
	}
	for cur := id; t.nodes[cur].Parent != NoNode; cur = t.nodes[cur].Parent {
		c := &t.nodes[cur]
		siblings := t.nodes[c.Parent].Children
		if c.Index+1 < len(siblings) {
			return siblings[c.Index+1]
		}
	}
	return NoNode
}

// Predecessor returns the node before id in preorder: the parent for a
// first child, otherwise the last descendant of the previous sibling.
func (t *Tree) Predecessor(id NodeID) NodeID {
	n := &t.nodes[id]
	if n.Parent == NoNode {
		return NoNode
	}
	if n.Index == 0 {
		return n.Parent
	}
	return t.LastDescendant(t.nodes[n.Parent].Children[n.Index-1])
}

// LastDescendant returns the last node of id's subtree in preorder.
func (t *Tree) LastDescendant(id NodeID) NodeID {
	for {
		children := t.nodes[id].Children
		if len(children) == 0 {
			return id
		}
		id = children[len(children)-1]
	}
}

// Ancestors returns the ancestors of id, nearest first.
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for p := t.nodes[id].Parent; p != NoNode; p = t.nodes[p].Parent {
		out = append(out, p)
	}
	return out
}

// IsAncestor reports whether a is a proper ancestor of id.
func (t *Tree) IsAncestor(a, id NodeID) bool {
	for p := t.nodes[id].Parent; p != NoNode; p = t.nodes[p].Parent {
		if p == a {
			return true
		}
	}
	return false
}

// Occurrence returns how many earlier siblings of id share its location.
func (t *Tree) Occurrence(id NodeID) int {
	n := &t.nodes[id]
	if n.Parent == NoNode {
		return 0
	}
	count := 0
	for _, s := range t.nodes[n.Parent].Children[:n.Index] {
		if t.nodes[s].Loc == n.Loc {
			count++
		}
	}
	return count
}

// Position returns the preorder position of id. Requires Fixup.
func (t *Tree) Position(id NodeID) int {
	return t.pos[id]
}

// Preorder returns all node ids in preorder. Requires Fixup.
func (t *Tree) Preorder() []NodeID {
	out := make([]NodeID, len(t.order))
	copy(out, t.order)
	return out
}

// NextDeck returns the first deck boundary strictly after id in preorder.
func (t *Tree) NextDeck(id NodeID) NodeID {
	for n := t.Successor(id); n != NoNode; n = t.Successor(n) {
		if t.nodes[n].DeckBoundary {
			return n
		}
	}
	return NoNode
}

// Decks returns every deck boundary in preorder. Requires Fixup.
func (t *Tree) Decks() []NodeID {
	var out []NodeID
	for _, id := range t.order {
		if t.nodes[id].DeckBoundary {
			out = append(out, id)
		}
	}
	return out
}
