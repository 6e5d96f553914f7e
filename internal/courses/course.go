package courses

import (
	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/dgallion1/slidegest/internal/markup"
	"github.com/dgallion1/slidegest/internal/slides"
)

// Course is a loaded course: its tree, the tree's content version and the
// extractor walking it.
type Course struct {
	ID        string
	Title     string
	Root      doctree.Location
	Version   string
	Source    string // tree file the course was loaded from, empty if built live
	Tree      *doctree.Tree
	Extractor *slides.Extractor
}

// Deck is one deck boundary of a course.
type Deck struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Level int    `json:"level"`
}

// Decks lists the deck boundaries in reading order.
func (c *Course) Decks() []Deck {
	ids := c.Tree.Decks()
	out := make([]Deck, 0, len(ids))
	for _, id := range ids {
		n := c.Tree.Node(id)
		out = append(out, Deck{
			ID:    n.Loc.String(),
			Title: markup.TitleText(c.titleFrom(id)),
			Level: n.Level,
		})
	}
	return out
}

// DeckTitle returns the title markup for a deck: the first title with
// visible text at or after the deck in reading order. The zero location
// starts at the root. ok is false when loc is not in the tree.
func (c *Course) DeckTitle(loc doctree.Location) (title string, ok bool) {
	id := c.Tree.Root()
	if !loc.IsZero() {
		id = c.Tree.Find(loc)
		if id == doctree.NoNode {
			return "", false
		}
	}
	return c.titleFrom(id), true
}

func (c *Course) titleFrom(id doctree.NodeID) string {
	for n := id; n != doctree.NoNode; n = c.Tree.Successor(n) {
		title := c.Tree.Node(n).Title
		if title != "" && markup.TitleText(title) != "" {
			return title
		}
	}
	return ""
}
