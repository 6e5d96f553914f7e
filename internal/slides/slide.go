// Package slides extracts the ordered slides lying between two positions of
// a course tree.
package slides

import (
	"slices"

	"github.com/dgallion1/slidegest/internal/doctree"
)

// Kind distinguishes explicit frames from whole-document text slides.
type Kind string

const (
	Frame Kind = "FRAME"
	Text  Kind = "TEXT"
)

// Slide is one presentation unit with the loose content around it.
type Slide struct {
	Content    string   `json:"slideContent"`
	Kind       Kind     `json:"slideType"`
	AutoExpand bool     `json:"autoExpand"`
	PreNotes   []string `json:"preNotes"`
	PostNotes  []string `json:"postNotes"`
	Archive    string   `json:"archive"`
	Path       string   `json:"filepath"`
}

// Location returns the document the slide was taken from.
func (s Slide) Location() doctree.Location {
	return doctree.Location{Archive: s.Archive, Path: s.Path}
}

// expandable reports whether s keeps its enclosing document from being
// collapsed into a single text slide.
func (s *Slide) expandable() bool {
	return s.Kind == Frame || !s.AutoExpand
}

// fragment is a piece of loose content: its markup and visible text.
type fragment struct {
	html string
	text string
}

// draft is a slide under construction.
type draft struct {
	Slide
	pre  []fragment
	post []fragment
}

func (d *draft) finish(policy WhitespacePolicy) Slide {
	s := d.Slide
	s.PreNotes = policy.Trim(d.pre)
	s.PostNotes = policy.Trim(d.post)
	return s
}

// clone returns a copy of list that shares no slices with it.
func clone(list []Slide) []Slide {
	out := slices.Clone(list)
	for i := range out {
		out[i].PreNotes = slices.Clone(out[i].PreNotes)
		out[i].PostNotes = slices.Clone(out[i].PostNotes)
	}
	return out
}
