package slides

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/dgallion1/slidegest/internal/markup"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// walker collects the slides of one extraction. Loose fragments wait in
// pending until the next slide takes them as preNotes, or until the
// container they belong to ends and hands them to its last slide.
type walker struct {
	ctx  context.Context
	x    *Extractor
	tree *doctree.Tree

	// stop is the node whose embedding element ends the range; NoNode
	// when the range runs to the end of the tree.
	stop doctree.NodeID
	done bool

	slides    []*draft
	pending   []fragment
	documents int
}

func newWalker(ctx context.Context, x *Extractor, stop Cut) *walker {
	w := &walker{ctx: ctx, x: x, tree: x.tree, stop: doctree.NoNode}
	if stop.Side == Before {
		w.stop = stop.Node
	}
	return w
}

// resume is where a scan of a document starts producing content.
type resume struct {
	node doctree.NodeID
	side Side
}

// scan is the state of walking one document.
type scan struct {
	loc      doctree.Location
	embeds   map[*html.Node]doctree.NodeID
	seeking  bool
	resume   resume
	resumeEl *html.Node
	stopEl   *html.Node
}

func (s *scan) elementOf(id doctree.NodeID) *html.Node {
	for el, n := range s.embeds {
		if n == id {
			return el
		}
	}
	return nil
}

// run scans the document holding the start cut, then climbs through the
// ancestors, scanning each one after the embedding of the previous, until
// the stop node is reached or the root is done.
func (w *walker) run(start Cut) error {
	root := w.tree.Root()
	if start.Node == root {
		if start.Side == After {
			return nil
		}
		return w.document(root, nil, nil)
	}

	ancestors := w.tree.Ancestors(start.Node)
	if err := w.document(ancestors[0], &resume{node: start.Node, side: start.Side}, nil); err != nil {
		return err
	}
	for i := 1; i < len(ancestors) && !w.done; i++ {
		if err := w.document(ancestors[i], &resume{node: ancestors[i-1], side: After}, nil); err != nil {
			return err
		}
	}
	return nil
}

// document walks the body of node id. With res set, nothing is produced
// until the embedding of res.node. A document walked from its beginning
// that holds no frame or expandable slide becomes a single text slide.
func (w *walker) document(id doctree.NodeID, res *resume, title *html.Node) error {
	node := w.tree.Node(id)
	doc, err := w.x.docs.Document(w.ctx, node.Loc)
	if err != nil {
		return fmt.Errorf("slides from %s: %w", node.Loc, err)
	}
	w.documents++

	body := markup.FindBody(doc)
	if body == nil {
		body = doc
	}
	s := &scan{loc: node.Loc, embeds: w.matchEmbeds(id, doc)}
	if res != nil {
		s.seeking = true
		s.resume = *res
		s.resumeEl = s.elementOf(res.node)
		if s.resumeEl == nil {
			w.x.log.Warn("embedding not found in document", "document", node.Loc.String(), "embeds", w.tree.Node(res.node).Loc.String())
		}
	}
	if w.stop != doctree.NoNode && w.tree.Node(w.stop).Parent == id {
		s.stopEl = s.elementOf(w.stop)
	}

	firstSlide, firstNote := len(w.slides), len(w.pending)
	if err := w.children(s, body); err != nil {
		return err
	}
	if w.done {
		return nil
	}
	if res == nil && !w.expandableSince(firstSlide) {
		return w.collapse(node.Loc, body, title, firstSlide, firstNote)
	}
	w.closeContainer(firstSlide)
	return nil
}

// matchEmbeds pairs the embedding elements of doc with the children of
// node id. The k-th element embedding a location is the k-th child with
// that location.
func (w *walker) matchEmbeds(id doctree.NodeID, doc *html.Node) map[*html.Node]doctree.NodeID {
	type key struct {
		loc doctree.Location
		occ int
	}
	byKey := make(map[key]doctree.NodeID)
	for _, c := range w.tree.Node(id).Children {
		byKey[key{w.tree.Node(c).Loc, w.tree.Occurrence(c)}] = c
	}

	out := make(map[*html.Node]doctree.NodeID, len(byKey))
	seen := make(map[doctree.Location]int)
	for _, el := range markup.Embeddings(doc) {
		loc, _ := markup.Embedded(el)
		k := key{loc, seen[loc]}
		seen[loc]++
		if child, ok := byKey[k]; ok {
			out[el] = child
		} else {
			w.x.log.Debug("embedding not in tree", "document", w.tree.Node(id).Loc.String(), "embeds", loc.String())
		}
	}
	return out
}

func (w *walker) children(s *scan, parent *html.Node) error {
	for c := parent.FirstChild; c != nil && !w.done; c = c.NextSibling {
		if err := w.visit(s, c); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) visit(s *scan, n *html.Node) error {
	switch n.Type {
	case html.TextNode:
		if s.seeking {
			return nil
		}
		out, err := markup.Render(n)
		if err != nil {
			return err
		}
		w.note(fragment{html: out, text: n.Data})
		return nil
	case html.ElementNode:
	default:
		return nil
	}

	if child, ok := s.embeds[n]; ok {
		return w.embedding(s, n, child)
	}
	if markup.IsFrame(n) {
		return w.frame(s, n)
	}
	return w.container(s, n)
}

func (w *walker) embedding(s *scan, el *html.Node, child doctree.NodeID) error {
	if child == w.stop {
		w.done = true
		return nil
	}
	if s.seeking {
		if child != s.resume.node {
			return nil
		}
		s.seeking = false
		if s.resume.side == After {
			return nil
		}
	}
	return w.document(child, nil, el)
}

// frame emits el as a frame slide. Frames are not descended into; a frame
// holding the start embedding counts as content of that embedding, and a
// frame holding the stop node, directly or through an embedded ancestor of
// it, is left out.
func (w *walker) frame(s *scan, el *html.Node) error {
	if s.seeking {
		if s.resumeEl == nil || !contains(el, s.resumeEl) {
			return nil
		}
		s.seeking = false
		if s.resume.side == After {
			// The whole frame was shown with the start document, including
			// anything after the start embedding.
			return nil
		}
	}
	if w.reachesStop(s, el) {
		w.done = true
		return nil
	}
	content, err := markup.Render(el)
	if err != nil {
		return err
	}
	w.add(&draft{Slide: Slide{
		Content: content,
		Kind:    Frame,
		Archive: s.loc.Archive,
		Path:    s.loc.Path,
	}})
	return nil
}

// reachesStop reports whether el embeds the stop node or one of its
// ancestors.
func (w *walker) reachesStop(s *scan, el *html.Node) bool {
	if w.stop == doctree.NoNode {
		return false
	}
	for e, child := range s.embeds {
		if (child == w.stop || w.tree.IsAncestor(child, w.stop)) && contains(el, e) {
			return true
		}
	}
	return false
}

// container walks an ordinary element. One lying wholly inside the range
// that yields no slide becomes a single fragment.
func (w *walker) container(s *scan, el *html.Node) error {
	if s.seeking && (s.resumeEl == nil || !contains(el, s.resumeEl)) {
		return nil
	}
	whole := !s.seeking && (s.stopEl == nil || !contains(el, s.stopEl))

	firstSlide, firstNote := len(w.slides), len(w.pending)
	if err := w.children(s, el); err != nil {
		return err
	}
	if w.done {
		return nil
	}
	if whole && len(w.slides) == firstSlide {
		out, err := markup.Render(el)
		if err != nil {
			return err
		}
		w.pending = append(w.pending[:firstNote], fragment{html: out, text: markup.VisibleText(el)})
		return nil
	}
	w.closeContainer(firstSlide)
	return nil
}

// collapse replaces everything the document produced with one text slide
// made from its body. Fragments pending before the document started stay
// pending and become the slide's preNotes.
func (w *walker) collapse(loc doctree.Location, body, title *html.Node, firstSlide, firstNote int) error {
	var carried []fragment
	if len(w.slides) > firstSlide {
		carried = w.slides[firstSlide].pre[:firstNote]
	} else {
		carried = w.pending[:firstNote]
	}
	w.slides = w.slides[:firstSlide]
	w.pending = append([]fragment(nil), carried...)

	body.Data = "div"
	body.DataAtom = atom.Div
	markup.SetAttr(body, "style", "display: block;")
	markup.SetAttr(body, "class", "text-frame")
	content, err := markup.Render(body)
	if err != nil {
		return err
	}

	autoExpand := false
	if title != nil {
		text := markup.TextContent(title)
		autoExpand = text == "" || strings.HasPrefix(text, "http")
	}
	w.add(&draft{Slide: Slide{
		Content:    content,
		Kind:       Text,
		AutoExpand: autoExpand,
		Archive:    loc.Archive,
		Path:       loc.Path,
	}})
	return nil
}

func (w *walker) expandableSince(first int) bool {
	for _, d := range w.slides[first:] {
		if d.expandable() {
			return true
		}
	}
	return false
}

// closeContainer hands pending fragments to the last slide if the
// container that just ended produced any.
func (w *walker) closeContainer(firstSlide int) {
	if len(w.slides) == firstSlide || len(w.pending) == 0 {
		return
	}
	last := w.slides[len(w.slides)-1]
	last.post = append(last.post, w.pending...)
	w.pending = nil
}

func (w *walker) note(f fragment) {
	w.pending = append(w.pending, f)
}

func (w *walker) add(d *draft) {
	d.pre = w.pending
	w.pending = nil
	w.slides = append(w.slides, d)
}

// finish attaches leftover fragments to the last slide and trims notes.
func (w *walker) finish() []Slide {
	if len(w.slides) > 0 {
		w.closeContainer(0)
	}
	out := make([]Slide, 0, len(w.slides))
	for _, d := range w.slides {
		out = append(out, d.finish(w.x.Whitespace))
	}
	return out
}

func contains(ancestor, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}
