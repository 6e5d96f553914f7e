package slides

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/dgallion1/slidegest/internal/markup"
	"github.com/dgallion1/slidegest/internal/treebuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type pages map[string]string

func (p pages) Document(_ context.Context, loc doctree.Location) (*html.Node, error) {
	raw, ok := p[loc.Path]
	if !ok {
		return nil, fmt.Errorf("no document %s", loc)
	}
	return markup.Parse(raw, loc.Path)
}

func loc(path string) doctree.Location {
	return doctree.Location{Archive: "A", Path: path}
}

func embed(path, title string) string {
	return fmt.Sprintf(`<span data-inputref-url="/:sTeX/document?archive=A&amp;filepath=%s">%s</span>`, path, title)
}

func frame(text string) string {
	return `<div property="stex:frame">` + text + `</div>`
}

func body(inner string) string {
	return "<html><head></head><body>" + inner + "</body></html>"
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExtractor(t *testing.T, p pages, decks ...string) *Extractor {
	t.Helper()
	tree, err := treebuild.NewBuilder(p, quiet(), 2).Build(context.Background(), loc("root"))
	require.NoError(t, err)
	var deckLocs []doctree.Location
	for _, d := range decks {
		deckLocs = append(deckLocs, loc(d))
	}
	tree.Fixup(deckLocs)
	return NewExtractor(tree, p, quiet())
}

func contents(list []Slide) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.Content)
	}
	return out
}

// flatten lists every fragment of list in reading order.
func flatten(list []Slide) []string {
	var out []string
	for _, s := range list {
		out = append(out, s.PreNotes...)
		out = append(out, s.Content)
		out = append(out, s.PostNotes...)
	}
	return out
}

func twoChildCourse() pages {
	return pages{
		"root": body(embed("a", "A") + embed("b", "B")),
		"a":    body("Hello"),
		"b":    body(frame("F1")),
	}
}

func TestRangeFromBeginning(t *testing.T) {
	x := newExtractor(t, twoChildCourse())

	got, err := x.Range(context.Background(), doctree.Location{}, doctree.Location{})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, Slide{
		Content:   `<div style="display: block;" class="text-frame">Hello</div>`,
		Kind:      Text,
		PreNotes:  []string{},
		PostNotes: []string{},
		Archive:   "A",
		Path:      "a",
	}, got[0])
	assert.Equal(t, Slide{
		Content:   frame("F1"),
		Kind:      Frame,
		PreNotes:  []string{},
		PostNotes: []string{},
		Archive:   "A",
		Path:      "b",
	}, got[1])
}

func TestRangeStartIsExclusive(t *testing.T) {
	x := newExtractor(t, twoChildCourse())

	got, err := x.Range(context.Background(), loc("a"), doctree.Location{})
	require.NoError(t, err)
	assert.Equal(t, []string{frame("F1")}, contents(got))
}

func TestRangeEndIsExclusive(t *testing.T) {
	x := newExtractor(t, twoChildCourse())

	got, err := x.Range(context.Background(), doctree.Location{}, loc("b"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Text, got[0].Kind)
	assert.Equal(t, "a", got[0].Path)
}

func TestRangeEmptyBetweenNeighbours(t *testing.T) {
	x := newExtractor(t, twoChildCourse())

	got, err := x.Range(context.Background(), loc("a"), loc("b"))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNotesAttachToAdjacentSlides(t *testing.T) {
	p := pages{
		"root": body(embed("b", "B")),
		"b":    body("<p>intro</p>" + frame("F1") + "<p>middle</p>" + frame("F2") + "<p>outro</p>"),
	}
	x := newExtractor(t, p)

	got, err := x.Range(context.Background(), doctree.Location{}, doctree.Location{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"<p>intro</p>"}, got[0].PreNotes)
	assert.Empty(t, got[0].PostNotes)
	assert.Equal(t, []string{"<p>middle</p>"}, got[1].PreNotes)
	assert.Equal(t, []string{"<p>outro</p>"}, got[1].PostNotes)
}

func TestNotesAreTrimmed(t *testing.T) {
	p := pages{
		"root": body(embed("b", "B")),
		"b": body("\n  <p>\u200b</p>" + "<p>one</p>\n<p>\u00a0</p><p>two</p>  " + frame("F1") +
			"\n<p>\ufeff</p>"),
	}
	x := newExtractor(t, p)

	got, err := x.Range(context.Background(), doctree.Location{}, doctree.Location{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"<p>one</p>", "\n", "<p>\u00a0</p>", "<p>two</p>"}, got[0].PreNotes)
	assert.Empty(t, got[0].PostNotes)
}

func TestContainerWithoutSlidesIsOneFragment(t *testing.T) {
	p := pages{
		"root": body(embed("b", "B")),
		"b":    body(`<section><h2>Title</h2><p>x</p></section>` + frame("F1")),
	}
	x := newExtractor(t, p)

	got, err := x.Range(context.Background(), doctree.Location{}, doctree.Location{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{`<section><h2>Title</h2><p>x</p></section>`}, got[0].PreNotes)
}

func TestContainerHandsTrailingNotesToItsLastSlide(t *testing.T) {
	p := pages{
		"root": body(embed("b", "B")),
		"b":    body(`<section>` + frame("F1") + `<p>after</p></section>` + frame("F2")),
	}
	x := newExtractor(t, p)

	got, err := x.Range(context.Background(), doctree.Location{}, doctree.Location{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"<p>after</p>"}, got[0].PostNotes)
	assert.Empty(t, got[1].PreNotes)
}

func TestDocumentWithoutFramesIsOneTextSlide(t *testing.T) {
	p := pages{"root": body("<p>just</p><p>text</p>")}
	x := newExtractor(t, p)

	got, err := x.Range(context.Background(), doctree.Location{}, doctree.Location{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Text, got[0].Kind)
	assert.Equal(t, `<div style="display: block;" class="text-frame"><p>just</p><p>text</p></div>`, got[0].Content)
	assert.Empty(t, got[0].PreNotes)
	assert.Empty(t, got[0].PostNotes)
}

func TestCollapseAbsorbsAutoExpandChildren(t *testing.T) {
	p := pages{
		"root": body(embed("p", "Part") + embed("f", "F")),
		"p":    body("<p>lead</p>" + embed("q1", "") + embed("q2", "https://example.org")),
		"q1":   body("one"),
		"q2":   body("two"),
		"f":    body(frame("F1")),
	}
	x := newExtractor(t, p)

	got, err := x.Range(context.Background(), doctree.Location{}, doctree.Location{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Text, got[0].Kind)
	assert.Equal(t, "p", got[0].Path)
	assert.False(t, got[0].AutoExpand)
	assert.Contains(t, got[0].Content, "<p>lead</p>")
	assert.Equal(t, frame("F1"), got[1].Content)
}

func TestAutoExpandFollowsTitle(t *testing.T) {
	p := pages{
		"root": body(embed("q1", "") + embed("q2", "https://example.org") + embed("q3", "Named") + frame("F")),
		"q1":   body("one"),
		"q2":   body("two"),
		"q3":   body("three"),
	}
	x := newExtractor(t, p)

	got, err := x.Range(context.Background(), doctree.Location{}, doctree.Location{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, got[0].AutoExpand)
	assert.True(t, got[1].AutoExpand)
	assert.False(t, got[2].AutoExpand)
	assert.Equal(t, Frame, got[3].Kind)
}

func nestedCourse() pages {
	return pages{
		"root": body(embed("ch", "Chapter") + frame("R1")),
		"ch":   body(embed("s1", "One") + "<p>gap</p>" + embed("s2", "Two")),
		"s1":   body(frame("S1a") + frame("S1b")),
		"s2":   body(frame("S2a")),
	}
}

func TestRangeClimbsThroughAncestors(t *testing.T) {
	x := newExtractor(t, nestedCourse())

	got, err := x.Range(context.Background(), loc("s1"), doctree.Location{})
	require.NoError(t, err)
	assert.Equal(t, []string{frame("S2a"), frame("R1")}, contents(got))
	assert.Equal(t, []string{"<p>gap</p>"}, got[0].PreNotes)
}

func TestRangeStopsInsideNestedDocument(t *testing.T) {
	x := newExtractor(t, nestedCourse())

	got, err := x.Range(context.Background(), doctree.Location{}, loc("s2"))
	require.NoError(t, err)
	assert.Equal(t, []string{frame("S1a"), frame("S1b")}, contents(got))
	assert.Equal(t, []string{"<p>gap</p>"}, got[1].PostNotes)
}

func TestRangeAfterWholeChapter(t *testing.T) {
	x := newExtractor(t, nestedCourse())

	got, err := x.Range(context.Background(), loc("ch"), doctree.Location{})
	require.NoError(t, err)
	assert.Equal(t, []string{frame("R1")}, contents(got))
}

func TestRangeErrors(t *testing.T) {
	x := newExtractor(t, nestedCourse())
	ctx := context.Background()

	_, err := x.Range(ctx, loc("missing"), doctree.Location{})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, StartBoundary, nf.Boundary)
	assert.Equal(t, loc("missing"), nf.Loc)

	_, err = x.Range(ctx, doctree.Location{}, loc("missing"))
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, EndBoundary, nf.Boundary)

	_, err = x.Deck(ctx, loc("missing"))
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, DeckBoundary, nf.Boundary)

	var malformed *MalformedRangeError
	_, err = x.Range(ctx, loc("s2"), loc("s1"))
	require.ErrorAs(t, err, &malformed)

	_, err = x.Range(ctx, loc("ch"), loc("s1"))
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, err.Error(), "after A||ch")
}

func TestFetchFailureDiscardsResult(t *testing.T) {
	p := nestedCourse()
	x := newExtractor(t, p)
	delete(p, "s2")

	got, err := x.Range(context.Background(), doctree.Location{}, doctree.Location{})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "A||s2")
}

func deckCourse() pages {
	return pages{
		"root": body(embed("d1", "Deck one") + embed("mid", "Middle") + "<p>between</p>" + embed("d2", "Deck two")),
		"d1":   body("<p>a</p>" + frame("D1a") + "<p>b</p>" + frame("D1b")),
		"mid":  body("<p>middle text</p>"),
		"d2":   body(frame("D2a") + "<p>tail</p>"),
	}
}

func TestDeckRunsToNextDeck(t *testing.T) {
	x := newExtractor(t, deckCourse(), "d1", "d2")
	ctx := context.Background()

	got, err := x.Deck(ctx, loc("d1"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{frame("D1a"), frame("D1b")}, contents(got[:2]))
	assert.Equal(t, Text, got[2].Kind)
	assert.Equal(t, "mid", got[2].Path)
	assert.Equal(t, []string{"<p>between</p>"}, got[2].PostNotes)

	got, err = x.Deck(ctx, loc("d2"))
	require.NoError(t, err)
	assert.Equal(t, []string{frame("D2a")}, contents(got))
	assert.Equal(t, []string{"<p>tail</p>"}, got[0].PostNotes)
}

func TestConsecutiveDecksPartitionTheCourse(t *testing.T) {
	x := newExtractor(t, deckCourse(), "d1", "d2")
	ctx := context.Background()

	full, err := x.Range(ctx, doctree.Location{}, doctree.Location{})
	require.NoError(t, err)

	var pieces []string
	for _, deck := range []doctree.Location{{}, loc("d1"), loc("d2")} {
		got, err := x.Deck(ctx, deck)
		require.NoError(t, err)
		pieces = append(pieces, flatten(got)...)
	}
	assert.Equal(t, flatten(full), pieces)
}

func TestExtractionIsIdempotent(t *testing.T) {
	x := newExtractor(t, deckCourse(), "d1", "d2")
	ctx := context.Background()

	first, err := x.Deck(ctx, loc("d1"))
	require.NoError(t, err)
	second, err := x.Deck(ctx, loc("d1"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConcurrentRequestsAgree(t *testing.T) {
	x := newExtractor(t, nestedCourse())
	want, err := x.Range(context.Background(), loc("s1"), doctree.Location{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]Slide, 16)
	errs := make([]error, 16)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = x.Range(context.Background(), loc("s1"), doctree.Location{})
		}()
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}

func TestFramesAroundBoundaryEmbeddings(t *testing.T) {
	p := pages{
		"root": body(`<div property="stex:frame">` + embed("x", "X") + `</div>` + frame("F2")),
		"x":    body("inside"),
	}
	x := newExtractor(t, p)
	ctx := context.Background()

	got, err := x.Range(ctx, loc("x"), doctree.Location{})
	require.NoError(t, err)
	assert.Equal(t, []string{frame("F2")}, contents(got))

	got, err = x.Range(ctx, doctree.Location{}, loc("x"))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = x.Deck(ctx, loc("x"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Frame, got[0].Kind)
	assert.Contains(t, got[0].Content, "data-inputref-url")
}

func TestFrameEmbeddingAncestorOfNextDeckEndsRange(t *testing.T) {
	p := pages{
		"root":  body(`<div property="stex:frame">F0 ` + embed("c", "C") + `</div>` + embed("after", "After")),
		"c":     body(frame("C1") + embed("d", "D")),
		"d":     body(frame("D1")),
		"after": body(frame("AFTER")),
	}
	x := newExtractor(t, p, "d")
	ctx := context.Background()

	first, err := x.Deck(ctx, doctree.Location{})
	require.NoError(t, err)
	assert.Empty(t, first)

	second, err := x.Deck(ctx, loc("d"))
	require.NoError(t, err)
	assert.Equal(t, []string{frame("D1"), frame("AFTER")}, contents(second))

	got, err := x.Range(ctx, doctree.Location{}, loc("d"))
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, s := range flatten(first) {
		assert.NotContains(t, flatten(second), s)
	}
}

func TestBetweenRejectsUnknownNodes(t *testing.T) {
	x := newExtractor(t, nestedCourse())

	_, err := x.Between(context.Background(), Cut{Node: doctree.NodeID(x.Tree().Len()), Side: Before}, NextDeckEnd{})
	assert.ErrorContains(t, err, "start cut")

	_, err = x.Between(context.Background(), Cut{Node: x.Tree().Root(), Side: Before}, badEnd{})
	assert.ErrorContains(t, err, "end cut")
}

type badEnd struct{}

func (badEnd) ResolveEnd(*doctree.Tree, Cut) (Cut, error) {
	return Cut{Node: doctree.NoNode, Side: Before}, nil
}

func TestRepeatedEmbeddingUsesFirstOccurrence(t *testing.T) {
	p := pages{
		"root":   body(embed("shared", "S") + frame("Mid") + embed("shared", "S")),
		"shared": body(frame("Shared")),
	}
	x := newExtractor(t, p)

	got, err := x.Range(context.Background(), loc("shared"), doctree.Location{})
	require.NoError(t, err)
	assert.Equal(t, []string{frame("Mid"), frame("Shared")}, contents(got))
}

func TestBetweenWithCustomResolver(t *testing.T) {
	x := newExtractor(t, nestedCourse(), "s2")
	tree := x.Tree()

	got, err := x.Between(context.Background(), Cut{Node: tree.Find(loc("s1")), Side: Before}, NextDeckEnd{})
	require.NoError(t, err)
	assert.Equal(t, []string{frame("S1a"), frame("S1b")}, contents(got))
}

func TestFetchErrorIsWrapped(t *testing.T) {
	sentinel := errors.New("upstream down")
	x := newExtractor(t, nestedCourse())
	x.docs = failing{err: sentinel}

	_, err := x.Range(context.Background(), doctree.Location{}, doctree.Location{})
	assert.ErrorIs(t, err, sentinel)
}

type failing struct{ err error }

func (f failing) Document(context.Context, doctree.Location) (*html.Node, error) {
	return nil, f.err
}

func TestSlideLocation(t *testing.T) {
	s := Slide{Archive: "A", Path: "p"}
	assert.Equal(t, loc("p"), s.Location())
	assert.True(t, slices.Equal([]string{}, clone([]Slide{{PreNotes: []string{}}})[0].PreNotes))
}
