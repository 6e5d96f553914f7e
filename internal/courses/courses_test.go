package courses

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/dgallion1/slidegest/internal/markup"
	"github.com/dgallion1/slidegest/internal/treebuild"
	"github.com/dgallion1/slidegest/internal/treefile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const coursesYAML = `courses:
  - id: ai-1
    title: Artificial Intelligence I
    root: "MiKoMH/AI||course/notes/notes.xhtml"
    decks:
      - "MiKoMH/AI||course/sec/intro.en.xhtml"
      - "MiKoMH/AI||course/sec/search.en.xhtml"
  - id: iwgs
    root: "MiKoMH/IWGS||course/notes/notes.xhtml"
    tree: iwgs-custom.tree
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ai(p string) doctree.Location {
	return doctree.Location{Archive: "MiKoMH/AI", Path: p}
}

func TestLoadDefinitions(t *testing.T) {
	path := writeFile(t, t.TempDir(), "courses.yaml", coursesYAML)

	defs, err := LoadDefinitions(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "ai-1", defs[0].ID)
	assert.Equal(t, "Artificial Intelligence I", defs[0].Title)
	assert.Equal(t, ai("course/notes/notes.xhtml"), defs[0].RootLocation())
	assert.Equal(t, []doctree.Location{ai("course/sec/intro.en.xhtml"), ai("course/sec/search.en.xhtml")}, defs[0].DeckLocations())
	assert.Equal(t, "iwgs-custom.tree", defs[1].Tree)
}

func TestLoadDefinitionsRejectsInvalidFiles(t *testing.T) {
	cases := map[string]string{
		"no courses":   "courses: []\n",
		"bad root":     "courses:\n  - id: x\n    root: not-a-location\n",
		"bad deck":     "courses:\n  - id: x\n    root: \"a||b\"\n    decks: [\"a||\"]\n",
		"bad id":       "courses:\n  - id: \"a/b\"\n    root: \"a||b\"\n",
		"duplicate id": "courses:\n  - id: x\n    root: \"a||b\"\n  - id: x\n    root: \"a||c\"\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "courses.yaml", content)
			_, err := LoadDefinitions(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadDefinitions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func savedTree(t *testing.T, dir, name string) {
	t.Helper()
	tree := doctree.New(ai("course/notes/notes.xhtml"), "")
	intro := tree.AddChild(tree.Root(), ai("course/sec/intro.en.xhtml"), `<span><img src="i.png"/></span>`)
	tree.AddChild(intro, ai("course/sec/goals.en.xhtml"), `<span>Goals</span>`)
	tree.AddChild(tree.Root(), ai("course/sec/search.en.xhtml"), `<span>Search</span>`)
	tree.Fixup(nil)
	require.NoError(t, treefile.Save(filepath.Join(dir, name), tree))
}

func aiDefinition() Definition {
	return Definition{
		ID:    "ai-1",
		Root:  "MiKoMH/AI||course/notes/notes.xhtml",
		Decks: []string{"MiKoMH/AI||course/sec/intro.en.xhtml", "MiKoMH/AI||course/sec/search.en.xhtml", "MiKoMH/AI||gone.xhtml"},
	}
}

func TestLoaderReadsTreeFile(t *testing.T) {
	dir := t.TempDir()
	savedTree(t, dir, "ai-1.tree.xz")

	l := &Loader{TreeDir: dir, Log: quiet()}
	c, err := l.Load(context.Background(), aiDefinition())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "ai-1.tree.xz"), c.Source)
	assert.Equal(t, 4, c.Tree.Len())
	assert.Len(t, c.Version, 32)
	assert.NotNil(t, c.Extractor)

	decks := c.Decks()
	require.Len(t, decks, 2)
	assert.Equal(t, Deck{ID: "MiKoMH/AI||course/sec/intro.en.xhtml", Title: "Goals", Level: 1}, decks[0])
	assert.Equal(t, "Search", decks[1].Title)
}

func TestDeckTitle(t *testing.T) {
	dir := t.TempDir()
	savedTree(t, dir, "ai-1.tree")
	c, err := (&Loader{TreeDir: dir, Log: quiet()}).Load(context.Background(), aiDefinition())
	require.NoError(t, err)

	title, ok := c.DeckTitle(ai("course/sec/intro.en.xhtml"))
	require.True(t, ok)
	assert.Equal(t, `<span>Goals</span>`, title)

	title, ok = c.DeckTitle(doctree.Location{})
	require.True(t, ok)
	assert.Equal(t, `<span>Goals</span>`, title)

	_, ok = c.DeckTitle(ai("nope"))
	assert.False(t, ok)
}

func TestLoaderRequiresExplicitTreeFile(t *testing.T) {
	def := aiDefinition()
	def.Tree = "custom.tree"
	_, err := (&Loader{TreeDir: t.TempDir(), Log: quiet()}).Load(context.Background(), def)
	assert.Error(t, err)
}

func TestLoaderWithoutTreeOrBuilderFails(t *testing.T) {
	_, err := (&Loader{TreeDir: t.TempDir(), Log: quiet()}).Load(context.Background(), aiDefinition())
	assert.ErrorContains(t, err, "live builds are disabled")
}

type fakeDocs map[string]string

func (f fakeDocs) Document(_ context.Context, loc doctree.Location) (*html.Node, error) {
	raw, ok := f[loc.Path]
	if !ok {
		return nil, fmt.Errorf("no document %s", loc)
	}
	return markup.Parse(raw, loc.Path)
}

func TestLoadAllBuildsLive(t *testing.T) {
	docs := fakeDocs{
		"course/notes/notes.xhtml":  `<body><span data-inputref-url="/:sTeX/document?archive=MiKoMH/AI&amp;filepath=course/sec/intro.en.xhtml">Intro</span></body>`,
		"course/sec/intro.en.xhtml": `<body><div property="stex:frame">Hi</div></body>`,
	}
	l := &Loader{
		Docs:    docs,
		Builder: treebuild.NewBuilder(docs, quiet(), 2),
		TreeDir: t.TempDir(),
		Log:     quiet(),
	}

	reg, err := l.LoadAll(context.Background(), []Definition{aiDefinition()})
	require.NoError(t, err)

	c, ok := reg.Get("ai-1")
	require.True(t, ok)
	assert.Empty(t, c.Source)
	assert.Equal(t, 2, c.Tree.Len())
	assert.True(t, c.Tree.Node(c.Tree.Find(ai("course/sec/intro.en.xhtml"))).DeckBoundary)

	got, err := c.Extractor.Deck(context.Background(), ai("course/sec/intro.en.xhtml"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, `<div property="stex:frame">Hi</div>`, got[0].Content)

	_, ok = reg.Get("other")
	assert.False(t, ok)
	assert.Len(t, reg.List(), 1)
}

func TestRegistryListIsSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Put(&Course{ID: "lbs"})
	reg.Put(&Course{ID: "ai-1"})
	reg.Put(&Course{ID: "iwgs"})

	var ids []string
	for _, c := range reg.List() {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"ai-1", "iwgs", "lbs"}, ids)
}
