package courses

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/dgallion1/slidegest/internal/slides"
	"github.com/dgallion1/slidegest/internal/treebuild"
	"github.com/dgallion1/slidegest/internal/treefile"
	"golang.org/x/sync/errgroup"
)

// Registry holds the loaded courses. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	courses map[string]*Course
}

func NewRegistry() *Registry {
	return &Registry{courses: make(map[string]*Course)}
}

// Put adds or replaces a course.
func (r *Registry) Put(c *Course) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[c.ID] = c
}

func (r *Registry) Get(id string) (*Course, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.courses[id]
	return c, ok
}

// List returns all courses ordered by id.
func (r *Registry) List() []*Course {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Course, 0, len(r.courses))
	for _, c := range r.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Loader turns definitions into courses, reading precomputed tree files
// when present and building trees live otherwise.
type Loader struct {
	Docs    slides.Documents
	Builder *treebuild.Builder // nil disables live builds
	TreeDir string
	Log     *slog.Logger
}

// Load loads one course.
func (l *Loader) Load(ctx context.Context, def Definition) (*Course, error) {
	log := l.Log.With("course", def.ID)
	root := def.RootLocation()

	tree, source, err := l.tree(ctx, def, root)
	if err != nil {
		return nil, fmt.Errorf("course %s: %w", def.ID, err)
	}
	if got := tree.Node(tree.Root()).Loc; got != root {
		log.Warn("tree root differs from course root", "tree_root", got.String(), "course_root", root.String())
	}

	decks := def.DeckLocations()
	tree.Fixup(decks)
	for _, d := range decks {
		if tree.Find(d) == doctree.NoNode {
			log.Warn("deck not in tree", "deck", d.String())
		}
	}

	version, err := treefile.Version(tree)
	if err != nil {
		return nil, fmt.Errorf("course %s: version: %w", def.ID, err)
	}

	c := &Course{
		ID:        def.ID,
		Title:     def.Title,
		Root:      root,
		Version:   version,
		Source:    source,
		Tree:      tree,
		Extractor: slides.NewExtractor(tree, l.Docs, log),
	}
	log.Info("course loaded", "nodes", tree.Len(), "decks", len(tree.Decks()), "version", c.Version, "source", source)
	return c, nil
}

func (l *Loader) tree(ctx context.Context, def Definition, root doctree.Location) (*doctree.Tree, string, error) {
	path, err := l.treePath(def)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		tree, err := treefile.Load(path)
		if err != nil {
			return nil, "", err
		}
		return tree, path, nil
	}
	if l.Builder == nil {
		return nil, "", fmt.Errorf("no tree file in %s and live builds are disabled", l.TreeDir)
	}
	tree, err := l.Builder.Build(ctx, root)
	if err != nil {
		return nil, "", err
	}
	return tree, "", nil
}

// treePath returns the tree file for def, or "" if there is none. An
// explicitly configured file must exist.
func (l *Loader) treePath(def Definition) (string, error) {
	if def.Tree != "" {
		path := def.Tree
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.TreeDir, path)
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("tree file: %w", err)
		}
		return path, nil
	}
	for _, compressed := range []bool{true, false} {
		path := treefile.PathFor(l.TreeDir, def.ID, compressed)
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("tree file: %w", err)
		}
	}
	return "", nil
}

// LoadAll loads every definition into a new registry. Courses load
// concurrently; the first failure aborts.
func (l *Loader) LoadAll(ctx context.Context, defs []Definition) (*Registry, error) {
	reg := NewRegistry()
	g, gctx := errgroup.WithContext(ctx)
	for _, def := range defs {
		def := def
		g.Go(func() error {
			c, err := l.Load(gctx, def)
			if err != nil {
				return err
			}
			reg.Put(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reg, nil
}
