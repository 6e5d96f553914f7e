// Package treefile persists serialized course trees on disk.
//
// Files ending in ".xz" are xz-compressed; anything else is the plain line
// format written by doctree.Serialize.
package treefile

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

// Load reads and deserializes the tree stored at path.
func Load(path string) (*doctree.Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tree file: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if isCompressed(path) {
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xz stream %s: %w", path, err)
		}
		r = xr
	}

	tree, err := doctree.Deserialize(r)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return tree, nil
}

// Save serializes tree to path, replacing any existing file atomically.
func Save(path string, tree *doctree.Tree) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create tree dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tree-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp, path, tree); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename tree file: %w", err)
	}
	return nil
}

func write(w io.Writer, path string, tree *doctree.Tree) error {
	if !isCompressed(path) {
		return doctree.Serialize(w, tree)
	}
	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create xz writer: %w", err)
	}
	if err := doctree.Serialize(xw, tree); err != nil {
		xw.Close()
		return err
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("finish xz stream: %w", err)
	}
	return nil
}

// Version returns a hex BLAKE3 digest of the serialized tree. Trees that
// serialize identically share a version.
func Version(tree *doctree.Tree) (string, error) {
	var buf bytes.Buffer
	if err := doctree.Serialize(&buf, tree); err != nil {
		return "", err
	}
	sum := blake3.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:16]), nil
}

// PathFor returns the conventional tree file location for a course.
func PathFor(dir, courseID string, compressed bool) string {
	name := courseID + ".tree"
	if compressed {
		name += ".xz"
	}
	return filepath.Join(dir, name)
}

func isCompressed(path string) bool {
	return strings.HasSuffix(path, ".xz")
}
