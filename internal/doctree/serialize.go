package doctree

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// levelMarker is repeated level+1 times at the start of every line.
const levelMarker = '.'

var lineBreaks = strings.NewReplacer("\r", "", "\n", "")

// SyntaxError reports a malformed line in a serialized tree.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("tree line %d: %s", e.Line, e.Msg)
}

// Serialize writes one line per node in preorder:
//
//	<level markers>||archive||path||title
//
// Line breaks inside titles are dropped.
func Serialize(w io.Writer, t *Tree) error {
	if t.Len() == 0 {
		return nil
	}
	bw := bufio.NewWriter(w)
	var write func(id NodeID, depth int) error
	write = func(id NodeID, depth int) error {
		n := t.Node(id)
		bw.WriteString(strings.Repeat(string(levelMarker), depth+1))
		bw.WriteString(locationSep)
		bw.WriteString(n.Loc.Archive)
		bw.WriteString(locationSep)
		bw.WriteString(n.Loc.Path)
		bw.WriteString(locationSep)
		bw.WriteString(lineBreaks.Replace(n.Title))
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		for _, c := range n.Children {
			if err := write(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := write(t.Root(), 0); err != nil {
		return fmt.Errorf("write tree: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write tree: %w", err)
	}
	return nil
}

// Deserialize rebuilds a tree written by Serialize. Each line attaches to
// the nearest open ancestor one level up. The result is fixed up with no
// deck boundaries.
func Deserialize(r io.Reader) (*Tree, error) {
	scanner := bufio.NewScanner(r)
	// Titles can carry large inline markup.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var t *Tree
	var stack []NodeID
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		parts := strings.SplitN(line, locationSep, 4)
		level := len(parts[0]) - 1
		if level < 0 || strings.Trim(parts[0], string(levelMarker)) != "" {
			return nil, &SyntaxError{Line: lineNo, Msg: "missing level marker"}
		}
		if len(parts) < 3 {
			return nil, &SyntaxError{Line: lineNo, Msg: "want level||archive||path||title"}
		}
		loc := Location{Archive: parts[1], Path: parts[2]}
		title := ""
		if len(parts) == 4 {
			title = parts[3]
		}

		if level == 0 {
			if t != nil {
				return nil, &SyntaxError{Line: lineNo, Msg: "second root"}
			}
			t = New(loc, title)
			stack = append(stack[:0], t.Root())
			continue
		}
		if t == nil {
			return nil, &SyntaxError{Line: lineNo, Msg: "first line must be the root"}
		}
		if level > len(stack) {
			return nil, &SyntaxError{Line: lineNo, Msg: fmt.Sprintf("level %d skips a parent", level)}
		}
		stack = stack[:level]
		id := t.AddChild(stack[level-1], loc, title)
		stack = append(stack, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tree: %w", err)
	}
	if t == nil {
		return nil, &SyntaxError{Line: lineNo, Msg: "empty tree"}
	}
	t.Fixup(nil)
	return t, nil
}
