// Package markup parses documents served by the content service and
// recognizes the elements the slide extractor cares about.
package markup

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// EmbedAttr holds the document URL of an embedded child document.
	EmbedAttr = "data-inputref-url"
	// FrameProperty marks an explicit slide.
	FrameProperty = "stex:frame"
)

var md = goldmark.New()

// Parse parses raw document markup. Documents whose path ends in .md or
// .markdown are rendered to HTML first.
func Parse(raw string, docPath string) (*html.Node, error) {
	src := raw
	if IsMarkdown(docPath) {
		var buf bytes.Buffer
		if err := md.Convert([]byte(raw), &buf); err != nil {
			return nil, fmt.Errorf("render markdown %s: %w", docPath, err)
		}
		src = buf.String()
	}
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", docPath, err)
	}
	return doc, nil
}

// IsMarkdown reports whether docPath names a Markdown document.
func IsMarkdown(docPath string) bool {
	switch strings.ToLower(path.Ext(docPath)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

var locationRe = regexp.MustCompile(`archive=([^&]+)&filepath=(.+)`)

// LocationFromURL extracts the archive and filepath query values from an
// embedding URL. The filepath runs to the end of the URL.
func LocationFromURL(u string) (doctree.Location, bool) {
	m := locationRe.FindStringSubmatch(u)
	if m == nil {
		return doctree.Location{}, false
	}
	return doctree.Location{Archive: m[1], Path: m[2]}, true
}

// DocumentPath returns the content service path and query for loc.
func DocumentPath(loc doctree.Location) string {
	return "/:sTeX/document?archive=" + loc.Archive + "&filepath=" + loc.Path
}

// Embedded returns the location embedded by n, if n is an embedding element.
func Embedded(n *html.Node) (doctree.Location, bool) {
	u, ok := Attr(n, EmbedAttr)
	if !ok || u == "" {
		return doctree.Location{}, false
	}
	return LocationFromURL(u)
}

// IsFrame reports whether n is an explicit slide element.
func IsFrame(n *html.Node) bool {
	v, ok := Attr(n, "property")
	return ok && v == FrameProperty
}

// Attr returns the value of attribute key on element n.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key on n, replacing an existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes the named attributes from n.
func RemoveAttr(n *html.Node, keys ...string) {
	kept := n.Attr[:0]
outer:
	for _, a := range n.Attr {
		for _, k := range keys {
			if a.Namespace == "" && a.Key == k {
				continue outer
			}
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// Render returns the outer HTML of n.
func Render(n *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return "", fmt.Errorf("render %s: %w", n.Data, err)
	}
	return sb.String(), nil
}

// TextContent returns the concatenated text of n and its descendants,
// trimmed of surrounding white space.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// VisibleText is like TextContent but skips elements styled display:none
// and does not trim.
func VisibleText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			if hidden(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func hidden(n *html.Node) bool {
	style, ok := Attr(n, "style")
	if !ok {
		return false
	}
	return strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none")
}

// FindBody returns the first <body> element under n.
func FindBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := FindBody(c); b != nil {
			return b
		}
	}
	return nil
}

// Embeddings returns the embedding elements under n in document order.
// The content of an embedding element is not searched.
func Embeddings(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if _, ok := Embedded(n); ok {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// TitleText returns the visible text of a title fragment.
func TitleText(fragment string) string {
	if fragment == "" {
		return ""
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return ""
	}
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(VisibleText(n))
	}
	return strings.TrimSpace(sb.String())
}
