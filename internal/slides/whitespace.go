package slides

import (
	"strings"
)

// WhitespacePolicy decides which loose fragments are trivial.
type WhitespacePolicy struct {
	// Invisible lists characters that are ignored before a fragment's text
	// is checked for content.
	Invisible string
}

// DefaultWhitespacePolicy treats zero width spaces and joiners, the byte
// order mark and the no-break space as invisible.
func DefaultWhitespacePolicy() WhitespacePolicy {
	return WhitespacePolicy{Invisible: "\u200B\u200C\u200D\uFEFF\u00A0"}
}

// Trivial reports whether text has no visible content.
func (p WhitespacePolicy) Trivial(text string) bool {
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(p.Invisible, r) {
			return -1
		}
		return r
	}, text)
	return strings.TrimSpace(stripped) == ""
}

// Trim drops trivial fragments before the first and after the last
// non-trivial one and returns the markup of the rest. The result is never
// nil.
func (p WhitespacePolicy) Trim(frags []fragment) []string {
	out := []string{}
	var held []string
	started := false
	for _, f := range frags {
		if p.Trivial(f.text) {
			if started {
				held = append(held, f.html)
			}
			continue
		}
		started = true
		out = append(out, held...)
		out = append(out, f.html)
		held = held[:0]
	}
	return out
}
