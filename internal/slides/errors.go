package slides

import (
	"fmt"

	"github.com/dgallion1/slidegest/internal/doctree"
)

// Boundary names used in NotFoundError.
const (
	StartBoundary = "start"
	EndBoundary   = "end"
	DeckBoundary  = "deck"
)

// NotFoundError reports a boundary location that is not in the tree.
type NotFoundError struct {
	Boundary string
	Loc      doctree.Location
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s boundary %s not found", e.Boundary, e.Loc)
}

// MalformedRangeError reports an end boundary that precedes the start.
type MalformedRangeError struct {
	Start string
	End   string
}

func (e *MalformedRangeError) Error() string {
	return fmt.Sprintf("range end %s precedes start %s", e.End, e.Start)
}
