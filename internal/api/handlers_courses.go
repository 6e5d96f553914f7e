package api

import (
	"fmt"
	"net/http"
)

type courseSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Root    string `json:"root"`
	Version string `json:"version"`
	Nodes   int    `json:"nodes"`
	Decks   int    `json:"decks"`
}

func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	list := s.courses.List()
	out := make([]courseSummary, 0, len(list))
	for _, c := range list {
		out = append(out, courseSummary{
			ID:      c.ID,
			Title:   c.Title,
			Root:    c.Root.String(),
			Version: c.Version,
			Nodes:   c.Tree.Len(),
			Decks:   len(c.Tree.Decks()),
		})
	}
	writeJSON(w, map[string]any{"courses": out})
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	c, ok := s.course(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]any{"course": c.ID, "decks": c.Decks()})
}

// handleDeckTitle returns the first non-empty title at or after a deck.
func (s *Server) handleDeckTitle(w http.ResponseWriter, r *http.Request) {
	c, ok := s.course(w, r)
	if !ok {
		return
	}
	deck, ok := boundaryParam(w, r, "deckID", initialSentinel)
	if !ok {
		return
	}
	title, found := c.DeckTitle(deck)
	if !found {
		jsonError(w, fmt.Sprintf("deck %s not found", deck), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"title": title})
}
