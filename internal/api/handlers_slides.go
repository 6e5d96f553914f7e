package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dgallion1/slidegest/internal/courses"
	"github.com/dgallion1/slidegest/internal/doctree"
	"github.com/dgallion1/slidegest/internal/slides"
	"github.com/go-chi/chi/v5"
)

// Sentinels accepted in place of a location.
const (
	initialSentinel = "initial"
	finalSentinel   = "final"
)

// handleDeckSlides returns the slides from a deck up to the next deck.
func (s *Server) handleDeckSlides(w http.ResponseWriter, r *http.Request) {
	c, ok := s.course(w, r)
	if !ok {
		return
	}
	deck, ok := boundaryParam(w, r, "deckID", initialSentinel)
	if !ok {
		return
	}

	key := slides.CacheKey{Course: c.ID, Start: "deck:" + boundaryKey(deck, initialSentinel), End: "next-deck", Version: c.Version}
	s.serveSlides(w, r, c, key, func(ctx context.Context) ([]slides.Slide, error) {
		return c.Extractor.Deck(ctx, deck)
	})
}

// handleRangeSlides returns the slides after start and before end.
func (s *Server) handleRangeSlides(w http.ResponseWriter, r *http.Request) {
	c, ok := s.course(w, r)
	if !ok {
		return
	}
	start, ok := boundaryParam(w, r, "start", initialSentinel)
	if !ok {
		return
	}
	end, ok := boundaryParam(w, r, "end", finalSentinel)
	if !ok {
		return
	}

	key := slides.CacheKey{
		Course:  c.ID,
		Start:   boundaryKey(start, initialSentinel),
		End:     boundaryKey(end, finalSentinel),
		Version: c.Version,
	}
	s.serveSlides(w, r, c, key, func(ctx context.Context) ([]slides.Slide, error) {
		return c.Extractor.Range(ctx, start, end)
	})
}

// serveSlides answers from the slide cache or runs extract. Extraction is
// detached from the request so an abandoned request still fills the caches.
func (s *Server) serveSlides(w http.ResponseWriter, r *http.Request, c *courses.Course, key slides.CacheKey,
	extract func(ctx context.Context) ([]slides.Slide, error)) {
	if cached, ok := s.cache.Get(key); ok {
		writeJSON(w, cached)
		return
	}

	list, err := extract(context.WithoutCancel(r.Context()))
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.log.Error("slide extraction failed", "course", c.ID, "start", key.Start, "end", key.End, "error", err)
		}
		jsonError(w, err.Error(), code)
		return
	}
	s.cache.Put(key, list)
	writeJSON(w, list)
}

// course resolves the courseID URL parameter.
func (s *Server) course(w http.ResponseWriter, r *http.Request) (*courses.Course, bool) {
	id := chi.URLParam(r, "courseID")
	c, ok := s.courses.Get(id)
	if !ok {
		jsonError(w, fmt.Sprintf("[%s] course not found", id), http.StatusNotFound)
		return nil, false
	}
	return c, true
}

// boundaryParam parses a URL parameter holding an escaped "archive||path"
// location or the given sentinel, which yields the zero location.
func boundaryParam(w http.ResponseWriter, r *http.Request, name, sentinel string) (doctree.Location, bool) {
	raw := chi.URLParam(r, name)
	value, err := url.PathUnescape(raw)
	if err != nil {
		jsonError(w, fmt.Sprintf("invalid %s: %v", name, err), http.StatusBadRequest)
		return doctree.Location{}, false
	}
	if value == sentinel {
		return doctree.Location{}, true
	}
	loc, err := doctree.ParseLocation(value)
	if err != nil {
		jsonError(w, fmt.Sprintf("invalid %s: %v", name, err), http.StatusBadRequest)
		return doctree.Location{}, false
	}
	return loc, true
}

func boundaryKey(loc doctree.Location, sentinel string) string {
	if loc.IsZero() {
		return sentinel
	}
	return loc.String()
}
