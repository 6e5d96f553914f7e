package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/slidegest/internal/content"
	"github.com/dgallion1/slidegest/internal/courses"
	"github.com/dgallion1/slidegest/internal/slides"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for slidegest.
type Server struct {
	router  chi.Router
	courses *courses.Registry
	cache   *slides.Cache
	stats   *content.FetchStats
	log     *slog.Logger
}

// NewServer creates and configures the HTTP server. stats may be nil.
func NewServer(reg *courses.Registry, cache *slides.Cache, stats *content.FetchStats, log *slog.Logger) *Server {
	s := &Server{
		courses: reg,
		cache:   cache,
		stats:   stats,
		log:     log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)
	r.Get("/courses", s.handleListCourses)

	r.Route("/course/{courseID}", func(r chi.Router) {
		r.Get("/decks", s.handleListDecks)
		r.Get("/deck/{deckID}", s.handleDeckSlides)
		r.Get("/deck/{deckID}/title", s.handleDeckTitle)
		r.Get("/range/{start}/{end}", s.handleRangeSlides)
	})

	r.Get("/api/stats/fetch", s.handleFetchStats)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
