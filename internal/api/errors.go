package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/slidegest/internal/content"
	"github.com/dgallion1/slidegest/internal/slides"
)

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statusFor maps extraction errors to HTTP status codes. An unresolved end
// boundary is a server error: boundaries come from the same tree and
// should always resolve.
func statusFor(err error) int {
	var notFound *slides.NotFoundError
	var malformed *slides.MalformedRangeError
	var fetchErr *content.FetchError
	switch {
	case errors.As(err, &notFound):
		switch notFound.Boundary {
		case slides.StartBoundary:
			return http.StatusBadRequest
		case slides.EndBoundary:
			return http.StatusInternalServerError
		default:
			return http.StatusNotFound
		}
	case errors.As(err, &malformed):
		return http.StatusBadRequest
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
