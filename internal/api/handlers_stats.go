package api

import "net/http"

// handleFetchStats reports content service latency and failures over the
// configured window.
func (s *Server) handleFetchStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "fetch stats unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]any{"stats": s.stats.Snapshot()})
}
