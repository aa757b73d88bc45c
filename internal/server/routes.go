package server

import (
	"net/http"
	"strings"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Markets
	mux.HandleFunc("/api/markets/", s.routeMarkets)

	// Sector analysis
	mux.HandleFunc("/api/sectors/performance", s.handleSectorPerformance)
	mux.HandleFunc("/api/sectors/chart", s.handleSectorChart)

	// Instrument comparison
	mux.HandleFunc("/api/instruments/compare", s.handleCompare)
}

// routeMarkets dispatches /api/markets/{market}/* to the appropriate handler.
func (s *Server) routeMarkets(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/markets/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "market is required in path")
		return
	}

	parts := strings.SplitN(path, "/", 3)
	market := parts[0]
	subpath := ""
	if len(parts) > 1 {
		subpath = parts[1]
	}

	switch subpath {
	case "groups":
		if len(parts) == 3 && parts[2] != "" {
			s.handleGroupResolve(w, r, market, parts[2])
			return
		}
		s.handleGroupList(w, r, market)
	case "performance":
		s.handleMarketPerformance(w, r, market)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}
