package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bobmcallan/strata/internal/common"
	"github.com/bobmcallan/strata/internal/models"
	"github.com/bobmcallan/strata/internal/services/market"
)

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// --- Market handlers ---

func (s *Server) handleGroupList(w http.ResponseWriter, r *http.Request, marketName string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"market": marketName,
		"groups": s.market.ListGroups(marketName),
	})
}

func (s *Server) handleGroupResolve(w http.ResponseWriter, r *http.Request, marketName, group string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	group, err := url.PathUnescape(group)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid group name")
		return
	}

	instruments, err := s.market.ResolveGroup(r.Context(), marketName, group)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Error resolving group: %v", err))
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"market":      marketName,
		"group":       group,
		"instruments": instruments,
	})
}

func (s *Server) handleMarketPerformance(w http.ResponseWriter, r *http.Request, marketName string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}
	topN := intParam(r, "top", 10)

	perf, err := s.market.RankMarketPerformance(r.Context(), marketName, start, end, topN)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, perf)
}

// --- Sector handlers ---

func (s *Server) handleSectorPerformance(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	sectors := listParam(r, "sectors")
	if len(sectors) == 0 {
		WriteError(w, http.StatusBadRequest, "sectors query parameter is required")
		return
	}

	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}

	records, err := s.market.AnalyzeSectorPerformance(r.Context(), start, end, sectors)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"start": models.DateKey(start),
		"end":   models.DateKey(end),
		"data":  records,
	})
}

func (s *Server) handleSectorChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	sectors := listParam(r, "sectors")
	if len(sectors) == 0 {
		WriteError(w, http.StatusBadRequest, "sectors query parameter is required")
		return
	}

	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}

	indices, err := s.market.SectorIndices(r.Context(), start, end, sectors)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	title := fmt.Sprintf("Sector Performance %s to %s", models.DateKey(start), models.DateKey(end))
	png, err := market.RenderIndexChart(title, indices)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Chart error: %v", err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// --- Comparison handlers ---

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	tickers := listParam(r, "tickers")
	if len(tickers) == 0 {
		WriteError(w, http.StatusBadRequest, "tickers query parameter is required")
		return
	}

	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}

	records, err := s.market.CompareInstruments(r.Context(), tickers, start, end)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"start": models.DateKey(start),
		"end":   models.DateKey(end),
		"data":  records,
	})
}

// writeAnalysisError maps engine errors onto HTTP responses. Filtered
// empty results are a valid outcome, not a failure: they get 200 with
// an explicit code so clients can tell them from a crash.
func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrInsufficientData):
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"data": []interface{}{},
			"code": "insufficient_data",
		})
	case errors.Is(err, market.ErrNoTradingDay):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "no_trading_day")
	case errors.Is(err, market.ErrNoCanonicalCalendar):
		WriteErrorWithCode(w, http.StatusBadGateway, err.Error(), "no_canonical_calendar")
	default:
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis error: %v", err))
	}
}
