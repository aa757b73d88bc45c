package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/strata/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// dateRange extracts and validates the start/end query parameters.
// Both are required; start must not be after end. Returns false after
// writing a 400 response when the window is invalid.
func dateRange(w http.ResponseWriter, r *http.Request) (start, end time.Time, ok bool) {
	startParam := r.URL.Query().Get("start")
	endParam := r.URL.Query().Get("end")
	if startParam == "" || endParam == "" {
		WriteError(w, http.StatusBadRequest, "start and end query parameters are required (YYYY-MM-DD)")
		return
	}

	start, err := time.Parse(models.DateFormat, startParam)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid start date: "+startParam)
		return
	}
	end, err = time.Parse(models.DateFormat, endParam)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid end date: "+endParam)
		return
	}
	if start.After(end) {
		WriteError(w, http.StatusBadRequest, "start must not be after end")
		return
	}

	return start, end, true
}

// listParam splits a comma-separated query parameter into trimmed,
// non-empty values.
func listParam(r *http.Request, name string) []string {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}

// intParam parses an optional integer query parameter with a fallback.
func intParam(r *http.Request, name string, fallback int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}
