package market

import "errors"

// Fatal analysis errors. Unlike per-unit provider failures these
// propagate to the caller: there is no meaningful partial result.
var (
	// ErrNoTradingDay indicates no valid trading date exists within the
	// backtracking bound.
	ErrNoTradingDay = errors.New("no trading day found within backtrack bound")

	// ErrNoCanonicalCalendar indicates the reference instrument series
	// is unavailable, so nothing can be aligned.
	ErrNoCanonicalCalendar = errors.New("reference series unavailable")

	// ErrInsufficientData indicates an operation computed successfully
	// but every unit was filtered out. Callers must distinguish this
	// from a crash: it maps to an explicit empty result.
	ErrInsufficientData = errors.New("insufficient data")
)
