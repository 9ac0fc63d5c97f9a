package types

import "errors"

// Error kinds the engine distinguishes. Every one is fatal to a single
// symbol's cycle at most; none abort other symbols or the process.
var (
	// ErrInsufficientData - not enough price bars for the requested window.
	ErrInsufficientData = errors.New("insufficient price data")
	// ErrInvalidLevels - degenerate levels (entry == stop), a caller bug.
	ErrInvalidLevels = errors.New("invalid stop levels")
	// ErrDataUnavailable - the broker could not supply price data.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrOrderRejected - the broker refused an order or amendment.
	ErrOrderRejected = errors.New("order rejected")
)
