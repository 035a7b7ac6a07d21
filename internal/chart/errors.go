package chart

import "errors"

// Error kinds returned by the renderers. Match with errors.Is; the wrapped
// message carries the detail.
var (
	// ErrNoData means the fetched range is empty or unusable.
	ErrNoData = errors.New("no data")
	// ErrInvalidConfig means a request or canvas parameter is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrAlignmentFailure marks a filing that has no trading day at or before it.
	ErrAlignmentFailure = errors.New("alignment failure")
	// ErrDivisionByZero means a P/E ratio would divide by a zero EPS.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrWriteFailed means the image could not be persisted.
	ErrWriteFailed = errors.New("write failed")
	// ErrCanvasClosed is returned when rendering onto a closed canvas.
	ErrCanvasClosed = errors.New("canvas closed")
)
