package service

import "errors"

// Error kinds absorbed locally: none of these is fatal, and one ticker's
// failure never blocks evaluation of the others.
var (
	// ErrDataUnavailable means the price history for a ticker is missing or
	// empty; the ticker is skipped for the cycle.
	ErrDataUnavailable = errors.New("price history unavailable")

	// ErrCollaboratorUnavailable means an external call failed or timed
	// out; the caller degrades to graph-only behavior.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrPositionAlreadyOpen means a ticker already has an open position;
	// the signal is a no-op.
	ErrPositionAlreadyOpen = errors.New("position already open")

	// ErrCapacityExceeded means the open-position cap has been reached; the
	// signal is silently dropped.
	ErrCapacityExceeded = errors.New("position capacity exceeded")
)
