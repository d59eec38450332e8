package contracts

import "errors"

var (
	// ErrSignalDegraded marks an engine that could not compute and fell
	// back to a neutral zero-score signal. Callers log it and keep the
	// neutral signal; the scan continues.
	ErrSignalDegraded = errors.New("signal computation degraded")

	// ErrSnapshotUnavailable marks a per-symbol fetch failure.
	ErrSnapshotUnavailable = errors.New("market snapshot unavailable")

	// ErrInsufficientHistory marks a history series too short to compute on.
	ErrInsufficientHistory = errors.New("insufficient history")

	// ErrUniverseEmpty marks an empty or unreachable symbol universe.
	ErrUniverseEmpty = errors.New("symbol universe empty")
)
