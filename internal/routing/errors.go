package routing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed coordinates, ids or stop records.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when no stop or route matches a lookup.
	ErrNotFound = errors.New("not found")
	// ErrNoPath is returned when start and destination are not connected.
	ErrNoPath = errors.New("no path")
	// ErrEmptyDataset is returned by queries against an engine with zero
	// stops. It matches ErrNotFound under errors.Is.
	ErrEmptyDataset = fmt.Errorf("empty dataset: %w", ErrNotFound)
	// ErrSearchAborted is returned when a search hits its expansion limit
	// or its context is cancelled. It is distinct from ErrNoPath.
	ErrSearchAborted = errors.New("search aborted")
)
