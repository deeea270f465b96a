package store

import (
	"errors"

	"github.com/jacentio/linkpkg/graph"
)

var (
	// ErrNotFound is returned when a link doesn't exist.
	ErrNotFound = errors.New("linkpkg: link not found")

	// ErrAlreadyExists is returned when creating a link or value with an existing id.
	ErrAlreadyExists = errors.New("linkpkg: link already exists")

	// ErrInvalidFilter is returned by Select for a filter with no field set.
	ErrInvalidFilter = graph.ErrInvalidFilter

	// ErrInvalidCount is returned by Reserve for a non-positive count.
	ErrInvalidCount = errors.New("linkpkg: reserve count must be positive")

	// ErrAwaitTimeout is returned when a link is not settled within Config.AwaitTimeout.
	ErrAwaitTimeout = errors.New("linkpkg: link not settled in time")

	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("linkpkg: store unavailable")
)
