package resolve

import "errors"

var (
	// ErrNoStream is returned when every candidate came up empty
	ErrNoStream = errors.New("no stream found")

	// ErrNoCandidates is returned when the request named nothing to resolve
	ErrNoCandidates = errors.New("no candidates given")
)
