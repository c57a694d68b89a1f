package domain

import "errors"

// Processing errors. Handlers wrap these so the consumer can distinguish
// events that must be skipped from failures worth retrying; anything not
// matching a sentinel is treated as transient.
var (
	// ErrMalformedEvent marks an event whose payload cannot be applied
	// (missing key fields, undecodable amounts). Skipped, never retried.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrMissingReference marks an event referencing state that does not
	// exist yet (e.g. a trade for a token with no launch row). Skipped.
	ErrMissingReference = errors.New("missing reference")
)
