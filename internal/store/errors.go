package store

import "errors"

var (
	// ErrContentUnavailable means a collection could not be opened, read or
	// written. Missing collections also match fs.ErrNotExist.
	ErrContentUnavailable = errors.New("content unavailable")

	// ErrContentMalformed means the stored bytes do not decode into the
	// collection schema. It is never repaired automatically.
	ErrContentMalformed = errors.New("content malformed")
)
