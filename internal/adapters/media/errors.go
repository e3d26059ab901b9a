package media

import "errors"

// Sentinel kinds for media errors.
var (
	ErrNotFound   = errors.New("media not found")
	ErrInvalidKey = errors.New("invalid media key")
	ErrEmpty      = errors.New("empty upload")
)
