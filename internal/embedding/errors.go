package embedding

import "errors"

// Domain errors for embedding operations.
var (
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
	ErrEmptyInput          = errors.New("no text to embed")
)
