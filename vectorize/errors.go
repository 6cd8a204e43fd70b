package vectorize

import "errors"

// ErrProviderError wraps every failure coming back from an embedding
// provider, so callers can branch without inspecting provider types.
var ErrProviderError = errors.New("vectorize: provider error")
