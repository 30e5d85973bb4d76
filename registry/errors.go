package registry

import "errors"

// ErrFetch wraps every network failure or non-2xx registry response.
var ErrFetch = errors.New("registry: fetch failed")
