package resolve

import "errors"

// ErrUnsatisfiedRange means no registry version matches a declared
// range.
var ErrUnsatisfiedRange = errors.New("resolve: no version satisfies range")
