package matrix

import (
	"errors"
	"fmt"
)

// ErrDimension reports incompatible matrix shapes. It signals a
// configuration or programming defect upstream: callers are expected to
// validate layer sizes once, before training, rather than recover from
// it per operation.
var ErrDimension = errors.New("matrix: dimension mismatch")

// mismatchf panics with an error wrapping ErrDimension. Matrix
// arithmetic follows gonum here: an incompatible shape is a defect, not
// a runtime condition, so it aborts instead of returning an error from
// every arithmetic call site.
func mismatchf(format string, args ...interface{}) {
	panic(fmt.Errorf("%w: %s", ErrDimension, fmt.Sprintf(format, args...)))
}
