package surface

import "errors"

// ErrMissingOperation is returned when the contract document does not define
// the requested operation.
var ErrMissingOperation = errors.New("surface: operation not found")
