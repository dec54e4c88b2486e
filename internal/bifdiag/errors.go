package bifdiag

import (
	"errors"
	"fmt"
)

// ErrDegenerateReference reports a reference branch whose monotonic run is
// too short to interpolate over.
var ErrDegenerateReference = errors.New("bifdiag: reference branch has fewer than two monotonic points")

// InterpolationError is returned by Subtract when the reference branch
// cannot be turned into an interpolant.
type InterpolationError struct {
	Column string
	Points int
	Err    error
}

func (e *InterpolationError) Error() string {
	return fmt.Sprintf("interpolation over %s (%d points): %v", e.Column, e.Points, e.Err)
}

func (e *InterpolationError) Unwrap() error {
	return e.Err
}
