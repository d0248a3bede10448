package core

import (
	"errors"
	"fmt"
)

// Error taxonomy for the engine.
var (
	// ErrConfig indicates an invalid configuration detected before Start.
	ErrConfig = errors.New("tenpush: invalid configuration")

	// ErrParse indicates a malformed force model specification.
	ErrParse = fmt.Errorf("%w: cannot parse force specification", ErrConfig)

	// ErrNumericDomain indicates the drift-correction factor left its valid range.
	ErrNumericDomain = errors.New("tenpush: drift correction outside valid range")

	// ErrNumericDivergence indicates a thing's integrated speed became non-finite.
	ErrNumericDivergence = errors.New("tenpush: speed diverged (NaN or Inf)")

	// ErrBinLocate indicates a position outside the domain during seeding or loading.
	ErrBinLocate = errors.New("tenpush: position outside domain")

	// ErrRunFailed is returned by every call after a fatal error was surfaced.
	ErrRunFailed = errors.New("tenpush: run already failed")

	// ErrFinished indicates use of a scheduler after Finish.
	ErrFinished = errors.New("tenpush: scheduler finished")
)

// ThingError wraps an error with the identity of the thing that caused it.
type ThingError struct {
	Thing   string
	Iter    int
	Stage   string
	Pos     Vec3
	Wrapped error
}

func (e *ThingError) Error() string {
	return fmt.Sprintf("iter %d %s stage, thing %s at %v: %v", e.Iter, e.Stage, e.Thing, e.Pos, e.Wrapped)
}

func (e *ThingError) Unwrap() error {
	return e.Wrapped
}
