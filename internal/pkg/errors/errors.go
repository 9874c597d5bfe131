package errors

import "errors"

// Error taxonomy for the pipeline: input errors reject immediately,
// dependency errors mark a skipped unit or abort a query, not-found marks a
// missing local artifact.
var (
	ErrInvalid     = errors.New("invalid")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("dependency unavailable")
	ErrInternal    = errors.New("internal")
)

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
