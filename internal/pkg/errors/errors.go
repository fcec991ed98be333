package errors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalid        = errors.New("invalid")
	ErrConflict       = errors.New("conflict")
	ErrTooMany        = errors.New("too many requests")
	ErrInternal       = errors.New("internal")
	ErrExtraction     = errors.New("extraction failed")
	ErrNotImplemented = errors.New("not implemented")
	ErrAIUnavailable  = errors.New("ai provider unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsExtraction(err error) bool {
	return errors.Is(err, ErrExtraction)
}
