package errors

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrConflict      = errors.New("conflict")
	ErrTooMany       = errors.New("too many requests")
	ErrInternal      = errors.New("internal")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConfiguration = errors.New("configuration")
	ErrProvider      = errors.New("provider")
	ErrGeneration    = errors.New("generation")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
