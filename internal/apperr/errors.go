package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrDuplicate     = errors.New("duplicate document")
	ErrDepthExceeded = errors.New("maximum folder depth exceeded")
)
