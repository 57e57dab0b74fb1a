package utils

import "errors"

var (
	ErrInvalidPage     = errors.New("invalid page parameter")
	ErrInvalidPageSize = errors.New("invalid page size parameter")
	ErrDatabaseError   = errors.New("database error")
	ErrSessionNotFound = errors.New("test session not found")
	ErrInvalidRequest  = errors.New("invalid request")
)
