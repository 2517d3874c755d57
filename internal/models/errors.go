package models

import "errors"

var (
	// ErrNotFound is returned when a page, act or image is absent locally or remotely
	ErrNotFound = errors.New("not found")

	// ErrMalformedRecord is returned when serialized text does not hold exactly six fields
	ErrMalformedRecord = errors.New("malformed page record")

	// ErrConflict is returned when a create targets an existing path or a drop
	// targets a directory that is not empty
	ErrConflict = errors.New("filesystem conflict")

	// ErrLocked is returned when another process holds the repository lock
	ErrLocked = errors.New("repository is locked")
)
