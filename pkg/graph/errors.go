package graph

import "errors"

var (
	// ErrEmptyTitle is returned when a paper title is empty after sanitizing.
	ErrEmptyTitle = errors.New("paper title is empty")

	// ErrDuplicateTitle is returned when a title change would collide with
	// another live paper.
	ErrDuplicateTitle = errors.New("a paper with this title already exists")

	// ErrDuplicateReference is returned when a (from, to) pair already has
	// a reference.
	ErrDuplicateReference = errors.New("reference already exists")

	ErrPaperNotFound     = errors.New("paper not found")
	ErrReferenceNotFound = errors.New("reference not found")
)
