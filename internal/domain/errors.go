package domain

import "errors"

var (
	// ErrValidation marks rejected input: bad shape, wrong participants, past deadlines.
	ErrValidation = errors.New("invalid")
	// ErrNotFound marks references to unknown activities or members.
	ErrNotFound = errors.New("not found")
	// ErrState marks operations that conflict with stored state.
	ErrState = errors.New("conflict")
)
