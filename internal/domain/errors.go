package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidTitle     = errors.New("invalid title")
	ErrDuplicateID      = errors.New("duplicate id")
	ErrDuplicateTaskRef = errors.New("task referenced by more than one column")
	ErrDanglingTaskRef  = errors.New("column references unknown task")
)
