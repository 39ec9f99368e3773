package tasks

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrStopped  = errors.New("task runner is stopped")
)
