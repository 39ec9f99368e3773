package gitea

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("repository already exists")
	ErrPermissionDenied = errors.New("permission denied")
	ErrRequestFailed    = errors.New("gitea request failed")
)
