package github

import "errors"

var (
	ErrNotFound        = errors.New("repository not found")
	ErrInvalidProtocol = errors.New("invalid clone protocol")
	ErrNoCloneURL      = errors.New("clone URL not available")
)
