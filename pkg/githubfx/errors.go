package githubfx

import "errors"

var (
	ErrInvalidBaseURL  = errors.New("invalid GitHub API base URL")
	ErrInvalidProxyURL = errors.New("invalid proxy URL")
)
