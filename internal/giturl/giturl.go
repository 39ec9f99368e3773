// Package giturl normalizes and parses the repository URL shapes accepted
// by the mirror engine.
package giturl

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Suffix is the canonical git suffix every normalized URL ends with.
const Suffix = ".git"

var ErrInvalidURL = errors.New("invalid repository URL")

var (
	// user@host.xz:owner/repo[.git]
	scpURLRgx = regexp.MustCompile(`^(?P<user>[\w\-\.]+)@(?P<host>[\w\-\.]+(\:\d+)?):(?P<path>.+)$`)

	// https://host.xz[:port]/owner/repo[.git]
	httpsURLRgx = regexp.MustCompile(`^https://(?P<host>[\w\-\.]+(\:\d+)?)/(?P<path>.+)$`)
)

// Normalize trims the raw URL and ensures it carries the canonical .git
// suffix. URLs that match neither the SCP-style nor the HTTPS shape are
// returned untouched so the caller can surface a parse error later.
func Normalize(raw string) string {
	url := strings.TrimSpace(raw)

	if strings.HasSuffix(url, Suffix) {
		return url
	}

	switch {
	case scpURLRgx.MatchString(url):
		return url + Suffix
	case httpsURLRgx.MatchString(url):
		return strings.TrimRight(url, "/") + Suffix
	default:
		return url
	}
}

// ExtractOwnerRepo recovers the owner and repository name segments from an
// SCP-style or HTTPS repository URL, with or without the .git suffix.
func ExtractOwnerRepo(raw string) (string, string, error) {
	url := strings.TrimSpace(raw)
	url = strings.TrimSuffix(strings.TrimRight(url, "/"), Suffix)

	var path string
	switch {
	case scpURLRgx.MatchString(url):
		sections := scpURLRgx.FindStringSubmatch(url)
		path = sections[scpURLRgx.SubexpIndex("path")]
	case httpsURLRgx.MatchString(url):
		sections := httpsURLRgx.FindStringSubmatch(url)
		path = sections[httpsURLRgx.SubexpIndex("path")]
	default:
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: expected owner/repo path in %s", ErrInvalidURL, raw)
	}

	return parts[0], parts[1], nil
}
