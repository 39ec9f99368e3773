package sync

import (
	"context"
	"errors"
	"strings"

	"github.com/DeanWanghewei/mirror-git/internal/gitea"
	"github.com/DeanWanghewei/mirror-git/internal/giturl"
)

// Kind classifies a failure so the engine can decide retry vs. abort vs.
// fallback without string-matching at every call site.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransientNetwork
	KindPermissionDenied
	KindNotFound
	KindAlreadyExists
	KindPayloadTooLarge
	KindInvalidInput
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindTransientNetwork:
		return "transient_network"
	case KindPermissionDenied:
		return "permission_denied"
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindInvalidInput:
		return "invalid_input"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// transientSignatures are substrings of transport failures observed to
// succeed on retry: resets, stalls, partial transfers and DNS hiccups.
var transientSignatures = []string{
	"connection reset by peer",
	"connection timed out",
	"timeout",
	"temporary failure",
	"network is unreachable",
	"no address associated",
	"http2 framing layer",
	"rpc failed",
	"curl 18",
	"transferred a partial file",
	"early eof",
	"unexpected disconnect",
	"fetch-pack",
	"index-pack",
}

// fetchTransientSignatures extend the transient set during updates: a raced
// HEAD detach or a remote-side unpack hiccup is worth another attempt.
var fetchTransientSignatures = []string{
	"refusing to fetch",
	"remote unpack failed",
}

var payloadTooLargeSignatures = []string{
	"413",
	"request entity too large",
	"payload too large",
}

// Classify maps an error onto the failure taxonomy. Typed sentinels win
// over message matching; message matching covers the git transport, whose
// failures only surface as text.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	switch {
	case errors.Is(err, gitea.ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, gitea.ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, gitea.ErrNotFound):
		return KindNotFound
	case errors.Is(err, giturl.ErrInvalidURL):
		return KindInvalidInput
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, payloadTooLargeSignatures):
		return KindPayloadTooLarge
	case strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist"):
		return KindNotFound
	case strings.Contains(msg, "authentication required") || strings.Contains(msg, "authorization failed"):
		return KindPermissionDenied
	case containsAny(msg, transientSignatures):
		return KindTransientNetwork
	}

	return KindUnknown
}

// transientClone reports whether a clone failure is worth another attempt.
func transientClone(err error) bool {
	return Classify(err) == KindTransientNetwork
}

// transientFetch reports whether an update failure is worth another
// attempt. Fetches retry on a wider set than clones.
func transientFetch(err error) bool {
	if transientClone(err) {
		return true
	}
	if err == nil {
		return false
	}

	return containsAny(strings.ToLower(err.Error()), fetchTransientSignatures)
}

func containsAny(msg string, signatures []string) bool {
	for _, signature := range signatures {
		if strings.Contains(msg, signature) {
			return true
		}
	}

	return false
}
