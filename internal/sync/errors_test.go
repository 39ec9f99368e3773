package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DeanWanghewei/mirror-git/internal/gitea"
	"github.com/DeanWanghewei/mirror-git/internal/giturl"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"permission sentinel", fmt.Errorf("create: %w", gitea.ErrPermissionDenied), KindPermissionDenied},
		{"already exists sentinel", fmt.Errorf("create: %w", gitea.ErrAlreadyExists), KindAlreadyExists},
		{"not found sentinel", fmt.Errorf("get: %w", gitea.ErrNotFound), KindNotFound},
		{"invalid url sentinel", fmt.Errorf("parse: %w", giturl.ErrInvalidURL), KindInvalidInput},
		{"deadline", context.DeadlineExceeded, KindTimeout},

		{"connection reset", errors.New("read tcp: connection reset by peer"), KindTransientNetwork},
		{"connection timed out", errors.New("dial tcp: connection timed out"), KindTransientNetwork},
		{"dns failure", errors.New("temporary failure in name resolution"), KindTransientNetwork},
		{"unreachable", errors.New("connect: network is unreachable"), KindTransientNetwork},
		{"no address", errors.New("no address associated with hostname"), KindTransientNetwork},
		{"http2 framing", errors.New("error in the HTTP2 framing layer"), KindTransientNetwork},
		{"rpc failed", errors.New("RPC failed; curl 18 transfer closed"), KindTransientNetwork},
		{"partial file", errors.New("transferred a partial file"), KindTransientNetwork},
		{"early eof", errors.New("fetch-pack: early EOF"), KindTransientNetwork},
		{"sideband disconnect", errors.New("unexpected disconnect while reading sideband packet"), KindTransientNetwork},
		{"index-pack", errors.New("index-pack died of signal 9"), KindTransientNetwork},

		{"payload 413", errors.New("unexpected status: 413 Request Entity Too Large"), KindPayloadTooLarge},
		{"payload text", errors.New("server responded: payload too large"), KindPayloadTooLarge},

		{"repo missing", errors.New("repository not found"), KindNotFound},
		{"auth required", errors.New("authentication required"), KindPermissionDenied},
		{"unknown", errors.New("something else entirely"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestTransientFetch(t *testing.T) {
	// Fetch-specific signatures retry on update but not on clone.
	for _, msg := range []string{
		"refusing to fetch into branch refs/heads/main",
		"remote unpack failed: index-pack abnormal exit",
	} {
		err := errors.New(msg)
		if !transientFetch(err) {
			t.Errorf("transientFetch(%q) = false, want true", msg)
		}
	}

	err := errors.New("refusing to fetch into branch refs/heads/main")
	if transientClone(err) {
		t.Error("clone should not retry on fetch-only signatures")
	}

	if transientFetch(errors.New("repository not found")) {
		t.Error("not-found is never transient")
	}
}
