package giturl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"https without suffix", "https://github.com/acme/demo", "https://github.com/acme/demo.git"},
		{"https with suffix", "https://github.com/acme/demo.git", "https://github.com/acme/demo.git"},
		{"https trailing slash", "https://github.com/acme/demo/", "https://github.com/acme/demo.git"},
		{"ssh without suffix", "git@github.com:acme/demo", "git@github.com:acme/demo.git"},
		{"ssh with suffix", "git@github.com:acme/demo.git", "git@github.com:acme/demo.git"},
		{"surrounding whitespace", "  https://github.com/acme/demo  ", "https://github.com/acme/demo.git"},
		{"self-hosted https", "https://git.example.com:3000/acme/demo", "https://git.example.com:3000/acme/demo.git"},
		{"unrecognized shape left untouched", "ftp://example.com/acme/demo", "ftp://example.com/acme/demo"},
		{"plain string left untouched", "not-a-url", "not-a-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	urls := []string{
		"https://github.com/acme/demo",
		"https://github.com/acme/demo/",
		"https://github.com/acme/demo.git",
		"git@github.com:acme/demo",
		"git@github.com:acme/demo.git",
	}

	for _, url := range urls {
		once := Normalize(url)
		assert.Equal(t, once, Normalize(once), "normalize must be idempotent for %q", url)
		assert.True(t, len(once) >= len(Suffix) && once[len(once)-len(Suffix):] == Suffix)
	}
}

func TestExtractOwnerRepo(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantOwner string
		wantRepo  string
	}{
		{"https", "https://github.com/acme/demo", "acme", "demo"},
		{"https with suffix", "https://github.com/acme/demo.git", "acme", "demo"},
		{"https trailing slash", "https://github.com/acme/demo/", "acme", "demo"},
		{"ssh", "git@github.com:acme/demo", "acme", "demo"},
		{"ssh with suffix", "git@github.com:acme/demo.git", "acme", "demo"},
		{"nested path keeps first two segments", "https://github.com/acme/demo/tree/main", "acme", "demo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ExtractOwnerRepo(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestExtractOwnerRepoAfterNormalize(t *testing.T) {
	for _, url := range []string{
		"https://github.com/acme/demo",
		"git@github.com:acme/demo",
	} {
		owner, repo, err := ExtractOwnerRepo(Normalize(url))
		require.NoError(t, err)
		assert.Equal(t, "acme", owner)
		assert.Equal(t, "demo", repo)
	}
}

func TestExtractOwnerRepoInvalid(t *testing.T) {
	for _, url := range []string{
		"",
		"not-a-url",
		"ftp://example.com/acme/demo",
		"https://github.com/acme",
		"git@github.com:acme",
	} {
		_, _, err := ExtractOwnerRepo(url)
		require.ErrorIs(t, err, ErrInvalidURL, "url %q", url)
	}
}
