package shortener_test

import (
	"testing"

	"github.com/serroba/short-links/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https url", "https://example.com/a/long/path", false},
		{"http with query", "http://example.com/?q=1#frag", false},
		{"opaque uri", "mailto:someone@example.com", false},
		{"empty", "", true},
		{"plain words", "not a url", true},
		{"relative path", "/just/a/path", true},
		{"scheme only", "https://", true},
		{"bad escape", "https://example.com/%zz", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := shortener.ValidateURL(tt.url)

			if tt.wantErr {
				assert.ErrorIs(t, err, shortener.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, shortener.ValidateID("5b0c3f3e-8f43-4d0e-9f55-0b3c1d2e4f60"))
	assert.ErrorIs(t, shortener.ValidateID("abc"), shortener.ErrInvalidInput)
	assert.ErrorIs(t, shortener.ValidateID(""), shortener.ErrInvalidInput)
}

func TestResolveBaseURL(t *testing.T) {
	t.Run("prefers configured base", func(t *testing.T) {
		base, err := shortener.ResolveBaseURL("https://short.test/", "http://localhost:5000")

		require.NoError(t, err)
		assert.Equal(t, "https://short.test", base)
	})

	t.Run("falls back to the request origin", func(t *testing.T) {
		base, err := shortener.ResolveBaseURL("", "http://localhost:5000")

		require.NoError(t, err)
		assert.Equal(t, "http://localhost:5000", base)
	})

	t.Run("rejects an invalid configured base", func(t *testing.T) {
		_, err := shortener.ResolveBaseURL("short.test", "http://localhost:5000")

		assert.ErrorIs(t, err, shortener.ErrInvalidConfig)
	})

	t.Run("rejects when neither is usable", func(t *testing.T) {
		_, err := shortener.ResolveBaseURL("", "")

		assert.ErrorIs(t, err, shortener.ErrInvalidConfig)
	})
}

func TestJoinShortURL(t *testing.T) {
	assert.Equal(t, "https://short.test/abc123", shortener.JoinShortURL("https://short.test", "abc123"))
}

func TestErrStoreTimeout_IsUnavailable(t *testing.T) {
	assert.ErrorIs(t, shortener.ErrStoreTimeout, shortener.ErrStoreUnavailable)
}
