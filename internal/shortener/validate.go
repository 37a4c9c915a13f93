package shortener

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ValidateURL reports whether raw parses as an absolute URI.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidInput)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	if !u.IsAbs() || (u.Host == "" && u.Opaque == "") {
		return fmt.Errorf("%w: %q is not an absolute url", ErrInvalidInput, raw)
	}

	return nil
}

// ValidateID reports whether id is a well-formed link id.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed id %q", ErrInvalidInput, id)
	}

	return nil
}

// ResolveBaseURL picks the configured base URL, or the request origin when none
// is configured. The result has no trailing slash.
func ResolveBaseURL(configured, origin string) (string, error) {
	base := configured
	if base == "" {
		base = origin
	}

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidConfig, base)
	}

	return strings.TrimRight(base, "/"), nil
}

// JoinShortURL forms the public short URL for a code.
func JoinShortURL(base string, code Code) string {
	return base + "/" + string(code)
}
