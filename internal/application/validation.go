package application

import (
	"errors"
	"net/url"

	"github.com/samber/lo"
)

// Validation failures. The messages double as translation keys for a UI.
var (
	ErrRequired   = errors.New("errors.required")
	ErrInvalidURL = errors.New("errors.url")
	ErrDuplicate  = errors.New("errors.notOneOf")
)

// ValidateURL checks a feed URL submitted by a user. Every failed rule is
// reported; use errors.Is to test for a specific one.
func ValidateURL(raw string, existing []string) error {
	if raw == "" {
		return ErrRequired
	}

	var errs []error
	if !isHTTPURL(raw) {
		errs = append(errs, ErrInvalidURL)
	}
	if lo.Contains(existing, raw) {
		errs = append(errs, ErrDuplicate)
	}
	return errors.Join(errs...)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
