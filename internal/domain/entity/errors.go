package entity

import "errors"

// Feed failure kinds. Sources wrap one of these so callers can classify
// failures with errors.Is.
var (
	ErrNetwork = errors.New("networkError")
	ErrRSS     = errors.New("rssError")
	ErrUnknown = errors.New("unknown")
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrFeedExists   = errors.New("feed already exists")
)

func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return ErrNetwork.Error()
	case errors.Is(err, ErrRSS):
		return ErrRSS.Error()
	default:
		return ErrUnknown.Error()
	}
}
