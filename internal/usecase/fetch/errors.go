package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFeed means the document parsed but carried no entries.
	ErrEmptyFeed = errors.New("feed contains no entries")

	// ErrParse wraps document decoding failures.
	ErrParse = errors.New("invalid feed document")

	// ErrInvalidURL is returned for malformed or disallowed endpoints.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP is returned when an endpoint resolves to a private address.
	ErrPrivateIP = errors.New("private IP access denied (SSRF prevention)")

	ErrTooManyRedirects = errors.New("too many redirects")

	ErrBodyTooLarge = errors.New("response body too large")

	// ErrUnsupportedKind means no EntryFetcher is registered for the source kind.
	ErrUnsupportedKind = errors.New("unsupported source kind")

	// ErrNoImage is returned by an ImageLookup when the page has no preview image.
	ErrNoImage = errors.New("no preview image found")
)

// HTTPStatusError reports a non-2xx upstream response.
type HTTPStatusError struct {
	StatusCode int
	URL        string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// HTTPStatus returns the upstream status code.
func (e *HTTPStatusError) HTTPStatus() int { return e.StatusCode }
