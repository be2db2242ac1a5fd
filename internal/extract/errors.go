package extract

import "errors"

var (
	// ErrMissingTitle is returned by BuildArticle for an entry without a usable title.
	ErrMissingTitle = errors.New("entry has no title")

	// ErrMissingLink is returned by BuildArticle for an entry without an absolute link.
	ErrMissingLink = errors.New("entry has no link")
)

// Sentinel values used when an optional field is absent upstream.
const (
	NoDescription = "No description"
	UnknownAuthor = "Unknown Author"
	NoDate        = "No date"
)
