package entity

// Entry is one raw item as returned by an upstream document, before
// normalization. Fields are copied verbatim from the parser; empty strings
// mean the upstream did not provide the field.
type Entry struct {
	Title       string
	Link        string
	Description string
	Content     string
	Author      string
	Published   string

	// MediaContent holds media:content URLs in document order.
	MediaContent []string
	// MediaThumbnails holds media:thumbnail URLs in document order.
	MediaThumbnails []string
	// Enclosures holds enclosure links in document order.
	Enclosures []string
	// Image is an item-level image declared by the document itself.
	Image string

	Tags []string
}
