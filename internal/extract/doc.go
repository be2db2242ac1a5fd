// Package extract turns raw feed entries into normalized articles.
//
// Every function here is pure: no network access, no shared state. Each field
// has an ordered fallback chain and a degraded-but-valid default, so a sloppy
// upstream document never produces an error except for the two required
// fields (title and link). The remote social-preview image lookup is the one
// step of the image chain that needs I/O; it lives with the source fetcher.
package extract
