// Package pathutil maps request paths to bounded metric labels.
package pathutil

import "strings"

// OtherPath is the label for any path that is not a registered route.
const OtherPath = "other"

// knownPaths are the routes the API and worker servers expose.
var knownPaths = map[string]struct{}{
	"/":                    {},
	"/api/news":            {},
	"/api/news/categories": {},
	"/health":              {},
	"/health/ready":        {},
	"/health/sources":      {},
	"/ready":               {},
	"/live":                {},
	"/metrics":             {},
}

// NormalizePath returns the path when it is a known route and OtherPath
// otherwise, so scanners probing random URLs cannot blow up label cardinality.
//
// Query parameters and trailing slashes are ignored:
//
//	NormalizePath("/api/news?x=1")   // "/api/news"
//	NormalizePath("/api/news/")      // "/api/news"
//	NormalizePath("/wp-login.php")   // "other"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if _, ok := knownPaths[path]; ok {
		return path
	}
	return OtherPath
}

// GetExpectedCardinality returns the number of distinct labels NormalizePath
// can produce.
func GetExpectedCardinality() int {
	return len(knownPaths) + 1
}
