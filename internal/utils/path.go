package utils

import (
	"strings"
)

// JoinPath joins URL path segments with single forward slashes and a leading "/".
// Empty segments and surrounding slashes are dropped, so JoinPath() is "/".
//
//	JoinPath("api", "items", "42")  -> "/api/items/42"
//	JoinPath("/folder/", "abc")     -> "/folder/abc"
func JoinPath(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(part, "/")
		if part != "" {
			cleaned = append(cleaned, part)
		}
	}

	if len(cleaned) == 0 {
		return "/"
	}

	return "/" + strings.Join(cleaned, "/")
}

// SplitPath is the inverse of JoinPath: it returns the non-empty segments of p.
func SplitPath(p string) []string {
	segments := make([]string, 0, strings.Count(p, "/")+1)
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
