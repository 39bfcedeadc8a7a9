package domain

import "strings"

// NormalizeSlug turns a request path into a candidate slug.
// Exactly one leading and one trailing "/" are removed; interior slashes and
// repeated edge slashes are kept, so "//promo" normalizes to "/promo".
func NormalizeSlug(path string) string {
	path = strings.TrimPrefix(path, "/")
	return strings.TrimSuffix(path, "/")
}

// IsRootPath reports whether the path normalizes to the empty slug
func IsRootPath(path string) bool {
	return NormalizeSlug(path) == ""
}
