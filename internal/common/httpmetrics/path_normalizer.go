package httpmetrics

import (
	"regexp"
	"strings"
)

var uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)

var knownPaths = map[string]struct{}{
	"/auth/register":         {},
	"/auth/login":            {},
	"/auth/logout":           {},
	"/users/profile":         {},
	"/users/change-password": {},
	"/health":                {},
	"/metrics":               {},
}

// NormalizePath maps a request path to a bounded label set: known routes keep
// their path, ids are collapsed, everything else becomes "other".
func NormalizePath(path string) string {
	if path == "" || path == "/" {
		return "/"
	}

	path = strings.TrimSuffix(path, "/")
	if _, ok := knownPaths[path]; ok {
		return path
	}

	normalized := uuidRegex.ReplaceAllString(path, "{id}")
	if normalized != path {
		return normalized
	}
	return "other"
}
