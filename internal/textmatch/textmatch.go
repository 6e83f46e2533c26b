// Package textmatch holds the case-insensitive substring rules shared by the
// local catalog and the remote sources.
package textmatch

import (
	"strings"

	"golang.org/x/text/cases"
)

// Normalize trims the raw query and case-folds it. An empty result means
// there is nothing to search for.
func Normalize(raw string) string {
	return Fold(strings.TrimSpace(raw))
}

func Fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Fold().String(s)
}

// Contains reports whether field contains the already-normalized query.
// Empty fields never match.
func Contains(field, query string) bool {
	if field == "" || query == "" {
		return false
	}
	return strings.Contains(Fold(field), query)
}

// HasPrefix reports whether field starts with the already-normalized query.
func HasPrefix(field, query string) bool {
	if field == "" || query == "" {
		return false
	}
	return strings.HasPrefix(Fold(field), query)
}

// AnyContains reports whether at least one of fields contains query.
func AnyContains(query string, fields ...string) bool {
	for _, f := range fields {
		if Contains(f, query) {
			return true
		}
	}
	return false
}
