package domain

import "strings"

// GlobalCategory is the shared partition visible to every session.
const GlobalCategory = "global"

// ResolveCategory returns the partition a document is stored under.
// Global uploads go to GlobalCategory, everything else is private to
// the owning session.
func ResolveCategory(session string, global bool) (string, error) {
	if global {
		return GlobalCategory, nil
	}
	session = strings.TrimSpace(session)
	if session == "" {
		return "", ErrMissingSession
	}
	return session, nil
}

// CategoryFilter restricts a vector query to a set of categories.
// A filter with no categories matches nothing; callers always name the
// partitions they are allowed to see.
type CategoryFilter struct {
	Categories []string
}

// InCategories builds a filter matching any of the given categories.
func InCategories(categories ...string) CategoryFilter {
	return CategoryFilter{Categories: categories}
}

// Matches reports whether a record in category passes the filter.
func (f CategoryFilter) Matches(category string) bool {
	for _, c := range f.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the filter names no categories.
func (f CategoryFilter) IsEmpty() bool {
	return len(f.Categories) == 0
}
