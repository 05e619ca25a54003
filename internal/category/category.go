// Package category holds the closed set of expense categories. Every
// component that needs membership or fallback checks consults this single
// list so there are no divergent copies.
package category

import "strings"

// Category is one label from the fixed category set.
type Category string

// Other is the fallback category for anything that cannot be classified.
const Other Category = "Other"

var categories = []Category{
	"Groceries",
	"Dining Out",
	"Transportation",
	"Utilities",
	"Shopping",
	"Entertainment",
	"Healthcare",
	"Travel",
	"Education",
	"Gifts",
	"Services",
	Other,
}

// All returns the ordered category set.
func All() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// IsValid reports whether c is a member of the category set.
func IsValid(c Category) bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

// Normalize maps an arbitrary label onto the category set: exact match
// first, then case-insensitive match, then Other. The result is always a
// member of the set.
func Normalize(label string) Category {
	c := Category(label)
	if IsValid(c) {
		return c
	}
	for _, known := range categories {
		if strings.EqualFold(label, string(known)) {
			return known
		}
	}
	return Other
}

// List returns the category names joined for use in prompts.
func List() string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
