// Package search derives the normalized searchable text representation of an
// event. It is pure: no I/O, no store coupling. Relevance ranking itself is
// delegated to the relational store's text search over the built document.
package search

import (
	"strings"
	"unicode"
)

// Tokenize lowercases s and splits it on any non-letter, non-digit rune.
// Duplicate tokens are kept so term frequency survives into the document.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// BuildDocument derives the search document from an event's text fields.
// Tags are appended after title and description so a tag term still matches
// when the title stops carrying it.
func BuildDocument(title, description string, tags []string) string {
	tokens := Tokenize(title)
	tokens = append(tokens, Tokenize(description)...)
	for _, tag := range tags {
		tokens = append(tokens, Tokenize(tag)...)
	}
	return strings.Join(tokens, " ")
}

// NormalizeQuery renders a free-text query in the same shape as the stored
// document so the store matches tokens, not raw input.
func NormalizeQuery(q string) string {
	return strings.Join(Tokenize(q), " ")
}
