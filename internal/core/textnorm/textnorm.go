// Package textnorm is the normalization primitive shared by the
// classifier and the matcher: lowercase whitespace-separated word
// sets and their intersections. No stemming, no locale handling.
package textnorm

import (
	"sort"
	"strings"
)

// WordSet is a normalized bag of distinct lowercase words.
type WordSet map[string]struct{}

// Normalize lowercases text and splits it on whitespace into a set.
func Normalize(text string) WordSet {
	fields := strings.Fields(strings.ToLower(text))
	set := make(WordSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Overlap returns the cardinality of the intersection of a and b.
func Overlap(a, b WordSet) int {
	if len(b) < len(a) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}

// SharedWords returns the intersection of a and b sorted
// lexicographically, so identical inputs always produce identical
// output regardless of map iteration order.
func SharedWords(a, b WordSet) []string {
	if len(b) < len(a) {
		a, b = b, a
	}
	out := make([]string, 0, len(a))
	for w := range a {
		if _, ok := b[w]; ok {
			out = append(out, w)
		}
	}
	sort.Strings(out)
	return out
}

// Contains reports whether the set holds word.
func (s WordSet) Contains(word string) bool {
	_, ok := s[word]
	return ok
}
