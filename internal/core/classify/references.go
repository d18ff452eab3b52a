package classify

import (
	"regexp"
	"strings"
)

// extractReferences pulls candidate document names out of the
// original-case subject and body: quoted deliverables first, then
// capitalized title phrases, then generic "<word> document" bigrams.
// Output is deduplicated in discovery order, entries of three or
// fewer characters are dropped, and the list is capped at ten.
func extractReferences(tables Tables, subject, body string) []string {
	text := subject + " " + body

	var found []string
	for _, pattern := range []*regexp.Regexp{
		tables.QuotedReference, tables.TitledReference, tables.BigramReference,
	} {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			found = append(found, firstGroup(m))
		}
	}
	return sanitizeReferences(found)
}

// sanitizeReferences enforces the reference invariants shared by the
// pattern path and the external judgment path.
func sanitizeReferences(refs []string) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, maxReferences)
	for _, ref := range refs {
		ref = strings.TrimSpace(strings.Trim(strings.TrimSpace(ref), `"'`))
		if len(ref) < minReferenceLength {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, ref)
		if len(out) == maxReferences {
			break
		}
	}
	return out
}
