package match

import "regexp"

// ScoreWeights are the additive relevance constants. As with the
// classifier tables these are tunable parameters carried over from
// the behaviour this engine replaces, not a normative definition of
// relevance.
type ScoreWeights struct {
	DirectReference   float64
	StrongRefOverlap  float64
	WeakRefOverlap    float64
	SubjectOverlapHi  float64
	SubjectOverlapLo  float64
	BodyOverlapHi     float64
	BodyOverlapMid    float64
	BodyOverlapLo     float64
	DocumentTypeMatch float64
	ProjectPhrase     float64
}

// DefaultWeights returns the v1 relevance weights.
func DefaultWeights() ScoreWeights {
	return ScoreWeights{
		DirectReference:   2.0,
		StrongRefOverlap:  1.5,
		WeakRefOverlap:    1.0,
		SubjectOverlapHi:  1.0,
		SubjectOverlapLo:  0.5,
		BodyOverlapHi:     0.7,
		BodyOverlapMid:    0.4,
		BodyOverlapLo:     0.2,
		DocumentTypeMatch: 0.3,
		ProjectPhrase:     0.5,
	}
}

// documentTypes maps each recognized deliverable type to its synonym
// set. A type scores when a synonym appears in both the artifact
// title and the combined message text.
var documentTypes = []struct {
	name     string
	synonyms []string
}{
	{"report", []string{"report", "reports", "reporting"}},
	{"analysis", []string{"analysis", "analytics", "study"}},
	{"presentation", []string{"presentation", "slides", "deck"}},
	{"document", []string{"document", "doc", "docs"}},
	{"paper", []string{"paper", "papers"}},
	{"proposal", []string{"proposal", "proposals", "plan"}},
	{"review", []string{"review", "feedback"}},
}

// projectPhrasePattern finds proper-noun-like multi-word phrases,
// e.g. "Budget Plan" or "Q3 Marketing Report".
var projectPhrasePattern = regexp.MustCompile(`\b([A-Z]\w+(?:\s+[A-Z]\w+)+)\b`)
