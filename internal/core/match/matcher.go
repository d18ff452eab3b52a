// Package match ranks completion-marked artifacts against one
// classified message. Scoring is a pure function of the normalized
// text and the extracted references: identical inputs always produce
// identical scores, order, and reasons.
package match

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kirillkom/doc-responder/internal/core/domain"
	"github.com/kirillkom/doc-responder/internal/core/textnorm"
)

type Matcher struct {
	weights ScoreWeights
	marker  string
}

// New builds a matcher that strips the given completion marker from
// artifact titles before scoring.
func New(completionMarker string, weights ScoreWeights) *Matcher {
	return &Matcher{weights: weights, marker: completionMarker}
}

// Match scores every artifact against the classified message and
// returns the strictly-positive results sorted descending by score.
// Ties keep the original artifact order.
func (m *Matcher) Match(artifacts []domain.Artifact, msg domain.Message, verdict domain.ClassificationVerdict) []domain.MatchResult {
	combined := msg.Subject + " " + msg.Body
	ctx := messageContext{
		subjectWords:  textnorm.Normalize(msg.Subject),
		bodyWords:     textnorm.Normalize(msg.Body),
		combinedWords: textnorm.Normalize(combined),
		phrases:       projectPhrases(combined),
		references:    verdict.DocumentReferences,
	}

	results := make([]domain.MatchResult, 0, len(artifacts))
	for _, artifact := range artifacts {
		score, reasons := m.scoreArtifact(m.stripMarker(artifact.Title), ctx)
		if score <= 0 {
			continue
		}
		results = append(results, domain.MatchResult{
			ArtifactID:     artifact.ID,
			Title:          artifact.Title,
			RelevanceScore: score,
			MatchReasons:   reasons,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
	return results
}

// messageContext holds the normalized message views shared across all
// artifacts in one Match call.
type messageContext struct {
	subjectWords  textnorm.WordSet
	bodyWords     textnorm.WordSet
	combinedWords textnorm.WordSet
	phrases       []string
	references    []string
}

func (m *Matcher) scoreArtifact(title string, ctx messageContext) (float64, []string) {
	titleWords := textnorm.Normalize(title)
	var score float64
	var reasons []string

	// Reference signals, strongest tier only per reference.
	for _, ref := range ctx.references {
		refLower := strings.ToLower(strings.TrimSpace(ref))
		if refLower == "" {
			continue
		}
		refWords := textnorm.Normalize(refLower)

		switch {
		case title != "" && (strings.Contains(title, refLower) || strings.Contains(refLower, title)):
			score += m.weights.DirectReference
			reasons = append(reasons, fmt.Sprintf("Direct reference: %q", ref))
		case textnorm.Overlap(refWords, titleWords) >= 2:
			score += m.weights.StrongRefOverlap
			shared := textnorm.SharedWords(refWords, titleWords)
			reasons = append(reasons, "Reference word overlap: "+strings.Join(shared, ", "))
		case textnorm.Overlap(refWords, titleWords) == 1 && len(refWords) <= 2:
			score += m.weights.WeakRefOverlap
			shared := textnorm.SharedWords(refWords, titleWords)
			reasons = append(reasons, "Reference word overlap: "+strings.Join(shared, ", "))
		}
	}

	// Subject overlap.
	switch n := textnorm.Overlap(ctx.subjectWords, titleWords); {
	case n >= 2:
		score += m.weights.SubjectOverlapHi
		reasons = append(reasons, "Subject overlap: "+strings.Join(textnorm.SharedWords(ctx.subjectWords, titleWords), ", "))
	case n == 1:
		score += m.weights.SubjectOverlapLo
		reasons = append(reasons, "Subject overlap: "+strings.Join(textnorm.SharedWords(ctx.subjectWords, titleWords), ", "))
	}

	// Body overlap carries no reason of its own; it only contributes
	// score, matching the reason priority order.
	switch n := textnorm.Overlap(ctx.bodyWords, titleWords); {
	case n >= 3:
		score += m.weights.BodyOverlapHi
	case n == 2:
		score += m.weights.BodyOverlapMid
	case n == 1:
		score += m.weights.BodyOverlapLo
	}

	// Document-type match, once per distinct type.
	for _, dt := range documentTypes {
		if typeMentioned(dt.synonyms, titleWords) && typeMentioned(dt.synonyms, ctx.combinedWords) {
			score += m.weights.DocumentTypeMatch
			reasons = append(reasons, "Document type match: "+dt.name)
		}
	}

	// Shared proper-noun-like project phrases.
	for _, phrase := range ctx.phrases {
		phraseLower := strings.ToLower(phrase)
		if title == "" {
			continue
		}
		if strings.Contains(title, phraseLower) || strings.Contains(phraseLower, title) {
			score += m.weights.ProjectPhrase
		}
	}

	score = math.Round(score*100) / 100
	if score > 0 && len(reasons) == 0 {
		reasons = []string{"General keyword overlap"}
	}
	return score, reasons
}

// stripMarker removes the completion marker from the end of a title,
// case-insensitively, and normalizes the remainder to lowercase.
func (m *Matcher) stripMarker(title string) string {
	trimmed := strings.TrimSpace(title)
	if m.marker != "" && len(trimmed) >= len(m.marker) {
		tail := trimmed[len(trimmed)-len(m.marker):]
		if strings.EqualFold(tail, m.marker) {
			trimmed = strings.TrimSpace(trimmed[:len(trimmed)-len(m.marker)])
		}
	}
	return strings.ToLower(trimmed)
}

// projectPhrases extracts deduplicated capitalized multi-word phrases
// in discovery order.
func projectPhrases(text string) []string {
	matches := projectPhrasePattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		key := strings.ToLower(m)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}

func typeMentioned(synonyms []string, words textnorm.WordSet) bool {
	for _, syn := range synonyms {
		if words.Contains(syn) {
			return true
		}
	}
	return false
}
