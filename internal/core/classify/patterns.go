package classify

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// TableVersion identifies the built-in scoring tables. Bump when any
// weight, pattern, or phrase list changes.
const TableVersion = "v1"

// Weights are the additive scoring constants. The values mirror the
// behaviour this engine replaces; they are tunable, not normative.
type Weights struct {
	RequestPattern    float64 `yaml:"request_pattern"`
	LiteralPhrase     float64 `yaml:"literal_phrase"`
	QuestionBoost     float64 `yaml:"question_boost"`
	AutomationPenalty float64 `yaml:"automation_penalty"`
	ResponseThreshold float64 `yaml:"response_threshold"`
}

// Tables is the full pattern library consumed by the classifier.
// Instances are immutable after construction.
type Tables struct {
	Version string
	Weights Weights

	// RequestPatterns express request-intent over a deliverable noun.
	// Each pattern with at least one hit contributes Weights.RequestPattern.
	RequestPatterns []*regexp.Regexp

	// LiteralPhrases contribute Weights.LiteralPhrase per phrase found.
	LiteralPhrases []string

	// QuestionMarkers add Weights.QuestionBoost once if any is present.
	QuestionMarkers []string

	// AutomationMarkers subtract Weights.AutomationPenalty once if the
	// sender contains any of them.
	AutomationMarkers []string

	// Reference extraction shapes: quoted deliverables, capitalized
	// multi-word titles, and generic "<word> document" bigrams.
	QuotedReference *regexp.Regexp
	TitledReference *regexp.Regexp
	BigramReference *regexp.Regexp
}

const (
	maxReferences      = 10
	minReferenceLength = 4
)

var defaultRequestPatterns = []string{
	// direct requests
	`\b(send|share|provide|submit)\s+.*\b(document|doc|file|report|paper)\b`,
	`\b(where\s+is|what\s+about|status\s+of|update\s+on)\s+.*\b(document|doc|file|report|paper)\b`,
	`\b(pending|waiting\s+for|awaiting|expecting)\s+.*\b(document|doc|file|report|paper)\b`,

	// status inquiries
	`\b(ready|finished|completed|done)\s+.*\b(document|doc|file|report|paper)\b`,
	`\b(document|doc|file|report|paper)\s+.*\b(ready|finished|completed|done)\b`,

	// review requests
	`\b(review|check|look\s+at|feedback\s+on)\s+.*\b(document|doc|file|report|paper)\b`,
	`\bplease\s+(review|check|send|share)\b`,

	// deadline related
	`\b(deadline|due\s+date|timeline)\b.*\b(document|doc|file|report|paper)\b`,
	`\b(urgent|asap|immediately)\b.*\b(document|doc|file|report|paper)\b`,

	// work completion
	`\b(work|task|project)\s+.*\b(complete|finished|done|ready)\b`,
	`\b(complete|finished|done|ready)\s+.*\b(work|task|project)\b`,
}

var defaultLiteralPhrases = []string{
	"pending document", "document review", "please review", "awaiting document",
	"document status", "completed work", "finished document", "send document",
	"share document", "document ready", "work done", "project complete",
	"status update", "where is", "when will", "document deadline",
}

var defaultQuestionMarkers = []string{
	"?", "when", "where", "what", "how", "please", "can you", "could you",
}

var defaultAutomationMarkers = []string{
	"noreply", "no-reply", "automated", "system", "notification",
}

const (
	quotedReferenceExpr = `(?i)["']([^"']*(?:document|doc|file|report|paper|project)[^"']*)["']`
	titledReferenceExpr = `\b([A-Z][a-zA-Z\s]+(?:Report|Document|Paper|Project|Analysis))\b`
	bigramReferenceExpr = `(?i)\b(\w+\s+(?:document|doc|file|report|paper|project))\b`
)

// DefaultTables returns the built-in v1 pattern library.
func DefaultTables() Tables {
	return Tables{
		Version: TableVersion,
		Weights: Weights{
			RequestPattern:    0.3,
			LiteralPhrase:     0.1,
			QuestionBoost:     0.1,
			AutomationPenalty: 0.2,
			ResponseThreshold: 0.2,
		},
		RequestPatterns:   compileAll(defaultRequestPatterns),
		LiteralPhrases:    defaultLiteralPhrases,
		QuestionMarkers:   defaultQuestionMarkers,
		AutomationMarkers: defaultAutomationMarkers,
		QuotedReference:   regexp.MustCompile(quotedReferenceExpr),
		TitledReference:   regexp.MustCompile(titledReferenceExpr),
		BigramReference:   regexp.MustCompile(bigramReferenceExpr),
	}
}

func compileAll(exprs []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

type tablesFile struct {
	Version           string   `yaml:"version"`
	Weights           *Weights `yaml:"weights"`
	RequestPatterns   []string `yaml:"request_patterns"`
	LiteralPhrases    []string `yaml:"literal_phrases"`
	QuestionMarkers   []string `yaml:"question_markers"`
	AutomationMarkers []string `yaml:"automation_markers"`
}

// LoadTables reads a YAML override file on top of the defaults. Lists
// replace the built-in ones wholesale when present; weights replace
// individually-set fields only when the weights block is present.
func LoadTables(path string) (Tables, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read pattern tables: %w", err)
	}

	var file tablesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Tables{}, fmt.Errorf("parse pattern tables: %w", err)
	}

	tables := DefaultTables()
	if file.Version != "" {
		tables.Version = file.Version
	}
	if file.Weights != nil {
		tables.Weights = *file.Weights
	}
	if len(file.RequestPatterns) > 0 {
		compiled := make([]*regexp.Regexp, 0, len(file.RequestPatterns))
		for _, expr := range file.RequestPatterns {
			re, err := regexp.Compile(expr)
			if err != nil {
				return Tables{}, fmt.Errorf("compile request pattern %q: %w", expr, err)
			}
			compiled = append(compiled, re)
		}
		tables.RequestPatterns = compiled
	}
	if len(file.LiteralPhrases) > 0 {
		tables.LiteralPhrases = file.LiteralPhrases
	}
	if len(file.QuestionMarkers) > 0 {
		tables.QuestionMarkers = file.QuestionMarkers
	}
	if len(file.AutomationMarkers) > 0 {
		tables.AutomationMarkers = file.AutomationMarkers
	}
	return tables, nil
}
