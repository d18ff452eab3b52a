package domain

// ClassificationMethod records which path produced a verdict.
type ClassificationMethod string

const (
	MethodPatternBased     ClassificationMethod = "pattern_based"
	MethodExternalJudgment ClassificationMethod = "external_judgment"
	MethodFallbackKeyword  ClassificationMethod = "fallback_keyword"
)

// ClassificationVerdict is the classifier's answer for one message.
// Created once per message and never mutated afterwards.
type ClassificationVerdict struct {
	RequiresResponse   bool                 `json:"requires_response"`
	Confidence         float64              `json:"confidence"`
	MatchedSignals     []string             `json:"matched_signals"`
	DocumentReferences []string             `json:"document_references"`
	Method             ClassificationMethod `json:"method"`
}

// JudgmentVerdict is the raw shape returned by the optional external
// judgment service before coercion into a ClassificationVerdict.
type JudgmentVerdict struct {
	RequiresDocumentResponse bool     `json:"requires_document_response"`
	ConfidenceScore          float64  `json:"confidence_score"`
	DocumentTypeMentioned    string   `json:"document_type_mentioned"`
	DocumentReferences       []string `json:"document_references"`
}
