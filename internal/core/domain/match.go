package domain

// MatchResult scores one artifact against one classified message.
// Emitted only when the score is strictly positive.
type MatchResult struct {
	ArtifactID     string   `json:"artifact_id"`
	Title          string   `json:"title"`
	RelevanceScore float64  `json:"relevance_score"`
	MatchReasons   []string `json:"match_reasons"`
}
