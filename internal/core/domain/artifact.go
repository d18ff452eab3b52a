package domain

import "time"

// Artifact is one completion-marked document from the artifact
// listing (title still carries the completion marker).
type Artifact struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ModifiedTime time.Time `json:"modified_time"`
	CreatedTime  time.Time `json:"created_time"`
}

// ArtifactContent is the fetched body of an artifact, ready for
// summarization and rendering.
type ArtifactContent struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	ModifiedTime time.Time `json:"modified_time"`
	Size         int       `json:"size"`
}
