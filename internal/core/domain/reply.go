package domain

import "time"

// OutgoingReply is a composed response ready for the mailbox
// collaborator, optionally with a rendered attachment on local disk.
type OutgoingReply struct {
	To                string `json:"to"`
	Subject           string `json:"subject"`
	Body              string `json:"body"`
	OriginalMessageID string `json:"original_message_id"`
	ThreadID          string `json:"thread_id,omitempty"`
	AttachmentPath    string `json:"attachment_path,omitempty"`
}

// ReplyRecord is the journal entry persisted after a reply is sent.
type ReplyRecord struct {
	ID             string    `json:"id"`
	MessageID      string    `json:"message_id"`
	ArtifactID     string    `json:"artifact_id"`
	Recipient      string    `json:"recipient"`
	Subject        string    `json:"subject"`
	RelevanceScore float64   `json:"relevance_score"`
	SentAt         time.Time `json:"sent_at"`
}

// RunReport aggregates what one scan over the mailbox did. Step
// errors are collected here, not raised.
type RunReport struct {
	RunID              string    `json:"run_id"`
	StartedAt          time.Time `json:"started_at"`
	MessagesAnalyzed   int       `json:"messages_analyzed"`
	ResponsesRequired  int       `json:"responses_required"`
	DocumentsProcessed int       `json:"documents_processed"`
	RepliesSent        int       `json:"replies_sent"`
	Skipped            int       `json:"skipped"`
	Errors             []string  `json:"errors,omitempty"`
}
