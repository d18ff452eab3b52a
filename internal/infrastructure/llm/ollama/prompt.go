package ollama

import (
	"fmt"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

const (
	maxJudgmentBodyChars = 1000
	maxSummarySnippet    = 4000
)

func buildJudgmentPrompt(msg domain.Message) string {
	body := msg.Body
	if len(body) > maxJudgmentBodyChars {
		body = body[:maxJudgmentBodyChars]
	}

	return fmt.Sprintf(`You decide whether an email is asking for a completed work document.
Return strict JSON object with keys:
requires_document_response (boolean), confidence_score (number from 0 to 1), document_type_mentioned (string), document_references (array of strings).
No markdown, no extra keys.

Subject: %s
From: %s
Body:
%s`, msg.Subject, msg.Sender, body)
}

func buildSummaryPrompt(title, snippet string) string {
	return fmt.Sprintf(`Provide a concise professional summary of the document titled %q.
Focus on key objectives, main findings, deliverables, and conclusions.
The summary will be shared in a professional email response.

Document content:
%s`, title, snippet)
}

func buildReplyPrompt(original domain.Message, content domain.ArtifactContent, summary string) string {
	return fmt.Sprintf(`Compose a professional email response.

Original email subject: %s
Original sender: %s
Document completed: %s

The email should acknowledge the request, inform that the requested
document has been completed, include the summary below, mention that
the full document is attached as PDF, and stay polite and professional.
Write the email body only, no subject line.

Document Summary:
%s`, original.Subject, original.Sender, content.Title, summary)
}

// fallbackReplyBody is the deterministic template used when reply
// generation fails or returns nothing usable.
func fallbackReplyBody(title, summary string) string {
	return fmt.Sprintf(`Hello,

Thank you for your email regarding the document request.

I'm pleased to inform you that the requested document %q has been completed and is ready for your review.

Document Summary:
%s

Please find the complete document attached as a PDF file. Feel free to reach out if you have any questions or need any clarifications.

Best regards`, title, summary)
}
