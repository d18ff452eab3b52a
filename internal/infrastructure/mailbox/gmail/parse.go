package gmail

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/kirillkom/doc-responder/internal/core/domain"
)

type gmailMessage struct {
	ID           string       `json:"id"`
	ThreadID     string       `json:"threadId"`
	InternalDate string       `json:"internalDate"`
	Payload      gmailPayload `json:"payload"`
}

type gmailPayload struct {
	MimeType string         `json:"mimeType"`
	Headers  []gmailHeader  `json:"headers"`
	Body     gmailBody      `json:"body"`
	Parts    []gmailPayload `json:"parts"`
}

type gmailHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type gmailBody struct {
	Data string `json:"data"`
}

func parseMessage(raw gmailMessage) domain.Message {
	msg := domain.Message{
		ID:       raw.ID,
		ThreadID: raw.ThreadID,
	}
	for _, h := range raw.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			msg.Subject = h.Value
		case "from":
			msg.Sender = h.Value
		}
	}
	if ms, err := strconv.ParseInt(raw.InternalDate, 10, 64); err == nil {
		msg.Timestamp = time.UnixMilli(ms).UTC()
	}
	msg.Body = extractBody(raw.Payload)
	return msg
}

// extractBody walks the MIME tree depth-first, preferring a text/plain
// part; an HTML part is used only when no plain text exists anywhere.
func extractBody(payload gmailPayload) string {
	if plain := findPart(payload, "text/plain"); plain != "" {
		return plain
	}
	if htmlBody := findPart(payload, "text/html"); htmlBody != "" {
		return htmlToText(htmlBody)
	}
	return ""
}

func findPart(payload gmailPayload, mimeType string) string {
	if strings.HasPrefix(payload.MimeType, mimeType) && payload.Body.Data != "" {
		return decodeBody(payload.Body.Data)
	}
	for _, part := range payload.Parts {
		if text := findPart(part, mimeType); text != "" {
			return text
		}
	}
	return ""
}

func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}

// htmlToText strips markup, keeping only visible text. Script and
// style contents are dropped.
func htmlToText(source string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(source))
	var builder strings.Builder
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(builder.String()), " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); tag == "script" || tag == "style" {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if tag := string(name); (tag == "script" || tag == "style") && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				builder.Write(tokenizer.Text())
				builder.WriteByte(' ')
			}
		}
	}
}
