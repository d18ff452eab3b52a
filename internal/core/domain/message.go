package domain

import (
	"regexp"
	"time"
)

// Message is one inbound mail item as delivered by the mailbox
// collaborator: headers reduced to plain fields, body already decoded
// and stripped of markup. The core treats it as read-only.
type Message struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id,omitempty"`
	Subject   string    `json:"subject"`
	Sender    string    `json:"sender"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

var angleAddress = regexp.MustCompile(`<(.+?)>`)

// ReplyAddress extracts the bare address from a "Name <addr>" sender
// field, or returns the sender unchanged when no brackets are present.
func (m Message) ReplyAddress() string {
	if match := angleAddress.FindStringSubmatch(m.Sender); match != nil {
		return match[1]
	}
	return m.Sender
}
