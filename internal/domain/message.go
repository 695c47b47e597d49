package domain

import "time"

// Sender classifies who authored a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Attachment is a file the user sends along with a message.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType,omitempty"`
	Data     []byte `json:"-"`
}

// ChatMessage is a single entry in the conversation transcript.
// Once appended the message is immutable; the transcript is append-only.
type ChatMessage struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Sender    Sender       `json:"sender"`
	CreatedAt time.Time    `json:"createdAt"`
	Files     []Attachment `json:"files,omitempty"`
	Actions   []ChatAction `json:"actions,omitempty"`
}
