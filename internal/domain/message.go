package domain

import (
	"slices"
	"time"

	"github.com/samber/mo"

	"mentionbot/internal/mention"
)

// User is a chat-platform identity observed on an event.
type User struct {
	ID          string
	DisplayName string
	IsBot       bool
}

// Channel is a chat-platform conversation.
type Channel struct {
	ID   string
	Name string
}

// InboundEvent is the transport's raw view of a message before normalization.
// Fields carry platform identifiers verbatim; ThreadRoot is empty for top-level posts.
type InboundEvent struct {
	MessageID  string
	ChannelID  string
	SenderID   string
	SenderBot  bool // platform flagged the sender as an integration/bot
	Text       string
	Timestamp  string
	ThreadRoot string
}

// Message is the normalized, immutable domain message. Construct it with NewMessage.
type Message struct {
	id         string
	channel    Channel
	sender     User
	text       string
	timestamp  time.Time
	threadRoot mo.Option[string]
	mentions   []string
}

// MessageParams groups the inputs of NewMessage.
type MessageParams struct {
	ID         string
	Channel    Channel
	Sender     User
	Text       string
	Timestamp  time.Time
	ThreadRoot mo.Option[string]
}

// NewMessage builds a Message. The mentioned user ids are always extracted from Text.
func NewMessage(p MessageParams) Message {
	return Message{
		id:         p.ID,
		channel:    p.Channel,
		sender:     p.Sender,
		text:       p.Text,
		timestamp:  p.Timestamp,
		threadRoot: p.ThreadRoot,
		mentions:   mention.Extract(p.Text),
	}
}

func (m Message) ID() string { return m.id }
func (m Message) Channel() Channel { return m.channel }
func (m Message) Sender() User { return m.sender }
func (m Message) Text() string { return m.text }
func (m Message) Timestamp() time.Time { return m.timestamp }
func (m Message) ThreadRoot() mo.Option[string] { return m.threadRoot }

// MentionedUserIDs returns the referenced user ids in order of appearance, duplicates included.
func (m Message) MentionedUserIDs() []string {
	return slices.Clone(m.mentions)
}

// Mentions reports whether userID is referenced anywhere in the message.
func (m Message) Mentions(userID string) bool {
	return slices.Contains(m.mentions, userID)
}
