package domain

import (
	"context"

	"github.com/samber/mo"
)

// MessagingTransport is the outbound side of a chat platform.
type MessagingTransport interface {
	// Send posts text to channelID. A present threadRoot places the reply inside that thread.
	Send(ctx context.Context, channelID, text string, threadRoot mo.Option[string]) error
	// ResolveSelfIdentity returns the bot's own user. Implementations fetch it once.
	ResolveSelfIdentity(ctx context.Context) (User, error)
}

// UserDirectory resolves platform ids into display attributes.
type UserDirectory interface {
	LookupUser(ctx context.Context, userID string) (User, error)
	LookupChannel(ctx context.Context, channelID string) (Channel, error)
}
