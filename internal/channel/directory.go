package channel

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/slack-go/slack"

	"mentionbot/internal/domain"
)

// slackLookupAPI is the subset of *slack.Client used by SlackDirectory.
type slackLookupAPI interface {
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
	GetConversationInfoContext(ctx context.Context, input *slack.GetConversationInfoInput) (*slack.Channel, error)
}

// SlackDirectory implements domain.UserDirectory with users.info and
// conversations.info. Successful lookups are cached for the process lifetime.
type SlackDirectory struct {
	api    slackLookupAPI
	logger *slog.Logger

	mu       sync.RWMutex
	users    map[string]domain.User
	channels map[string]domain.Channel
}

func NewSlackDirectory(api slackLookupAPI, logger *slog.Logger) *SlackDirectory {
	return &SlackDirectory{
		api:      api,
		logger:   logger,
		users:    make(map[string]domain.User),
		channels: make(map[string]domain.Channel),
	}
}

func (d *SlackDirectory) LookupUser(ctx context.Context, userID string) (domain.User, error) {
	d.mu.RLock()
	u, ok := d.users[userID]
	d.mu.RUnlock()
	if ok {
		return u, nil
	}

	info, err := d.api.GetUserInfoContext(ctx, userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("slack users.info %s: %w", userID, err)
	}
	u = domain.User{ID: userID, DisplayName: displayName(info), IsBot: info.IsBot}

	d.mu.Lock()
	d.users[userID] = u
	d.mu.Unlock()
	d.logger.Debug("cached slack user", "user", userID, "is_bot", u.IsBot)
	return u, nil
}

func (d *SlackDirectory) LookupChannel(ctx context.Context, channelID string) (domain.Channel, error) {
	d.mu.RLock()
	c, ok := d.channels[channelID]
	d.mu.RUnlock()
	if ok {
		return c, nil
	}

	info, err := d.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{ChannelID: channelID})
	if err != nil {
		return domain.Channel{}, fmt.Errorf("slack conversations.info %s: %w", channelID, err)
	}
	c = domain.Channel{ID: channelID, Name: info.Name}

	d.mu.Lock()
	d.channels[channelID] = c
	d.mu.Unlock()
	return c, nil
}

func displayName(u *slack.User) string {
	switch {
	case u.Profile.DisplayName != "":
		return u.Profile.DisplayName
	case u.RealName != "":
		return u.RealName
	case u.Name != "":
		return u.Name
	}
	return u.ID
}
