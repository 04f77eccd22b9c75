package agent

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"mentionbot/internal/domain"
)

// Adapter normalizes transport events into domain messages.
type Adapter struct {
	directory domain.UserDirectory
	logger    *slog.Logger
}

// NewAdapter creates an Adapter. directory may be nil, in which case users and
// channels carry only their ids.
func NewAdapter(directory domain.UserDirectory, logger *slog.Logger) *Adapter {
	return &Adapter{directory: directory, logger: logger}
}

// ToMessage maps evt onto a Message. It fails with ErrInvalidEvent when a required
// field is missing or the timestamp cannot be parsed. Directory failures are not
// fatal: the sender falls back to its id and the event's bot flag.
func (a *Adapter) ToMessage(ctx context.Context, evt domain.InboundEvent) (domain.Message, error) {
	switch {
	case evt.MessageID == "":
		return domain.Message{}, invalidEvent("missing message id")
	case evt.ChannelID == "":
		return domain.Message{}, invalidEvent("missing channel id")
	case evt.SenderID == "":
		return domain.Message{}, invalidEvent("missing sender id")
	case evt.Text == "":
		return domain.Message{}, invalidEvent("missing text")
	case evt.Timestamp == "":
		return domain.Message{}, invalidEvent("missing timestamp")
	}

	ts, err := ParseTimestamp(evt.Timestamp)
	if err != nil {
		return domain.Message{}, invalidEvent(err.Error())
	}

	threadRoot := mo.None[string]()
	if root := strings.TrimSpace(evt.ThreadRoot); root != "" {
		threadRoot = mo.Some(root)
	}

	return domain.NewMessage(domain.MessageParams{
		ID:         evt.MessageID,
		Channel:    a.channel(ctx, evt.ChannelID),
		Sender:     a.sender(ctx, evt),
		Text:       evt.Text,
		Timestamp:  ts,
		ThreadRoot: threadRoot,
	}), nil
}

func (a *Adapter) sender(ctx context.Context, evt domain.InboundEvent) domain.User {
	fallback := domain.User{ID: evt.SenderID, DisplayName: evt.SenderID, IsBot: evt.SenderBot}
	if a.directory == nil {
		return fallback
	}
	u, err := a.directory.LookupUser(ctx, evt.SenderID)
	if err != nil {
		a.logger.Warn("user lookup failed, using id only", "user", evt.SenderID, "err", err)
		return fallback
	}
	return domain.User{
		ID:          evt.SenderID,
		DisplayName: u.DisplayName,
		IsBot:       u.IsBot || evt.SenderBot,
	}
}

func (a *Adapter) channel(ctx context.Context, channelID string) domain.Channel {
	fallback := domain.Channel{ID: channelID, Name: channelID}
	if a.directory == nil {
		return fallback
	}
	ch, err := a.directory.LookupChannel(ctx, channelID)
	if err != nil {
		a.logger.Warn("channel lookup failed, using id only", "channel", channelID, "err", err)
		return fallback
	}
	return domain.Channel{ID: channelID, Name: ch.Name}
}

// ParseTimestamp parses a Slack-style "seconds.fraction" timestamp.
func ParseTimestamp(ts string) (time.Time, error) {
	secPart, fracPart, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil || sec < 0 {
		return time.Time{}, &timestampError{ts: ts}
	}
	var nsec int64
	if fracPart != "" {
		if len(fracPart) > 9 {
			fracPart = fracPart[:9]
		}
		frac, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil || frac < 0 {
			return time.Time{}, &timestampError{ts: ts}
		}
		for i := len(fracPart); i < 9; i++ {
			frac *= 10
		}
		nsec = frac
	}
	return time.Unix(sec, nsec).UTC(), nil
}

type timestampError struct{ ts string }

func (e *timestampError) Error() string { return "unparsable timestamp " + strconv.Quote(e.ts) }
