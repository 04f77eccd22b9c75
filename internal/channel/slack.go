package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/samber/mo"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"mentionbot/internal/domain"
)

const slackMaxMsgLen = 4000

// Slack implements domain.MessagingTransport over Slack Socket Mode.
type Slack struct {
	botToken string
	appToken string
	api      *slack.Client
	logger   *slog.Logger

	selfMu   sync.Mutex
	self     domain.User
	selfDone bool
}

// SlackConfig configures the Slack channel.
type SlackConfig struct {
	BotToken string
	AppToken string
	APIURL   string // optional; used by tests
	Logger   *slog.Logger
}

// NewSlack creates a new Slack transport. No network call is made until
// ResolveSelfIdentity or Start.
func NewSlack(cfg SlackConfig) *Slack {
	opts := []slack.Option{slack.OptionAppLevelToken(cfg.AppToken)}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	return &Slack{
		botToken: cfg.BotToken,
		appToken: cfg.AppToken,
		api:      slack.New(cfg.BotToken, opts...),
		logger:   cfg.Logger,
	}
}

func (s *Slack) Name() string { return "slack" }

// Client exposes the underlying API client, e.g. for a SlackDirectory.
func (s *Slack) Client() *slack.Client { return s.api }

// ResolveSelfIdentity calls auth.test once and caches the bot's user.
// A failed call is not cached, so a later call retries it.
func (s *Slack) ResolveSelfIdentity(ctx context.Context) (domain.User, error) {
	s.selfMu.Lock()
	defer s.selfMu.Unlock()
	if s.selfDone {
		return s.self, nil
	}

	authResp, err := s.api.AuthTestContext(ctx)
	if err != nil {
		return domain.User{}, fmt.Errorf("slack auth: %w", err)
	}
	if authResp.UserID == "" {
		return domain.User{}, errors.New("slack auth: empty user id")
	}
	s.self = domain.User{ID: authResp.UserID, DisplayName: authResp.User, IsBot: true}
	s.selfDone = true
	s.logger.Info("slack bot identified", "user", authResp.User, "user_id", authResp.UserID, "team", authResp.Team)
	return s.self, nil
}

// Send posts text to channelID, splitting long replies. Every chunk goes to the
// same place: the thread when threadRoot is present, the channel otherwise.
func (s *Slack) Send(ctx context.Context, channelID, text string, threadRoot mo.Option[string]) error {
	for _, chunk := range splitSlackMessage(text, slackMaxMsgLen) {
		opts := []slack.MsgOption{slack.MsgOptionText(chunk, false)}
		if root, ok := threadRoot.Get(); ok {
			opts = append(opts, slack.MsgOptionTS(root))
		}
		if _, _, err := s.api.PostMessageContext(ctx, channelID, opts...); err != nil {
			return fmt.Errorf("slack post to %s: %w", channelID, err)
		}
	}
	return nil
}

// Start connects to Slack via Socket Mode and publishes mention events to bus.
// It blocks until ctx is done or the socket fails.
func (s *Slack) Start(ctx context.Context, bus domain.EventBus) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	socketClient := socketmode.New(s.api)

	ack := func(req socketmode.Request) { socketClient.Ack(req) }
	go s.consumeSocketEvents(ctx, socketClient.Events, ack, bus)

	errCh := make(chan error, 1)
	go func() {
		errCh <- socketClient.RunContext(ctx)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("slack bot disconnecting")
		return nil
	case err := <-errCh:
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("slack socket mode: %w", err)
	}
}

// consumeSocketEvents acknowledges socket events and forwards mentions to bus
// until ctx is done or events is closed.
func (s *Slack) consumeSocketEvents(ctx context.Context, events <-chan socketmode.Event, ack func(socketmode.Request), bus domain.EventBus) {
	for {
		var evt socketmode.Event
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			evt = e
		}

		switch evt.Type {
		case socketmode.EventTypeConnecting:
			s.logger.Info("slack socket connecting")
		case socketmode.EventTypeConnected:
			s.logger.Info("slack socket connected")
		case socketmode.EventTypeConnectionError:
			s.logger.Warn("slack socket connection error")

		case socketmode.EventTypeEventsAPI:
			eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
			if !ok {
				continue
			}
			if evt.Request != nil {
				ack(*evt.Request)
			}
			s.handleEventsAPI(eventsAPIEvent, bus)

		default:
			// Acknowledge unknown events to prevent Socket Mode disconnection.
			if evt.Request != nil {
				ack(*evt.Request)
			}
		}
	}
}

func (s *Slack) handleEventsAPI(event slackevents.EventsAPIEvent, bus domain.EventBus) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		s.logger.Info("slack mention received",
			"user", ev.User,
			"channel", ev.Channel,
			"threaded", ev.ThreadTimeStamp != "",
		)
		bus.Publish(mentionToEvent(ev))
	}
}

// mentionToEvent copies Slack's identifiers verbatim. A Slack message is
// identified by its ts, so it serves as both message id and timestamp.
func mentionToEvent(ev *slackevents.AppMentionEvent) domain.InboundEvent {
	return domain.InboundEvent{
		MessageID:  ev.TimeStamp,
		ChannelID:  ev.Channel,
		SenderID:   ev.User,
		SenderBot:  ev.BotID != "",
		Text:       ev.Text,
		Timestamp:  ev.TimeStamp,
		ThreadRoot: ev.ThreadTimeStamp,
	}
}

// splitSlackMessage cuts msg into chunks of at most maxLen bytes, preferring
// newline boundaries and never splitting a UTF-8 sequence.
func splitSlackMessage(msg string, maxLen int) []string {
	if len(msg) <= maxLen {
		return []string{msg}
	}

	var chunks []string
	for len(msg) > 0 {
		if len(msg) <= maxLen {
			chunks = append(chunks, msg)
			break
		}
		cut := maxLen
		if idx := strings.LastIndex(msg[:maxLen], "\n"); idx > maxLen/2 {
			cut = idx + 1
		}
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxLen
		}
		chunks = append(chunks, msg[:cut])
		msg = msg[cut:]
	}
	return chunks
}
