package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/samber/mo"

	"mentionbot/internal/config"
	"mentionbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type sendCall struct {
	channelID  string
	text       string
	threadRoot mo.Option[string]
}

type fakeTransport struct {
	mu      sync.Mutex
	self    domain.User
	sendErr error
	sent    []sendCall
}

func (f *fakeTransport) Send(ctx context.Context, channelID, text string, threadRoot mo.Option[string]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sendCall{channelID: channelID, text: text, threadRoot: threadRoot})
	return nil
}

func (f *fakeTransport) ResolveSelfIdentity(ctx context.Context) (domain.User, error) {
	return f.self, nil
}

func (f *fakeTransport) calls() []sendCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sendCall(nil), f.sent...)
}

type fakeCompletion struct {
	mu    sync.Mutex
	reply string
	err   error
	reqs  []domain.CompletionRequest
}

func (f *fakeCompletion) Name() string { return "fake" }

func (f *fakeCompletion) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeCompletion) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

type fakeDirectory struct {
	users    map[string]domain.User
	channels map[string]domain.Channel
}

var errNotFound = errors.New("not found")

func (d *fakeDirectory) LookupUser(ctx context.Context, id string) (domain.User, error) {
	u, ok := d.users[id]
	if !ok {
		return domain.User{}, errNotFound
	}
	return u, nil
}

func (d *fakeDirectory) LookupChannel(ctx context.Context, id string) (domain.Channel, error) {
	c, ok := d.channels[id]
	if !ok {
		return domain.Channel{}, errNotFound
	}
	return c, nil
}

var botUser = domain.User{ID: "BOT1", DisplayName: "helper", IsBot: true}

func testProfile() config.CompletionProfile {
	return config.CompletionProfile{
		Model:       "gpt-test",
		Temperature: config.DefaultTemperature,
		MaxTokens:   config.DefaultMaxTokens,
		Extra:       map[string]any{"top_p": 0.9},
	}
}

func newTestResponder(c *fakeCompletion, tr *fakeTransport, strip bool) *Responder {
	return NewResponder(ResponderConfig{
		Completion:    c,
		Transport:     tr,
		Self:          botUser,
		Persona:       config.PersonaConfig{Name: "Helper", SystemPrompt: "You are helpful."},
		Profile:       testProfile(),
		StripMentions: strip,
		Logger:        testLogger(),
	})
}

func message(sender domain.User, text string, threadRoot mo.Option[string]) domain.Message {
	return domain.NewMessage(domain.MessageParams{
		ID:         "1700000000.000100",
		Channel:    domain.Channel{ID: "C1", Name: "general"},
		Sender:     sender,
		Text:       text,
		ThreadRoot: threadRoot,
	})
}
