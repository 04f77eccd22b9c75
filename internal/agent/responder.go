package agent

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"mentionbot/internal/config"
	"mentionbot/internal/domain"
	"mentionbot/internal/metrics"
)

// Outcome is the terminal state of one decision cycle.
type Outcome int

const (
	OutcomeNoAction Outcome = iota
	OutcomeSent
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoAction:
		return "no_action"
	case OutcomeSent:
		return "sent"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// Responder decides whether a message deserves a reply and, if so, generates and
// posts it. It keeps no state between calls.
type Responder struct {
	completion domain.CompletionService
	transport  domain.MessagingTransport
	self       domain.User
	prompt     *PromptBuilder
	profile    config.CompletionProfile
	logger     *slog.Logger
}

// ResponderConfig holds the collaborators of a Responder. Self must already be resolved.
type ResponderConfig struct {
	Completion    domain.CompletionService
	Transport     domain.MessagingTransport
	Self          domain.User
	Persona       config.PersonaConfig
	Profile       config.CompletionProfile
	StripMentions bool
	Logger        *slog.Logger
}

func NewResponder(cfg ResponderConfig) *Responder {
	return &Responder{
		completion: cfg.Completion,
		transport:  cfg.Transport,
		self:       cfg.Self,
		prompt:     NewPromptBuilder(cfg.Persona, cfg.StripMentions),
		profile:    cfg.Profile,
		logger:     cfg.Logger,
	}
}

// Handle runs the decision cycle for msg. A non-nil error is always a *ReplyError
// and comes with OutcomeFailed. Nothing is retried.
func (r *Responder) Handle(ctx context.Context, msg domain.Message) (Outcome, error) {
	sender := msg.Sender()
	if sender.ID == r.self.ID || sender.IsBot {
		r.logger.Debug("ignoring message from bot", "sender", sender.ID, "message_id", msg.ID())
		return OutcomeNoAction, nil
	}
	if !msg.Mentions(r.self.ID) {
		r.logger.Debug("bot not mentioned", "message_id", msg.ID())
		return OutcomeNoAction, nil
	}

	req := domain.CompletionRequest{
		Segments: r.prompt.Build(msg, r.self.ID),
		Params: domain.CompletionParams{
			Model:       r.profile.Model,
			Temperature: r.profile.Temperature,
			MaxTokens:   r.profile.MaxTokens,
			Extra:       r.profile.Extra,
		},
	}

	start := time.Now()
	text, err := r.completion.Complete(ctx, req)
	metrics.CompletionLatency.ObserveSince(start)
	if err != nil {
		return OutcomeFailed, &ReplyError{Stage: StageGenerate, Cause: err}
	}
	if strings.TrimSpace(text) == "" {
		return OutcomeFailed, &ReplyError{Stage: StageGenerate, Cause: errEmptyCompletion}
	}

	channelID := msg.Channel().ID
	if err := r.transport.Send(ctx, channelID, text, msg.ThreadRoot()); err != nil {
		return OutcomeFailed, &ReplyError{Stage: StageDispatch, Cause: err}
	}

	r.logger.Info("reply sent",
		"channel", channelID,
		"message_id", msg.ID(),
		"threaded", msg.ThreadRoot().IsPresent(),
		"provider", r.completion.Name(),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return OutcomeSent, nil
}
