package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"mentionbot/internal/domain"
	"mentionbot/internal/metrics"
)

const defaultConcurrency = 4

// Loop consumes inbound events and runs adapt -> decide for each one.
type Loop struct {
	bus         domain.EventBus
	adapter     *Adapter
	responder   *Responder
	logger      *slog.Logger
	concurrency int
}

// LoopConfig holds all dependencies and tuning parameters for the loop.
type LoopConfig struct {
	Bus         domain.EventBus
	Adapter     *Adapter
	Responder   *Responder
	Logger      *slog.Logger
	Concurrency int // max events handled in parallel
}

func NewLoop(cfg LoopConfig) *Loop {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return &Loop{
		bus:         cfg.Bus,
		adapter:     cfg.Adapter,
		responder:   cfg.Responder,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
	}
}

// Run consumes events with bounded concurrency until ctx is done or the bus closes.
// It waits for in-flight events before returning. Per-event failures never stop it.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("reply loop started", "concurrency", l.concurrency)

	sem := make(chan struct{}, l.concurrency)
	inbound := l.bus.Subscribe()
	var wg sync.WaitGroup
	defer wg.Wait()

	// Replies already requested run to completion even after shutdown begins.
	eventCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("reply loop stopping")
			return
		case evt, ok := <-inbound:
			if !ok {
				l.logger.Info("inbound channel closed, reply loop stopping")
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				l.logger.Info("reply loop stopping", "dropped_message_id", evt.MessageID)
				return
			}
			wg.Add(1)
			go func(e domain.InboundEvent) {
				defer wg.Done()
				defer func() { <-sem }()
				_, _ = l.HandleEvent(eventCtx, e)
			}(evt)
		}
	}
}

// HandleEvent runs one event through the pipeline, logging and counting the result.
// Panics are recovered and reported as failures.
func (l *Loop) HandleEvent(ctx context.Context, evt domain.InboundEvent) (outcome Outcome, err error) {
	logger := l.logger.With("event_id", uuid.NewString(), "channel", evt.ChannelID, "message_id", evt.MessageID)
	metrics.EventsTotal.Inc()
	metrics.InFlight.Inc()
	defer metrics.InFlight.Dec()

	defer func() {
		if rec := recover(); rec != nil {
			outcome, err = OutcomeFailed, fmt.Errorf("panic handling event: %v", rec)
			logger.Error("event handler panicked", "panic", rec)
			metrics.Outcome(outcome.String()).Inc()
		}
	}()

	msg, err := l.adapter.ToMessage(ctx, evt)
	if err != nil {
		logger.Warn("dropping event", "err", err)
		metrics.InvalidEventsTotal.Inc()
		return OutcomeNoAction, err
	}

	outcome, err = l.responder.Handle(ctx, msg)
	metrics.Outcome(outcome.String()).Inc()
	if err != nil {
		var rerr *ReplyError
		if errors.As(err, &rerr) {
			logger.Error("reply failed", "stage", rerr.Stage, "err", rerr.Cause)
		} else {
			logger.Error("reply failed", "err", err)
		}
		return outcome, err
	}
	logger.Debug("event handled", "outcome", outcome.String(), "sender", msg.Sender().ID)
	return outcome, nil
}
