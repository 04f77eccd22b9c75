package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"mentionbot/internal/domain"
)

// Anthropic implements domain.CompletionService on the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	logger *slog.Logger
}

type AnthropicConfig struct {
	APIKey  string
	APIBase string // optional; SDK default when empty
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

func NewAnthropic(cfg AnthropicConfig) *Anthropic {
	if cfg.Client == nil {
		cfg.Client = SharedHTTPClient(cfg.Timeout)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(cfg.Client),
		option.WithMaxRetries(0),
	}
	if cfg.APIBase != "" {
		opts = append(opts, option.WithBaseURL(cfg.APIBase))
	}
	return &Anthropic{
		client: anthropic.NewClient(opts...),
		logger: cfg.Logger,
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	var system []anthropic.TextBlockParam
	var msgs []anthropic.MessageParam
	for _, s := range req.Segments {
		switch s.Role {
		case domain.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: s.Content})
		default:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(s.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Params.Model),
		MaxTokens:   int64(req.Params.MaxTokens),
		Messages:    msgs,
		System:      system,
		Temperature: anthropic.Float(req.Params.Temperature),
	}

	// Extras are set on the JSON body in key order so requests are reproducible.
	keys := make([]string, 0, len(req.Params.Extra))
	for k := range req.Params.Extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	opts := make([]option.RequestOption, 0, len(keys))
	for _, k := range keys {
		opts = append(opts, option.WithJSONSet(k, req.Params.Extra[k]))
	}

	start := time.Now()
	msg, err := a.client.Messages.New(ctx, params, opts...)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &APIError{Provider: a.Name(), StatusCode: apiErr.StatusCode, Body: truncateBody(apiErr.Error())}
		}
		return "", fmt.Errorf("anthropic request: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	a.logger.Debug("anthropic completion",
		"model", req.Params.Model,
		"stop_reason", msg.StopReason,
		"output_tokens", msg.Usage.OutputTokens,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return sb.String(), nil
}
