package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mentionbot/internal/domain"
)

const openAIDefaultBase = "https://api.openai.com/v1"

// OpenAI implements domain.CompletionService for OpenAI-compatible chat completion APIs.
type OpenAI struct {
	apiKey  string
	apiBase string
	client  *http.Client
	logger  *slog.Logger
}

type OpenAIConfig struct {
	APIKey  string
	APIBase string
	Timeout time.Duration
	Client  *http.Client // optional; overrides Timeout
	Logger  *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.APIBase == "" {
		cfg.APIBase = openAIDefaultBase
	}
	if cfg.Client == nil {
		cfg.Client = SharedHTTPClient(cfg.Timeout)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &OpenAI{
		apiKey:  cfg.APIKey,
		apiBase: strings.TrimRight(cfg.APIBase, "/"),
		client:  cfg.Client,
		logger:  cfg.Logger,
	}
}

func (o *OpenAI) Name() string { return "openai" }

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiResponse struct {
	Choices []oaiChoice `json:"choices"`
	Usage   oaiUsage    `json:"usage"`
}

type oaiChoice struct {
	Message      oaiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

type oaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// requestBody merges pass-through extras with the typed parameters. Typed keys win.
func (o *OpenAI) requestBody(req domain.CompletionRequest) map[string]any {
	body := make(map[string]any, len(req.Params.Extra)+4)
	for k, v := range req.Params.Extra {
		body[k] = v
	}

	msgs := make([]oaiMessage, 0, len(req.Segments))
	for _, s := range req.Segments {
		msgs = append(msgs, oaiMessage{Role: string(s.Role), Content: s.Content})
	}
	body["model"] = req.Params.Model
	body["messages"] = msgs
	body["temperature"] = req.Params.Temperature
	if req.Params.MaxTokens > 0 {
		body["max_tokens"] = req.Params.MaxTokens
	}
	body["stream"] = false
	return body
}

func (o *OpenAI) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	jsonBody, err := json.Marshal(o.requestBody(req))
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiBase+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	start := time.Now()
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{Provider: o.Name(), StatusCode: resp.StatusCode, Body: truncateBody(string(respBody))}
	}

	var oaiResp oaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(oaiResp.Choices) == 0 {
		return "", fmt.Errorf("openai: response has no choices")
	}

	choice := oaiResp.Choices[0]
	o.logger.Debug("openai completion",
		"model", req.Params.Model,
		"finish_reason", choice.FinishReason,
		"total_tokens", oaiResp.Usage.TotalTokens,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return choice.Message.Content, nil
}
