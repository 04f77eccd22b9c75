package config

import "time"

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000

	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

func Defaults() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Timeout:  60 * time.Second,
		},
		Reply: ReplyConfig{
			Profile:        "default",
			StripMentions:  false,
			MaxConcurrency: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
	}
}
