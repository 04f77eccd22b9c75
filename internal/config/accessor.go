package config

import (
	"maps"

	"gopkg.in/yaml.v3"
)

// Sanitize returns a copy of the config with secrets masked.
func Sanitize(cfg *Config) *Config {
	out := *cfg
	out.Completion = make(map[string]CompletionProfile, len(cfg.Completion))
	for name, p := range cfg.Completion {
		p.Extra = maps.Clone(p.Extra)
		out.Completion[name] = p
	}

	out.Transport.BotToken = maskString(out.Transport.BotToken)
	out.Transport.AppToken = maskString(out.Transport.AppToken)
	out.LLM.APIKey = maskString(out.LLM.APIKey)
	return &out
}

// Marshal renders cfg as a YAML document.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// maskString shows first 4 and last 4 chars, masks the rest.
func maskString(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
