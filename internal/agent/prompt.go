package agent

import (
	"mentionbot/internal/config"
	"mentionbot/internal/domain"
	"mentionbot/internal/mention"
)

// PromptBuilder turns a message into the two-part prompt sent for generation.
type PromptBuilder struct {
	persona       config.PersonaConfig
	stripMentions bool
}

func NewPromptBuilder(persona config.PersonaConfig, stripMentions bool) *PromptBuilder {
	return &PromptBuilder{persona: persona, stripMentions: stripMentions}
}

// Build returns the system segment followed by the user segment. The user text is
// forwarded verbatim unless mention stripping is enabled, in which case only the
// bot's own references are removed. Stripping never produces an empty user segment.
func (p *PromptBuilder) Build(msg domain.Message, botID string) []domain.Segment {
	text := msg.Text()
	if p.stripMentions {
		if stripped := mention.Strip(text, botID); stripped != "" {
			text = stripped
		}
	}
	return []domain.Segment{
		{Role: domain.RoleSystem, Content: p.persona.SystemPrompt},
		{Role: domain.RoleUser, Content: text},
	}
}
