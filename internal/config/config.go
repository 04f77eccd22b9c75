package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for mentionbot. It is built once by Load and
// must be treated as read-only afterwards.
type Config struct {
	Transport  TransportConfig              `yaml:"transport"`
	Completion map[string]CompletionProfile `yaml:"completion"`
	Persona    PersonaConfig                `yaml:"persona"`
	LLM        LLMConfig                    `yaml:"llm"`
	Reply      ReplyConfig                  `yaml:"reply"`
	Log        LogConfig                    `yaml:"log"`
	Metrics    MetricsConfig                `yaml:"metrics"`
}

// TransportConfig holds the Slack credentials. AppToken is required for Socket Mode.
type TransportConfig struct {
	BotToken string `yaml:"bot_token"`
	AppToken string `yaml:"app_token"`
}

type PersonaConfig struct {
	Name         string `yaml:"name"`
	SystemPrompt string `yaml:"system_prompt"`
}

// CompletionProfile is a named bundle of generation parameters.
// Keys other than model, temperature and max_tokens land in Extra untouched.
type CompletionProfile struct {
	Model       string         `yaml:"model"`
	Temperature float64        `yaml:"temperature"`
	MaxTokens   int            `yaml:"max_tokens"`
	Extra       map[string]any `yaml:",inline"`
}

func (p *CompletionProfile) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Model       string         `yaml:"model"`
		Temperature *float64       `yaml:"temperature"`
		MaxTokens   *int           `yaml:"max_tokens"`
		Extra       map[string]any `yaml:",inline"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*p = CompletionProfile{
		Model:       raw.Model,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Extra:       raw.Extra,
	}
	if raw.Temperature != nil {
		p.Temperature = *raw.Temperature
	}
	if raw.MaxTokens != nil {
		p.MaxTokens = *raw.MaxTokens
	}
	return nil
}

// LLMConfig selects and authenticates the completion backend.
type LLMConfig struct {
	Provider string        `yaml:"provider"` // "openai" | "anthropic"
	APIKey   string        `yaml:"api_key"`
	APIBase  string        `yaml:"api_base"`
	Timeout  time.Duration `yaml:"timeout"`
}

type ReplyConfig struct {
	Profile        string `yaml:"profile"`
	StripMentions  bool   `yaml:"strip_mentions"`
	MaxConcurrency int    `yaml:"max_concurrency"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// MetricsConfig enables the Prometheus text endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
	Path   string `yaml:"path"`
}

// Profile returns a copy of the named completion profile.
func (c *Config) Profile(name string) (CompletionProfile, bool) {
	p, ok := c.Completion[name]
	if !ok {
		return CompletionProfile{}, false
	}
	p.Extra = maps.Clone(p.Extra)
	return p, true
}

// requiredFields are checked in this order after interpolation.
var requiredFields = []string{
	"transport.bot_token",
	"transport.app_token",
	"persona.name",
	"persona.system_prompt",
	"completion.default",
}

func DefaultConfigPath() string {
	return "mentionbot.yaml"
}

// Load reads the settings document at path and builds a Config using the process environment.
func Load(path string) (*Config, error) {
	return LoadWithLookup(path, os.LookupEnv)
}

// LoadWithLookup is Load with an explicit environment lookup.
//
// The document is parsed first, then every string leaf is interpolated, then required
// fields are checked, then the tree is decoded and validated. The first failure wins.
func LoadWithLookup(path string, lookup LookupFunc) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}
	return Parse(data, lookup)
}

// Parse builds a Config from raw document bytes.
func Parse(data []byte, lookup LookupFunc) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	root := documentRoot(&doc)
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: document root must be a mapping", ErrMalformed)
	}

	substituted := make(map[*yaml.Node]string)
	if err := interpolateNode(root, "", lookup, substituted); err != nil {
		return nil, err
	}

	for _, field := range requiredFields {
		if isBlank(lookupNode(root, strings.Split(field, ".")...)) {
			return nil, &MissingFieldError{Path: field}
		}
	}

	if err := coerceTypedFields(root, substituted); err != nil {
		return nil, err
	}

	cfg := Defaults()
	if err := root.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	return doc.Content[0]
}

// lookupNode walks mapping keys from n. Aliases are followed.
func lookupNode(n *yaml.Node, keys ...string) *yaml.Node {
	cur := n
	for _, key := range keys {
		if cur != nil && cur.Kind == yaml.AliasNode {
			cur = cur.Alias
		}
		if cur == nil || cur.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(cur.Content); i += 2 {
			if cur.Content[i].Value == key {
				next = cur.Content[i+1]
				break
			}
		}
		cur = next
	}
	if cur != nil && cur.Kind == yaml.AliasNode {
		cur = cur.Alias
	}
	return cur
}

func isBlank(n *yaml.Node) bool {
	if n == nil {
		return true
	}
	if n.Kind == yaml.ScalarNode {
		return n.ShortTag() == "!!null" || strings.TrimSpace(n.Value) == ""
	}
	return false
}

// Validate checks the values that are not covered by the required-field pass.
func Validate(cfg *Config) error {
	var errs []string

	if _, ok := cfg.Completion[cfg.Reply.Profile]; !ok {
		errs = append(errs, fmt.Sprintf("reply.profile references unknown completion profile: %s", cfg.Reply.Profile))
	}
	for name, p := range cfg.Completion {
		if p.MaxTokens < 1 {
			errs = append(errs, fmt.Sprintf("completion.%s.max_tokens must be >= 1", name))
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			errs = append(errs, fmt.Sprintf("completion.%s.temperature must be between 0 and 2", name))
		}
	}

	switch cfg.LLM.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		errs = append(errs, "llm.provider must be one of: openai, anthropic")
	}
	if cfg.LLM.Timeout < 0 {
		errs = append(errs, "llm.timeout must not be negative")
	}

	if cfg.Reply.MaxConcurrency < 1 || cfg.Reply.MaxConcurrency > 100 {
		errs = append(errs, "reply.max_concurrency must be between 1 and 100")
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "log.level must be one of: debug, info, warn, error")
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, "log.format must be one of: text, json")
	}

	if len(errs) > 0 {
		return errors.New("config validation errors:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
