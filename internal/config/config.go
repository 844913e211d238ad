package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jroeper/jobdigest/internal/model"
)

// Config is the root configuration for the jobdigest service.
type Config struct {
	Sources   []SourceConfig
	Filters   FilterConfig
	AI        AIConfig
	Digest    DigestConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Profile   model.Profile
}

// SourceConfig describes a single job board to fetch.
type SourceConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`        // "greenhouse", "lever", "remoteok", or "rss"
	BoardToken string `yaml:"board_token"` // greenhouse board token / lever site slug
	FeedURL    string `yaml:"feed_url"`    // required for type "rss"
	Enabled    bool   `yaml:"enabled"`
}

// FilterConfig holds keyword, location, and salary filter settings.
type FilterConfig struct {
	RequiredKeywords []string `yaml:"required_keywords"`
	ExcludeLocations []string `yaml:"exclude_locations"`
	MinSalary        int      `yaml:"min_salary"`
}

// AIConfig controls the LLM scoring layer.
type AIConfig struct {
	Enabled  bool
	Provider string        // "openai" or "gemini"
	BaseURL  string        // openai only; defaults to https://api.openai.com/v1
	Model    string        // provider model identifier
	APIKey   string        // expanded from env var by Load
	Timeout  time.Duration // per-request timeout
}

// DigestConfig controls digest timing and delivery.
type DigestConfig struct {
	Times           []string // "HH:MM" wall-clock send times
	Sender          string   // "log" or "gmail"
	From            string
	To              string
	TopN            int
	MinScore        int
	CredentialsFile string // gmail OAuth2 client credentials JSON
	TokenFile       string // cached gmail OAuth2 token
}

// RateLimitConfig controls source-level request spacing.
type RateLimitConfig struct {
	Cooldown  time.Duration            // minimum gap between requests to the same source
	Overrides map[string]time.Duration // per-source overrides, keyed by source name
}

// CooldownFor returns the configured cooldown for the given source, falling
// back to the default.
func (r RateLimitConfig) CooldownFor(source string) time.Duration {
	if d, ok := r.Overrides[source]; ok {
		return d
	}
	return r.Cooldown
}

// StorageConfig controls the SQLite database.
type StorageConfig struct {
	Path      string
	Retention time.Duration // postings older than this are purged
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultGeminiModel   = "gemini-2.5-flash"
)

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as strings).
type rawConfig struct {
	Sources   []SourceConfig     `yaml:"sources"`
	Filters   FilterConfig       `yaml:"filters"`
	AI        rawAIConfig        `yaml:"ai"`
	Digest    rawDigestConfig    `yaml:"digest"`
	RateLimit rawRateLimitConfig `yaml:"rate_limit"`
	Storage   rawStorageConfig   `yaml:"storage"`
	Profile   rawProfile         `yaml:"profile"`
}

type rawAIConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Timeout  string `yaml:"timeout"`
}

type rawDigestConfig struct {
	Times           []string `yaml:"times"`
	Sender          string   `yaml:"sender"`
	From            string   `yaml:"from"`
	To              string   `yaml:"to"`
	TopN            int      `yaml:"top_n"`
	MinScore        int      `yaml:"min_score"`
	CredentialsFile string   `yaml:"credentials_file"`
	TokenFile       string   `yaml:"token_file"`
}

type rawRateLimitConfig struct {
	Cooldown  string            `yaml:"cooldown"`
	Overrides map[string]string `yaml:"overrides"`
}

type rawStorageConfig struct {
	Path      string `yaml:"path"`
	Retention string `yaml:"retention"`
}

type rawProfile struct {
	Name            string   `yaml:"name"`
	CurrentRole     string   `yaml:"current_role"`
	YearsExperience int      `yaml:"years_experience"`
	Skills          []string `yaml:"skills"`
	Strengths       []string `yaml:"strengths"`
	MinSalary       int      `yaml:"min_salary"`
	Locations       []string `yaml:"locations"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	aiTimeout := 30 * time.Second // default
	if raw.AI.Timeout != "" {
		aiTimeout, err = time.ParseDuration(raw.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
		}
	}

	aiProvider := raw.AI.Provider
	if aiProvider == "" {
		aiProvider = "openai"
	}

	aiBaseURL := raw.AI.BaseURL
	if aiBaseURL == "" && aiProvider == "openai" {
		aiBaseURL = defaultOpenAIBaseURL
	}

	aiModel := raw.AI.Model
	if aiModel == "" {
		switch aiProvider {
		case "openai":
			aiModel = defaultOpenAIModel
		case "gemini":
			aiModel = defaultGeminiModel
		}
	}

	cooldown := 2 * time.Second // default
	if raw.RateLimit.Cooldown != "" {
		cooldown, err = time.ParseDuration(raw.RateLimit.Cooldown)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.cooldown %q: %w", raw.RateLimit.Cooldown, err)
		}
	}

	overrides := make(map[string]time.Duration)
	for source, rawDelay := range raw.RateLimit.Overrides {
		d, err := time.ParseDuration(rawDelay)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.overrides[%q]: %w", source, err)
		}
		overrides[source] = d
	}

	retention := 30 * 24 * time.Hour // default: 30 days
	if raw.Storage.Retention != "" {
		retention, err = time.ParseDuration(raw.Storage.Retention)
		if err != nil {
			return nil, fmt.Errorf("parse storage.retention %q: %w", raw.Storage.Retention, err)
		}
	}

	dbPath := raw.Storage.Path
	if dbPath == "" {
		dbPath = "jobdigest.db"
	}

	digestTimes := raw.Digest.Times
	if len(digestTimes) == 0 {
		digestTimes = []string{"08:00", "18:00"}
	}

	sender := raw.Digest.Sender
	if sender == "" {
		sender = "log"
	}

	topN := raw.Digest.TopN
	if topN <= 0 {
		topN = 10
	}

	cfg := &Config{
		Sources: raw.Sources,
		Filters: raw.Filters,
		AI: AIConfig{
			Enabled:  raw.AI.Enabled,
			Provider: aiProvider,
			BaseURL:  aiBaseURL,
			Model:    aiModel,
			APIKey:   raw.AI.APIKey,
			Timeout:  aiTimeout,
		},
		Digest: DigestConfig{
			Times:           digestTimes,
			Sender:          sender,
			From:            raw.Digest.From,
			To:              raw.Digest.To,
			TopN:            topN,
			MinScore:        raw.Digest.MinScore,
			CredentialsFile: raw.Digest.CredentialsFile,
			TokenFile:       raw.Digest.TokenFile,
		},
		RateLimit: RateLimitConfig{
			Cooldown:  cooldown,
			Overrides: overrides,
		},
		Storage: StorageConfig{
			Path:      dbPath,
			Retention: retention,
		},
		Profile: model.Profile{
			Name:            raw.Profile.Name,
			CurrentRole:     raw.Profile.CurrentRole,
			YearsExperience: raw.Profile.YearsExperience,
			Skills:          raw.Profile.Skills,
			Strengths:       raw.Profile.Strengths,
			MinSalary:       raw.Profile.MinSalary,
			Locations:       raw.Profile.Locations,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	enabled := 0
	for _, s := range cfg.Sources {
		if !s.Enabled {
			continue
		}
		enabled++
		switch s.Type {
		case "greenhouse", "lever":
			if s.BoardToken == "" {
				return fmt.Errorf("sources[%q]: board_token is required for type %q", s.Name, s.Type)
			}
		case "rss":
			if s.FeedURL == "" {
				return fmt.Errorf("sources[%q]: feed_url is required for type \"rss\"", s.Name)
			}
		case "remoteok":
		default:
			return fmt.Errorf("sources[%q]: unknown type %q", s.Name, s.Type)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	for _, t := range cfg.Digest.Times {
		if _, err := time.Parse("15:04", t); err != nil {
			return fmt.Errorf("digest.times: invalid time %q: want HH:MM", t)
		}
	}

	switch cfg.Digest.Sender {
	case "log":
	case "gmail":
		if cfg.Digest.From == "" || cfg.Digest.To == "" {
			return fmt.Errorf("digest.from and digest.to are required when sender is \"gmail\"")
		}
		if cfg.Digest.CredentialsFile == "" {
			return fmt.Errorf("digest.credentials_file is required when sender is \"gmail\"")
		}
		if cfg.Digest.TokenFile == "" {
			return fmt.Errorf("digest.token_file is required when sender is \"gmail\"")
		}
	default:
		return fmt.Errorf("digest.sender must be \"log\" or \"gmail\", got %q", cfg.Digest.Sender)
	}

	if cfg.AI.Enabled {
		if cfg.AI.Provider != "openai" && cfg.AI.Provider != "gemini" {
			return fmt.Errorf("ai.provider must be \"openai\" or \"gemini\", got %q", cfg.AI.Provider)
		}
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	return nil
}
