package config

import (
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/shubh-37/minddump/internal/taxonomy"
)

const configPathEnv = "MINDDUMP_CONFIG"

type Config struct {
	Port      string `yaml:"port"`
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	Analysis AnalysisConfig `yaml:"analysis"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Webhooks WebhookConfig  `yaml:"webhooks"`
	Storage  StorageConfig  `yaml:"storage"`
	Slack    SlackConfig    `yaml:"slack"`
	Linear   LinearConfig   `yaml:"linear"`
}

type AnalysisConfig struct {
	Provider     string        `yaml:"provider"` // "anthropic", "gemini" or "mock"
	AnthropicKey string        `yaml:"-"`
	Model        string        `yaml:"model"`
	GeminiKey    string        `yaml:"-"`
	GeminiModel  string        `yaml:"geminiModel"`
	Timeout      time.Duration `yaml:"timeout"`
}

type SheetsConfig struct {
	CredentialsJSON string        `yaml:"-"`
	CredentialsFile string        `yaml:"credentialsFile"`
	MasterSheetID   string        `yaml:"masterSheetId"`
	MasterRange     string        `yaml:"masterRange"`
	EncryptionKey   string        `yaml:"-"`
	ProjectTimeout  time.Duration `yaml:"projectTimeout"`
}

type WebhookConfig struct {
	Enabled bool              `yaml:"enabled"`
	URLs    map[string]string `yaml:"urls"` // category id -> endpoint
}

type StorageConfig struct {
	Backend     string `yaml:"backend"` // "none", "memory" or "postgres"
	DatabaseURL string `yaml:"databaseUrl"`
}

type SlackConfig struct {
	BotToken      string `yaml:"-"`
	SigningSecret string `yaml:"-"`
}

type LinearConfig struct {
	WebhookSecret string `yaml:"-"`
}

// Load reads configuration from a .env file, an optional YAML file named by
// MINDDUMP_CONFIG and finally the process environment, in increasing order
// of precedence.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "config: read %s", path)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, eris.Wrapf(err, "config: parse %s", path)
		}
	}

	cfg.normalizeWebhookURLs()
	cfg.applyEnv()

	if cfg.Sheets.CredentialsJSON == "" && cfg.Sheets.CredentialsFile != "" {
		raw, err := os.ReadFile(cfg.Sheets.CredentialsFile)
		if err != nil {
			return nil, eris.Wrapf(err, "config: read credentials %s", cfg.Sheets.CredentialsFile)
		}
		cfg.Sheets.CredentialsJSON = string(raw)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Port:      "8080",
		LogLevel:  "info",
		LogFormat: "json",
		Analysis: AnalysisConfig{
			Provider:    "anthropic",
			Model:       "claude-sonnet-4-5-20250929",
			GeminiModel: "gemini-2.5-flash",
			Timeout:     30 * time.Second,
		},
		Sheets: SheetsConfig{
			MasterRange:    "Sheet1!A:F",
			ProjectTimeout: 15 * time.Second,
		},
		Webhooks: WebhookConfig{URLs: map[string]string{}},
		Storage:  StorageConfig{Backend: "none"},
	}
}

func (c *Config) applyEnv() {
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	setString(&c.Analysis.Provider, "ANALYSIS_PROVIDER")
	setString(&c.Analysis.AnthropicKey, "ANTHROPIC_API_KEY")
	setString(&c.Analysis.Model, "ANTHROPIC_MODEL")
	setString(&c.Analysis.GeminiKey, "GEMINI_API_KEY")
	setString(&c.Analysis.GeminiModel, "GEMINI_MODEL")
	setDuration(&c.Analysis.Timeout, "ANALYSIS_TIMEOUT")

	setString(&c.Sheets.CredentialsJSON, "GOOGLE_SERVICE_ACCOUNT_JSON")
	setString(&c.Sheets.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.Sheets.MasterSheetID, "MASTER_SHEET_ID")
	setString(&c.Sheets.MasterRange, "MASTER_SHEET_RANGE")
	setString(&c.Sheets.EncryptionKey, "SHEETS_ENCRYPTION_KEY")
	setDuration(&c.Sheets.ProjectTimeout, "PROJECT_SHEET_TIMEOUT")

	if v := os.Getenv("WEBHOOKS_ENABLED"); v != "" {
		c.Webhooks.Enabled = parseBool(v)
	}
	if c.Webhooks.URLs == nil {
		c.Webhooks.URLs = map[string]string{}
	}
	for _, cat := range taxonomy.All() {
		if v := os.Getenv(WebhookEnvName(cat.ID)); v != "" {
			c.Webhooks.URLs[string(cat.ID)] = v
		}
	}

	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.DatabaseURL, "DATABASE_URL")

	setString(&c.Slack.BotToken, "SLACK_BOT_TOKEN")
	setString(&c.Slack.SigningSecret, "SLACK_SIGNING_SECRET")

	setString(&c.Linear.WebhookSecret, "LINEAR_WEBHOOK_SECRET")
}

// normalizeWebhookURLs rekeys the URL map by canonical category id, so env
// overrides replace the YAML entry for the same category. A key spelled as
// the id wins over other spellings; unknown keys are kept for Validate.
func (c *Config) normalizeWebhookURLs() {
	if len(c.Webhooks.URLs) == 0 {
		return
	}
	keys := make([]string, 0, len(c.Webhooks.URLs))
	for k := range c.Webhooks.URLs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		cat, ok := taxonomy.Lookup(k)
		if !ok {
			out[k] = c.Webhooks.URLs[k]
			continue
		}
		id := string(cat.ID)
		if _, seen := out[id]; seen && k != id {
			continue
		}
		out[id] = c.Webhooks.URLs[k]
	}
	c.Webhooks.URLs = out
}

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// WebhookEnvName returns the environment variable holding the webhook URL for
// a category, e.g. ProjectIdea -> WEBHOOK_URL_PROJECT_IDEA.
func WebhookEnvName(id taxonomy.ID) string {
	return "WEBHOOK_URL_" + strings.ToUpper(camelBoundary.ReplaceAllString(string(id), "${1}_${2}"))
}

// Validate checks the settings that would make the service unusable. Missing
// integrations are not errors: each leg reports itself as not configured.
func (c *Config) Validate() error {
	if c.Port == "" {
		return eris.New("PORT is required")
	}
	switch c.Analysis.Provider {
	case "anthropic", "gemini", "mock":
	default:
		return eris.Errorf("ANALYSIS_PROVIDER must be anthropic, gemini or mock, got %q", c.Analysis.Provider)
	}
	switch c.Storage.Backend {
	case "none", "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return eris.New("DATABASE_URL is required when STORAGE_BACKEND=postgres")
		}
	default:
		return eris.Errorf("STORAGE_BACKEND must be none, memory or postgres, got %q", c.Storage.Backend)
	}
	for id := range c.Webhooks.URLs {
		if _, ok := taxonomy.Lookup(id); !ok {
			return eris.Errorf("webhooks: unknown category %q", id)
		}
	}
	if c.Analysis.Timeout <= 0 || c.Sheets.ProjectTimeout <= 0 {
		return eris.New("timeouts must be positive")
	}
	return nil
}

// AnalysisConfigured reports whether the selected analysis provider has the
// credential it needs.
func (c *Config) AnalysisConfigured() bool {
	switch c.Analysis.Provider {
	case "anthropic":
		return c.Analysis.AnthropicKey != ""
	case "gemini":
		return c.Analysis.GeminiKey != ""
	case "mock":
		return true
	}
	return false
}

func (c *Config) SheetsConfigured() bool {
	return c.Sheets.CredentialsJSON != ""
}

func (c *Config) SlackConfigured() bool {
	return c.Slack.BotToken != "" && c.Slack.SigningSecret != ""
}

func (c *Config) LinearConfigured() bool {
	return c.Linear.WebhookSecret != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
