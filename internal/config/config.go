// Package config loads the server configuration from an optional YAML file,
// a .env file and the process environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port int `yaml:"port"`

	// DataDir holds the catalog artifacts and the session store.
	DataDir string `yaml:"data-dir"`

	// MemoryFile is the session store path. Empty means <data-dir>/memory/aiMemory.json.
	MemoryFile string `yaml:"memory-file,omitempty"`

	// AllowOrigins restricts browser origins allowed by CORS. Empty allows any.
	AllowOrigins []string `yaml:"allow-origins,omitempty"`

	LLM       LLMConfig       `yaml:"llm"`
	Chat      ChatConfig      `yaml:"chat"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Notify    NotifyConfig    `yaml:"notify"`
	RateLimit RateLimitConfig `yaml:"rate-limit"`
	Log       LogConfig       `yaml:"log"`
}

// LLMConfig selects the language model provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base-url,omitempty"`
	APIKey      string  `yaml:"api-key,omitempty"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max-tokens"`
}

// ChatConfig tunes the conversation turn.
type ChatConfig struct {
	// HistoryWindow is how many stored messages are sent to the model.
	HistoryWindow int `yaml:"history-window"`

	// SearchLimit caps catalog results in a catalog reply.
	SearchLimit int `yaml:"search-limit"`

	ContactEmail string `yaml:"contact-email"`
	ContactPhone string `yaml:"contact-phone"`

	// CatalogKeywords and TriggerKeywords override the built-in lists when set.
	CatalogKeywords []string `yaml:"catalog-keywords,omitempty"`
	TriggerKeywords []string `yaml:"trigger-keywords,omitempty"`
}

// CatalogConfig configures catalog text extraction.
type CatalogConfig struct {
	// PDFToText is the extraction binary.
	PDFToText string `yaml:"pdftotext"`

	// ExtractTimeout bounds one extraction run.
	ExtractTimeout time.Duration `yaml:"extract-timeout"`
}

// NotifyConfig configures the contact notification mailer.
type NotifyConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SMTPHost string `yaml:"smtp-host"`
	SMTPPort int    `yaml:"smtp-port"`
	Username string `yaml:"username"`
	Password string `yaml:"password,omitempty"`
	To       string `yaml:"to"`
}

// RateLimitConfig limits chat requests per client address.
type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
	Message  string        `yaml:"message"`
}

// LogConfig configures logrus output.
type LogConfig struct {
	Level string `yaml:"level"`
	// File enables rotated file output when set.
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:    2025,
		DataDir: "data",
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4.1-mini",
			Temperature: 0.7,
			MaxTokens:   1000,
		},
		Chat: ChatConfig{
			HistoryWindow: 10,
			SearchLimit:   5,
		},
		Catalog: CatalogConfig{
			PDFToText:      "pdftotext",
			ExtractTimeout: 60 * time.Second,
		},
		Notify: NotifyConfig{
			SMTPHost: "smtp.office365.com",
			SMTPPort: 587,
		},
		RateLimit: RateLimitConfig{
			Requests: 50,
			Window:   15 * time.Minute,
			Message:  "Troppi messaggi! Riprova fra 15 minuti.",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded first without overriding variables already set; path may be empty
// or point to a missing file, in which case only defaults and the
// environment apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	if err := num("PORT", &c.Port); err != nil {
		return err
	}
	str("POOLY_DATA_DIR", &c.DataDir)
	str("POOLY_MEMORY_FILE", &c.MemoryFile)
	if v := strings.TrimSpace(os.Getenv("POOLY_ALLOW_ORIGINS")); v != "" {
		c.AllowOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowOrigins = append(c.AllowOrigins, o)
			}
		}
	}

	str("POOLY_PROVIDER", &c.LLM.Provider)
	str("POOLY_MODEL", &c.LLM.Model)
	str("POOLY_BASE_URL", &c.LLM.BaseURL)
	str("POOLY_API_KEY", &c.LLM.APIKey)
	// other providers read their own key variables in internal/llm
	if c.LLM.Provider == "" || c.LLM.Provider == "openai" {
		str("OPENAI_API_KEY", &c.LLM.APIKey)
	}

	str("CONTACT_EMAIL", &c.Chat.ContactEmail)
	str("CONTACT_PHONE", &c.Chat.ContactPhone)

	str("POOLY_PDFTOTEXT", &c.Catalog.PDFToText)

	if v := strings.TrimSpace(os.Getenv("SEND_EMAIL_NOTIFICATIONS")); v != "" {
		c.Notify.Enabled = v == "true"
	}
	str("SMTP_HOST", &c.Notify.SMTPHost)
	if err := num("SMTP_PORT", &c.Notify.SMTPPort); err != nil {
		return err
	}
	str("EMAIL_USER", &c.Notify.Username)
	str("EMAIL_PASS", &c.Notify.Password)
	str("NOTIFY_EMAIL", &c.Notify.To)

	str("POOLY_LOG_LEVEL", &c.Log.Level)
	str("POOLY_LOG_FILE", &c.Log.File)
	return nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data-dir must not be empty")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate-limit requests and window must be positive")
	}
	return nil
}

// MemoryPath returns the session store file.
func (c *Config) MemoryPath() string {
	if c.MemoryFile != "" {
		return c.MemoryFile
	}
	return filepath.Join(c.DataDir, "memory", "aiMemory.json")
}

// NotifyRecipient is where notifications go, falling back to the sender.
func (c *Config) NotifyRecipient() string {
	if c.Notify.To != "" {
		return c.Notify.To
	}
	return c.Notify.Username
}
