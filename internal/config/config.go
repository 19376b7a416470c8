package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultSystemInstruction = `You are an expert IT sales agent.
Your role is to analyse the client's requirements and propose solutions using ONLY the equipment and services found in the uploaded files (when there are any).
When the user asks for an offer, produce it in a clear tabular format, with prices when they are available in the catalog.
Be polite, professional and sales-oriented.`

type Config struct {
	AI struct {
		Provider     string        `yaml:"provider"`
		Model        string        `yaml:"model"`
		APIKeys      KeyList       `yaml:"api_keys"`
		BaseURL      string        `yaml:"base_url"`
		ProbeTimeout time.Duration `yaml:"probe_timeout"`
	} `yaml:"ai"`
	Upload struct {
		PollInterval time.Duration `yaml:"poll_interval"`
		MaxAttempts  int           `yaml:"max_attempts"`
		Inline       bool          `yaml:"inline"` // extract text locally instead of uploading
	} `yaml:"upload"`
	Chat struct {
		HistoryTurns      int    `yaml:"history_turns"`
		SystemInstruction string `yaml:"system_instruction"`
	} `yaml:"chat"`
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	Server struct {
		Addr        string `yaml:"addr"`
		UploadDir   string `yaml:"upload_dir"`
		MaxUploadMB int64  `yaml:"max_upload_mb"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Export struct {
		Title  string `yaml:"title"`
		Author string `yaml:"author"`
	} `yaml:"export"`
}

// KeyList accepts either a YAML sequence or a single comma-separated string.
type KeyList []string

func (k *KeyList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*k = splitKeys(value.Value)
		return nil
	case yaml.SequenceNode:
		var keys []string
		if err := value.Decode(&keys); err != nil {
			return err
		}
		*k = keys
		return nil
	default:
		return fmt.Errorf("api_keys: expected string or list, got %v", value.Tag)
	}
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config; a missing file means defaults only
	var cfg Config
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid config file").
				WithTextCode("CONFIG_PARSE")
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	// 3. Override with Environment Variables if present
	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if keys := os.Getenv("SALESDESK_API_KEYS"); keys != "" {
		c.AI.APIKeys = splitKeys(keys)
	}
	if provider := os.Getenv("SALESDESK_AI_PROVIDER"); provider != "" {
		c.AI.Provider = provider
	}
	if model := os.Getenv("SALESDESK_MODEL"); model != "" {
		c.AI.Model = model
	}
	if db := os.Getenv("SALESDESK_DB"); db != "" {
		c.Store.Path = db
	}
	if addr := os.Getenv("SALESDESK_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("SALESDESK_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if inline := os.Getenv("SALESDESK_UPLOAD_INLINE"); inline != "" {
		if v, err := strconv.ParseBool(inline); err == nil {
			c.Upload.Inline = v
		}
	}
}

func (c *Config) applyDefaults() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.AI.Model == "" {
		switch c.AI.Provider {
		case "openai":
			c.AI.Model = "gpt-4o-mini"
		default:
			c.AI.Model = "gemini-2.5-flash"
		}
	}
	if c.AI.ProbeTimeout <= 0 {
		c.AI.ProbeTimeout = 5 * time.Second
	}
	if c.Upload.PollInterval <= 0 {
		c.Upload.PollInterval = time.Second
	}
	if c.Upload.MaxAttempts <= 0 {
		c.Upload.MaxAttempts = 60
	}
	if c.Chat.HistoryTurns <= 0 {
		c.Chat.HistoryTurns = 5
	}
	if strings.TrimSpace(c.Chat.SystemInstruction) == "" {
		c.Chat.SystemInstruction = DefaultSystemInstruction
	}
	if c.Store.Path == "" {
		c.Store.Path = "salesdesk.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = os.TempDir()
	}
	if c.Server.MaxUploadMB <= 0 {
		c.Server.MaxUploadMB = 32
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if strings.TrimSpace(c.Export.Title) == "" {
		c.Export.Title = "Offer / AI Report"
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return goerrors.New(fmt.Sprintf("unsupported ai provider %q", c.AI.Provider), goerrors.CategoryValidation).
			WithTextCode("CONFIG_PROVIDER")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console", "pretty":
	default:
		return goerrors.New(fmt.Sprintf("unsupported log format %q", c.Log.Format), goerrors.CategoryValidation).
			WithTextCode("CONFIG_LOG_FORMAT")
	}
	return nil
}

// APIKeys returns the configured provider keys, trimmed, blanks removed.
func (c *Config) APIKeys() []string {
	var keys []string
	for _, k := range c.AI.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// InlineDocuments reports whether documents must be sent as extracted text.
// The openai provider has no file API, so it always inlines.
func (c *Config) InlineDocuments() bool {
	return c.Upload.Inline || c.AI.Provider == "openai"
}
