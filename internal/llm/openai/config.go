package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1024
)

// Config for an OpenAI-compatible chat/completions summarizer.
type Config struct {
	APIKey       string        // falls back to OPENAI_API_KEY
	BaseURL      string        // falls back to OPENAI_BASE_URL, then the public API
	Model        string
	Organization string        // optional OpenAI-Organization header
	Temperature  float32       // 0..2; summaries want 0
	MaxTokens    int           // cap on completion tokens per summary call
	Timeout      time.Duration // http client timeout
}

func (c Config) withDefaults() Config {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.BaseURL == "" {
		c.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = 45 * time.Second
	}
	return c
}

type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, logger: logger}
}

func (c *Client) Name() string { return "openai:" + c.cfg.Model }
