// Package vertex implements llm.Generator on Vertex AI Gemini models.
package vertex

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"

	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/llm"
)

type Config struct {
	Project  string
	Location string // default us-central1
	Model    string // default gemini-1.5-pro
}

type Client struct {
	cfg    Config
	base   *genai.Client
	model  *genai.GenerativeModel
	logger *slog.Logger
}

// NewClient dials Vertex AI and configures a JSON-mode model.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Location == "" {
		cfg.Location = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-pro"
	}
	if cfg.Project == "" {
		return nil, fmt.Errorf("vertex: project cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	base, err := genai.NewClient(ctx, cfg.Project, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	model := base.GenerativeModel(cfg.Model)
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}
	return &Client{cfg: cfg, base: base, model: model, logger: logger}, nil
}

func (c *Client) Name() string { return "vertex:" + c.cfg.Model }

func (c *Client) Close() error {
	if c.base != nil {
		return c.base.Close()
	}
	return nil
}

// Summarize implements llm.Generator. The system prompt varies with the
// request, so it travels as the first part of the user turn.
func (c *Client) Summarize(ctx context.Context, req llm.SummaryRequest) (llm.SummaryResult, []byte, error) {
	start := time.Now()
	log := common.LoggerFrom(ctx, c.logger)

	prompt := llm.BuildSystemPrompt(req) + "\n\n" + llm.SchemaPrompt()
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt), genai.Text(llm.BuildUserPrompt(req)))
	if err != nil {
		log.Error("llm.vertex.generate_failed", "model", c.cfg.Model, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.SummaryResult{}, nil, common.NewModelUnavailableError(c.Name(), err)
	}

	content := responseText(resp)
	if content == "" {
		return llm.SummaryResult{}, nil, fmt.Errorf("%w: empty vertex response", llm.ErrInvalidOutput)
	}
	out, cleaned, err := llm.DecodeSummary([]byte(content))
	if err != nil {
		log.Error("llm.vertex.schema_validation_failed", "error", err)
		return llm.SummaryResult{}, cleaned, err
	}
	log.Info("llm.vertex.ok",
		"model", c.cfg.Model,
		"mode", req.Mode,
		"summary_len", len(out.Summary),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, cleaned, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}
