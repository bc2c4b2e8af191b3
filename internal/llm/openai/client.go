package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/llm"
)

// Summarize implements llm.Generator using chat/completions in JSON mode.
func (c *Client) Summarize(ctx context.Context, req llm.SummaryRequest) (llm.SummaryResult, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := common.LoggerFrom(ctx, c.logger)

	log.Info("llm.summarize.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"mode", req.Mode,
		"text_len", len(req.Text),
	)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt(req)},
			{"role": "user", "content": llm.BuildUserPrompt(req)},
			{"role": "system", "content": llm.SchemaPrompt()},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	if c.cfg.Organization != "" {
		headers["OpenAI-Organization"] = c.cfg.Organization
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, log)
	if err != nil {
		log.Error("llm.summarize.http_error",
			"req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.SummaryResult{}, nil, common.NewModelUnavailableError(c.Name(), err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return llm.SummaryResult{}, raw, fmt.Errorf("%w: decode openai response: %w", llm.ErrInvalidOutput, err)
	}
	if len(cc.Choices) == 0 {
		log.Error("llm.summarize.no_choices", "req_id", rid, "raw_bytes", len(raw))
		return llm.SummaryResult{}, raw, fmt.Errorf("%w: no choices in openai response", llm.ErrInvalidOutput)
	}

	out, cleaned, err := llm.DecodeSummary([]byte(cc.Choices[0].Message.Content))
	if err != nil {
		log.Error("llm.summarize.schema_validation_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.SummaryResult{}, cleaned, err
	}

	log.Info("llm.summarize.ok",
		"req_id", rid,
		"summary_len", len(out.Summary),
		"key_points", len(out.KeyPoints),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, cleaned, nil
}
