package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/llm"
)

func chatResponse(content string) []byte {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"content": content}}},
	})
	return b
}

func TestSummarize(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write(chatResponse(`{"summary":"Two-year services agreement.","key_points":[{"text":"Net 30 payment","category":"PAYMENT"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL + "/v1/", Model: "m"}, nil)
	out, raw, err := c.Summarize(context.Background(), llm.SummaryRequest{Text: "Some text.", Mode: llm.ModeChunk})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Summary != "Two-year services agreement." || len(out.KeyPoints) != 1 {
		t.Errorf("out = %+v", out)
	}
	if len(raw) == 0 {
		t.Error("raw JSON not returned")
	}
	if gotAuth != "Bearer k" || gotPath != "/v1/chat/completions" {
		t.Errorf("auth=%q path=%q", gotAuth, gotPath)
	}
	if rf, _ := gotBody["response_format"].(map[string]any); rf["type"] != "json_object" {
		t.Errorf("response_format = %v", gotBody["response_format"])
	}
	if gotBody["max_tokens"] != float64(defaultMaxTokens) {
		t.Errorf("max_tokens = %v", gotBody["max_tokens"])
	}
}

func TestSummarizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    []byte
		wantErr error
	}{
		{"server error", http.StatusServiceUnavailable, []byte(`{"error":"busy"}`), common.ErrModelUnavailable},
		{"no choices", http.StatusOK, []byte(`{"choices":[]}`), llm.ErrInvalidOutput},
		{"bad content", http.StatusOK, chatResponse(`{"nope":true}`), llm.ErrInvalidOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()
			c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
			_, _, err := c.Summarize(context.Background(), llm.SummaryRequest{Text: "x"})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
