// Package summarize builds the executive summary and key points of a document,
// using a generative backend when one is healthy and a deterministic extractive
// ranking otherwise.
package summarize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/llm"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

const (
	MethodGenerative = "generative"
	MethodExtractive = "extractive"

	// maxSynthesisDepth bounds recursive merging of chunk summaries.
	maxSynthesisDepth = 4
)

// Config tunes the summarizer. Zero values take the defaults below.
type Config struct {
	ChunkChars      int           // default 4000
	MaxSummaryChars int           // default 2000
	Sentences       int           // extractive top-N, default 5
	Timeout         time.Duration // per backend call, default 30s
	Cooldown        time.Duration // default 1m
	CacheSize       int           // chunk summaries, default 512
	Concurrency     int           // parallel chunk calls, default 4
}

func (c Config) withDefaults() Config {
	if c.ChunkChars <= 0 {
		c.ChunkChars = 4000
	}
	if c.MaxSummaryChars <= 0 {
		c.MaxSummaryChars = 2000
	}
	if c.Sentences <= 0 {
		c.Sentences = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Cooldown <= 0 {
		c.Cooldown = time.Minute
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 512
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// Input is what the pipeline hands the summarizer.
type Input struct {
	Doc          *preprocess.Document
	Entities     entity.Entities
	DocumentType string
}

// Result carries the summary, how it was produced and, after a fallback, why.
// Section summaries are always extractive.
type Result struct {
	Summary          string
	Method           string
	KeyPoints        []entity.KeyPoint
	SectionSummaries []entity.SectionSummary
	FallbackReason   string
}

type Summarizer struct {
	cfg    Config
	gen    llm.Generator
	cache  *lru.Cache[string, llm.SummaryResult]
	logger *slog.Logger
	now    func() time.Time

	mu            sync.Mutex
	cooldownUntil time.Time
}

// New builds a Summarizer. gen may be nil, in which case every call is extractive.
func New(cfg Config, gen llm.Generator, logger *slog.Logger) (*Summarizer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	cache, err := lru.New[string, llm.SummaryResult](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("summary cache: %w", err)
	}
	return &Summarizer{cfg: cfg, gen: gen, cache: cache, logger: logger, now: time.Now}, nil
}

// Summarize never fails because of the backend; it returns an error only when
// ctx is done.
func (s *Summarizer) Summarize(ctx context.Context, in Input) (Result, error) {
	if in.Doc == nil || in.Doc.IsEmpty() {
		return Result{KeyPoints: []entity.KeyPoint{}, SectionSummaries: []entity.SectionSummary{}}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	logger := common.LoggerFrom(ctx, s.logger)

	if s.generativeAvailable() {
		start := s.now()
		res, err := s.generative(ctx, in)
		if err == nil {
			logger.Debug("summarize.generative.ok", "backend", s.gen.Name(), "elapsed_ms", time.Since(start).Milliseconds())
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		s.startCooldown()
		logger.Warn("summarize.generative.fallback", "backend", s.gen.Name(), "error", err)
		out := s.extractiveResult(in)
		out.FallbackReason = err.Error()
		return out, nil
	}
	return s.extractiveResult(in), nil
}

func (s *Summarizer) generativeAvailable() bool {
	if s.gen == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.now().Before(s.cooldownUntil)
}

func (s *Summarizer) startCooldown() {
	s.mu.Lock()
	s.cooldownUntil = s.now().Add(s.cfg.Cooldown)
	s.mu.Unlock()
}

func (s *Summarizer) extractiveResult(in Input) Result {
	return Result{
		Summary:          capAtSentence(extractive(in.Doc, in.Entities, s.cfg.Sentences), s.cfg.MaxSummaryChars),
		Method:           MethodExtractive,
		KeyPoints:        keyPoints(in.Doc, in.Entities),
		SectionSummaries: sectionSummaries(in.Doc, in.Entities, s.cfg.MaxSummaryChars),
	}
}

func (s *Summarizer) generative(ctx context.Context, in Input) (Result, error) {
	chunks := sentenceChunks(in.Doc, s.cfg.ChunkChars)
	base := llm.SummaryRequest{
		DocumentType: in.DocumentType,
		Parties:      in.Entities.Organizations,
		MaxChars:     s.cfg.MaxSummaryChars,
	}

	var final llm.SummaryResult
	if len(chunks) == 1 {
		req := base
		req.Text, req.Mode = chunks[0], llm.ModeChunk
		r, err := s.call(ctx, req)
		if err != nil {
			return Result{}, err
		}
		final = r
	} else {
		partials, err := s.fanOut(ctx, base, chunks, llm.ModeChunk)
		if err != nil {
			return Result{}, err
		}
		final, err = s.synthesize(ctx, base, partials, 0)
		if err != nil {
			return Result{}, err
		}
	}

	summary := capAtSentence(final.Summary, s.cfg.MaxSummaryChars)
	if summary == "" {
		return Result{}, fmt.Errorf("%w: empty summary", llm.ErrInvalidOutput)
	}
	kps := generatedKeyPoints(final.KeyPoints, entityTerms(in.Entities))
	if len(kps) == 0 {
		kps = keyPoints(in.Doc, in.Entities)
	}
	return Result{
		Summary:          summary,
		Method:           MethodGenerative,
		KeyPoints:        kps,
		SectionSummaries: sectionSummaries(in.Doc, in.Entities, s.cfg.MaxSummaryChars),
	}, nil
}

// fanOut summarizes texts concurrently and returns the results in input order.
func (s *Summarizer) fanOut(ctx context.Context, base llm.SummaryRequest, texts []string, mode llm.Mode) ([]llm.SummaryResult, error) {
	out := make([]llm.SummaryResult, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, t := range texts {
		g.Go(func() error {
			req := base
			req.Text, req.Mode = t, mode
			r, err := s.call(gctx, req)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// synthesize merges partial summaries. Each partial is capped first; when the
// joined text still exceeds a chunk it is regrouped and merged level by level.
func (s *Summarizer) synthesize(ctx context.Context, base llm.SummaryRequest, partials []llm.SummaryResult, depth int) (llm.SummaryResult, error) {
	texts := make([]string, 0, len(partials))
	for _, p := range partials {
		texts = append(texts, capAtSentence(p.Summary, s.cfg.MaxSummaryChars))
	}
	groups := chunkUnits(texts, s.cfg.ChunkChars, "\n\n")
	if len(groups) <= 1 || depth >= maxSynthesisDepth {
		req := base
		req.Text, req.Mode = strings.Join(texts, "\n\n"), llm.ModeSynthesize
		if len(groups) == 1 {
			req.Text = groups[0]
		}
		return s.call(ctx, req)
	}
	merged, err := s.fanOut(ctx, base, groups, llm.ModeSynthesize)
	if err != nil {
		return llm.SummaryResult{}, err
	}
	return s.synthesize(ctx, base, merged, depth+1)
}

// call runs one backend request under the per-call timeout, consulting the cache first.
func (s *Summarizer) call(ctx context.Context, req llm.SummaryRequest) (llm.SummaryResult, error) {
	key := cacheKey(s.gen.Name(), req)
	if r, ok := s.cache.Get(key); ok {
		return r, nil
	}
	cctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	r, _, err := s.gen.Summarize(cctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return llm.SummaryResult{}, common.NewModelUnavailableError(s.gen.Name(), err)
		}
		return llm.SummaryResult{}, err
	}
	if strings.TrimSpace(r.Summary) == "" {
		return llm.SummaryResult{}, fmt.Errorf("%w: empty summary", llm.ErrInvalidOutput)
	}
	s.cache.Add(key, r)
	return r, nil
}

func cacheKey(backend string, req llm.SummaryRequest) string {
	h := sha256.New()
	for _, part := range []string{backend, string(req.Mode), req.DocumentType, req.Text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func generatedKeyPoints(in []llm.KeyPoint, terms []string) []entity.KeyPoint {
	out := make([]entity.KeyPoint, 0, len(in))
	for _, kp := range in {
		text := strings.TrimSpace(kp.Text)
		if text == "" {
			continue
		}
		imp := 0.0
		for _, sent := range preprocess.Process(text).Sentences() {
			imp = max(imp, Importance(sent, terms))
		}
		cat := kp.Category
		if cat == "" {
			cat = Categorize(text)
		}
		out = append(out, entity.KeyPoint{Text: text, Category: cat, Importance: imp})
		if len(out) == maxKeyPoints {
			break
		}
	}
	return out
}
