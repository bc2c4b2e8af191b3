package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/joseph-ayodele/legal-analyzer/internal/classify"
	"github.com/joseph-ayodele/legal-analyzer/internal/clauses"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/entities"
	"github.com/joseph-ayodele/legal-analyzer/internal/extract"
	"github.com/joseph-ayodele/legal-analyzer/internal/llm"
	"github.com/joseph-ayodele/legal-analyzer/internal/llm/openai"
	"github.com/joseph-ayodele/legal-analyzer/internal/llm/vertex"
	"github.com/joseph-ayodele/legal-analyzer/internal/risk"
	"github.com/joseph-ayodele/legal-analyzer/internal/sentiment"
	"github.com/joseph-ayodele/legal-analyzer/internal/stats"
	"github.com/joseph-ayodele/legal-analyzer/internal/summarize"
)

// NewExtractor maps the extract section of the config onto an Extractor.
func NewExtractor(cfg common.ExtractConfig, logger *slog.Logger) *extract.Extractor {
	return extract.NewExtractor(extract.Config{
		Pdftoppm:      cfg.Pdftoppm,
		Tesseract:     cfg.Tesseract,
		TesseractLang: cfg.TesseractLang,
		TessdataDir:   cfg.TessdataDir,
		DPI:           cfg.DPI,
		MaxPages:      cfg.MaxPages,
		EnableOCR:     cfg.EnableOCR,
		MinOCRChars:   cfg.MinOCRChars,
		PSM:           6,
	}, logger)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewGenerator returns the configured generative backend, or nil for "none".
// The returned closer is never nil.
func NewGenerator(ctx context.Context, cfg *common.Config, logger *slog.Logger) (llm.Generator, io.Closer, error) {
	switch cfg.Summarizer.Backend {
	case "", "none":
		return nil, nopCloser{}, nil
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger), nopCloser{}, nil
	case "vertex":
		c, err := vertex.NewClient(ctx, vertex.Config{
			Project:  cfg.LLM.VertexProject,
			Location: cfg.LLM.VertexLocation,
			Model:    cfg.LLM.VertexModel,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("vertex client: %w", err)
		}
		return c, c, nil
	default:
		return nil, nil, fmt.Errorf("unknown summarizer backend %q", cfg.Summarizer.Backend)
	}
}

// NewAnalyzeStage builds every detector from config. gen may be nil.
func NewAnalyzeStage(cfg *common.Config, gen llm.Generator, logger *slog.Logger) (*AnalyzeStage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	clauseReg, err := clauses.LoadRegistry(cfg.Analysis.RulesFile)
	if err != nil {
		return nil, err
	}
	riskReg, err := risk.LoadRegistry(cfg.Analysis.RulesFile)
	if err != nil {
		return nil, err
	}
	sum, err := summarize.New(summarize.Config{
		ChunkChars:      cfg.Summarizer.ChunkChars,
		MaxSummaryChars: cfg.Summarizer.MaxSummaryChars,
		Sentences:       cfg.Summarizer.Sentences,
		Timeout:         cfg.Summarizer.Timeout,
		Cooldown:        cfg.Summarizer.Cooldown,
		CacheSize:       cfg.Summarizer.CacheSize,
	}, gen, logger)
	if err != nil {
		return nil, err
	}
	return &AnalyzeStage{
		Entities: entities.NewExtractor(entities.NewRuleRecognizer(), cfg.Analysis.MaxEntitiesPerCategory, logger),
		Clauses:  clauses.NewDetector(clauseReg, logger),
		Risk: risk.NewScorer(riskReg, risk.Options{
			ContextChars:   cfg.Analysis.RiskContextChars,
			MaxPerCategory: cfg.Analysis.RiskMaxPerCategory,
			Norm:           cfg.Analysis.RiskNorm,
		}, logger),
		Stats:      stats.NewComputer(cfg.Analysis.ReadingWPM),
		Sentiment:  sentiment.NewAnalyzer(),
		Classifier: classify.NewClassifier(),
		Summarizer: sum,
		Logger:     logger,
	}, nil
}

// New wires a Processor over store from config.
func New(ctx context.Context, cfg *common.Config, store Store, logger *slog.Logger) (*Processor, io.Closer, error) {
	gen, closer, err := NewGenerator(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	analyze, err := NewAnalyzeStage(cfg, gen, logger)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	extractStage := NewExtractStage(store, NewExtractor(cfg.Extract, logger), logger)
	return NewProcessor(logger, store, extractStage, analyze), closer, nil
}
