package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/legal-analyzer/internal/classify"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
	"github.com/joseph-ayodele/legal-analyzer/internal/risk"
	"github.com/joseph-ayodele/legal-analyzer/internal/sentiment"
	"github.com/joseph-ayodele/legal-analyzer/internal/summarize"
)

// Stage names recorded in Analysis.StageErrors.
const (
	StageEntities  = "entities"
	StageClauses   = "clauses"
	StageRisk      = "risk"
	StageStats     = "statistics"
	StageSentiment = "sentiment"
	StageClassify  = "classify"
	StageSummarize = "summarize"
	StageCritical  = "critical_clauses"
	StageValidate  = "validate"
)

type EntityExtractor interface {
	Extract(ctx context.Context, text string) (entity.Entities, error)
}

type ClauseDetector interface {
	Detect(ctx context.Context, doc *preprocess.Document) ([]entity.Clause, error)
}

type RiskScorer interface {
	Score(ctx context.Context, text string) (risk.Report, error)
	CriticalClauses(clauses []entity.Clause) []entity.CriticalClause
}

type StatsComputer interface {
	Compute(doc *preprocess.Document) entity.Statistics
}

type SentimentAnalyzer interface {
	Analyze(doc *preprocess.Document) entity.Sentiment
}

type Classifier interface {
	Classify(text string) classify.Result
}

type Summarizer interface {
	Summarize(ctx context.Context, in summarize.Input) (summarize.Result, error)
}

// AnalyzeStage runs the detectors over one preprocessed document. Stage
// failures never abort the run; the stage output falls back to its default.
type AnalyzeStage struct {
	Entities   EntityExtractor
	Clauses    ClauseDetector
	Risk       RiskScorer
	Stats      StatsComputer
	Sentiment  SentimentAnalyzer
	Classifier Classifier
	Summarizer Summarizer
	Logger     *slog.Logger
}

type stageErrors struct {
	mu   sync.Mutex
	list []entity.StageError
}

func (e *stageErrors) add(stage string, err error) {
	e.mu.Lock()
	e.list = append(e.list, entity.StageError{Stage: stage, Error: err.Error()})
	e.mu.Unlock()
}

// Run returns ctx.Err() when the run was canceled; any other outcome yields an Analysis.
func (s *AnalyzeStage) Run(ctx context.Context, id uuid.UUID, doc *preprocess.Document) (*entity.Analysis, error) {
	logger := common.LoggerFrom(ctx, s.Logger).With("document_id", id)
	a := entity.NewAnalysis()
	errs := &stageErrors{}
	text := doc.Text()

	var (
		clauses []entity.Clause
		report  risk.Report
		kind    classify.Result
		riskOK  bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Entities, _ = runStage(gctx, logger, errs, StageEntities, entity.EmptyEntities(), func(ctx context.Context) (entity.Entities, error) {
			return s.Entities.Extract(ctx, text)
		})
		return nil
	})
	g.Go(func() error {
		clauses, _ = runStage(gctx, logger, errs, StageClauses, []entity.Clause{}, func(ctx context.Context) ([]entity.Clause, error) {
			return s.Clauses.Detect(ctx, doc)
		})
		return nil
	})
	g.Go(func() error {
		report, riskOK = runStage(gctx, logger, errs, StageRisk, risk.Report{Factors: []entity.RiskFactor{}}, func(ctx context.Context) (risk.Report, error) {
			return s.Risk.Score(ctx, text)
		})
		return nil
	})
	g.Go(func() error {
		a.Statistics, _ = runStage(gctx, logger, errs, StageStats, entity.Statistics{}, func(context.Context) (entity.Statistics, error) {
			return s.Stats.Compute(doc), nil
		})
		return nil
	})
	g.Go(func() error {
		a.Sentiment, _ = runStage(gctx, logger, errs, StageSentiment, sentiment.Neutral(), func(context.Context) (entity.Sentiment, error) {
			return s.Sentiment.Analyze(doc), nil
		})
		return nil
	})
	g.Go(func() error {
		kind, _ = runStage(gctx, logger, errs, StageClassify, classify.Result{Type: classify.Unknown}, func(context.Context) (classify.Result, error) {
			return s.Classifier.Classify(text), nil
		})
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum, _ := runStage(ctx, logger, errs, StageSummarize, summarize.Result{KeyPoints: []entity.KeyPoint{}}, func(ctx context.Context) (summarize.Result, error) {
		return s.Summarizer.Summarize(ctx, summarize.Input{Doc: doc, Entities: a.Entities, DocumentType: kind.Type})
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if sum.FallbackReason != "" {
		errs.add(StageSummarize, fmt.Errorf("generative summary unavailable: %s", sum.FallbackReason))
	}

	a.Summary = sum.Summary
	a.SummaryMethod = sum.Method
	if sum.KeyPoints != nil {
		a.KeyPoints = sum.KeyPoints
	}
	if kind.Type != classify.Unknown {
		a.DocumentType = kind.Type
	}
	if sum.SectionSummaries != nil {
		a.SectionSummaries = sum.SectionSummaries
	}
	if clauses != nil {
		a.KeyClauses = clauses
	}
	a.CriticalClauses, _ = runStage(ctx, logger, errs, StageCritical, []entity.CriticalClause{}, func(context.Context) ([]entity.CriticalClause, error) {
		return s.Risk.CriticalClauses(a.KeyClauses), nil
	})
	if a.CriticalClauses == nil {
		a.CriticalClauses = []entity.CriticalClause{}
	}
	if report.Factors != nil {
		a.RiskFactors = report.Factors
	}
	a.OverallRiskScore = report.OverallScore
	a.Compliance = report.Compliance
	if riskOK {
		assessment := report.Assessment
		a.Assessment = &assessment
	}
	a.Recommendations = risk.Recommend(report, a.CriticalClauses)
	a.StageErrors = errs.list
	a.AnalyzedAt = time.Now().UTC()
	return a, nil
}

// runStage calls fn, converting an error or panic into def plus a recorded
// stage error. Cancellation is left for the caller to notice through ctx.
func runStage[T any](ctx context.Context, logger *slog.Logger, errs *stageErrors, stage string, def T, fn func(context.Context) (T, error)) (T, bool) {
	start := time.Now()
	out, err := func() (out T, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(ctx)
	}()
	if err != nil {
		if ctx.Err() != nil {
			return def, false
		}
		logger.Warn("pipeline.stage.failed", "stage", stage, "error", err)
		errs.add(stage, err)
		return def, false
	}
	logger.Debug("pipeline.stage.ok", "stage", stage, "elapsed_ms", time.Since(start).Milliseconds())
	return out, true
}
