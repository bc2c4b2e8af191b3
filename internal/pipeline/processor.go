// Package pipeline runs one document through extraction and analysis and
// records the outcome in a Store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
)

// Processor coordinates extraction then analysis, and owns every status
// transition of the document it runs on.
type Processor struct {
	logger  *slog.Logger
	store   Store
	extract *ExtractStage
	analyze *AnalyzeStage
}

func NewProcessor(logger *slog.Logger, store Store, extract *ExtractStage, analyze *AnalyzeStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, store: store, extract: extract, analyze: analyze}
}

// ProcessDocument moves id through processing to completed or failed. The
// returned error is the failure reason; a canceled run wraps common.ErrCanceled
// and saves nothing.
func (p *Processor) ProcessDocument(ctx context.Context, id uuid.UUID) (*entity.Analysis, error) {
	logger := common.LoggerFrom(ctx, p.logger).With("document_id", id)
	start := time.Now()

	if err := p.store.SetStatus(ctx, id, constants.StatusProcessing, ""); err != nil {
		if ctx.Err() != nil {
			return nil, p.canceled(ctx, id, logger)
		}
		return nil, fmt.Errorf("set processing: %w", err)
	}

	// 1) extract + preprocess; any error here is terminal
	doc, res, err := p.extract.Run(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return nil, p.canceled(ctx, id, logger)
		}
		logger.Error("pipeline.extract.failed", "error", err)
		p.fail(ctx, id, err, logger)
		return nil, err
	}

	// 2) detectors + summary; stage errors are folded into the analysis
	a, err := p.analyze.Run(ctx, id, doc)
	if err != nil || ctx.Err() != nil {
		return nil, p.canceled(ctx, id, logger)
	}

	// 3) a schema violation is repaired and recorded like any other stage
	// failure; only an analysis that cannot be repaired fails the document
	if err := a.Validate(); err != nil {
		fixes := a.Normalize()
		logger.Warn("pipeline.validate.repaired", "error", err, "fixes", fixes)
		a.StageErrors = append(a.StageErrors, entity.StageError{
			Stage: StageValidate,
			Error: "schema violation repaired: " + strings.Join(fixes, "; "),
		})
		if err := a.Validate(); err != nil {
			logger.Error("pipeline.validate.failed", "error", err)
			err = common.NewAppError(common.CodeValidation, "analysis rejected", fmt.Errorf("%w: %w", common.ErrValidation, err))
			p.fail(ctx, id, err, logger)
			return nil, err
		}
	}

	if err := p.store.SaveAnalysis(ctx, id, a); err != nil {
		if ctx.Err() != nil {
			return nil, p.canceled(ctx, id, logger)
		}
		logger.Error("pipeline.save.failed", "error", err)
		err = fmt.Errorf("save analysis: %w", err)
		p.fail(ctx, id, err, logger)
		return nil, err
	}

	logger.Info("pipeline.completed",
		"method", res.Method,
		"summary_method", a.SummaryMethod,
		"clauses", len(a.KeyClauses),
		"risks", len(a.RiskFactors),
		"stage_errors", len(a.StageErrors),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return a, nil
}

// fail records err as the failure reason. It runs detached from ctx so a
// finished deadline cannot leave the document stuck in processing.
func (p *Processor) fail(ctx context.Context, id uuid.UUID, cause error, logger *slog.Logger) {
	if errors.Is(cause, common.ErrNotFound) {
		return
	}
	p.setFailed(context.WithoutCancel(ctx), id, cause.Error(), logger)
}

func (p *Processor) canceled(ctx context.Context, id uuid.UUID, logger *slog.Logger) error {
	cause := context.Cause(ctx)
	logger.Warn("pipeline.canceled", "error", cause)
	p.setFailed(context.WithoutCancel(ctx), id, common.ErrCanceled.Error(), logger)
	return fmt.Errorf("%w: %w", common.ErrCanceled, cause)
}

func (p *Processor) setFailed(ctx context.Context, id uuid.UUID, reason string, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.store.SetStatus(ctx, id, constants.StatusFailed, reason); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			logger.Debug("pipeline.fail.gone")
			return
		}
		logger.Error("pipeline.fail.status_failed", "error", err)
	}
}
