package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/extract"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
	"github.com/joseph-ayodele/legal-analyzer/internal/risk"
	"github.com/joseph-ayodele/legal-analyzer/internal/summarize"
)

const contract = "This Agreement is entered into by Acme Corp and Beta Limited. " +
	"This Agreement shall terminate upon 30 days written notice. " +
	"The Party shall indemnify and hold harmless the Company from any third-party demands."

type storedDoc struct {
	data     []byte
	fileType string
	status   constants.DocumentStatus
	reason   string
	analysis *entity.Analysis
	history  []constants.DocumentStatus
}

type fakeStore struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*storedDoc
}

func newFakeStore() *fakeStore { return &fakeStore{docs: map[uuid.UUID]*storedDoc{}} }

func (s *fakeStore) add(text, fileType string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.docs[id] = &storedDoc{data: []byte(text), fileType: fileType, status: constants.StatusPending,
		history: []constants.DocumentStatus{constants.StatusPending}}
	return id
}

func (s *fakeStore) get(id uuid.UUID) storedDoc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.docs[id]
}

func (s *fakeStore) GetRawBytes(_ context.Context, id uuid.UUID) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, "", fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return d.data, d.fileType, nil
}

func (s *fakeStore) SetStatus(_ context.Context, id uuid.UUID, status constants.DocumentStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	d.status, d.reason = status, reason
	d.history = append(d.history, status)
	if status != constants.StatusCompleted {
		d.analysis = nil
	}
	return nil
}

func (s *fakeStore) SaveAnalysis(_ context.Context, id uuid.UUID, a *entity.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	d.analysis = a
	d.status, d.reason = constants.StatusCompleted, ""
	d.history = append(d.history, constants.StatusCompleted)
	return nil
}

func newTestProcessor(t *testing.T, store Store, mutate func(*AnalyzeStage)) *Processor {
	t.Helper()
	analyze, err := NewAnalyzeStage(&common.Config{}, nil, nil)
	if err != nil {
		t.Fatalf("NewAnalyzeStage: %v", err)
	}
	if mutate != nil {
		mutate(analyze)
	}
	ex := NewExtractStage(store, extract.NewExtractor(extract.Config{}, nil), nil)
	return NewProcessor(nil, store, ex, analyze)
}

func TestProcessDocumentCompletes(t *testing.T) {
	store := newFakeStore()
	id := store.add(contract, "txt")
	a, err := newTestProcessor(t, store, nil).ProcessDocument(context.Background(), id)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}

	got := store.get(id)
	want := []constants.DocumentStatus{constants.StatusPending, constants.StatusProcessing, constants.StatusCompleted}
	if !reflect.DeepEqual(got.history, want) {
		t.Errorf("status history = %v, want %v", got.history, want)
	}
	if got.analysis != a {
		t.Error("stored analysis differs from the returned one")
	}
	if a.Summary == "" || a.SummaryMethod != summarize.MethodExtractive {
		t.Errorf("summary = %q method = %q", a.Summary, a.SummaryMethod)
	}

	var types []string
	for _, c := range a.KeyClauses {
		types = append(types, c.Type)
	}
	if !strings.Contains(strings.Join(types, ","), "termination_clause") {
		t.Errorf("clauses = %v, want termination_clause", types)
	}
	found := false
	for _, f := range a.RiskFactors {
		if f.Type == "indemnification" && f.Severity == entity.SeverityHigh {
			found = true
		}
	}
	if !found {
		t.Errorf("risk factors = %+v, want high indemnification", a.RiskFactors)
	}
	if len(a.SectionSummaries) != 1 || a.SectionSummaries[0].Title != "Introduction" {
		t.Errorf("section summaries = %+v, want one introduction", a.SectionSummaries)
	}
	if a.CriticalClauses == nil {
		t.Error("critical clauses should be an empty list, not nil")
	}
	if a.Statistics.SentenceCount != 3 {
		t.Errorf("sentence count = %d, want 3", a.Statistics.SentenceCount)
	}
	if len(a.StageErrors) != 0 {
		t.Errorf("stage errors = %+v", a.StageErrors)
	}
}

func TestProcessDocumentEmptyText(t *testing.T) {
	store := newFakeStore()
	id := store.add("  \n\n ", "txt")
	_, err := newTestProcessor(t, store, nil).ProcessDocument(context.Background(), id)
	if !errors.Is(err, common.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
	got := store.get(id)
	if got.status != constants.StatusFailed || got.analysis != nil {
		t.Errorf("status = %s analysis = %v, want failed and none", got.status, got.analysis)
	}
	if !strings.Contains(got.reason, common.CodeExtraction) {
		t.Errorf("reason = %q", got.reason)
	}
}

func TestProcessDocumentIdempotent(t *testing.T) {
	store := newFakeStore()
	id := store.add(contract, "txt")
	p := newTestProcessor(t, store, nil)

	first, err := p.ProcessDocument(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.ProcessDocument(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	a, b := *first, *second
	a.AnalyzedAt, b.AnalyzedAt = time.Time{}, time.Time{}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("analyses differ:\n%+v\n%+v", a, b)
	}
}

type failingEntities struct{}

func (failingEntities) Extract(context.Context, string) (entity.Entities, error) {
	return entity.Entities{}, common.NewModelUnavailableError("ner", errors.New("down"))
}

type panickingClauses struct{}

func (panickingClauses) Detect(context.Context, *preprocess.Document) ([]entity.Clause, error) {
	panic("boom")
}

func TestProcessDocumentStageFailuresUseDefaults(t *testing.T) {
	store := newFakeStore()
	id := store.add(contract, "txt")
	p := newTestProcessor(t, store, func(s *AnalyzeStage) {
		s.Entities = failingEntities{}
		s.Clauses = panickingClauses{}
	})
	a, err := p.ProcessDocument(context.Background(), id)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if store.get(id).status != constants.StatusCompleted {
		t.Fatalf("status = %s, want completed", store.get(id).status)
	}
	if a.KeyClauses == nil || len(a.KeyClauses) != 0 {
		t.Errorf("key clauses = %#v, want empty list", a.KeyClauses)
	}
	if a.Entities.Organizations == nil || a.Entities.Count() != 0 {
		t.Errorf("entities = %#v, want empty lists", a.Entities)
	}
	stages := map[string]string{}
	for _, se := range a.StageErrors {
		stages[se.Stage] = se.Error
	}
	if !strings.Contains(stages[StageEntities], "model unavailable") {
		t.Errorf("entities stage error = %q", stages[StageEntities])
	}
	if !strings.Contains(stages[StageClauses], "panic: boom") {
		t.Errorf("clauses stage error = %q", stages[StageClauses])
	}
	if len(a.RiskFactors) == 0 {
		t.Error("risk stage should still run")
	}
}

type overshootingRisk struct{ *risk.Scorer }

func (o overshootingRisk) Score(ctx context.Context, text string) (risk.Report, error) {
	rep, err := o.Scorer.Score(ctx, text)
	rep.OverallScore = 1.7
	rep.Factors = append(rep.Factors, entity.RiskFactor{Type: "custom", Severity: "critical", PatternMatched: "x"})
	return rep, err
}

func TestProcessDocumentRepairsSchemaViolation(t *testing.T) {
	store := newFakeStore()
	id := store.add(contract, "txt")
	p := newTestProcessor(t, store, func(s *AnalyzeStage) {
		s.Risk = overshootingRisk{risk.NewScorer(nil, risk.Options{}, nil)}
	})
	a, err := p.ProcessDocument(context.Background(), id)
	if err != nil {
		t.Fatalf("ProcessDocument: %v", err)
	}
	if got := store.get(id); got.status != constants.StatusCompleted || got.analysis != a {
		t.Fatalf("status = %s, want completed with the returned analysis", got.status)
	}
	if a.OverallRiskScore != 1 {
		t.Errorf("overall risk = %v, want clamped to 1", a.OverallRiskScore)
	}
	for _, f := range a.RiskFactors {
		if f.Type == "custom" {
			t.Errorf("factor with unknown severity kept: %+v", f)
		}
	}
	var validate string
	for _, se := range a.StageErrors {
		if se.Stage == StageValidate {
			validate = se.Error
		}
	}
	for _, want := range []string{"overall_risk_score clamped", "risk factor custom with unknown severity dropped"} {
		if !strings.Contains(validate, want) {
			t.Errorf("validate stage error = %q, want it to mention %q", validate, want)
		}
	}
	if err := a.Validate(); err != nil {
		t.Errorf("stored analysis should validate: %v", err)
	}
}

type cancelingSummarizer struct{ cancel context.CancelFunc }

func (c cancelingSummarizer) Summarize(ctx context.Context, _ summarize.Input) (summarize.Result, error) {
	c.cancel()
	<-ctx.Done()
	return summarize.Result{}, ctx.Err()
}

func TestProcessDocumentCanceled(t *testing.T) {
	store := newFakeStore()
	id := store.add(contract, "txt")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := newTestProcessor(t, store, func(s *AnalyzeStage) {
		s.Summarizer = cancelingSummarizer{cancel: cancel}
	})

	_, err := p.ProcessDocument(ctx, id)
	if !errors.Is(err, common.ErrCanceled) {
		t.Fatalf("err = %v, want ErrCanceled", err)
	}
	got := store.get(id)
	if got.status != constants.StatusFailed || got.reason != "analysis canceled" || got.analysis != nil {
		t.Errorf("got status=%s reason=%q analysis=%v", got.status, got.reason, got.analysis)
	}
}

func TestProcessDocumentNotFound(t *testing.T) {
	store := newFakeStore()
	_, err := newTestProcessor(t, store, nil).ProcessDocument(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
