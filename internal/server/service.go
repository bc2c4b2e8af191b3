package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/async"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/ingest"
	"github.com/joseph-ayodele/legal-analyzer/internal/repository"
)

// Queue is the part of the worker queue the service drives.
type Queue interface {
	Enqueue(ctx context.Context, job async.Job) error
	Cancel(id uuid.UUID) bool
}

// AnalysisService implements AnalysisServer over the document store and queue.
type AnalysisService struct {
	store    repository.DocumentStore
	ingestor ingest.Ingestor
	queue    Queue
	logger   *slog.Logger
}

var _ AnalysisServer = (*AnalysisService)(nil)

func NewAnalysisService(store repository.DocumentStore, ing ingest.Ingestor, queue Queue, logger *slog.Logger) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{store: store, ingestor: ing, queue: queue, logger: logger}
}

// IngestPath registers a server-local file and queues it for analysis.
func (s *AnalysisService) IngestPath(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	logger := common.LoggerFrom(ctx, s.logger)
	path := strings.TrimSpace(req.GetValue())
	if path == "" {
		logger.Error("ingest request missing path")
		return nil, common.InvalidArgumentError("path is required")
	}

	logger.Info("starting file ingest", "path", path)
	r, err := s.ingestor.IngestPath(ctx, path)
	if err != nil {
		logger.Warn("file ingest failed", "path", path, "error", err)
		return nil, toStatus(err)
	}
	logger.Info("file ingest succeeded", "document_id", r.DocumentID, "deduplicated", r.Deduplicated)

	return toStruct(map[string]any{
		"document_id":      r.DocumentID,
		"deduplicated":     r.Deduplicated,
		"content_hash_hex": r.HashHex,
		"file_ext":         r.FileExt,
		"source_path":      r.SourcePath,
		"uploaded_at":      formatTime(r.UploadedAt),
	})
}

// GetStatus reports where a document is in its lifecycle.
func (s *AnalysisService) GetStatus(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id, err := parseID(req)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return statusStruct(doc)
}

// GetAnalysis returns the stored analysis of a completed document.
func (s *AnalysisService) GetAnalysis(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	id, err := parseID(req)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	if doc.Status != constants.StatusCompleted {
		msg := fmt.Sprintf("document is %s", doc.Status)
		if doc.Reason != "" {
			msg += ": " + doc.Reason
		}
		return nil, status.Error(codes.FailedPrecondition, msg)
	}
	a, err := s.store.GetAnalysis(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return analysisStruct(doc, a)
}

// Reanalyze queues a terminal document for another run. The stored status and
// analysis are left alone; the worker moves the document to processing when it
// picks the job up, so a rejected enqueue changes nothing.
func (s *AnalysisService) Reanalyze(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	logger := common.LoggerFrom(ctx, s.logger)
	id, err := parseID(req)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	if !doc.Status.IsTerminal() {
		return nil, status.Errorf(codes.FailedPrecondition, "document is %s", doc.Status)
	}
	if err := s.queue.Enqueue(ctx, async.Job{DocumentID: id}); err != nil {
		logger.Error("reanalyze.enqueue.failed", "document_id", id, "error", err)
		return nil, toStatus(err)
	}
	logger.Info("reanalyze.queued", "document_id", id, "previous_status", string(doc.Status))

	out, err := statusStruct(doc)
	if err != nil {
		return nil, err
	}
	out.Fields["queued"] = structpb.NewBoolValue(true)
	return out, nil
}

// DeleteDocument cancels any in-flight run and removes the document with its analysis.
func (s *AnalysisService) DeleteDocument(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	logger := common.LoggerFrom(ctx, s.logger)
	id, err := parseID(req)
	if err != nil {
		return nil, err
	}
	canceled := s.queue.Cancel(id)
	if err := s.store.Delete(ctx, id); err != nil {
		return nil, toStatus(err)
	}
	logger.Info("document.deleted", "document_id", id, "canceled_run", canceled)
	return toStruct(map[string]any{
		"document_id":  id.String(),
		"deleted":      true,
		"canceled_run": canceled,
	})
}

func parseID(req *wrapperspb.StringValue) (uuid.UUID, error) {
	raw := strings.TrimSpace(req.GetValue())
	v := common.NewValidator().Field("document_id", raw, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(raw), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, async.ErrAlreadyQueued):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, async.ErrQueueClosed):
		return status.Error(codes.Unavailable, err.Error())
	}
	return common.ToStatus(err)
}

func statusStruct(d *entity.Document) (*structpb.Struct, error) {
	return toStruct(map[string]any{
		"document_id": d.ID.String(),
		"title":       d.Title,
		"file_type":   d.FileType,
		"size_bytes":  float64(d.SizeBytes),
		"status":      string(d.Status),
		"reason":      d.Reason,
		"uploaded_at": formatTime(d.UploadedAt),
		"updated_at":  formatTime(d.UpdatedAt),
	})
}

func analysisStruct(d *entity.Document, a *entity.Analysis) (*structpb.Struct, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode analysis: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode analysis: %v", err)
	}
	m["document_id"] = d.ID.String()
	return toStruct(m)
}

func toStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
