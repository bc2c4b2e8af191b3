package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
)

// DocumentStore is everything the services need from persistence. It is a
// superset of pipeline.Store.
type DocumentStore interface {
	Create(ctx context.Context, in entity.NewDocument) (*entity.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	List(ctx context.Context, status constants.DocumentStatus, limit int) ([]entity.Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetRawBytes(ctx context.Context, id uuid.UUID) ([]byte, string, error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, reason string) error
	SaveAnalysis(ctx context.Context, id uuid.UUID, a *entity.Analysis) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*entity.Analysis, error)
}

const (
	tableDocuments = "documents"
	tableAnalyses  = "analyses"
)

var documentColumns = []string{"id", "title", "file_type", "blob_key", "size_bytes", "status", "reason", "uploaded_at", "updated_at"}

type documentRepo struct {
	db     *DB
	blobs  BlobStore
	logger *slog.Logger
	now    func() time.Time
}

func NewDocumentRepository(db *DB, blobs BlobStore, logger *slog.Logger) DocumentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{db: db, blobs: blobs, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (r *documentRepo) builder() *entsql.DialectBuilder { return entsql.Dialect(r.db.dialect) }

func validateNew(in entity.NewDocument) (string, error) {
	ext := constants.NormalizeExt(in.FileType)
	v := common.NewValidator().
		Field("title", in.Title, common.Required, common.MaxLength(512)).
		Field("file_type", ext, common.Required)
	if ext != "" && constants.MapExtToFormat(ext) == "" {
		return "", common.NewAppError(common.CodeValidation, fmt.Sprintf("unsupported file type %q", ext), common.ErrInvalidInput)
	}
	if v.HasErrors() {
		return "", common.NewAppError(common.CodeValidation, v.ErrorMessage(), common.ErrInvalidInput)
	}
	return ext, nil
}

func newDocument(in entity.NewDocument, ext string, now time.Time) *entity.Document {
	id := uuid.New()
	return &entity.Document{
		ID:         id,
		Title:      in.Title,
		FileType:   ext,
		BlobKey:    id.String() + "." + ext,
		SizeBytes:  int64(len(in.Data)),
		Status:     constants.StatusPending,
		UploadedAt: now,
		UpdatedAt:  now,
	}
}

func (r *documentRepo) Create(ctx context.Context, in entity.NewDocument) (*entity.Document, error) {
	ext, err := validateNew(in)
	if err != nil {
		return nil, err
	}
	doc := newDocument(in, ext, r.now())
	if err := r.blobs.Put(ctx, doc.BlobKey, in.Data); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	q, args := r.builder().Insert(tableDocuments).
		Columns(documentColumns...).
		Values(doc.ID.String(), doc.Title, doc.FileType, doc.BlobKey, doc.SizeBytes,
			string(doc.Status), doc.Reason, formatTime(doc.UploadedAt), formatTime(doc.UpdatedAt)).
		Query()
	var res sql.Result
	if err := r.db.drv.Exec(ctx, q, args, &res); err != nil {
		_ = r.blobs.Delete(ctx, doc.BlobKey)
		r.logger.Error("repo.document.create.failed", "title", in.Title, "error", err)
		return nil, fmt.Errorf("%w: insert document: %w", common.ErrDatabase, err)
	}
	r.logger.Info("repo.document.created", "document_id", doc.ID, "file_type", ext, "size_bytes", doc.SizeBytes)
	return doc, nil
}

func (r *documentRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	sel := r.builder().Select(documentColumns...).
		From(r.builder().Table(tableDocuments)).
		Where(entsql.EQ("id", id.String()))
	docs, err := r.queryDocuments(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return &docs[0], nil
}

// List returns documents oldest first; an empty status matches all.
func (r *documentRepo) List(ctx context.Context, status constants.DocumentStatus, limit int) ([]entity.Document, error) {
	sel := r.builder().Select(documentColumns...).
		From(r.builder().Table(tableDocuments)).
		OrderBy("uploaded_at", "id")
	if status != "" {
		sel.Where(entsql.EQ("status", string(status)))
	}
	if limit > 0 {
		sel.Limit(limit)
	}
	return r.queryDocuments(ctx, sel)
}

func (r *documentRepo) queryDocuments(ctx context.Context, sel *entsql.Selector) ([]entity.Document, error) {
	q, args := sel.Query()
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: query documents: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.Document
	for rows.Next() {
		var (
			d                 entity.Document
			id, status        string
			uploaded, updated string
		)
		if err := rows.Scan(&id, &d.Title, &d.FileType, &d.BlobKey, &d.SizeBytes, &status, &d.Reason, &uploaded, &updated); err != nil {
			return nil, fmt.Errorf("%w: scan document: %w", common.ErrDatabase, err)
		}
		var err error
		if d.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: bad document id %q: %w", common.ErrDatabase, id, err)
		}
		d.Status = constants.DocumentStatus(status)
		d.UploadedAt = parseTime(uploaded)
		d.UpdatedAt = parseTime(updated)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate documents: %w", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *documentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	err = r.withTx(ctx, func(tx dialect.Tx) error {
		if _, err := r.exec(ctx, tx, r.builder().Delete(tableAnalyses).Where(entsql.EQ("document_id", id.String()))); err != nil {
			return err
		}
		n, err := r.exec(ctx, tx, r.builder().Delete(tableDocuments).Where(entsql.EQ("id", id.String())))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := r.blobs.Delete(ctx, doc.BlobKey); err != nil {
		r.logger.Warn("repo.blob.delete.failed", "document_id", id, "error", err)
	}
	r.logger.Info("repo.document.deleted", "document_id", id)
	return nil
}

func (r *documentRepo) GetRawBytes(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	doc, err := r.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, err := r.blobs.Get(ctx, doc.BlobKey)
	if err != nil {
		return nil, "", fmt.Errorf("read blob: %w", err)
	}
	return data, doc.FileType, nil
}

func (r *documentRepo) SetStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, reason string) error {
	if _, ok := constants.ParseStatus(string(status)); !ok {
		return common.NewAppError(common.CodeValidation, fmt.Sprintf("unknown status %q", status), common.ErrInvalidInput)
	}
	return r.withTx(ctx, func(tx dialect.Tx) error {
		n, err := r.exec(ctx, tx, r.builder().Update(tableDocuments).
			Set("status", string(status)).
			Set("reason", reason).
			Set("updated_at", formatTime(r.now())).
			Where(entsql.EQ("id", id.String())))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
		}
		if status != constants.StatusCompleted {
			if _, err := r.exec(ctx, tx, r.builder().Delete(tableAnalyses).Where(entsql.EQ("document_id", id.String()))); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *documentRepo) SaveAnalysis(ctx context.Context, id uuid.UUID, a *entity.Analysis) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	analyzedAt := a.AnalyzedAt
	if analyzedAt.IsZero() {
		analyzedAt = r.now()
	}
	return r.withTx(ctx, func(tx dialect.Tx) error {
		n, err := r.exec(ctx, tx, r.builder().Update(tableDocuments).
			Set("status", string(constants.StatusCompleted)).
			Set("reason", "").
			Set("updated_at", formatTime(r.now())).
			Where(entsql.EQ("id", id.String())))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("document %s: %w", id, common.ErrNotFound)
		}
		if _, err := r.exec(ctx, tx, r.builder().Delete(tableAnalyses).Where(entsql.EQ("document_id", id.String()))); err != nil {
			return err
		}
		_, err = r.exec(ctx, tx, r.builder().Insert(tableAnalyses).
			Columns("document_id", "data", "analyzed_at").
			Values(id.String(), string(data), formatTime(analyzedAt)))
		return err
	})
}

func (r *documentRepo) GetAnalysis(ctx context.Context, id uuid.UUID) (*entity.Analysis, error) {
	q, args := r.builder().Select("data").
		From(r.builder().Table(tableAnalyses)).
		Where(entsql.EQ("document_id", id.String())).
		Query()
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("%w: query analysis: %w", common.ErrDatabase, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: query analysis: %w", common.ErrDatabase, err)
		}
		return nil, fmt.Errorf("analysis for %s: %w", id, common.ErrNotFound)
	}
	var data string
	if err := rows.Scan(&data); err != nil {
		return nil, fmt.Errorf("%w: scan analysis: %w", common.ErrDatabase, err)
	}
	var a entity.Analysis
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &a, nil
}

// querier is satisfied by a statement builder (Update, Delete, Insert).
type querier interface {
	Query() (string, []any)
}

func (r *documentRepo) exec(ctx context.Context, tx dialect.Tx, b querier) (int64, error) {
	q, args := b.Query()
	var res sql.Result
	if err := tx.Exec(ctx, q, args, &res); err != nil {
		return 0, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %w", common.ErrDatabase, err)
	}
	return n, nil
}

func (r *documentRepo) withTx(ctx context.Context, fn func(tx dialect.Tx) error) error {
	tx, err := r.db.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", common.ErrDatabase, err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			r.logger.Error("repo.tx.rollback.failed", "error", rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", common.ErrDatabase, err)
	}
	return nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
