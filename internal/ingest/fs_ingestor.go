package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/async"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/repository"
)

// MaxFileBytes bounds a single ingested file.
const MaxFileBytes = 64 << 20

// Enqueuer is the part of async.Queue the ingestor needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, job async.Job) error
}

// FSIngestor registers files from the local filesystem as pending documents
// and queues them. Identical content ingested twice maps to the first document
// while that document exists.
type FSIngestor struct {
	Store       repository.DocumentStore
	Queue       Enqueuer            // nil: register only
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> default set
	Logger      *slog.Logger

	mu       sync.Mutex
	byHash   map[string]uuid.UUID
	inflight map[string]chan struct{} // closed when the holder of a hash is done
}

func NewFSIngestor(store repository.DocumentStore, queue Enqueuer, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{
		Store:    store,
		Queue:    queue,
		Logger:   logger,
		byHash:   map[string]uuid.UUID{},
		inflight: map[string]chan struct{}{},
	}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	logger := common.LoggerFrom(ctx, i.Logger)
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext, i.AllowedExts) {
		logger.Warn("ingest.unsupported", "path", abs, "ext", ext)
		return out, common.NewAppError(common.CodeValidation, fmt.Sprintf("unsupported or missing extension %q", ext), common.ErrInvalidInput)
	}
	out.FileExt = ext

	info, err := os.Stat(abs)
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		return out, common.NewAppError(common.CodeValidation, "path is a directory", common.ErrInvalidInput)
	}
	if info.Size() > MaxFileBytes {
		return out, common.NewAppError(common.CodeValidation, fmt.Sprintf("file exceeds %d bytes", MaxFileBytes), common.ErrInvalidInput)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return out, fmt.Errorf("read: %w", err)
	}
	sum := sha256.Sum256(data)
	out.HashHex = hex.EncodeToString(sum[:])

	// the hash stays reserved from the dedup lookup until Create has
	// returned, so identical content arriving concurrently creates one document
	release, err := i.reserve(ctx, out.HashHex)
	if err != nil {
		return out, err
	}
	id, ok, err := i.known(ctx, out.HashHex)
	if err != nil {
		release(uuid.Nil)
		logger.Error("ingest.dedup.failed", "path", abs, "error", err)
		return out, fmt.Errorf("dedup lookup: %w", err)
	}
	if ok {
		release(uuid.Nil)
		out.DocumentID = id.String()
		out.Deduplicated = true
		logger.Info("ingest.deduplicated", "path", abs, "document_id", id)
		return out, nil
	}

	doc, err := i.Store.Create(ctx, entity.NewDocument{Title: filepath.Base(abs), FileType: ext, Data: data})
	if err != nil {
		release(uuid.Nil)
		logger.Error("ingest.create.failed", "path", abs, "error", err)
		return out, err
	}
	release(doc.ID)
	out.DocumentID = doc.ID.String()
	out.UploadedAt = doc.UploadedAt

	if i.Queue != nil {
		if err := i.Queue.Enqueue(ctx, async.Job{DocumentID: doc.ID}); err != nil {
			logger.Error("ingest.enqueue.failed", "document_id", doc.ID, "error", err)
			return out, fmt.Errorf("enqueue: %w", err)
		}
	}
	logger.Info("ingest.ok", "path", abs, "document_id", doc.ID, "size_bytes", doc.SizeBytes)
	return out, nil
}

// reserve waits until no other call holds hash and takes it. The returned func
// records id for the hash when it is not uuid.Nil and wakes the next waiter.
func (i *FSIngestor) reserve(ctx context.Context, hash string) (func(id uuid.UUID), error) {
	for {
		i.mu.Lock()
		if i.inflight == nil {
			i.inflight = map[string]chan struct{}{}
		}
		wait, busy := i.inflight[hash]
		if !busy {
			done := make(chan struct{})
			i.inflight[hash] = done
			i.mu.Unlock()
			return func(id uuid.UUID) {
				i.mu.Lock()
				if id != uuid.Nil {
					if i.byHash == nil {
						i.byHash = map[string]uuid.UUID{}
					}
					i.byHash[hash] = id
				}
				delete(i.inflight, hash)
				i.mu.Unlock()
				close(done)
			}, nil
		}
		i.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// known reports a live document already holding content with this hash. Only
// a not-found lookup forgets the hash; any other store error is returned.
func (i *FSIngestor) known(ctx context.Context, hash string) (uuid.UUID, bool, error) {
	i.mu.Lock()
	id, ok := i.byHash[hash]
	i.mu.Unlock()
	if !ok {
		return uuid.Nil, false, nil
	}
	_, err := i.Store.Get(ctx, id)
	switch {
	case err == nil:
		return id, true, nil
	case errors.Is(err, common.ErrNotFound):
		i.mu.Lock()
		delete(i.byHash, hash)
		i.mu.Unlock()
		return uuid.Nil, false, nil
	}
	return uuid.Nil, false, err
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.NewAppError(common.CodeValidation, "root_path is required", common.ErrInvalidInput)
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path), i.AllowedExts) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, FileExt: r.FileExt, Err: err.Error()})
			stats.Failed++
			return nil
		}
		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
