package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
)

// MemoryStore is an in-process DocumentStore for the batch CLI and tests.
// Analyses are kept as JSON so callers never share mutable state with it.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[uuid.UUID]*entity.Document
	data     map[uuid.UUID][]byte
	analyses map[uuid.UUID][]byte
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[uuid.UUID]*entity.Document),
		data:     make(map[uuid.UUID][]byte),
		analyses: make(map[uuid.UUID][]byte),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var _ DocumentStore = (*MemoryStore)(nil)

func notFound(id uuid.UUID) error { return fmt.Errorf("document %s: %w", id, common.ErrNotFound) }

func (m *MemoryStore) Create(_ context.Context, in entity.NewDocument) (*entity.Document, error) {
	ext, err := validateNew(in)
	if err != nil {
		return nil, err
	}
	doc := newDocument(in, ext, m.now())
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	m.data[doc.ID] = append([]byte(nil), in.Data...)
	out := *doc
	return &out, nil
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*entity.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, notFound(id)
	}
	out := *d
	return &out, nil
}

func (m *MemoryStore) List(_ context.Context, status constants.DocumentStatus, limit int) ([]entity.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]entity.Document, 0, len(m.docs))
	for _, d := range m.docs {
		if status == "" || d.Status == status {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.Before(out[j].UploadedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return notFound(id)
	}
	delete(m.docs, id)
	delete(m.data, id)
	delete(m.analyses, id)
	return nil
}

func (m *MemoryStore) GetRawBytes(_ context.Context, id uuid.UUID) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, "", notFound(id)
	}
	return append([]byte(nil), m.data[id]...), d.FileType, nil
}

func (m *MemoryStore) SetStatus(_ context.Context, id uuid.UUID, status constants.DocumentStatus, reason string) error {
	if _, ok := constants.ParseStatus(string(status)); !ok {
		return common.NewAppError(common.CodeValidation, fmt.Sprintf("unknown status %q", status), common.ErrInvalidInput)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return notFound(id)
	}
	d.Status, d.Reason, d.UpdatedAt = status, reason, m.now()
	if status != constants.StatusCompleted {
		delete(m.analyses, id)
	}
	return nil
}

func (m *MemoryStore) SaveAnalysis(_ context.Context, id uuid.UUID, a *entity.Analysis) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return notFound(id)
	}
	m.analyses[id] = raw
	d.Status, d.Reason, d.UpdatedAt = constants.StatusCompleted, "", m.now()
	return nil
}

func (m *MemoryStore) GetAnalysis(_ context.Context, id uuid.UUID) (*entity.Analysis, error) {
	m.mu.RLock()
	raw, ok := m.analyses[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("analysis for %s: %w", id, common.ErrNotFound)
	}
	var a entity.Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &a, nil
}
