package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
)

// Store is the persistence contract the pipeline runs against. Implementations
// return an error wrapping common.ErrNotFound for unknown ids.
type Store interface {
	// GetRawBytes returns the uploaded bytes and the file extension without dot.
	GetRawBytes(ctx context.Context, id uuid.UUID) ([]byte, string, error)
	// SetStatus moves a document to status. Any status other than completed
	// removes a previously stored analysis.
	SetStatus(ctx context.Context, id uuid.UUID, status constants.DocumentStatus, reason string) error
	// SaveAnalysis stores a and marks the document completed in one step.
	SaveAnalysis(ctx context.Context, id uuid.UUID, a *entity.Analysis) error
}
