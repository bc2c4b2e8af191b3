package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyQueued rejects a second job for a document that is queued or running.
	ErrAlreadyQueued = errors.New("document already queued")
	ErrQueueClosed   = errors.New("queue is shutting down")
)

// Job asks for one analysis run of a document.
type Job struct {
	DocumentID  uuid.UUID
	SubmittedAt time.Time
	TraceID     string // ULID; assigned on enqueue when empty
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Cancel(id uuid.UUID) bool
	Shutdown(ctx context.Context)
}
