package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-analyzer/constants"
)

// Document represents an uploaded document for data transfer between layers.
type Document struct {
	ID         uuid.UUID                `json:"id"`
	Title      string                   `json:"title"`
	FileType   string                   `json:"file_type"` // file extension without dot, e.g. "pdf"
	BlobKey    string                   `json:"blob_key,omitempty"`
	SizeBytes  int64                    `json:"size_bytes"`
	Status     constants.DocumentStatus `json:"status"`
	Reason     string                   `json:"reason,omitempty"`
	UploadedAt time.Time                `json:"uploaded_at"`
	UpdatedAt  time.Time                `json:"updated_at"`
}

// NewDocument is the input for registering a document with a store.
type NewDocument struct {
	Title    string
	FileType string
	Data     []byte
}
