package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/joseph-ayodele/legal-analyzer/internal/common"
)

// BlobStore keeps raw uploaded bytes under a flat key.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewBlobStore opens a GCS store for "gs://bucket/prefix" locations and a
// directory store otherwise. The returned close func is never nil.
func NewBlobStore(ctx context.Context, location string) (BlobStore, func() error, error) {
	if rest, ok := strings.CutPrefix(location, "gs://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, nil, fmt.Errorf("blob location %q has no bucket", location)
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("storage client: %w", err)
		}
		return NewGCSBlobStore(client, bucket, prefix), client.Close, nil
	}
	fs, err := NewFSBlobStore(location)
	if err != nil {
		return nil, nil, err
	}
	return fs, func() error { return nil }, nil
}

type FSBlobStore struct {
	dir string
}

func NewFSBlobStore(dir string) (*FSBlobStore, error) {
	if dir == "" {
		return nil, errors.New("blob dir cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &FSBlobStore{dir: dir}, nil
}

func (s *FSBlobStore) filePath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Put writes through a temp file so readers never see a partial blob.
func (s *FSBlobStore) Put(_ context.Context, key string, data []byte) error {
	p, err := s.filePath(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return fmt.Errorf("blob temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("blob write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("blob close: %w", err)
	}
	return os.Rename(tmp.Name(), p)
}

func (s *FSBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	p, err := s.filePath(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("blob %s: %w", key, common.ErrNotFound)
	}
	return b, err
}

func (s *FSBlobStore) Delete(_ context.Context, key string) error {
	p, err := s.filePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// GCSBlobStore stores objects as <prefix>/<key> in one bucket.
type GCSBlobStore struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSBlobStore(client *storage.Client, bucket, prefix string) *GCSBlobStore {
	return &GCSBlobStore{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *GCSBlobStore) object(key string) *storage.ObjectHandle {
	name := key
	if s.prefix != "" {
		name = path.Join(s.prefix, key)
	}
	return s.client.Bucket(s.bucket).Object(name)
}

func (s *GCSBlobStore) Put(ctx context.Context, key string, data []byte) error {
	w := s.object(key).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close %s: %w", key, err)
	}
	return nil
}

func (s *GCSBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("blob %s: %w", key, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *GCSBlobStore) Delete(ctx context.Context, key string) error {
	err := s.object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete %s: %w", key, err)
	}
	return nil
}
