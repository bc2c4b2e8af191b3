package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	repo "github.com/joseph-ayodele/legal-analyzer/internal/repository"
)

// Store bundles the document repository with the handles it was built from.
type Store struct {
	DB        *repo.DB
	Documents repo.DocumentStore
	closeBlob func() error
}

// ConnectStore opens the database, applies migrations, and attaches the blob
// store configured for raw document bytes.
func ConnectStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "driver", cfg.Database.Driver)
	db, err := repo.Open(ctx, repo.Config{
		Driver:           cfg.Database.Driver,
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close(logger)
		logger.Error("database migration failed", "error", err)
		return nil, err
	}

	blobs, closeBlob, err := repo.NewBlobStore(ctx, cfg.Blob.Location)
	if err != nil {
		db.Close(logger)
		logger.Error("failed to open blob store", "location", cfg.Blob.Location, "error", err)
		return nil, err
	}
	logger.Info("successfully connected to database", "blob", cfg.Blob.Location)
	return &Store{DB: db, Documents: repo.NewDocumentRepository(db, blobs, logger), closeBlob: closeBlob}, nil
}

// Ping checks the database is responsive.
func (s *Store) Ping(ctx context.Context, timeout time.Duration, logger *slog.Logger) error {
	return s.DB.HealthCheck(ctx, timeout, logger)
}

// Close releases the blob client and database connections.
func (s *Store) Close(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	var err error
	if s.closeBlob != nil {
		err = s.closeBlob()
	}
	s.DB.Close(logger)
	logger.Info("database connections closed")
	return err
}
