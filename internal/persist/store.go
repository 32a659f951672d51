package persist

import (
	"context"
	"fmt"

	"github.com/enginert/runtime/internal/config"
	"github.com/enginert/runtime/internal/resource"
	"go.uber.org/zap"
)

// Store is the metadata backend selected by [metadata] backend. Log is only
// set for the postgres backend.
type Store struct {
	Metadata resource.MetadataStore
	Log      *ResourceLogRepo
	db       *DB
}

// OpenStore opens the configured backend. For postgres it connects and runs
// migrations before returning.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Store, error) {
	switch cfg.Metadata.Backend {
	case "yaml":
		return &Store{Metadata: resource.NewYAMLStore(cfg.Metadata.Path)}, nil
	case "postgres":
		if log == nil {
			log = zap.NewNop()
		}
		db, err := NewDB(ctx, cfg.Engine.Name, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		version, err := RunMigrations(ctx, db.Pool, log)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		log.Debug("resource schema ready", zap.Int64("version", version))
		return &Store{
			Metadata: NewResourceRepo(db),
			Log:      NewResourceLogRepo(db),
			db:       db,
		}, nil
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", cfg.Metadata.Backend)
	}
}

// Backend names the open backend for logs.
func (s *Store) Backend() string {
	if s.db != nil {
		return "postgres"
	}
	return "yaml"
}

func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
