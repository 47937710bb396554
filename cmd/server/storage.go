package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ganot/overlap/internal/config"
	"github.com/ganot/overlap/internal/domain/activity"
	"github.com/ganot/overlap/internal/domain/availability"
	"github.com/ganot/overlap/internal/domain/group"
	"github.com/ganot/overlap/internal/mongo"
	"github.com/ganot/overlap/internal/sqlite"
)

type apiKeyStore interface {
	Create(ctx context.Context, token, userID, description string) error
	ResolveUser(ctx context.Context, token string) (string, error)
}

// storage holds the repositories of one configured backend.
type storage struct {
	intervals availability.Store
	groups    group.Repository
	activity  activity.Repository
	keys      apiKeyStore
	close     func(context.Context) error
}

func openStorage(ctx context.Context, cfg config.DBConfig) (*storage, error) {
	switch cfg.Driver {
	case "mongo":
		db, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = db.Close(ctx)
			return nil, err
		}
		return &storage{
			intervals: mongo.NewIntervalStore(db),
			groups:    mongo.NewGroupRepository(db),
			activity:  mongo.NewActivityRepository(db),
			keys:      mongo.NewAPIKeyRepository(db),
			close:     db.Close,
		}, nil
	case "sqlite", "":
		if err := ensureDBDir(cfg.Path); err != nil {
			return nil, fmt.Errorf("prepare database path: %w", err)
		}
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &storage{
			intervals: sqlite.NewIntervalStore(db),
			groups:    sqlite.NewGroupRepository(db),
			activity:  sqlite.NewActivityRepository(db),
			keys:      sqlite.NewAPIKeyRepository(db),
			close:     func(context.Context) error { return db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
