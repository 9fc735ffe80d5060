package main

import (
	"errors"
	"fmt"

	"tracked/internal/adapter/memory"
	"tracked/internal/adapter/postgres"
	"tracked/internal/domain"
	"tracked/internal/logging"

	log "github.com/sirupsen/logrus"
)

// stores bundles the repositories of one backend.
type stores struct {
	trackers  domain.TrackerRepository
	snapshots domain.SnapshotRepository
	entries   domain.EntryRepository
	tx        domain.Transactor
	users     domain.UserRepository
	profiles  domain.ProfileRepository
	sessions  domain.SessionRepository
	close     func() error
}

func (g *Globals) logger() (*log.Logger, error) {
	return logging.New(logging.Config{
		Level:     g.LogLevel,
		Format:    g.LogFormat,
		File:      g.LogFile,
		MaxSizeMB: g.LogMaxSizeMB,
	})
}

func (g *Globals) openStores(logger log.FieldLogger) (*stores, error) {
	switch g.Store {
	case "memory":
		db := memory.New()
		return &stores{
			trackers: db, snapshots: db, entries: db, tx: db,
			users: db, profiles: db, sessions: db.NewSessionRepo(),
			close: func() error { return nil },
		}, nil
	case "postgres":
		if g.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres store")
		}
		db, err := postgres.Open(g.DatabaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		return &stores{
			trackers: db, snapshots: db, entries: db, tx: db,
			users: db, profiles: db, sessions: postgres.NewSessionRepo(db),
			close: db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", g.Store)
	}
}
