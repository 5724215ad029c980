package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/walkgoal/apiserver/config"
	"github.com/walkgoal/apiserver/internal/db"
	"github.com/walkgoal/apiserver/internal/services"
	"github.com/walkgoal/apiserver/internal/store"
)

// Stores bundles the repositories for the configured store driver.
type Stores struct {
	Users    services.UserRepository
	Entries  services.EntryRepository
	Settings services.SettingsRepository

	db *sql.DB
}

// OpenStores connects to the store selected by cfg.Store.Driver and, when
// AutoMigrate is set, brings the schema up to date.
func OpenStores(ctx context.Context, cfg config.Config) (*Stores, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		mem := store.NewMemoryStore()
		return &Stores{Users: mem.Users(), Entries: mem.Entries(), Settings: mem.Settings()}, nil
	}

	conn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Store.AutoMigrate {
		if err := db.MigrateUp(conn, cfg.Store.Driver); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	dialect := store.DialectFor(cfg.Store.Driver)
	return &Stores{
		Users:    store.NewUserRepository(conn, dialect),
		Entries:  store.NewEntryRepository(conn, dialect),
		Settings: store.NewSettingsRepository(conn, dialect),
		db:       conn,
	}, nil
}

// DB returns the underlying connection, or nil for the memory store.
func (s *Stores) DB() *sql.DB {
	return s.db
}

func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
