package store

import (
	"context"
	"database/sql"
	"errors"
)

// SettingsRepository handles the key/value settings table.
type SettingsRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewSettingsRepository(conn *sql.DB, dialect Dialect) *SettingsRepository {
	return &SettingsRepository{db: conn, dialect: dialect}
}

func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, r.dialect.rebind(`SELECT value FROM settings WHERE key = ?`), key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(query), key, value)
	return err
}

// SetDefault stores value only when key has no value yet.
func (r *SettingsRepository) SetDefault(ctx context.Context, key, value string) error {
	const query = `INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`
	_, err := r.db.ExecContext(ctx, r.dialect.rebind(query), key, value)
	return err
}
