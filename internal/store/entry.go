package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/walkgoal/apiserver/types"
)

// timestampLayout is fixed-width so created_at sorts lexically in every backend.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

const entryColumns = `id, user_name, minutes, week_start_date, created_at`

// EntryRepository handles persistence for walking entries.
type EntryRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewEntryRepository(conn *sql.DB, dialect Dialect) *EntryRepository {
	return &EntryRepository{db: conn, dialect: dialect}
}

// List returns every entry, newest first.
func (r *EntryRepository) List(ctx context.Context) ([]types.Entry, error) {
	return r.query(ctx, `SELECT `+entryColumns+` FROM walking_entries ORDER BY created_at DESC, id DESC`)
}

func (r *EntryRepository) ListByUser(ctx context.Context, userName string) ([]types.Entry, error) {
	return r.query(ctx, `SELECT `+entryColumns+` FROM walking_entries WHERE user_name = ? ORDER BY created_at DESC, id DESC`, userName)
}

func (r *EntryRepository) ListByWeek(ctx context.Context, weekStartDate string) ([]types.Entry, error) {
	return r.query(ctx, `SELECT `+entryColumns+` FROM walking_entries WHERE week_start_date = ? ORDER BY created_at DESC, id DESC`, weekStartDate)
}

func (r *EntryRepository) Create(ctx context.Context, entry types.Entry) (types.Entry, error) {
	const query = `
		INSERT INTO walking_entries (id, user_name, minutes, week_start_date, created_at)
		VALUES (?, ?, ?, ?, ?)`
	entry.CreatedAt = entry.CreatedAt.UTC()
	if _, err := r.db.ExecContext(
		ctx,
		r.dialect.rebind(query),
		entry.ID,
		entry.UserName,
		entry.Minutes,
		entry.WeekStartDate,
		entry.CreatedAt.Format(timestampLayout),
	); err != nil {
		return types.Entry{}, err
	}
	return entry, nil
}

func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.dialect.rebind(`DELETE FROM walking_entries WHERE id = ?`), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EntryRepository) query(ctx context.Context, query string, args ...any) ([]types.Entry, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]types.Entry, 0)
	for rows.Next() {
		var entry types.Entry
		var createdAt string
		if err := rows.Scan(
			&entry.ID,
			&entry.UserName,
			&entry.Minutes,
			&entry.WeekStartDate,
			&createdAt,
		); err != nil {
			return nil, err
		}
		entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("entry %s: invalid created_at %q: %w", entry.ID, createdAt, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
