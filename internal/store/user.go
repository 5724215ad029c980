package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/walkgoal/apiserver/internal/db"
	"github.com/walkgoal/apiserver/types"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewUserRepository(conn *sql.DB, dialect Dialect) *UserRepository {
	return &UserRepository{db: conn, dialect: dialect}
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	const query = `SELECT id, name FROM users ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		var user types.User
		if err := rows.Scan(&user.ID, &user.Name); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	return r.getOne(ctx, r.db, `SELECT id, name FROM users WHERE id = ?`, id)
}

func (r *UserRepository) GetByName(ctx context.Context, name string) (types.User, error) {
	return r.getOne(ctx, r.db, `SELECT id, name FROM users WHERE name = ?`, name)
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	const query = `INSERT INTO users (id, name) VALUES (?, ?)`
	if _, err := r.db.ExecContext(ctx, r.dialect.rebind(query), user.ID, user.Name); err != nil {
		return types.User{}, err
	}
	return user, nil
}

// DeleteCascade removes the user and every entry carrying its name in one transaction.
func (r *UserRepository) DeleteCascade(ctx context.Context, id string) (types.UserDeletion, error) {
	var deletion types.UserDeletion
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx db.DBTX) error {
		user, err := r.getOne(ctx, tx, `SELECT id, name FROM users WHERE id = ?`, id)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, r.dialect.rebind(`DELETE FROM walking_entries WHERE user_name = ?`), user.Name)
		if err != nil {
			return err
		}
		removed, err := result.RowsAffected()
		if err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx, r.dialect.rebind(`DELETE FROM users WHERE id = ?`), id)
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

		deletion = types.UserDeletion{UserName: user.Name, EntriesRemoved: int(removed)}
		return nil
	})
	if err != nil {
		return types.UserDeletion{}, err
	}
	return deletion, nil
}

func (r *UserRepository) getOne(ctx context.Context, q db.DBTX, query string, arg any) (types.User, error) {
	var user types.User
	err := q.QueryRowContext(ctx, r.dialect.rebind(query), arg).Scan(&user.ID, &user.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}
