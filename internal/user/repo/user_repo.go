package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// IDSource produces ids for new rows.
type IDSource interface {
	Next() int64
}

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db  *sqlx.DB
	ids IDSource
}

func NewUserRepo(db *sqlx.DB, ids IDSource) *UserRepo { return &UserRepo{db: db, ids: ids} }

const userColumns = `id, email, password_hash, password_algo, first_name, last_name, created_at, updated_at`

// Create inserts u, filling ID and timestamps. A duplicate email yields ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	q := `INSERT INTO users (id, email, password_hash, password_algo, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + userColumns
	id := r.ids.Next()
	var row entity.User
	err := r.db.GetContext(ctx, &row, q, id, u.Email, u.PasswordHash, u.PasswordAlgo, u.FirstName, u.LastName)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	*u = row
	return nil
}

// GetByEmail matches the email exactly as stored.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, "select user", `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.getOne(ctx, "select user", `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

// getOne runs a single-row query; op names the operation in wrapped errors.
func (r *UserRepo) getOne(ctx context.Context, op, q string, args ...any) (*entity.User, error) {
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &row, nil
}

// UpdateProfile applies the non-nil fields of upd and bumps updated_at.
func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, upd entity.ProfileUpdate) (*entity.User, error) {
	const q = `UPDATE users SET
		first_name = COALESCE($2, first_name),
		last_name = COALESCE($3, last_name),
		updated_at = NOW()
	WHERE id=$1 RETURNING ` + userColumns
	return r.getOne(ctx, "update user", q, id, upd.FirstName, upd.LastName)
}

// UpdatePassword replaces hash & algo.
func (r *UserRepo) UpdatePassword(ctx context.Context, id int64, hash, algo string) error {
	const q = `UPDATE users SET password_hash=$2, password_algo=$3, updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, hash, algo)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectOne(res)
}

func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOne(res)
}

// Ping checks the connection, used by the health endpoint.
func (r *UserRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
