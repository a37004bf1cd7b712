package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"foodorder-be/internal/db"
	"foodorder-be/internal/logger"
	"foodorder-be/internal/model"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email is already used by another account")
)

const uniqueViolation = "23505"

// Repository persists the user aggregate as one JSONB document.
type Repository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Save(ctx context.Context, u *model.User) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

func (r *repository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, `SELECT doc FROM users WHERE id = $1`, id)
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `SELECT doc FROM users WHERE lower(email) = lower($1) ORDER BY id LIMIT 1`, email)
}

func (r *repository) findOne(ctx context.Context, query string, arg string) (*model.User, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to load user", zap.String("key", arg), zap.Error(err))
		return nil, err
	}

	var u model.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode user document: %w", err)
	}
	return &u, nil
}

// Save writes the whole document. Concurrent saves of the same user are last
// write wins.
func (r *repository) Save(ctx context.Context, u *model.User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode user document: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, doc, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE
		SET email = EXCLUDED.email, doc = EXCLUDED.doc, updated_at = NOW()
	`, u.ID, u.Email, raw)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		logger.FromCtx(ctx).Warn("db: email already taken", zap.String("user_id", u.ID))
		return ErrEmailTaken
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to save user", zap.String("user_id", u.ID), zap.Error(err))
	}
	return err
}
