package restaurant

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"foodorder-be/internal/db"
	"foodorder-be/internal/logger"
	"foodorder-be/internal/model"

	"go.uber.org/zap"
)

var ErrNotFound = errors.New("restaurant not found")

type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Restaurant, error)
	ListApproved(ctx context.Context) ([]model.Restaurant, error)
	ListAll(ctx context.Context) ([]model.Restaurant, error)
	Save(ctx context.Context, r *model.Restaurant) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{db: conn}
}

func (r *repository) FindByID(ctx context.Context, id string) (*model.Restaurant, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `SELECT doc FROM restaurants WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to load restaurant", zap.String("restaurant_id", id), zap.Error(err))
		return nil, err
	}

	var out model.Restaurant
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode restaurant document: %w", err)
	}
	return &out, nil
}

func (r *repository) ListApproved(ctx context.Context) ([]model.Restaurant, error) {
	return r.list(ctx, `SELECT doc FROM restaurants WHERE status = $1 ORDER BY created_at, id`, string(model.RegistrationAccepted))
}

func (r *repository) ListAll(ctx context.Context) ([]model.Restaurant, error) {
	return r.list(ctx, `SELECT doc FROM restaurants ORDER BY created_at, id`)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]model.Restaurant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to list restaurants", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Restaurant, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rest model.Restaurant
		if err := json.Unmarshal(raw, &rest); err != nil {
			return nil, fmt.Errorf("decode restaurant document: %w", err)
		}
		out = append(out, rest)
	}
	return out, rows.Err()
}

// Save writes the whole document, last write wins.
func (r *repository) Save(ctx context.Context, rest *model.Restaurant) error {
	raw, err := json.Marshal(rest)
	if err != nil {
		return fmt.Errorf("encode restaurant document: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO restaurants (id, status, city, doc, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status, city = EXCLUDED.city, doc = EXCLUDED.doc, updated_at = NOW()
	`, rest.ID, string(rest.Status), rest.City, raw)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to save restaurant", zap.String("restaurant_id", rest.ID), zap.Error(err))
	}
	return err
}
