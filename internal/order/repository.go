package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"foodorder-be/internal/db"
	"foodorder-be/internal/logger"
	"foodorder-be/internal/model"
	"foodorder-be/internal/restaurant"
	"foodorder-be/internal/user"

	"go.uber.org/zap"
)

// Repository loads and stores the two aggregates that hold order copies.
// Every Save commits the aggregate together with the twin_syncs rows passed
// to it, so a change owed to the twin copy is never lost.
type Repository interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetRestaurant(ctx context.Context, id string) (*model.Restaurant, error)

	SaveUser(ctx context.Context, u *model.User, syncs ...model.TwinSync) error
	SaveRestaurant(ctx context.Context, r *model.Restaurant, syncs ...model.TwinSync) error

	PendingSyncs(ctx context.Context, limit, maxAttempts int) ([]model.TwinSync, error)
	HasOlderPendingSync(ctx context.Context, s model.TwinSync, maxAttempts int) (bool, error)
	MarkSyncDone(ctx context.Context, id string) error
	MarkSyncRetry(ctx context.Context, id, reason string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) GetUser(ctx context.Context, id string) (*model.User, error) {
	return user.NewRepository(r.db).FindByID(ctx, id)
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return user.NewRepository(r.db).FindByEmail(ctx, email)
}

func (r *repository) GetRestaurant(ctx context.Context, id string) (*model.Restaurant, error) {
	return restaurant.NewRepository(r.db).FindByID(ctx, id)
}

func (r *repository) SaveUser(ctx context.Context, u *model.User, syncs ...model.TwinSync) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := user.NewRepository(tx).Save(ctx, u); err != nil {
			return err
		}
		return insertSyncs(ctx, tx, syncs)
	})
}

func (r *repository) SaveRestaurant(ctx context.Context, rest *model.Restaurant, syncs ...model.TwinSync) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := restaurant.NewRepository(tx).Save(ctx, rest); err != nil {
			return err
		}
		return insertSyncs(ctx, tx, syncs)
	})
}

func insertSyncs(ctx context.Context, tx *sql.Tx, syncs []model.TwinSync) error {
	for _, s := range syncs {
		payload, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode twin sync: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO twin_syncs (id, kind, target, order_id, payload, attempts, created_at)
			VALUES ($1, $2, $3, $4, $5, 0, $6)
		`, s.ID, string(s.Kind), string(s.Target), s.OrderID, payload, s.CreatedAt)
		if err != nil {
			logger.FromCtx(ctx).Error("db: failed to insert twin sync",
				zap.String("order_id", s.OrderID),
				zap.String("kind", string(s.Kind)),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// PendingSyncs returns undelivered rows oldest first, so a create is always
// replayed before the edits that follow it.
func (r *repository) PendingSyncs(ctx context.Context, limit, maxAttempts int) ([]model.TwinSync, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload, attempts, COALESCE(last_error, '')
		FROM twin_syncs
		WHERE done_at IS NULL AND attempts < $1
		ORDER BY created_at, id
		LIMIT $2
	`, maxAttempts, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TwinSync, 0)
	for rows.Next() {
		var (
			raw []byte
			s   model.TwinSync
		)
		if err := rows.Scan(&raw, &s.Attempts, &s.LastError); err != nil {
			return nil, err
		}
		attempts, lastErr := s.Attempts, s.LastError
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode twin sync: %w", err)
		}
		s.Attempts, s.LastError = attempts, lastErr
		out = append(out, s)
	}
	return out, rows.Err()
}

// HasOlderPendingSync reports whether a sync for the same order, committed
// before s, is still waiting and has attempts left.
func (r *repository) HasOlderPendingSync(ctx context.Context, s model.TwinSync, maxAttempts int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM twin_syncs
			WHERE order_id = $1 AND id <> $2
				AND done_at IS NULL AND attempts < $3
				AND (created_at, id) < ($4, $2)
		)
	`, s.OrderID, s.ID, maxAttempts, s.CreatedAt).Scan(&exists)
	return exists, err
}

func (r *repository) MarkSyncDone(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE twin_syncs SET done_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *repository) MarkSyncRetry(ctx context.Context, id, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE twin_syncs SET attempts = attempts + 1, last_error = $2 WHERE id = $1`,
		id, reason,
	)
	return err
}
