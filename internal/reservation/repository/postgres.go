package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, res *model.StockReservation) error {
	query := `
        INSERT INTO stock_reservations (
            id, request_id, level_id, spare_part_id, store_id,
            reserved_quantity, status, expires_at, release_reason,
            created_at, updated_at
        )
        VALUES (
            :id, :request_id, :level_id, :spare_part_id, :store_id,
            :reserved_quantity, :status, :expires_at, :release_reason,
            :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, res)
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.StockReservation, error) {
	var res model.StockReservation
	err := r.DB.GetContext(ctx, &res, `SELECT * FROM stock_reservations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperrors.NotFoundError{Entity: "reservation", ID: id}
		}
		return nil, err
	}
	return &res, nil
}

func (r *PGRepository) GetActiveByRequest(ctx context.Context, requestID string) (*model.StockReservation, error) {
	var res model.StockReservation
	err := r.DB.GetContext(ctx, &res,
		`SELECT * FROM stock_reservations WHERE request_id = $1 AND status = $2`,
		requestID, model.ReservationActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &res, nil
}

func (r *PGRepository) Update(ctx context.Context, res *model.StockReservation) error {
	query := `
        UPDATE stock_reservations
        SET status = :status, reserved_quantity = :reserved_quantity,
            expires_at = :expires_at, release_reason = :release_reason,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, res)
	return err
}

func (r *PGRepository) Transition(ctx context.Context, res *model.StockReservation, from model.ReservationStatus) error {
	result, err := r.DB.ExecContext(ctx, `
        UPDATE stock_reservations
        SET status = $1, reserved_quantity = $2, expires_at = $3,
            release_reason = $4, updated_at = $5
        WHERE id = $6 AND status = $7
    `, res.Status, res.ReservedQuantity, res.ExpiresAt, res.ReleaseReason, res.UpdatedAt, res.ID, from)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("reservation %s left status %s concurrently: %w", res.ID, from, apperrors.ErrInvalidTransition)
	}
	return nil
}

func (r *PGRepository) ListExpired(ctx context.Context, now time.Time) ([]model.StockReservation, error) {
	var items []model.StockReservation
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM stock_reservations WHERE status = $1 AND expires_at < $2`,
		model.ReservationActive, now,
	)
	return items, err
}
