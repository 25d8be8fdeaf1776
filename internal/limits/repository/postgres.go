package repository

import (
	"context"
	"time"

	"github.com/fieldserve/parts-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ListActiveByTechnician(ctx context.Context, technicianID string) ([]model.TechnicianLimit, error) {
	var items []model.TechnicianLimit
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM technician_limits WHERE technician_id = $1 AND is_active = true`,
		technicianID,
	)
	return items, err
}

func (r *PGRepository) PeriodUsage(ctx context.Context, technicianID string, since time.Time) (decimal.Decimal, error) {
	var usage decimal.Decimal
	err := r.DB.GetContext(ctx, &usage, `
        SELECT COALESCE(SUM(estimated_cost), 0)
        FROM spare_part_requests
        WHERE technician_id = $1 AND status <> 'REJECTED' AND created_at >= $2`,
		technicianID, since,
	)
	return usage, err
}
