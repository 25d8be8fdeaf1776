package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fieldserve/parts-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByService(ctx context.Context, serviceRequestID string) (*model.ServiceCostBreakdown, error) {
	var b model.ServiceCostBreakdown
	err := r.DB.GetContext(ctx, &b,
		`SELECT * FROM service_cost_breakdowns WHERE service_request_id = $1`,
		serviceRequestID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGRepository) Create(ctx context.Context, b *model.ServiceCostBreakdown) error {
	query := `
        INSERT INTO service_cost_breakdowns (
            id, service_request_id, parts_cost, parts_revenue, labor_hours,
            labor_rate, labor_cost, overhead_percent, overhead_amount,
            subtotal, tax_percent, tax_amount, total_cost, total_revenue,
            margin_percent, computed_at
        )
        VALUES (
            :id, :service_request_id, :parts_cost, :parts_revenue, :labor_hours,
            :labor_rate, :labor_cost, :overhead_percent, :overhead_amount,
            :subtotal, :tax_percent, :tax_amount, :total_cost, :total_revenue,
            :margin_percent, :computed_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, b)
	return err
}
