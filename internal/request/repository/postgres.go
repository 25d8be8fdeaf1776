package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *PGRepository) Create(ctx context.Context, req *model.SparePartRequest) error {
	query := `
        INSERT INTO spare_part_requests (
            id, service_request_id, spare_part_id, store_id, technician_id,
            requested_quantity, urgency, justification, status, approval_level,
            estimated_cost, issued_quantity, installed_quantity,
            returned_quantity, issued_cost, notes, created_at, updated_at
        )
        VALUES (
            :id, :service_request_id, :spare_part_id, :store_id, :technician_id,
            :requested_quantity, :urgency, :justification, :status, :approval_level,
            :estimated_cost, :issued_quantity, :installed_quantity,
            :returned_quantity, :issued_cost, :notes, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, req)
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.SparePartRequest, error) {
	var req model.SparePartRequest
	err := r.DB.GetContext(ctx, &req, `SELECT * FROM spare_part_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperrors.NotFoundError{Entity: "part request", ID: id}
		}
		return nil, err
	}
	return &req, nil
}

func (r *PGRepository) Transition(ctx context.Context, req *model.SparePartRequest, from model.RequestStatus) error {
	result, err := r.DB.ExecContext(ctx, `
        UPDATE spare_part_requests
        SET status = $1, approval_level = $2, issued_quantity = $3,
            installed_quantity = $4, returned_quantity = $5,
            issued_cost = $6, notes = $7, updated_at = $8
        WHERE id = $9 AND status = $10
    `, req.Status, req.ApprovalLevel, req.IssuedQuantity,
		req.InstalledQuantity, req.ReturnedQuantity,
		req.IssuedCost, req.Notes, req.UpdatedAt, req.ID, from)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("part request %s left status %s concurrently: %w", req.ID, from, apperrors.ErrInvalidTransition)
	}
	return nil
}

func (r *PGRepository) ListByService(ctx context.Context, serviceRequestID string) ([]model.SparePartRequest, error) {
	var items []model.SparePartRequest
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM spare_part_requests WHERE service_request_id = $1 ORDER BY created_at`,
		serviceRequestID,
	)
	return items, err
}

func (r *PGRepository) ListByTechnician(ctx context.Context, technicianID string) ([]model.SparePartRequest, error) {
	var items []model.SparePartRequest
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM spare_part_requests WHERE technician_id = $1 ORDER BY created_at DESC`,
		technicianID,
	)
	return items, err
}

func (r *PGRepository) CreateInstalledPart(ctx context.Context, part *model.InstalledPart) error {
	query := `
        INSERT INTO installed_parts (
            id, service_request_id, request_id, spare_part_id, technician_id,
            quantity, serial_number, batch_number, unit_cost, unit_price,
            warranty_months, warranty_expiry, notes, installed_at
        )
        VALUES (
            :id, :service_request_id, :request_id, :spare_part_id, :technician_id,
            :quantity, :serial_number, :batch_number, :unit_cost, :unit_price,
            :warranty_months, :warranty_expiry, :notes, :installed_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, part)
	return err
}

func (r *PGRepository) ListInstalledByService(ctx context.Context, serviceRequestID string) ([]model.InstalledPart, error) {
	var items []model.InstalledPart
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM installed_parts WHERE service_request_id = $1 ORDER BY installed_at`,
		serviceRequestID,
	)
	return items, err
}
