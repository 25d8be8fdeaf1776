package repository

import (
	"context"
	"database/sql"
	"errors"

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

func (r *PGRepository) AppendHistory(ctx context.Context, h *model.ApprovalHistory) error {
	query := `
        INSERT INTO approval_history (
            id, request_id, level, approver_id, approver_rank, decision,
            comments, request_value, available_stock, created_at
        )
        VALUES (
            :id, :request_id, :level, :approver_id, :approver_rank, :decision,
            :comments, :request_value, :available_stock, :created_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, h)
	return err
}

func (r *PGRepository) ListHistoryByRequest(ctx context.Context, requestID string) ([]model.ApprovalHistory, error) {
	var items []model.ApprovalHistory
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM approval_history WHERE request_id = $1 ORDER BY created_at ASC`,
		requestID,
	)
	return items, err
}

func (r *PGRepository) CreateAssignment(ctx context.Context, a *model.RoleAssignment) error {
	query := `
        INSERT INTO role_assignments (
            id, role, holder_id, rank, protected, granted_by, created_at, updated_at
        )
        VALUES (
            :id, :role, :holder_id, :rank, :protected, :granted_by, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, a)
	return err
}

func (r *PGRepository) GetAssignment(ctx context.Context, id string) (*model.RoleAssignment, error) {
	var a model.RoleAssignment
	err := r.DB.GetContext(ctx, &a, `SELECT * FROM role_assignments WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperrors.NotFoundError{Entity: "role assignment", ID: id}
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGRepository) DeleteAssignment(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM role_assignments WHERE id = $1`, id)
	return err
}

func (r *PGRepository) ListAssignments(ctx context.Context, role string) ([]model.RoleAssignment, error) {
	var items []model.RoleAssignment
	if role == "" {
		err := r.DB.SelectContext(ctx, &items, `SELECT * FROM role_assignments ORDER BY created_at ASC`)
		return items, err
	}
	err := r.DB.SelectContext(ctx, &items,
		`SELECT * FROM role_assignments WHERE role = $1 ORDER BY created_at ASC`, role)
	return items, err
}
