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

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.SparePart, error) {
	var p model.SparePart
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM spare_parts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperrors.NotFoundError{Entity: "spare part", ID: id}
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) ListActive(ctx context.Context, page, pageSize int) ([]model.SparePart, int, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM spare_parts WHERE is_active = true`); err != nil {
		return nil, 0, err
	}

	query := `SELECT * FROM spare_parts WHERE is_active = true ORDER BY part_number`
	args := []interface{}{}
	if pageSize > 0 {
		offset := (page - 1) * pageSize
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, pageSize, offset)
	}

	var items []model.SparePart
	err := r.DB.SelectContext(ctx, &items, query, args...)
	return items, count, err
}
