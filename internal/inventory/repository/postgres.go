package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/inventory/dto"
	"github.com/fieldserve/parts-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetLevel(ctx context.Context, partID, storeID string) (*model.InventoryLevel, error) {
	var level model.InventoryLevel
	err := r.DB.GetContext(ctx, &level,
		`SELECT * FROM inventory_levels WHERE spare_part_id = $1 AND store_id = $2`,
		partID, storeID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // caller creates the zero level
		}
		return nil, err
	}
	return &level, nil
}

func (r *PGRepository) CreateLevel(ctx context.Context, level *model.InventoryLevel) error {
	query := `
        INSERT INTO inventory_levels (
            id, spare_part_id, store_id, current_stock, reserved_stock,
            damaged_stock, version, updated_at
        )
        VALUES (
            :id, :spare_part_id, :store_id, :current_stock, :reserved_stock,
            :damaged_stock, :version, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, level)
	return err
}

func (r *PGRepository) CommitLevel(ctx context.Context, level *model.InventoryLevel, prevVersion int) error {
	res, err := r.DB.ExecContext(ctx, `
        UPDATE inventory_levels
        SET current_stock = $1, reserved_stock = $2, damaged_stock = $3,
            version = $4, updated_at = $5
        WHERE id = $6 AND version = $7`,
		level.CurrentStock, level.ReservedStock, level.DamagedStock,
		level.Version, level.UpdatedAt, level.ID, prevVersion,
	)
	if err != nil {
		return err
	}
	return checkVersionGuard(res, level)
}

func (r *PGRepository) CommitMovement(ctx context.Context, level *model.InventoryLevel, prevVersion int, movement *model.StockMovement) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE inventory_levels
        SET current_stock = $1, reserved_stock = $2, damaged_stock = $3,
            version = $4, updated_at = $5
        WHERE id = $6 AND version = $7`,
		level.CurrentStock, level.ReservedStock, level.DamagedStock,
		level.Version, level.UpdatedAt, level.ID, prevVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory level: %w", err)
	}
	if err := checkVersionGuard(res, level); err != nil {
		return err
	}

	insertQuery := `
        INSERT INTO stock_movements (
            id, level_id, spare_part_id, store_id, movement_type, quantity,
            previous_stock, new_stock, reference_type, reference_id, notes,
            created_by, created_at
        )
        VALUES (
            :id, :level_id, :spare_part_id, :store_id, :movement_type, :quantity,
            :previous_stock, :new_stock, :reference_type, :reference_id, :notes,
            :created_by, :created_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, insertQuery, movement); err != nil {
		return fmt.Errorf("failed to log movement: %w", err)
	}

	return tx.Commit()
}

func checkVersionGuard(res sql.Result, level *model.InventoryLevel) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &apperrors.StaleStateError{Key: level.Key(), Attempts: 1}
	}
	return nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.SparePartID != "" {
		conditions = append(conditions, "spare_part_id = :spare_part_id")
		args["spare_part_id"] = f.SparePartID
	}
	if f.StoreID != "" {
		conditions = append(conditions, "store_id = :store_id")
		args["store_id"] = f.StoreID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*) FROM stock_movements"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var items []model.StockMovement
	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) ListLevels(ctx context.Context, f *dto.LevelFilters) ([]model.InventoryLevel, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.SparePartID != "" {
		conditions = append(conditions, "l.spare_part_id = :spare_part_id")
		args["spare_part_id"] = f.SparePartID
	}
	if f.StoreID != "" {
		conditions = append(conditions, "l.store_id = :store_id")
		args["store_id"] = f.StoreID
	}
	if f.LowStock {
		conditions = append(conditions, `(l.current_stock - l.reserved_stock) <= p.reorder_level AND p.reorder_level > 0`)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	base := ` FROM inventory_levels l JOIN spare_parts p ON p.id = l.spare_part_id` + whereClause

	var count int
	rows, err := r.DB.NamedQueryContext(ctx, "SELECT count(*)"+base, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT l.*" + base + " ORDER BY l.updated_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	var items []model.InventoryLevel
	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) SumMovements(ctx context.Context, partID, storeID string) (int, error) {
	var total int
	err := r.DB.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(quantity), 0) FROM stock_movements WHERE spare_part_id = $1 AND store_id = $2`,
		partID, storeID,
	)
	return total, err
}
