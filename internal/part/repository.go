package part

import (
	"context"

	"github.com/fieldserve/parts-service/internal/model"
)

// Repository is the read side of the spare-part catalog. The engine snapshots
// prices from here; catalog writes happen in another service.
type Repository interface {
	GetByID(ctx context.Context, id string) (*model.SparePart, error)
	ListActive(ctx context.Context, page, pageSize int) ([]model.SparePart, int, error)
}
