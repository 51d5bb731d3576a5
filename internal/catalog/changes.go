package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/cataloguebot/whatsapp-gate/internal/models"
)

// Cursor is a keyset position in the products table ordered by (updated_at, id).
type Cursor struct {
	UpdatedAt time.Time
	ID        uint
}

// Changed returns up to limit products modified after the cursor, oldest
// first, and the cursor of the last row. Soft-deleted rows come back inactive.
func (g *GormSearcher) Changed(ctx context.Context, after Cursor, limit int) ([]Item, Cursor, error) {
	var rows []models.Product
	err := g.db.WithContext(ctx).Unscoped().
		Where("updated_at > ? OR (updated_at = ? AND id > ?)", after.UpdatedAt, after.UpdatedAt, after.ID).
		Order("updated_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, after, fmt.Errorf("%w: changed products: %v", ErrSearchFailed, err)
	}

	items := make([]Item, 0, len(rows))
	next := after
	for _, p := range rows {
		item := itemFromModel(p)
		if p.DeletedAt.Valid {
			item.Active = false
		}
		items = append(items, item)
		next = Cursor{UpdatedAt: p.UpdatedAt, ID: p.ID}
	}
	return items, next, nil
}

func itemFromModel(p models.Product) Item {
	return Item{
		SKU:    p.SKU,
		Name:   p.Name,
		Brand:  p.Brand,
		Model:  p.ModelName,
		Price:  p.Price,
		Stock:  p.Stock,
		Active: p.Active,
	}
}
