package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cataloguebot/whatsapp-gate/internal/models"
)

// GormSearcher is the keyword engine over the products table.
type GormSearcher struct {
	db *gorm.DB
}

// NewGormSearcher creates a keyword searcher backed by db.
func NewGormSearcher(db *gorm.DB) *GormSearcher {
	return &GormSearcher{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns products where every keyword matches name, SKU, brand or model.
func (g *GormSearcher) Search(ctx context.Context, q Query) (Result, error) {
	keywords := terms(q.Text)
	if len(keywords) == 0 {
		return Result{}, nil
	}

	tx := g.db.WithContext(ctx).Model(&models.Product{})
	if q.ActiveOnly {
		tx = tx.Where("active = ?", true)
	}
	for _, kw := range keywords {
		like := "%" + likeEscaper.Replace(kw) + "%"
		tx = tx.Where("(name ILIKE ? OR sku ILIKE ? OR brand ILIKE ? OR model ILIKE ?)", like, like, like, like)
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return Result{}, fmt.Errorf("%w: count products: %v", ErrSearchFailed, err)
	}
	if total == 0 {
		return Result{}, nil
	}

	var rows []models.Product
	if err := tx.Order("name ASC").Limit(q.size()).Find(&rows).Error; err != nil {
		return Result{}, fmt.Errorf("%w: find products: %v", ErrSearchFailed, err)
	}

	items := make([]Item, 0, len(rows))
	for _, p := range rows {
		items = append(items, itemFromModel(p))
	}
	return Result{Total: int(total), Items: items}, nil
}

// Ping checks that the database is reachable.
func (g *GormSearcher) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
