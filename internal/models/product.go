package models

import "gorm.io/gorm"

// Product is a catalog item the bot can report availability for.
// Rows are maintained by the back office; the bot only reads them.
type Product struct {
	gorm.Model
	SKU       string  `json:"sku" gorm:"uniqueIndex;not null"`
	Name      string  `json:"name" gorm:"index;not null"`
	Brand     string  `json:"brand" gorm:"index"`
	ModelName string  `json:"model" gorm:"column:model"` // gorm.Model already owns the Model field name
	Price     float64 `json:"price"`
	Stock     int     `json:"stock"`
	Active    bool    `json:"active" gorm:"index;not null"`
}
