package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is a purchasable dish or drink. Rows are soft-deactivated rather
// than deleted so order history keeps a valid reference.
type MenuItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MenuID      uuid.UUID       `gorm:"column:menu_id;type:uuid;not null;index"`
	Name        string          `gorm:"column:name;type:text;not null"`
	Slug        string          `gorm:"column:slug;type:text;not null;uniqueIndex:uq_menu_items_slug"`
	Description *string         `gorm:"column:description;type:text"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	ImageURL    *string         `gorm:"column:image_url;type:text"`
	IsAvailable bool            `gorm:"column:is_available;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
