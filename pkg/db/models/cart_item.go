package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one line in a user's open cart. The unit price is snapshotted
// at add time so later catalog edits do not reprice the line. A user holds at
// most one line per menu item.
type CartItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_cart_items_user_item"`
	MenuItemID uuid.UUID       `gorm:"column:menu_item_id;type:uuid;not null;uniqueIndex:uq_cart_items_user_item"`
	ItemName   string          `gorm:"column:item_name;type:text;not null"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity   int             `gorm:"column:quantity;not null;default:1"`
	MenuItem   *MenuItem       `gorm:"foreignKey:MenuItemID"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// LineSubtotal is the quantity-extended snapshot price.
func (c CartItem) LineSubtotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
