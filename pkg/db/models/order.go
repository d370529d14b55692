package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rkfood/rkfood-backend/pkg/enums"
)

// Order is the checkout result for one user. Payment and delivery state
// advance through the enums in pkg/enums; terminal orders never move again.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	OrderNumber    int64                `gorm:"column:order_number;not null;uniqueIndex;default:nextval('order_number_seq')"`
	Status         enums.OrderStatus    `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentMethod  *enums.PaymentMethod `gorm:"column:payment_method;type:payment_method"`
	PaymentStatus  bool                 `gorm:"column:payment_status;not null;default:false"`
	DeliveryStatus enums.DeliveryStatus `gorm:"column:delivery_status;type:delivery_status;not null;default:'received'"`
	Total          decimal.Decimal      `gorm:"column:total;type:numeric(10,2);not null"`
	Items          []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PlacedAt       time.Time            `gorm:"column:placed_at;not null"`
	CompletedAt    *time.Time           `gorm:"column:completed_at"`
	CanceledAt     *time.Time           `gorm:"column:canceled_at"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
