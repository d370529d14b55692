package models

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant is the top-level catalog scope. Every menu hangs off one.
type Restaurant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	Address   *string   `gorm:"column:address;type:text"`
	Phone     *string   `gorm:"column:phone;type:text"`
	Email     *string   `gorm:"column:email;type:text"`
	ImageURL  *string   `gorm:"column:image_url;type:text"`
	OpensAt   *string   `gorm:"column:opens_at;type:text"`
	ClosesAt  *string   `gorm:"column:closes_at;type:text"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	Menus     []Menu    `gorm:"foreignKey:RestaurantID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
