package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rkfood/rkfood-backend/pkg/enums"
)

// Menu groups items under a meal slot (breakfast, lunch, dinner, beverages)
// for one restaurant. The slot is unique per restaurant.
type Menu struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID uuid.UUID       `gorm:"column:restaurant_id;type:uuid;not null;uniqueIndex:uq_menus_restaurant_title"`
	Title        enums.MenuTitle `gorm:"column:title;type:menu_title;not null;uniqueIndex:uq_menus_restaurant_title"`
	Items        []MenuItem      `gorm:"foreignKey:MenuID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
