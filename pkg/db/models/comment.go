package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rkfood/rkfood-backend/pkg/enums"
)

// Comment is a per-item review. One row per (user, menu item).
type Comment struct {
	ID         uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_comments_user_item"`
	MenuItemID uuid.UUID    `gorm:"column:menu_item_id;type:uuid;not null;uniqueIndex:uq_comments_user_item"`
	Rating     enums.Rating `gorm:"column:rating;not null"`
	Body       string       `gorm:"column:body;type:text;not null"`
	CreatedAt  time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}
