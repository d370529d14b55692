package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rkfood/rkfood-backend/pkg/enums"
)

// Feedback is a site feedback submission tied to its author. Entries are
// deduplicated on the full (user, email, rating, body) tuple, so
// resubmitting the same form is a no-op.
type Feedback struct {
	ID        uuid.UUID    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID    `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_feedback_tuple"`
	Email     string       `gorm:"column:email;type:text;not null;uniqueIndex:uq_feedback_tuple"`
	Rating    enums.Rating `gorm:"column:rating;not null;uniqueIndex:uq_feedback_tuple"`
	Body      string       `gorm:"column:body;type:text;not null;uniqueIndex:uq_feedback_tuple"`
	CreatedAt time.Time    `gorm:"column:created_at;autoCreateTime"`
}
